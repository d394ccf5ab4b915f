package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerSignAndVerify(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, grant, err := signer.Sign("exp-1", "reports/class_3.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.False(t, grant.ExpiresAt.IsZero())

	got, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "exp-1", got.ID)
	assert.Equal(t, "reports/class_3.pdf", got.Path)
	assert.WithinDuration(t, grant.ExpiresAt, got.ExpiresAt, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	issued := time.Now()
	signer.now = func() time.Time { return issued }
	token, _, err := signer.Sign("exp-1", "reports/class_3.csv")
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = signer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Sign("exp-1", "reports/a.pdf")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[0] = "exp-2"
	_, err = signer.Verify(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrTokenSignature)

	_, err = NewSignedURLSigner("other", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrTokenSignature)

	_, err = signer.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestSignedURLSignerRequiresSecret(t *testing.T) {
	_, _, err := NewSignedURLSigner("", time.Hour).Sign("exp-1", "a.pdf")
	require.Error(t, err)
}
