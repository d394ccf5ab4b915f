package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/repository"
	"github.com/noah-isme/sma-gradebook/pkg/config"
)

func TestOpenStoreFileDriverCreatesDocuments(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Storage: config.StorageConfig{Driver: config.StorageFile, DataDir: dir}}

	store, closeFn, err := OpenStore(context.Background(), cfg, nil, zap.NewNop())
	require.NoError(t, err)
	defer closeFn() //nolint:errcheck

	for _, c := range repository.Collections {
		_, err := os.Stat(filepath.Join(dir, string(c)+".json"))
		assert.NoError(t, err)
	}

	require.NoError(t, store.Mutate(context.Background(), func(tx *repository.Tx) error {
		return tx.CreateClass(&models.Class{Name: "7A"})
	}))
	reopened, _, err := OpenStore(context.Background(), cfg, nil, zap.NewNop())
	require.NoError(t, err)
	reopened.View(func(v *repository.View) {
		assert.Len(t, v.Classes(), 1)
	})
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "floppy"}}
	_, _, err := OpenStore(context.Background(), cfg, nil, zap.NewNop())
	assert.Error(t, err)
}
