package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/service"
)

type registrarStub struct {
	got     service.RegisterTeacherRequest
	baseURL string
}

func (r *registrarStub) Register(ctx context.Context, req service.RegisterTeacherRequest) (*models.TeacherProfile, error) {
	r.got = req
	return &models.TeacherProfile{ID: 1, Name: req.Name, RegistrationCode: req.RegistrationCode}, nil
}

type exportsStub struct {
	ttl    time.Duration
	format models.ReportFormat
}

func (e *exportsStub) ClassReportText(ctx context.Context, classID int) (string, error) {
	return "S1 - Ana -> Quiz: 8\n", nil
}

func (e *exportsStub) ExportClassReport(ctx context.Context, classID int, format models.ReportFormat) (*models.ExportResult, error) {
	e.format = format
	return &models.ExportResult{RelativePath: "class_reports/class_1.csv"}, nil
}

func (e *exportsStub) ExportAllTranscripts(ctx context.Context) ([]models.ExportResult, error) {
	return []models.ExportResult{{RelativePath: "transcripts/transcript_S1_1.pdf"}}, nil
}

func (e *exportsStub) Cleanup(ttl time.Duration) ([]string, error) {
	e.ttl = ttl
	return []string{"a.pdf", "b.pdf"}, nil
}

func newCLI() (*commandLine, *bytes.Buffer, *registrarStub, *exportsStub) {
	out := &bytes.Buffer{}
	reg := &registrarStub{}
	exp := &exportsStub{}
	cli := &commandLine{out: out, apiURL: "http://localhost:8080/api/v1", exports: exp}
	cli.registrar = func(baseURL string) teacherRegistrar {
		reg.baseURL = baseURL
		return reg
	}
	return cli, out, reg, exp
}

func TestAddTeacherPromptsForPassword(t *testing.T) {
	cli, out, reg, _ := newCLI()
	readPasswordFunc = func(int) ([]byte, error) { return []byte("s3cret"), nil }

	err := cli.run(context.Background(), []string{"admin", "add-teacher", "-name", "Sri", "-code", "T01"})
	require.NoError(t, err)
	assert.Equal(t, service.RegisterTeacherRequest{Name: "Sri", RegistrationCode: "T01", Password: "s3cret"}, reg.got)
	assert.Contains(t, out.String(), "teacher 1 (T01) created")
	assert.Equal(t, "http://localhost:8080/api/v1", reg.baseURL)

	err = cli.run(context.Background(), []string{"admin", "add-teacher", "-name", "Sri", "-code", "T01", "-api", "http://school.local/api/v1"})
	require.NoError(t, err)
	assert.Equal(t, "http://school.local/api/v1", reg.baseURL)

	readPasswordFunc = func(int) ([]byte, error) { return nil, errors.New("no tty") }
	err = cli.run(context.Background(), []string{"admin", "add-teacher", "-name", "Sri", "-code", "T01"})
	assert.EqualError(t, err, "no tty")

	readPasswordFunc = func(int) ([]byte, error) { return []byte{}, nil }
	err = cli.run(context.Background(), []string{"admin", "add-teacher", "-name", "Sri", "-code", "T01"})
	assert.ErrorIs(t, err, errHelp)
}

func TestReportCommands(t *testing.T) {
	cli, out, _, exp := newCLI()
	ctx := context.Background()

	require.NoError(t, cli.run(ctx, []string{"admin", "class-report", "-class", "1"}))
	assert.Contains(t, out.String(), "S1 - Ana -> Quiz: 8")

	require.NoError(t, cli.run(ctx, []string{"admin", "export-class", "-class", "1", "-format", "csv"}))
	assert.Equal(t, models.ReportFormatCSV, exp.format)

	require.NoError(t, cli.run(ctx, []string{"admin", "transcripts"}))
	assert.Contains(t, out.String(), "transcripts/transcript_S1_1.pdf")

	require.NoError(t, cli.run(ctx, []string{"admin", "cleanup-exports", "-older-than", "48h"}))
	assert.Equal(t, 48*time.Hour, exp.ttl)
	assert.Contains(t, out.String(), "2 file(s) removed")
}

func TestUsage(t *testing.T) {
	cli, out, _, _ := newCLI()
	assert.ErrorIs(t, cli.run(context.Background(), []string{"admin"}), errHelp)
	assert.ErrorIs(t, cli.run(context.Background(), []string{"admin", "bogus"}), errHelp)
	assert.ErrorIs(t, cli.run(context.Background(), []string{"admin", "class-report"}), errHelp)
	assert.Contains(t, out.String(), "Usage:")
}
