package service

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/sma-gradebook/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
	"github.com/noah-isme/sma-gradebook/pkg/storage"
)

type exportCounter map[string]int

func (c exportCounter) ObserveExport(kind, format string) { c[kind+"/"+format]++ }

type exportFixture struct {
	*fixture
	files   *storage.LocalStorage
	exports *ExportService
	counts  exportCounter
	class   models.Class
	ana     models.Student
	budi    models.Student
}

func newExportFixture(t *testing.T) *exportFixture {
	t.Helper()
	f := newFixture(t)
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := NewExportService(f.reports, files, storage.NewSignedURLSigner("secret", time.Hour), ExportConfig{APIPrefix: "/api/v1/"}, nil)
	counts := exportCounter{}
	svc.SetObserver(counts)

	class := f.class(t, "7A")
	ana := f.student(t, "Ana", "S1")
	budi := f.student(t, "Budi", "S2")
	f.enroll(t, class.ID, ana, budi)
	quiz := f.activity(t, class.ID, "Quiz")
	f.grade(t, quiz.ID, ana.ID, 8)

	return &exportFixture{fixture: f, files: files, exports: svc, counts: counts, class: class, ana: ana, budi: budi}
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, models.ReportFormatPDF, format)

	format, err = ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, models.ReportFormatXLSX, format)

	_, err = ParseFormat("docx")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClassReportText(t *testing.T) {
	ef := newExportFixture(t)

	text, err := ef.exports.ClassReportText(context.Background(), ef.class.ID)
	require.NoError(t, err)
	assert.Contains(t, text, "S1 - Ana -> Quiz: 8\n")
	assert.Contains(t, text, "S2 - Budi -> No grades\n")
	assert.Contains(t, text, "Mean grade: 8.00")

	empty := ef.fixture.class(t, "Empty")
	text, err = ef.exports.ClassReportText(context.Background(), empty.ID)
	require.NoError(t, err)
	assert.Contains(t, text, "No students enrolled.")
}

func TestExportClassReportCSVAndDownload(t *testing.T) {
	ef := newExportFixture(t)
	ctx := context.Background()

	result, err := ef.exports.ExportClassReport(ctx, ef.class.ID, models.ReportFormatCSV)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.RelativePath, "class_reports/class_1_"))
	assert.True(t, strings.HasSuffix(result.RelativePath, ".csv"))
	assert.Equal(t, "/api/v1/reports/download?token="+result.Token, result.URL)
	assert.Equal(t, 1, ef.counts["class_report/csv"])

	download, err := ef.exports.Download(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", download.ContentType)
	raw, err := io.ReadAll(download.Content)
	require.NoError(t, err)
	require.NoError(t, download.Content.Close())
	assert.Equal(t, int64(len(raw)), download.Size)
	body := string(raw)
	assert.Contains(t, body, "Code,Student,Quiz,Average\n")
	assert.Contains(t, body, "S1,Ana,8,8.00\n")
	assert.Contains(t, body, "S2,Budi,,-\n")

	_, err = ef.exports.Download(ctx, "bogus")
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	require.NoError(t, os.Remove(ef.files.Path(result.RelativePath)))
	_, err = ef.exports.Download(ctx, result.Token)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = ef.exports.ExportClassReport(ctx, 404, models.ReportFormatCSV)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportPDFAndXLSX(t *testing.T) {
	ef := newExportFixture(t)
	ctx := context.Background()

	pdf, err := ef.exports.ExportTranscript(ctx, ef.ana.ID, models.ReportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "transcripts/transcript_S1_1.pdf", pdf.RelativePath)
	data, err := ef.files.Read(pdf.RelativePath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	xlsx, err := ef.exports.ExportClassReport(ctx, ef.class.ID, models.ReportFormatXLSX)
	require.NoError(t, err)
	data, err = ef.files.Read(xlsx.RelativePath)
	require.NoError(t, err)
	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close() //nolint:errcheck
	assert.NotEmpty(t, book.GetSheetName(0))

	_, err = ef.exports.ExportTranscript(ctx, 404, models.ReportFormatPDF)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportAllTranscriptsOverwrites(t *testing.T) {
	ef := newExportFixture(t)
	ctx := context.Background()

	results, err := ef.exports.ExportAllTranscripts(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "transcripts/transcript_S1_1.pdf", results[0].RelativePath)
	assert.Equal(t, "transcripts/transcript_S2_2.pdf", results[1].RelativePath)

	_, err = ef.exports.ExportAllTranscripts(ctx)
	require.NoError(t, err)
	entries, err := os.ReadDir(ef.files.Path("transcripts"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, 4, ef.counts["transcript/pdf"])
}

func TestExportCleanup(t *testing.T) {
	ef := newExportFixture(t)
	ctx := context.Background()
	old, err := ef.exports.ExportTranscript(ctx, ef.ana.ID, models.ReportFormatCSV)
	require.NoError(t, err)
	fresh, err := ef.exports.ExportTranscript(ctx, ef.budi.ID, models.ReportFormatCSV)
	require.NoError(t, err)
	past := time.Now().Add(-10 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(ef.files.Path(old.RelativePath), past, past))

	removed, err := ef.exports.Cleanup(0)
	require.NoError(t, err)
	assert.Equal(t, []string{old.RelativePath}, removed)
	assert.FileExists(t, ef.files.Path(fresh.RelativePath))
}

func TestExportRemovesFileWhenLinkCannotBeSigned(t *testing.T) {
	ef := newExportFixture(t)
	svc := NewExportService(ef.reports, ef.files, storage.NewSignedURLSigner("", time.Hour), ExportConfig{}, nil)

	_, err := svc.ExportTranscript(context.Background(), ef.ana.ID, models.ReportFormatCSV)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)

	entries, err := os.ReadDir(ef.files.Path("transcripts"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "na", sanitizeFilename(""))
	assert.Equal(t, "A-B_C", sanitizeFilename("A/B C"))
}
