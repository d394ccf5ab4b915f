package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
	"github.com/noah-isme/sma-gradebook/pkg/export"
	"github.com/noah-isme/sma-gradebook/pkg/storage"
)

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type documentRenderer interface {
	RenderDocument(doc export.Document) ([]byte, error)
}

type exportObserver interface {
	ObserveExport(kind, format string)
}

type reportSource interface {
	ClassReport(ctx context.Context, classID int) (*models.ClassReport, error)
	StudentTranscript(ctx context.Context, studentID int) (*models.StudentTranscript, error)
	Transcripts(ctx context.Context) []models.StudentTranscript
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	Retention time.Duration
}

// Download is a stored export resolved from a signed token. The caller
// closes Content.
type Download struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.ReadCloser
}

// ExportService renders report trees into files, stores them, and hands out
// signed download links.
type ExportService struct {
	reports   reportSource
	storage   fileStorage
	renderers map[models.ReportFormat]documentRenderer
	text      documentRenderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
	observer  exportObserver
	now       func() time.Time
}

// NewExportService constructs an ExportService with the PDF, CSV and XLSX renderers.
func NewExportService(reports reportSource, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	return &ExportService{
		reports: reports,
		storage: files,
		renderers: map[models.ReportFormat]documentRenderer{
			models.ReportFormatPDF:  export.NewPDFExporter(),
			models.ReportFormatCSV:  export.NewCSVExporter(),
			models.ReportFormatXLSX: export.NewXLSXExporter(),
		},
		text:   export.NewTextExporter(),
		signer: signer,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// SetObserver attaches export metrics.
func (s *ExportService) SetObserver(o exportObserver) {
	s.observer = o
}

// ParseFormat validates a requested export format; empty means PDF.
func ParseFormat(raw string) (models.ReportFormat, error) {
	format := models.ReportFormat(strings.ToLower(strings.TrimSpace(raw)))
	if format == "" {
		return models.ReportFormatPDF, nil
	}
	switch format {
	case models.ReportFormatPDF, models.ReportFormatCSV, models.ReportFormatXLSX:
		return format, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", raw))
	}
}

// ClassReportText renders the class report as plain text.
func (s *ExportService) ClassReportText(ctx context.Context, classID int) (string, error) {
	report, err := s.reports.ClassReport(ctx, classID)
	if err != nil {
		return "", err
	}
	out, err := s.text.RenderDocument(ClassReportTextDocument(report))
	if err != nil {
		return "", appErrors.Internal(err, "failed to render class report")
	}
	return string(out), nil
}

// ExportClassReport renders and stores a class report.
func (s *ExportService) ExportClassReport(ctx context.Context, classID int, format models.ReportFormat) (*models.ExportResult, error) {
	report, err := s.reports.ClassReport(ctx, classID)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("class_reports/class_%d_%s.%s", classID, s.now().UTC().Format("20060102_150405"), format)
	return s.store("class_report", ClassReportDocument(report), format, name)
}

// ExportTranscript renders and stores one student's transcript.
func (s *ExportService) ExportTranscript(ctx context.Context, studentID int, format models.ReportFormat) (*models.ExportResult, error) {
	transcript, err := s.reports.StudentTranscript(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return s.store("transcript", TranscriptDocument(transcript), format, transcriptName(transcript.Student, format))
}

// ExportAllTranscripts writes one PDF transcript per student. Later runs
// overwrite earlier files for the same student.
func (s *ExportService) ExportAllTranscripts(ctx context.Context) ([]models.ExportResult, error) {
	transcripts := s.reports.Transcripts(ctx)
	results := make([]models.ExportResult, 0, len(transcripts))
	for i := range transcripts {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		t := &transcripts[i]
		result, err := s.store("transcript", TranscriptDocument(t), models.ReportFormatPDF, transcriptName(t.Student, models.ReportFormatPDF))
		if err != nil {
			return results, err
		}
		results = append(results, *result)
	}
	s.logger.Info("transcripts exported", zap.Int("count", len(results)))
	return results, nil
}

func transcriptName(st models.StudentSummary, format models.ReportFormat) string {
	return fmt.Sprintf("transcripts/transcript_%s_%d.%s", sanitizeFilename(st.RegistrationCode), st.ID, format)
}

func (s *ExportService) store(kind string, doc export.Document, format models.ReportFormat, name string) (*models.ExportResult, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
	payload, err := renderer.RenderDocument(doc)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render report")
	}
	relPath, err := s.storage.Save(name, payload)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to store report")
	}
	token, grant, err := s.signer.Sign(uuid.NewString(), relPath)
	if err != nil {
		if delErr := s.storage.Delete(relPath); delErr != nil {
			s.logger.Warn("failed to remove unsigned report", zap.String("path", relPath), zap.Error(delErr))
		}
		return nil, appErrors.Internal(err, "failed to sign download link")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	if s.observer != nil {
		s.observer.ObserveExport(kind, string(format))
	}
	s.logger.Debug("report stored", zap.String("path", relPath), zap.String("format", string(format)))
	return &models.ExportResult{
		RelativePath: relPath,
		Format:       format,
		Token:        token,
		URL:          fmt.Sprintf("%s/reports/download?token=%s", prefix, token),
		ExpiresAt:    grant.ExpiresAt,
	}, nil
}

// Download resolves a signed token to the stored file.
func (s *ExportService) Download(ctx context.Context, token string) (*Download, error) {
	grant, err := s.signer.Verify(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	file, err := s.storage.Open(grant.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report file no longer available")
		}
		return nil, appErrors.Internal(err, "failed to open report")
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, appErrors.Internal(err, "failed to open report")
	}
	ext := strings.TrimPrefix(path.Ext(grant.Path), ".")
	return &Download{
		Filename:    path.Base(grant.Path),
		ContentType: models.ReportFormat(ext).ContentType(),
		Size:        info.Size(),
		Content:     file,
	}, nil
}

// Cleanup removes stored exports older than ttl, or the configured retention when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.Retention
	}
	removed, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to clean up exports")
	}
	s.logger.Info("exports cleaned up", zap.Int("removed", len(removed)), zap.Duration("ttl", ttl))
	return removed, nil
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
