package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/repository"
)

// RosterImportService enrolls students listed in an XLSX roster. Column A
// holds the registration code and column B the name; the first row is a header.
type RosterImportService struct {
	store     recordStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRosterImportService constructs the roster importer.
func NewRosterImportService(store recordStore, validate *validator.Validate, logger *zap.Logger) *RosterImportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterImportService{store: store, validator: validate, logger: logger}
}

type rosterRow struct {
	line int
	code string
	name string
}

// Import reads the first sheet and, in one mutation, creates unknown students
// and enrolls every listed student in the class.
func (s *RosterImportService) Import(ctx context.Context, classID int, r io.Reader) (*models.RosterImportResult, error) {
	rows, err := readRoster(r)
	if err != nil {
		return nil, invalid(err, "unreadable roster spreadsheet")
	}

	result := &models.RosterImportResult{ClassID: classID, Skipped: make([]models.RosterIssue, 0)}
	err = s.store.Mutate(ctx, func(tx *repository.Tx) error {
		class, err := tx.Class(classID)
		if err != nil {
			return translate(err, "class")
		}
		changed := false
		for _, row := range rows {
			student, err := tx.StudentByCode(row.code)
			if err != nil {
				if row.name == "" {
					result.Skipped = append(result.Skipped, models.RosterIssue{Row: row.line, Reason: "unknown registration code and no name"})
					continue
				}
				student = models.Student{Name: row.name, RegistrationCode: row.code}
				if err := s.validator.Struct(student); err != nil {
					result.Skipped = append(result.Skipped, models.RosterIssue{Row: row.line, Reason: "invalid student fields"})
					continue
				}
				if err := tx.CreateStudent(&student); err != nil {
					return err
				}
				result.Created++
			}
			if class.HasStudent(student.ID) {
				result.AlreadyEnrolled++
				continue
			}
			class.StudentIDs = append(class.StudentIDs, student.ID)
			result.Enrolled++
			changed = true
		}
		if !changed {
			return nil
		}
		return tx.UpdateClass(class)
	})
	if err != nil {
		return nil, translate(err, "roster")
	}
	s.logger.Info("roster imported",
		zap.Int("class_id", classID),
		zap.Int("created", result.Created),
		zap.Int("enrolled", result.Enrolled),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

func readRoster(r io.Reader) ([]rosterRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close() //nolint:errcheck

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows of %s: %w", sheet, err)
	}
	rows := make([]rosterRow, 0, len(raw))
	for i, cells := range raw {
		if i == 0 {
			continue
		}
		row := rosterRow{line: i + 1}
		if len(cells) > 0 {
			row.code = strings.TrimSpace(cells[0])
		}
		if len(cells) > 1 {
			row.name = strings.TrimSpace(cells[1])
		}
		if row.code == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}
