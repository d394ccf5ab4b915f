package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/sma-gradebook/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

func rosterWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	book := excelize.NewFile()
	defer book.Close() //nolint:errcheck
	sheet := book.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, book.SetSheetRow(sheet, cell, &row))
	}
	buf, err := book.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestRosterImport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	class := f.class(t, "7A")
	ana := f.student(t, "Ana", "S1")
	budi := f.student(t, "Budi", "S2")
	f.enroll(t, class.ID, budi)
	importer := NewRosterImportService(f.store, nil, nil)

	roster := rosterWorkbook(t, [][]interface{}{
		{"Code", "Name"},
		{"s1", ""},
		{"S2", "Budi"},
		{"S3", "Citra"},
		{"S4", ""},
		{"", "Nobody"},
	})

	result, err := importer.Import(ctx, class.ID, roster)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 2, result.Enrolled)
	assert.Equal(t, 1, result.AlreadyEnrolled)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 5, result.Skipped[0].Row)

	students, err := f.classes.Students(ctx, class.ID)
	require.NoError(t, err)
	require.Len(t, students, 3)
	assert.Equal(t, budi.ID, students[0].ID)
	assert.Equal(t, ana.ID, students[1].ID)
	assert.Equal(t, "Citra", students[2].Name)
}

func TestRosterImportErrors(t *testing.T) {
	f := newFixture(t)
	importer := NewRosterImportService(f.store, nil, nil)

	_, err := importer.Import(context.Background(), 404, rosterWorkbook(t, [][]interface{}{{"Code", "Name"}, {"S1", "Ana"}}))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	class := f.class(t, "7A")
	_, err = importer.Import(context.Background(), class.ID, strings.NewReader("not a workbook"))
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	students, _, err := f.students.List(context.Background(), models.StudentFilter{})
	require.NoError(t, err)
	assert.Empty(t, students)
}
