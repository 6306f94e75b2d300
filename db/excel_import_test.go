package db

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestImportStudentsFromExcel(t *testing.T) {
	store := newTestStore(t)
	buf := workbook(t, [][]interface{}{
		{"Roll No", "Name", "Branch", "Year", "Email"},
		{1, "Student 01", "CSE", 1, "student01@university.edu"},
		{2, "Student 02", "ECE", 1},
		{2, "Student 02 again", "ECE", 1},
		{"x", "Broken", "ECE", 1},
	})

	res, err := store.ImportStudentsFromExcel(buf)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Invalid)

	students, err := store.LoadStudents()
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "student01@university.edu", students[0].Email)
	assert.Equal(t, "ECE", students[1].Branch)
}

func TestImportStudentsFromExcel_MissingColumn(t *testing.T) {
	store := newTestStore(t)
	buf := workbook(t, [][]interface{}{
		{"roll_no", "name", "year"},
		{1, "Student 01", 1},
	})

	_, err := store.ImportStudentsFromExcel(buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing the branch column")
}

func TestImportStudentsFromExcel_NotAWorkbook(t *testing.T) {
	store := newTestStore(t)
	_, err := store.ImportStudentsFromExcel(bytes.NewBufferString("roll_no,name\n1,A\n"))
	require.Error(t, err)
}
