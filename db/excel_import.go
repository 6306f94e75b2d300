package db

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// header aliases accepted in roster sheets, normalised to lower_snake_case
var studentColumnAliases = map[string]string{
	"roll_no":            "roll_no",
	"roll_number":        "roll_no",
	"rollno":             "roll_no",
	"name":               "name",
	"student_name":       "name",
	"branch":             "branch",
	"year":               "year",
	"email":              "email",
	"phone":              "phone",
	"assigned_mentor_id": "assigned_mentor_id",
}

// ImportStudentsFromExcel reads the first sheet of an xlsx roster and merges its students into the store.
// The first row must be a header naming the columns (roll_no, name, branch, year, email, phone).
func (s *CSVStore) ImportStudentsFromExcel(file io.Reader) (ImportResult, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return ImportResult{}, errors.Wrap(err, "open excel file")
	}
	defer func() {
		// Close the spreadsheet.
		if err := f.Close(); err != nil {
			s.logger.Warn("closing excel file", "error", err)
		}
	}()

	// Assuming data is in the first sheet
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return ImportResult{}, errors.New("excel file does not contain any sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return ImportResult{}, errors.Wrapf(err, "read rows from sheet %s", sheetName)
	}
	if len(rows) == 0 {
		return ImportResult{}, errors.Errorf("sheet %s is empty", sheetName)
	}

	columns := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
		if col, ok := studentColumnAliases[key]; ok {
			columns[col] = i
		}
	}
	for _, required := range []string{"roll_no", "name", "branch", "year"} {
		if _, ok := columns[required]; !ok {
			return ImportResult{}, errors.Errorf("sheet %s is missing the %s column", sheetName, required)
		}
	}

	cell := func(row []string, col string) string {
		idx, ok := columns[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	studentRows := make([]*studentRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		studentRows = append(studentRows, &studentRow{
			RollNo:           cell(row, "roll_no"),
			Name:             cell(row, "name"),
			Branch:           cell(row, "branch"),
			Year:             cell(row, "year"),
			Email:            cell(row, "email"),
			Phone:            cell(row, "phone"),
			AssignedMentorID: cell(row, "assigned_mentor_id"),
		})
	}

	s.logger.Info("importing students from excel", "sheet", sheetName, "rows", len(studentRows))
	return s.importStudentRows(studentRows, 2)
}
