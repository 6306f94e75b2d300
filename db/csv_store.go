package db

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"mentor-assign-server-go/logging"
	"mentor-assign-server-go/models"
)

const (
	StudentsFile    = "students.csv"
	MentorsFile     = "mentors.csv"
	AssignmentsFile = "assignments.csv"
)

// studentRow mirrors a line of students.csv. Fields stay strings so bad rows
// can be reported instead of failing the whole file.
type studentRow struct {
	RollNo           string `csv:"roll_no"`
	Name             string `csv:"name"`
	Branch           string `csv:"branch"`
	Year             string `csv:"year"`
	Email            string `csv:"email"`
	Phone            string `csv:"phone"`
	AssignedMentorID string `csv:"assigned_mentor_id"`
}

type mentorRow struct {
	FacultyID    string `csv:"faculty_id"`
	Name         string `csv:"name"`
	Department   string `csv:"department"`
	Email        string `csv:"email"`
	Phone        string `csv:"phone"`
	Availability string `csv:"availability"`
	MaxStudents  string `csv:"max_students"`
}

type assignmentRow struct {
	BatchNumber        int    `csv:"batch_number"`
	MentorID           string `csv:"mentor_id"`
	StudentCount       int    `csv:"student_count"`
	StudentRollNumbers string `csv:"student_roll_numbers"` // comma separated
	AssignmentDate     string `csv:"assignment_date"`      // RFC3339
	Notes              string `csv:"notes"`
}

// ImportResult reports what an import did with each row.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"` // duplicates of existing or earlier rows
	Invalid  int      `json:"invalid"`
	Errors   []string `json:"errors,omitempty"`
}

// CSVStore keeps students, mentors and the latest assignments as CSV files in one directory.
type CSVStore struct {
	dir       string
	logger    logging.Logger
	validator *Validator
	mu        sync.RWMutex
}

// NewCSVStore creates the data directory if needed.
func NewCSVStore(dir string, logger logging.Logger) (*CSVStore, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create data dir %s", dir)
	}
	return &CSVStore{dir: dir, logger: logger, validator: NewValidator()}, nil
}

// Dir returns the data directory.
func (s *CSVStore) Dir() string {
	return s.dir
}

// Validator returns the validator the store checks records with.
func (s *CSVStore) Validator() *Validator {
	return s.validator
}

func (s *CSVStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

// --- Students ---

// LoadStudents reads students.csv, skipping and logging invalid rows.
func (s *CSVStore) LoadStudents() ([]models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadStudents()
}

func (s *CSVStore) loadStudents() ([]models.Student, error) {
	var rows []*studentRow
	found, err := s.readFile(StudentsFile, &rows)
	if err != nil || !found {
		return []models.Student{}, err
	}

	students := make([]models.Student, 0, len(rows))
	for i, row := range rows {
		student, err := s.parseStudent(row, i+2) // header is row 1
		if err != nil {
			s.logger.Warn("skipping invalid student row", "file", StudentsFile, "error", err)
			continue
		}
		students = append(students, student)
	}

	s.logger.Debug("loaded students", "count", len(students), "rows", len(rows))
	return students, nil
}

// SaveStudents rewrites students.csv.
func (s *CSVStore) SaveStudents(students []models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveStudents(students)
}

func (s *CSVStore) saveStudents(students []models.Student) error {
	rows := make([]*studentRow, 0, len(students))
	for _, st := range students {
		rows = append(rows, &studentRow{
			RollNo:           strconv.Itoa(st.RollNo),
			Name:             st.Name,
			Branch:           st.Branch,
			Year:             strconv.Itoa(st.Year),
			Email:            st.Email,
			Phone:            st.Phone,
			AssignedMentorID: st.AssignedMentorID,
		})
	}
	if err := s.writeFile(StudentsFile, &rows); err != nil {
		return err
	}
	s.logger.Debug("saved students", "count", len(rows))
	return nil
}

// AddStudent validates and appends a single student.
func (s *CSVStore) AddStudent(student models.Student) error {
	if err := s.validator.Struct(student, 0); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	students, err := s.loadStudents()
	if err != nil {
		return err
	}
	for _, existing := range students {
		if existing.RollNo == student.RollNo {
			return errors.Wrapf(ErrDuplicateStudent, "roll_no %d", student.RollNo)
		}
	}

	return s.saveStudents(append(students, student))
}

// ImportStudentsCSV merges students from an uploaded CSV into the store.
func (s *CSVStore) ImportStudentsCSV(r io.Reader) (ImportResult, error) {
	var rows []*studentRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return ImportResult{}, errors.Wrap(err, "parse students csv")
	}
	return s.importStudentRows(rows, 2)
}

// importStudentRows validates rows (numbered from firstRow) and appends new roll numbers.
func (s *CSVStore) importStudentRows(rows []*studentRow, firstRow int) (ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	students, err := s.loadStudents()
	if err != nil {
		return ImportResult{}, err
	}
	seen := make(map[int]bool, len(students)+len(rows))
	for _, st := range students {
		seen[st.RollNo] = true
	}

	var res ImportResult
	for i, row := range rows {
		student, err := s.parseStudent(row, firstRow+i)
		if err != nil {
			res.Invalid++
			res.Errors = append(res.Errors, err.Error())
			continue
		}
		if seen[student.RollNo] {
			res.Skipped++
			continue
		}
		seen[student.RollNo] = true
		students = append(students, student)
		res.Imported++
	}

	if res.Imported > 0 {
		if err := s.saveStudents(students); err != nil {
			return res, err
		}
	}
	s.logger.Info("imported students", "imported", res.Imported, "skipped", res.Skipped, "invalid", res.Invalid)
	return res, nil
}

func (s *CSVStore) parseStudent(row *studentRow, rowNum int) (models.Student, error) {
	var fields []FieldError
	rollNo, err := parseInt(row.RollNo)
	if err != nil {
		fields = append(fields, FieldError{Field: "roll_no", Error: "roll_no must be a whole number"})
	}
	year, err := parseInt(row.Year)
	if err != nil {
		fields = append(fields, FieldError{Field: "year", Error: "year must be a whole number"})
	}
	if len(fields) > 0 {
		return models.Student{}, &ValidationError{Row: rowNum, Fields: fields}
	}

	student := models.Student{
		RollNo:           rollNo,
		Name:             strings.TrimSpace(row.Name),
		Branch:           strings.TrimSpace(row.Branch),
		Year:             year,
		Email:            strings.TrimSpace(row.Email),
		Phone:            strings.TrimSpace(row.Phone),
		AssignedMentorID: strings.TrimSpace(row.AssignedMentorID),
	}
	if err := s.validator.Struct(student, rowNum); err != nil {
		return models.Student{}, err
	}
	return student, nil
}

// --- Mentors ---

// LoadMentors reads mentors.csv, skipping and logging invalid rows.
// AssignedStudents is left empty, it is derived from the students file.
func (s *CSVStore) LoadMentors() ([]models.Mentor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadMentors()
}

func (s *CSVStore) loadMentors() ([]models.Mentor, error) {
	var rows []*mentorRow
	found, err := s.readFile(MentorsFile, &rows)
	if err != nil || !found {
		return []models.Mentor{}, err
	}

	mentors := make([]models.Mentor, 0, len(rows))
	for i, row := range rows {
		mentor, err := s.parseMentor(row, i+2)
		if err != nil {
			s.logger.Warn("skipping invalid mentor row", "file", MentorsFile, "error", err)
			continue
		}
		mentors = append(mentors, mentor)
	}

	s.logger.Debug("loaded mentors", "count", len(mentors), "rows", len(rows))
	return mentors, nil
}

// SaveMentors rewrites mentors.csv.
func (s *CSVStore) SaveMentors(mentors []models.Mentor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveMentors(mentors)
}

func (s *CSVStore) saveMentors(mentors []models.Mentor) error {
	rows := make([]*mentorRow, 0, len(mentors))
	for _, m := range mentors {
		rows = append(rows, &mentorRow{
			FacultyID:    m.FacultyID,
			Name:         m.Name,
			Department:   m.Department,
			Email:        m.Email,
			Phone:        m.Phone,
			Availability: strconv.FormatBool(m.Availability),
			MaxStudents:  strconv.Itoa(m.MaxStudents),
		})
	}
	if err := s.writeFile(MentorsFile, &rows); err != nil {
		return err
	}
	s.logger.Debug("saved mentors", "count", len(rows))
	return nil
}

// AddMentor validates and appends a single mentor.
func (s *CSVStore) AddMentor(mentor models.Mentor) error {
	if mentor.MaxStudents == 0 {
		mentor.MaxStudents = models.DefaultMaxStudents
	}
	if err := s.validator.Struct(mentor, 0); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mentors, err := s.loadMentors()
	if err != nil {
		return err
	}
	for _, existing := range mentors {
		if existing.FacultyID == mentor.FacultyID {
			return errors.Wrapf(ErrDuplicateMentor, "faculty_id %s", mentor.FacultyID)
		}
	}

	return s.saveMentors(append(mentors, mentor))
}

// ImportMentorsCSV merges mentors from an uploaded CSV into the store.
func (s *CSVStore) ImportMentorsCSV(r io.Reader) (ImportResult, error) {
	var rows []*mentorRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return ImportResult{}, errors.Wrap(err, "parse mentors csv")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mentors, err := s.loadMentors()
	if err != nil {
		return ImportResult{}, err
	}
	seen := make(map[string]bool, len(mentors)+len(rows))
	for _, m := range mentors {
		seen[m.FacultyID] = true
	}

	var res ImportResult
	for i, row := range rows {
		mentor, err := s.parseMentor(row, i+2)
		if err != nil {
			res.Invalid++
			res.Errors = append(res.Errors, err.Error())
			continue
		}
		if seen[mentor.FacultyID] {
			res.Skipped++
			continue
		}
		seen[mentor.FacultyID] = true
		mentors = append(mentors, mentor)
		res.Imported++
	}

	if res.Imported > 0 {
		if err := s.saveMentors(mentors); err != nil {
			return res, err
		}
	}
	s.logger.Info("imported mentors", "imported", res.Imported, "skipped", res.Skipped, "invalid", res.Invalid)
	return res, nil
}

func (s *CSVStore) parseMentor(row *mentorRow, rowNum int) (models.Mentor, error) {
	var fields []FieldError
	available, err := parseBool(row.Availability, true)
	if err != nil {
		fields = append(fields, FieldError{Field: "availability", Error: "availability must be true or false"})
	}
	maxStudents := models.DefaultMaxStudents
	if strings.TrimSpace(row.MaxStudents) != "" {
		if maxStudents, err = parseInt(row.MaxStudents); err != nil {
			fields = append(fields, FieldError{Field: "max_students", Error: "max_students must be a whole number"})
		}
	}
	if len(fields) > 0 {
		return models.Mentor{}, &ValidationError{Row: rowNum, Fields: fields}
	}

	mentor := models.Mentor{
		FacultyID:        strings.TrimSpace(row.FacultyID),
		Name:             strings.TrimSpace(row.Name),
		Department:       strings.TrimSpace(row.Department),
		Email:            strings.TrimSpace(row.Email),
		Phone:            strings.TrimSpace(row.Phone),
		Availability:     available,
		MaxStudents:      maxStudents,
		AssignedStudents: []int{},
	}
	if err := s.validator.Struct(mentor, rowNum); err != nil {
		return models.Mentor{}, err
	}
	return mentor, nil
}

// --- Assignments ---

// LoadAssignments reads the assignments written by the latest run.
func (s *CSVStore) LoadAssignments() ([]models.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []*assignmentRow
	found, err := s.readFile(AssignmentsFile, &rows)
	if err != nil || !found {
		return []models.Assignment{}, err
	}

	assignments := make([]models.Assignment, 0, len(rows))
	for i, row := range rows {
		rolls, err := parseRollList(row.StudentRollNumbers)
		if err != nil {
			s.logger.Warn("skipping invalid assignment row", "row", i+2, "error", err)
			continue
		}
		created, err := time.Parse(time.RFC3339, row.AssignmentDate)
		if err != nil {
			s.logger.Warn("invalid assignment date", "row", i+2, "value", row.AssignmentDate)
		}
		assignments = append(assignments, models.Assignment{
			MentorID:           row.MentorID,
			StudentRollNumbers: rolls,
			BatchNumber:        row.BatchNumber,
			CreatedAt:          created,
			Notes:              row.Notes,
		})
	}
	sort.SliceStable(assignments, func(i, j int) bool {
		return assignments[i].BatchNumber < assignments[j].BatchNumber
	})
	return assignments, nil
}

// SaveAssignments replaces assignments.csv with the given run.
func (s *CSVStore) SaveAssignments(assignments []models.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]*assignmentRow, 0, len(assignments))
	for _, a := range assignments {
		rolls := make([]string, len(a.StudentRollNumbers))
		for i, r := range a.StudentRollNumbers {
			rolls[i] = strconv.Itoa(r)
		}
		rows = append(rows, &assignmentRow{
			BatchNumber:        a.BatchNumber,
			MentorID:           a.MentorID,
			StudentCount:       len(a.StudentRollNumbers),
			StudentRollNumbers: strings.Join(rolls, ","),
			AssignmentDate:     a.CreatedAt.UTC().Format(time.RFC3339),
			Notes:              a.Notes,
		})
	}
	return s.writeFile(AssignmentsFile, &rows)
}

// --- Summary ---

// IsEmpty reports whether neither students nor mentors are stored.
func (s *CSVStore) IsEmpty() (bool, error) {
	students, err := s.LoadStudents()
	if err != nil {
		return false, err
	}
	mentors, err := s.LoadMentors()
	if err != nil {
		return false, err
	}
	return len(students) == 0 && len(mentors) == 0, nil
}

// DataSummary describes the stored data. Capacity counts available mentors only.
func (s *CSVStore) DataSummary() (models.DataSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	students, err := s.loadStudents()
	if err != nil {
		return models.DataSummary{}, err
	}
	mentors, err := s.loadMentors()
	if err != nil {
		return models.DataSummary{}, err
	}

	summary := models.DataSummary{
		TotalStudents:      len(students),
		TotalMentors:       len(mentors),
		StudentsFileExists: fileExists(s.path(StudentsFile)),
		MentorsFileExists:  fileExists(s.path(MentorsFile)),
	}
	for _, st := range students {
		if st.AssignedMentorID != "" {
			summary.AssignedStudents++
		}
	}
	for _, m := range mentors {
		if m.Availability {
			summary.AvailableMentors++
			summary.TotalCapacity += m.MaxStudents
		}
	}
	if summary.TotalCapacity > 0 {
		summary.CapacityUtilization = float64(summary.TotalStudents) / float64(summary.TotalCapacity) * 100
	}
	return summary, nil
}

// --- File helpers ---

// readFile decodes name into out. A missing file is reported through found=false.
func (s *CSVStore) readFile(name string, out interface{}) (bool, error) {
	f, err := os.Open(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("data file not found", "file", name)
			return false, nil
		}
		return false, errors.Wrapf(err, "open %s", name)
	}
	defer f.Close()

	if err := gocsv.UnmarshalFile(f, out); err != nil {
		if errors.Cause(err) == gocsv.ErrEmptyCSVFile {
			return false, nil
		}
		return false, errors.Wrapf(err, "decode %s", name)
	}
	return true, nil
}

// writeFile encodes rows into a temp file and renames it over name.
func (s *CSVStore) writeFile(name string, rows interface{}) error {
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "create temp file for %s", name)
	}
	defer os.Remove(tmp.Name())

	if err := gocsv.MarshalFile(rows, tmp); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "encode %s", name)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", name)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return errors.Wrapf(err, "replace %s", name)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// parseInt accepts "12" and spreadsheet style "12.0".
func parseInt(v string) (int, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int(f)) {
		return 0, errors.Errorf("not a whole number: %q", v)
	}
	return int(f), nil
}

func parseBool(v string, def bool) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return def, nil
	case "true", "1", "yes", "y":
		return true, nil
	case "false", "0", "no", "n":
		return false, nil
	}
	return false, errors.Errorf("not a boolean: %q", v)
}

func parseRollList(v string) ([]int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return []int{}, nil
	}
	parts := strings.Split(v, ",")
	rolls := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, errors.Wrapf(err, "roll number %q", p)
		}
		rolls = append(rolls, n)
	}
	return rolls, nil
}
