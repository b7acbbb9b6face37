package report

import (
	"bytes"
	"path/filepath"
	"reflect"
	"strconv"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/tests"
)

func readRows(t *testing.T, wb *Workbook, sheet string) [][]string {
	t.Helper()
	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer func() { _ = f.Close() }()
	if sheets := f.GetSheetList(); !reflect.DeepEqual(sheets, []string{sheet}) {
		t.Errorf("sheets = %v, want [%s]", sheets, sheet)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("GetRows(%s) error = %v", sheet, err)
	}
	return rows
}

func number(t *testing.T, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		t.Fatalf("cell %q is not a number", s)
	}
	return v
}

func TestFeesWorkbook(t *testing.T) {
	reg, _ := testutil.SchoolFixture(t)
	wb, err := FeesWorkbook(reg.AllStudents())
	if err != nil {
		t.Fatalf("FeesWorkbook() error = %v", err)
	}
	defer func() { _ = wb.Close() }()

	rows := readRows(t, wb, FeesSheet)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if !reflect.DeepEqual(rows[0], feesHeaders) {
		t.Errorf("headers = %v, want %v", rows[0], feesHeaders)
	}
	row := rows[1]
	if got := row[:4]; !reflect.DeepEqual(got, []string{"STU1001", "Amani Juma", "Grade 5", school.StatusActive}) {
		t.Errorf("row[:4] = %v", got)
	}
	tests := []struct {
		name string
		col  int
		want float64
	}{
		{name: "total", col: 4, want: 1500.5},
		{name: "paid", col: 5, want: 700.25},
		{name: "outstanding", col: 6, want: 800.25},
	}
	for _, tc := range tests {
		if got := number(t, row[tc.col]); got != tc.want {
			t.Errorf("%s = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestGradesWorkbook(t *testing.T) {
	reg, _ := testutil.SchoolFixture(t)
	reg.AddGrade(school.NewGrade{StudentID: "STU9999", Subject: "Art", ExamType: "Quiz", Marks: 2, TotalMarks: 3})

	wb, err := GradesWorkbook(reg.AllGrades(), reg.AllStudents())
	if err != nil {
		t.Fatalf("GradesWorkbook() error = %v", err)
	}
	defer func() { _ = wb.Close() }()

	rows := readRows(t, wb, GradesSheet)
	if len(rows) != 4 {
		t.Fatalf("len(rows) = %d, want 4", len(rows))
	}
	if !reflect.DeepEqual(rows[0], gradesHeaders) {
		t.Errorf("headers = %v, want %v", rows[0], gradesHeaders)
	}
	if got := rows[2][:4]; !reflect.DeepEqual(got, []string{"GRD10002", "STU1001", "Amani Juma", "English"}) {
		t.Errorf("rows[2][:4] = %v", got)
	}
	if got := number(t, rows[2][7]); got != 90 {
		t.Errorf("percentage = %v, want 90", got)
	}
	if got, want := rows[2][8], school.LetterFor(90); got != want {
		t.Errorf("letter = %s, want %s", got, want)
	}
	// orphaned grades keep a blank name and a rounded percentage
	if got := rows[3][2]; got != "" {
		t.Errorf("orphan name = %q, want blank", got)
	}
	if got := number(t, rows[3][7]); got != 66.67 {
		t.Errorf("orphan percentage = %v, want 66.67", got)
	}
}

func TestWorkbook_SaveAs(t *testing.T) {
	wb, err := FeesWorkbook(nil)
	if err != nil {
		t.Fatalf("FeesWorkbook() error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "fees.xlsx")
	if err := wb.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(FeesSheet)
	if err != nil || len(rows) != 1 {
		t.Errorf("GetRows() = %v, %v, want only the headers", rows, err)
	}
}
