// Package report exports registry records as XLSX workbooks.
package report

import (
	"io"
	"math"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/shule/core/school"
)

// Sheet names
const (
	FeesSheet   = "Fees"
	GradesSheet = "Grades"
)

var (
	feesHeaders   = []string{"Student ID", "Name", "Grade Level", "Status", "Fees Total", "Fees Paid", "Outstanding"}
	gradesHeaders = []string{"Grade ID", "Student ID", "Student", "Subject", "Exam Type", "Marks", "Total Marks", "Percentage", "Letter", "Semester", "Academic Year"}
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type Workbook struct {
	f *excelize.File
}

func newWorkbook(sheet string, headers []string) (*Workbook, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, errors.Wrap(err, "creating sheet")
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, errors.Wrap(err, "deleting default sheet")
	}
	wb := &Workbook{f: f}
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := wb.setRow(sheet, 1, row); err != nil {
		return nil, err
	}
	return wb, nil
}

func (wb *Workbook) setRow(sheet string, row int, values []interface{}) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return errors.Wrap(err, "naming cell")
		}
		if err := wb.f.SetCellValue(sheet, cell, v); err != nil {
			return errors.Wrapf(err, "setting %s", cell)
		}
	}
	return nil
}

// FeesWorkbook lists the fee account of every student.
func FeesWorkbook(students []school.Student) (*Workbook, error) {
	wb, err := newWorkbook(FeesSheet, feesHeaders)
	if err != nil {
		return nil, err
	}
	for i, s := range students {
		row := []interface{}{s.ID, s.FullName(), s.GradeLevel, s.Status, s.FeesTotal, s.FeesPaid, s.OutstandingFees()}
		if err := wb.setRow(FeesSheet, i+2, row); err != nil {
			return nil, err
		}
	}
	return wb, nil
}

// GradesWorkbook lists grades; `students` resolves the student names, missing ones are left blank.
func GradesWorkbook(grades []school.Grade, students []school.Student) (*Workbook, error) {
	names := make(map[string]string, len(students))
	for _, s := range students {
		names[s.ID] = s.FullName()
	}
	wb, err := newWorkbook(GradesSheet, gradesHeaders)
	if err != nil {
		return nil, err
	}
	for i, g := range grades {
		row := []interface{}{
			g.ID, g.StudentID, names[g.StudentID], g.Subject, g.ExamType,
			g.Marks, g.TotalMarks, round2(g.Percentage()), g.Letter(), g.Semester, g.AcademicYear,
		}
		if err := wb.setRow(GradesSheet, i+2, row); err != nil {
			return nil, err
		}
	}
	return wb, nil
}

func (wb *Workbook) Write(w io.Writer) error {
	if err := wb.f.Write(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

func (wb *Workbook) SaveAs(path string) error {
	if err := wb.f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "saving %s", path)
	}
	return nil
}

func (wb *Workbook) Close() error {
	return wb.f.Close()
}
