package main

import (
	"fmt"

	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/services/report"
)

// export kinds
const (
	exportFees   = "fees"
	exportGrades = "grades"
)

// export writes the records visible to the session as a workbook.
func (cli *commandLine) export(sess *user.Session, kind, path string) error {
	var (
		wb   *report.Workbook
		rows int
	)
	switch kind {
	case exportFees:
		students, err := cli.schSvc.FeeAccounts(sess)
		if err != nil {
			return err
		}
		if wb, err = report.FeesWorkbook(students); err != nil {
			return err
		}
		rows = len(students)
	case exportGrades:
		grades, err := cli.schSvc.Grades(sess)
		if err != nil {
			return err
		}
		students, err := cli.schSvc.Students(sess)
		if err != nil {
			return err
		}
		if wb, err = report.GradesWorkbook(grades, students); err != nil {
			return err
		}
		rows = len(grades)
	default:
		return errHelp
	}
	defer func() { _ = wb.Close() }()

	if err := wb.SaveAs(path); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d %s rows written to %s\n", rows, kind, path)
	return nil
}
