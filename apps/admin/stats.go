package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

func orNA(v float64, ok bool) string {
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", v)
}

// stats prints the report of a student.
func (cli *commandLine) stats(sess *user.Session, rq school.ReportQuery) error {
	rep, err := cli.schSvc.StudentReport(sess, rq)
	if err != nil {
		return err
	}
	s := rep.Student
	fmt.Fprintf(cli.out, "%s %s (%s, %s)\n", s.ID, s.FullName(), s.GradeLevel, s.Status)
	fmt.Fprintf(cli.out, "GPA %s %s: %s\n", rep.Semester, rep.AcademicYear, orNA(rep.GPA, rep.HasGPA))
	fmt.Fprintf(cli.out, "Overall GPA: %s\n", orNA(rep.OverallGPA, rep.HasOverallGPA))
	fmt.Fprintf(cli.out, "Attendance %s..%s: %s\n", core.FormatDate(rep.From), core.FormatDate(rep.To), orNA(rep.Attendance, rep.HasAttendance))
	if sess.HasPermission(user.ViewFees) {
		fmt.Fprintf(cli.out, "Outstanding fees: %.2f\n", rep.OutstandingFees)
	}
	if len(rep.Grades) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSUBJECT\tEXAM\tMARKS\tLETTER")
	for _, g := range rep.Grades {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f/%.2f\t%s\n", g.ID, g.Subject, g.ExamType, g.Marks, g.TotalMarks, g.Letter())
	}
	return tw.Flush()
}
