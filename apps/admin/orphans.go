package main

import (
	"context"
	"fmt"
	"strings"
)

func (cli *commandLine) orphans(ctx context.Context, cleanup bool) error {
	sess, err := cli.adminSession()
	if err != nil {
		return err
	}
	if cleanup {
		grades, attendance, err := cli.schSvc.CleanupOrphans(sess)
		if err != nil {
			return err
		}
		if err := cli.save(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "removed %d grades and %d attendance records\n", grades, attendance)
		return nil
	}

	grades, attendance, err := cli.schSvc.Orphans(sess)
	if err != nil {
		return err
	}
	if len(grades) == 0 && len(attendance) == 0 {
		fmt.Fprintln(cli.out, "no orphaned records")
		return nil
	}
	fmt.Fprintf(cli.out, "grades of unknown students: %s\n", strings.Join(grades, ", "))
	fmt.Fprintf(cli.out, "attendance of unknown students: %s\n", strings.Join(attendance, ", "))
	return nil
}
