package main

import (
	"context"
	"fmt"
)

// migrate copies the loaded state into the gateway of another storage driver.
func (cli *commandLine) migrate(ctx context.Context, driver string) error {
	target, err := openGateway(ctx, cli.conf, driver, cli.log)
	if err != nil {
		return err
	}
	defer func() { _ = target.Close() }()

	if err := target.Save(ctx, cli.reg, cli.users); err != nil {
		return err
	}
	sum := cli.reg.Summary()
	fmt.Fprintf(cli.out, "copied %d students, %d teachers, %d grades, %d attendance records and %d users to %s\n",
		sum.Students, sum.Teachers, sum.Grades, sum.Attendance, cli.users.Len(), driver)
	return nil
}
