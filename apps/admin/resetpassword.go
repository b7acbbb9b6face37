package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) resetPassword(ctx context.Context, uname, pwd string) error {
	if err := cli.usrSvc.ResetPassword(uname, pwd); err != nil {
		return err
	}
	if err := cli.save(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password of %s reset\n", uname)
	return nil
}
