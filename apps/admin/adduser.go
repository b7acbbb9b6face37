package main

import (
	"context"
	"fmt"

	"github.com/trezcool/shule/core/user"
)

// addUser creates a user.User, replacing any user with the same username
func (cli *commandLine) addUser(ctx context.Context, nu user.NewUser) error {
	if err := nu.Validate(); err != nil {
		return err
	}
	id, err := cli.usrSvc.AddUser(nu)
	if err != nil {
		return err
	}
	if err := cli.save(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "user %s created with id %s\n", nu.Username, id)
	return nil
}
