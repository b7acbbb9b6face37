package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/trezcool/shule/storage/backup"
	"github.com/trezcool/shule/storage/database"
	"github.com/trezcool/shule/storage/flatfile"
)

var backupOptions []func(*s3.Options) // tests point the client to a fake server

// backup saves the current state then uploads the saved files.
func (cli *commandLine) backup(ctx context.Context) error {
	up, err := backup.New(ctx, backup.ConfigFrom(cli.conf), cli.log, backupOptions...)
	if err != nil {
		return err
	}
	if err := cli.save(ctx); err != nil {
		return err
	}

	var keys []string
	switch gw := cli.gw.(type) {
	case *flatfile.Gateway:
		if keys, err = up.UploadDir(ctx, gw.Dir()); err != nil {
			return err
		}
	case *database.Gateway:
		key, err := up.UploadFile(ctx, gw.Path())
		if err != nil {
			return err
		}
		keys = append(keys, key)
	default:
		return fmt.Errorf("%w: %T", errUnknownDriver, cli.gw)
	}
	for _, key := range keys {
		fmt.Fprintf(cli.out, "uploaded %s\n", key)
	}
	return nil
}
