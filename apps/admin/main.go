package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/services/logger"
	"github.com/trezcool/shule/storage"
	"github.com/trezcool/shule/storage/database"
	"github.com/trezcool/shule/storage/flatfile"
)

// storage drivers
const (
	driverFlatfile = "flatfile"
	driverSQLite   = "sqlite"
)

var errUnknownDriver = errors.New("unknown storage driver")

// openGateway opens the gateway of `driver` with the configured location.
func openGateway(ctx context.Context, conf *core.Config, driver string, logger core.Logger) (storage.Gateway, error) {
	switch driver {
	case driverFlatfile:
		return flatfile.New(conf.DataDir, logger), nil
	case driverSQLite:
		gw, err := database.Open(ctx, conf.Storage.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return gw, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownDriver, driver)
	}
}

func main() {
	conf := core.Conf
	user.BcryptCost = conf.BcryptCost

	var logger core.Logger = logsvc.NewZeroLogger(os.Stderr, conf.Log.Level, conf.Log.Pretty)
	if conf.RollbarToken != "" {
		logger = logsvc.NewRollbarLogger(logger, conf)
	}

	ctx := context.Background()
	gw, err := openGateway(ctx, conf, conf.Storage.Driver, logger)
	if err != nil {
		logger.Fatal("opening storage", err)
	}

	cli, err := newCommandLine(ctx, conf, gw, logger, os.Stdout)
	if err != nil {
		_ = gw.Close()
		logger.Fatal("loading data", err)
	}
	err = cli.run(os.Args)
	_ = gw.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
