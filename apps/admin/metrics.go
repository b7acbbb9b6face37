package main

import (
	"fmt"

	"github.com/trezcool/shule/services/metrics"
)

func (cli *commandLine) metrics(path string) error {
	c := metrics.NewCollector()
	c.Observe(cli.reg.Summary())
	if err := c.WriteTextfile(path); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "metrics written to %s\n", path)
	return nil
}
