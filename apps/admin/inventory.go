package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/trezcool/shule/core/shop"
)

// inventory prints the demo catalogue with its stock alerts.
func (cli *commandLine) inventory(threshold int) error {
	reg := shop.NewRegistry()
	for _, p := range shop.SampleProducts() {
		reg.AddProduct(p)
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK\tWAREHOUSE")
	for _, p := range reg.AllProducts() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%d\t%s\n", p.ID, p.Name, p.Category, p.Price, p.Stock, p.Warehouse)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Inventory value: %.2f\n", reg.InventoryValue())
	for _, p := range reg.LowStockProducts(threshold) {
		fmt.Fprintf(cli.out, "Low stock: %s %s (%d left)\n", p.ID, p.Name, p.Stock)
	}
	return nil
}
