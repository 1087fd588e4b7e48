package main

import (
	"fmt"
	"os"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/possettle/internal/clock"
	"github.com/smallbiznis/possettle/internal/config"
	"github.com/smallbiznis/possettle/internal/console"
	"github.com/smallbiznis/possettle/internal/customer"
	"github.com/smallbiznis/possettle/internal/invoice"
	"github.com/smallbiznis/possettle/internal/observability"
	"github.com/smallbiznis/possettle/internal/order"
	"github.com/smallbiznis/possettle/internal/payment"
	"github.com/smallbiznis/possettle/internal/product"
	"github.com/smallbiznis/possettle/internal/providers"
	"github.com/smallbiznis/possettle/internal/reconcile"
	"github.com/smallbiznis/possettle/internal/tax"
	"github.com/spf13/pflag"
	"go.uber.org/fx"
)

func main() {
	flags := pflag.NewFlagSet("possettle", pflag.ContinueOnError)
	flags.Float64("tax-rate", config.DefaultPosConfig().TaxRate, "IVA rate applied to order subtotals")
	flags.String("receipt-dir", "", "directory for PDF receipts, empty disables printing")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	app := fx.New(
		// Core Infrastructure
		fx.Supply(flags),
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		clock.Module,

		// Functional Domains
		tax.Module,
		product.Module,
		customer.Module,
		order.Module,
		invoice.Module,
		payment.Module,
		reconcile.Module,
		providers.Module,

		console.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.TerminalID)
}
