package features

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/cucumber/godog"
	"github.com/smallbiznis/possettle/internal/clock"
	"github.com/smallbiznis/possettle/internal/config"
	"github.com/smallbiznis/possettle/internal/customer"
	"github.com/smallbiznis/possettle/internal/invoice"
	invoicedomain "github.com/smallbiznis/possettle/internal/invoice/domain"
	"github.com/smallbiznis/possettle/internal/order"
	"github.com/smallbiznis/possettle/internal/payment"
	paymentdomain "github.com/smallbiznis/possettle/internal/payment/domain"
	"github.com/smallbiznis/possettle/internal/product"
	"github.com/smallbiznis/possettle/internal/reconcile"
	"github.com/smallbiznis/possettle/internal/reconcile/domain"
	"github.com/smallbiznis/possettle/internal/tax"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type settlementContext struct {
	dir string
	app *fx.App

	engine   domain.Service
	invoices invoicedomain.Ledger
	payments paymentdomain.Repository

	snap     domain.Snapshot
	settled  *domain.Settlement
	err      error
	orders   string
	products string
}

func (c *settlementContext) reset() error {
	dir, err := os.MkdirTemp("", "possettle-features-*")
	if err != nil {
		return err
	}
	*c = settlementContext{dir: dir}
	return nil
}

func (c *settlementContext) cleanup() {
	if c.app != nil {
		_ = c.app.Stop(context.Background())
	}
	if c.dir != "" {
		_ = os.RemoveAll(c.dir)
	}
}

// start wires the engine with the same modules the console uses.
func (c *settlementContext) start() error {
	if c.app != nil {
		return nil
	}
	if err := os.WriteFile(filepath.Join(c.dir, "pedidos.txt"), []byte(c.orders), 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(c.dir, "productos.txt"), []byte(c.products), 0o644); err != nil {
		return err
	}

	cfg := config.Config{
		AppName:            "possettle",
		DataDir:            c.dir,
		OrdersFile:         "pedidos.txt",
		CatalogFile:        "productos.txt",
		ClientsFile:        "clientes.txt",
		InvoicesFile:       "facturas.txt",
		PaymentsFile:       "pagos.txt",
		PaymentDetailsFile: "pagos_detalle.txt",
		PaymentDetailAudit: true,
	}

	c.app = fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		fx.Supply(zap.NewNop()),
		fx.Provide(func() *config.PosConfigHolder {
			return config.NewStaticPosConfigHolder(config.DefaultPosConfig())
		}),
		fx.Provide(func() clock.Clock {
			return clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local))
		}),
		fx.Provide(func() (*snowflake.Node, error) { return snowflake.NewNode(1) }),
		tax.Module,
		product.Module,
		customer.Module,
		order.Module,
		invoice.Module,
		payment.Module,
		reconcile.Module,
		fx.Populate(&c.engine, &c.invoices, &c.payments),
	)
	if err := c.app.Err(); err != nil {
		return err
	}
	return c.app.Start(context.Background())
}

func (c *settlementContext) theOrders(doc *godog.DocString) error {
	c.orders = strings.TrimSpace(doc.Content) + "\n"
	return nil
}

func (c *settlementContext) theCatalog(doc *godog.DocString) error {
	c.products = strings.TrimSpace(doc.Content) + "\n"
	return nil
}

func (c *settlementContext) iLoadOrder(raw string) error {
	if err := c.start(); err != nil {
		return err
	}
	c.snap, c.err = c.engine.LoadOrder(context.Background(), raw)
	return c.err
}

func (c *settlementContext) iLoadTable(raw string) error {
	if err := c.start(); err != nil {
		return err
	}
	c.snap, c.err = c.engine.LoadTable(context.Background(), raw)
	return c.err
}

func (c *settlementContext) iSwitchMode(raw string) error {
	mode, ok := domain.ParseMode(raw)
	if !ok {
		return fmt.Errorf("unknown mode %q", raw)
	}
	c.snap = c.engine.SetMode(mode)
	return nil
}

func (c *settlementContext) iSelectLine(n int) error {
	c.snap = c.engine.SelectLine(n-1, true)
	return nil
}

func (c *settlementContext) pay(req domain.PaymentRequest) error {
	c.snap, c.err = c.engine.AddPayment(context.Background(), req)
	return nil
}

func (c *settlementContext) payerPaysBy(payer, method string) error {
	return c.pay(domain.PaymentRequest{Method: method, PayerID: payer})
}

func (c *settlementContext) payerPaysByWithReference(payer, method, ref string) error {
	return c.pay(domain.PaymentRequest{Method: method, Reference: ref, PayerID: payer})
}

func (c *settlementContext) payerPaysAmountBy(payer string, amount int, method string) error {
	return c.pay(domain.PaymentRequest{Method: method, Amount: int64(amount), PayerID: payer})
}

func (c *settlementContext) payerPaysAmountByWithReference(payer string, amount int, method, ref string) error {
	return c.pay(domain.PaymentRequest{Method: method, Amount: int64(amount), Reference: ref, PayerID: payer})
}

func (c *settlementContext) iRemovePayment(n int) error {
	c.snap, c.err = c.engine.RemovePayment(n - 1)
	return nil
}

func (c *settlementContext) iSettle() error {
	settlement, err := c.engine.Settle(context.Background())
	c.err = err
	c.settled = nil
	if err == nil {
		c.settled = &settlement
	}
	c.snap = c.engine.Snapshot()
	return nil
}

func (c *settlementContext) theOperationSucceeds() error {
	if c.err != nil {
		return fmt.Errorf("expected success, got %v", c.err)
	}
	return nil
}

func (c *settlementContext) theOperationFailsWith(reason string) error {
	if c.err == nil {
		return fmt.Errorf("expected %s, got success", reason)
	}
	if !strings.HasPrefix(c.err.Error(), reason) {
		return fmt.Errorf("expected %s, got %v", reason, c.err)
	}
	return nil
}

func (c *settlementContext) theOperationFailsWithAmount(reason string, amount int) error {
	if err := c.theOperationFailsWith(reason); err != nil {
		return err
	}
	got, ok := domain.AmountOf(c.err)
	if !ok || got != int64(amount) {
		return fmt.Errorf("expected amount %d, got %d", amount, got)
	}
	return nil
}

func (c *settlementContext) theAmountOwedIs(amount int) error {
	if got := c.engine.AmountOwed(); got != int64(amount) {
		return fmt.Errorf("expected owed %d, got %d", amount, got)
	}
	return nil
}

func (c *settlementContext) theChangeIs(amount int) error {
	if got := c.engine.Change(); got != int64(amount) {
		return fmt.Errorf("expected change %d, got %d", amount, got)
	}
	return nil
}

func (c *settlementContext) theLastPaymentAmountIs(amount int) error {
	if len(c.snap.Payments) == 0 {
		return errors.New("no pending payments")
	}
	if got := c.snap.Payments[len(c.snap.Payments)-1].Amount; got != int64(amount) {
		return fmt.Errorf("expected payment %d, got %d", amount, got)
	}
	return nil
}

func (c *settlementContext) theStateIs(state string) error {
	if got := c.engine.Snapshot().State; string(got) != state {
		return fmt.Errorf("expected state %s, got %s", state, got)
	}
	return nil
}

func (c *settlementContext) invoiceIsCommitted(id, total int, method string) error {
	inv, err := c.invoices.FindByID(context.Background(), int64(id))
	if err != nil {
		return err
	}
	if inv == nil {
		return fmt.Errorf("invoice %d not found", id)
	}
	if inv.Total != int64(total) || inv.Method != method {
		return fmt.Errorf("invoice %d: total=%d method=%s", id, inv.Total, inv.Method)
	}
	return nil
}

func (c *settlementContext) invoiceHasPaymentRows(id, rows int) error {
	records, err := c.payments.FindByInvoiceID(context.Background(), int64(id))
	if err != nil {
		return err
	}
	if len(records) != rows {
		return fmt.Errorf("invoice %d: expected %d payment rows, got %d", id, rows, len(records))
	}
	return nil
}

func (c *settlementContext) thereAreInvoices(n int) error {
	all, err := c.invoices.List(context.Background())
	if err != nil {
		return err
	}
	if len(all) != n {
		return fmt.Errorf("expected %d invoices, got %d", n, len(all))
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	sc := &settlementContext{}

	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, sc.reset()
	})
	ctx.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		sc.cleanup()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the orders:$`, sc.theOrders)
	ctx.Step(`^the catalog:$`, sc.theCatalog)
	ctx.Step(`^I load order "([^"]*)"$`, sc.iLoadOrder)
	ctx.Step(`^I load table "([^"]*)"$`, sc.iLoadTable)
	ctx.Step(`^I switch to (full|per-item) mode$`, sc.iSwitchMode)

	// When steps
	ctx.Step(`^I select line (\d+)$`, sc.iSelectLine)
	ctx.Step(`^payer "([^"]*)" pays by (\w+)$`, sc.payerPaysBy)
	ctx.Step(`^payer "([^"]*)" pays by (\w+) with reference "([^"]*)"$`, sc.payerPaysByWithReference)
	ctx.Step(`^payer "([^"]*)" pays (\d+) by (\w+)$`, sc.payerPaysAmountBy)
	ctx.Step(`^payer "([^"]*)" pays (\d+) by (\w+) with reference "([^"]*)"$`, sc.payerPaysAmountByWithReference)
	ctx.Step(`^I remove payment (\d+)$`, sc.iRemovePayment)
	ctx.Step(`^I settle$`, sc.iSettle)

	// Then steps
	ctx.Step(`^the operation succeeds$`, sc.theOperationSucceeds)
	ctx.Step(`^the operation fails with "([^"]*)"$`, sc.theOperationFailsWith)
	ctx.Step(`^the operation fails with "([^"]*)" and amount (\d+)$`, sc.theOperationFailsWithAmount)
	ctx.Step(`^the amount owed is (\d+)$`, sc.theAmountOwedIs)
	ctx.Step(`^the change is (\d+)$`, sc.theChangeIs)
	ctx.Step(`^the last payment amount is (\d+)$`, sc.theLastPaymentAmountIs)
	ctx.Step(`^the state is "([^"]*)"$`, sc.theStateIs)
	ctx.Step(`^invoice (\d+) is committed with total (\d+) and method "([^"]*)"$`, sc.invoiceIsCommitted)
	ctx.Step(`^invoice (\d+) has (\d+) payment rows?$`, sc.invoiceHasPaymentRows)
	ctx.Step(`^there (?:is|are) (\d+) invoices?$`, sc.thereAreInvoices)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"settlement.feature"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
