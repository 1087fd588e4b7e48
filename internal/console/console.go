package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	invoicedomain "github.com/smallbiznis/possettle/internal/invoice/domain"
	"github.com/smallbiznis/possettle/internal/invoice/render"
	"github.com/smallbiznis/possettle/internal/observability/logger"
	orderdomain "github.com/smallbiznis/possettle/internal/order/domain"
	"github.com/smallbiznis/possettle/internal/payment/adapters"
	paymentdomain "github.com/smallbiznis/possettle/internal/payment/domain"
	"github.com/smallbiznis/possettle/internal/providers/pdf"
	reconciledomain "github.com/smallbiznis/possettle/internal/reconcile/domain"
	"github.com/smallbiznis/possettle/pkg/telemetry/correlation"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrQuit = errors.New("quit")

type Params struct {
	fx.In

	Log      *zap.Logger
	Engine   reconciledomain.Service
	Invoices invoicedomain.Service
	Payments paymentdomain.Service
	Renderer *render.Renderer
	Methods  *adapters.Registry `optional:"true"`
	Printer  *pdf.Printer       `optional:"true"`
}

// Console is the cashier's line-oriented front end to the engine. Line and
// payment numbers shown to the operator start at 1.
type Console struct {
	log      *zap.Logger
	engine   reconciledomain.Service
	invoices invoicedomain.Service
	payments paymentdomain.Service
	renderer *render.Renderer
	methods  *adapters.Registry
	printer  *pdf.Printer
}

func New(p Params) *Console {
	return &Console{
		log:      p.Log.Named("console"),
		engine:   p.Engine,
		invoices: p.Invoices,
		payments: p.Payments,
		renderer: p.Renderer,
		methods:  p.Methods,
		printer:  p.Printer,
	}
}

// Run reads commands from in until EOF, "quit" or ctx is done.
func (c *Console) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		cmdCtx, _ := correlation.EnsureCorrelationID(ctx)
		err := c.Exec(cmdCtx, scanner.Text(), out)
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			logger.WithContext(cmdCtx, c.log).Debug("command rejected", zap.String("command", scanner.Text()), zap.Error(err))
			fmt.Fprintf(out, "error: %v\n", err)
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

// Exec runs a single command line.
func (c *Console) Exec(ctx context.Context, line string, out io.Writer) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}

	switch strings.ToLower(args[0]) {
	case "load":
		return c.load(ctx, args[1:], out)
	case "mode":
		if len(args) != 2 {
			return errors.New("usage: mode full|item")
		}
		mode, ok := reconciledomain.ParseMode(args[1])
		if !ok {
			return fmt.Errorf("unknown mode %q", args[1])
		}
		snap := c.engine.SetMode(mode)
		if snap.State != reconciledomain.StateEmpty && snap.Mode != mode {
			fmt.Fprintln(out, "mode unchanged: remove the full payments first")
		}
		c.printSnapshot(out, snap)
	case "select", "unselect":
		index, err := position(args, "line")
		if err != nil {
			return err
		}
		c.printSnapshot(out, c.engine.SelectLine(index, args[0] == "select"))
	case "pay":
		return c.pay(ctx, args[1:], out)
	case "remove":
		index, err := position(args, "payment")
		if err != nil {
			return err
		}
		snap, err := c.engine.RemovePayment(index)
		if err != nil {
			return err
		}
		c.printSnapshot(out, snap)
	case "reset":
		c.printSnapshot(out, c.engine.Reset())
	case "discard":
		c.printSnapshot(out, c.engine.Discard())
	case "status":
		c.printSnapshot(out, c.engine.Snapshot())
	case "settle":
		return c.settle(ctx, out)
	case "invoice":
		return c.showInvoice(ctx, args[1:], out)
	case "help":
		fmt.Fprint(out, usage)
		if methods := c.methods.Methods(); len(methods) > 0 {
			names := make([]string, 0, len(methods))
			for _, m := range methods {
				names = append(names, m.String())
			}
			fmt.Fprintf(out, "methods: %s\n", strings.Join(names, ", "))
		}
	case "quit", "exit":
		return ErrQuit
	default:
		return fmt.Errorf("unknown command %q, try help", args[0])
	}
	return nil
}

const usage = `load order N | load table N
mode full|item
select I | unselect I
pay METHOD [AMOUNT] payer=ID [ref=REF]
remove I | reset | discard | status
settle
invoice N
quit
`

func (c *Console) load(ctx context.Context, args []string, out io.Writer) error {
	if len(args) != 2 {
		return errors.New("usage: load order N | load table N")
	}

	var (
		snap reconciledomain.Snapshot
		err  error
	)
	switch strings.ToLower(args[0]) {
	case "order", "pedido":
		snap, err = c.engine.LoadOrder(ctx, args[1])
	case "table", "mesa":
		snap, err = c.engine.LoadTable(ctx, args[1])
	default:
		return fmt.Errorf("unknown origin %q", args[0])
	}
	if err != nil {
		return err
	}
	c.printSnapshot(out, snap)
	return nil
}

func (c *Console) pay(ctx context.Context, args []string, out io.Writer) error {
	req, err := parsePayment(args)
	if err != nil {
		return err
	}
	snap, err := c.engine.AddPayment(ctx, req)
	if err != nil {
		if amount, ok := reconciledomain.AmountOf(err); ok {
			return fmt.Errorf("%w (%s)", err, c.renderer.Money(amount))
		}
		return err
	}
	c.printSnapshot(out, snap)
	return nil
}

func (c *Console) settle(ctx context.Context, out io.Writer) error {
	settlement, err := c.engine.Settle(ctx)
	if err != nil {
		if amount, ok := reconciledomain.AmountOf(err); ok {
			return fmt.Errorf("%w (%s)", err, c.renderer.Money(amount))
		}
		return err
	}

	text, err := c.renderer.Render(documentFromSettlement(settlement))
	if err != nil {
		return err
	}
	fmt.Fprint(out, text)
	if settlement.Reused {
		fmt.Fprintf(out, "(factura existente %s)\n", settlement.InvoiceNumber)
	}

	if c.printer != nil {
		path, err := c.printer.Print(ctx, settlement)
		if err != nil {
			// the invoice is committed; a missing receipt only needs a reprint
			c.log.Warn("receipt not printed", zap.Int64("invoice_id", settlement.Invoice.ID), zap.Error(err))
			fmt.Fprintf(out, "receipt not printed: %v\n", err)
		} else if path != "" {
			fmt.Fprintf(out, "receipt: %s\n", path)
		}
	}
	return nil
}

func (c *Console) showInvoice(ctx context.Context, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: invoice N")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return invoicedomain.ErrInvalidInvoiceID
	}

	inv, err := c.invoices.Get(ctx, id)
	if err != nil {
		return err
	}
	number, err := c.invoices.Number(inv)
	if err != nil {
		return err
	}
	payments, err := c.payments.ListByInvoice(ctx, id)
	if err != nil {
		return err
	}
	details, err := c.payments.ListDetailsByInvoice(ctx, id)
	if err != nil {
		return err
	}

	doc := render.Document{Number: number, Invoice: inv}
	for _, d := range details {
		doc.Lines = append(doc.Lines, render.Line{Name: d.Product, Quantity: d.Quantity, UnitPrice: d.UnitPrice, Total: d.LineTotal})
	}
	for _, p := range payments {
		doc.Payments = append(doc.Payments, render.Payment{Method: p.Method.String(), Amount: p.Amount, Reference: p.Reference})
	}

	text, err := c.renderer.Render(doc)
	if err != nil {
		return err
	}
	fmt.Fprint(out, text)
	return nil
}

func (c *Console) printSnapshot(out io.Writer, snap reconciledomain.Snapshot) {
	if snap.State == reconciledomain.StateEmpty {
		fmt.Fprintln(out, "no order loaded")
		return
	}

	origin := fmt.Sprintf("pedido %d", snap.OrderID)
	if snap.Origin == orderdomain.OriginTable {
		origin = fmt.Sprintf("mesa %d", snap.TableNumber)
	}
	fmt.Fprintf(out, "%s  %s  [%s, %s]\n", origin, snap.TableLabel, snap.Mode, snap.State)
	if snap.PayerDisplay != "" {
		fmt.Fprintf(out, "cliente: %s\n", snap.PayerDisplay)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, l := range snap.Lines {
		mark := " "
		switch {
		case l.Paid:
			mark = "x"
		case l.Selected:
			mark = "*"
		}
		fmt.Fprintf(tw, "%d\t[%s]\t%s\t%d\t%s\n", l.Index+1, mark, l.Line.Name, l.Line.Quantity, c.renderer.Money(l.Line.Total))
	}
	_ = tw.Flush()

	for _, p := range snap.Payments {
		ref := ""
		if p.Reference != "" {
			ref = " ref " + p.Reference
		}
		fmt.Fprintf(out, "pago %d: %s %s payer %s%s\n", p.Index+1, p.Method, c.renderer.Money(p.Amount), p.PayerID, ref)
	}

	fmt.Fprintf(out, "subtotal %s  iva %s  total %s\n", c.renderer.Money(snap.Subtotal), c.renderer.Money(snap.Tax), c.renderer.Money(snap.Total))
	if snap.Mode == reconciledomain.ModePerItem {
		fmt.Fprintf(out, "seleccionado %s  ", c.renderer.Money(snap.SelectedAmount))
	}
	fmt.Fprintf(out, "pendiente %s  pagado %s  vuelto %s\n", c.renderer.Money(snap.Owed), c.renderer.Money(snap.Paid), c.renderer.Money(snap.Change))
}

// parsePayment reads "METHOD [AMOUNT] payer=ID [ref=REF]".
func parsePayment(args []string) (reconciledomain.PaymentRequest, error) {
	var req reconciledomain.PaymentRequest
	if len(args) == 0 {
		return req, errors.New("usage: pay METHOD [AMOUNT] payer=ID [ref=REF]")
	}
	req.Method = args[0]

	for _, arg := range args[1:] {
		key, value, found := strings.Cut(arg, "=")
		if !found {
			amount, err := parseAmount(arg)
			if err != nil {
				return req, err
			}
			req.Amount = amount
			continue
		}
		switch strings.ToLower(key) {
		case "payer", "cedula":
			req.PayerID = value
		case "ref", "reference":
			req.Reference = value
		default:
			return req, fmt.Errorf("unknown argument %q", key)
		}
	}
	return req, nil
}

func parseAmount(raw string) (int64, error) {
	cleaned := strings.NewReplacer(",", "", "₡", "", "_", "").Replace(raw)
	amount, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", reconciledomain.ErrInvalidAmount, raw)
	}
	return amount, nil
}

func position(args []string, what string) (int, error) {
	if len(args) != 2 {
		return 0, fmt.Errorf("usage: %s N", args[0])
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s number %q", what, args[1])
	}
	return n - 1, nil
}

func documentFromSettlement(s reconciledomain.Settlement) render.Document {
	doc := render.Document{Number: s.InvoiceNumber, Invoice: s.Invoice, Change: s.Change}
	for _, l := range s.Lines {
		doc.Lines = append(doc.Lines, render.Line{Name: l.Name, Quantity: l.Quantity, UnitPrice: l.UnitPrice, Total: l.Total})
	}
	for _, p := range s.Payments {
		doc.Payments = append(doc.Payments, render.Payment{Method: p.Method, Amount: p.Amount, Reference: p.Reference})
	}
	return doc
}
