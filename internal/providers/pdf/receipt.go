package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/possettle/internal/invoice/render"
	reconciledomain "github.com/smallbiznis/possettle/internal/reconcile/domain"
)

// ReceiptData holds preformatted receipt fields.
type ReceiptData struct {
	InvoiceNumber string
	Date          string
	Time          string
	TableLabel    string
	OrderID       string
	CustomerName  string
	CustomerID    string

	Items    []ReceiptItem
	Payments []ReceiptPayment

	Subtotal string
	Tax      string
	Total    string
	Paid     string
	Change   string
	Method   string
}

type ReceiptItem struct {
	Description string
	Qty         int64
	UnitPrice   string
	Amount      string
}

type ReceiptPayment struct {
	Method    string
	Reference string
	Amount    string
}

// FromSettlement formats a committed settlement for printing.
func FromSettlement(s reconciledomain.Settlement, currency string) ReceiptData {
	money := func(v int64) string { return currency + render.FormatAmount(v) }

	inv := s.Invoice
	data := ReceiptData{
		InvoiceNumber: s.InvoiceNumber,
		Date:          inv.Date,
		Time:          inv.Time,
		TableLabel:    inv.TableLabel,
		CustomerName:  inv.PayerName,
		CustomerID:    inv.PayerID,
		Subtotal:      money(inv.Subtotal),
		Tax:           money(inv.Tax),
		Total:         money(inv.Total),
		Paid:          money(s.Paid),
		Change:        money(s.Change),
		Method:        inv.Method,
	}
	if data.InvoiceNumber == "" {
		data.InvoiceNumber = fmt.Sprintf("%d", inv.ID)
	}
	if inv.OrderID > 0 {
		data.OrderID = fmt.Sprintf("%d", inv.OrderID)
	}
	for _, line := range s.Lines {
		data.Items = append(data.Items, ReceiptItem{
			Description: line.Name,
			Qty:         line.Quantity,
			UnitPrice:   money(line.UnitPrice),
			Amount:      money(line.Total),
		})
	}
	for _, p := range s.Payments {
		data.Payments = append(data.Payments, ReceiptPayment{
			Method:    p.Method,
			Reference: p.Reference,
			Amount:    money(p.Amount),
		})
	}
	return data
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateReceipt(ctx context.Context, receipt ReceiptData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Página {current} de {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(8, "Factura "+receipt.InvoiceNumber, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, receipt.Date+" "+receipt.Time, props.Text{
			Size:  10,
			Align: align.Right,
			Top:   4,
		}),
	)

	origin := receipt.TableLabel
	if receipt.OrderID != "" {
		origin += "  ·  Pedido " + receipt.OrderID
	}
	m.AddRow(20,
		col.New(6).Add(
			text.New("Cliente", props.Text{Style: fontstyle.Bold}),
			text.New(receipt.CustomerName, props.Text{Top: 5}),
			text.New(receipt.CustomerID, props.Text{Top: 9, Size: 8}),
		),
		col.New(6).Add(
			text.New("Mesa", props.Text{Style: fontstyle.Bold, Align: align.Right}),
			text.New(origin, props.Text{Top: 5, Align: align.Right}),
		),
	)

	m.AddRow(10,
		text.NewCol(6, "Producto", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Cant.", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Precio", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, item := range receipt.Items {
		m.AddRow(7,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", item.Qty), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	totals := []struct{ label, value string }{
		{"Subtotal", receipt.Subtotal},
		{"IVA", receipt.Tax},
		{"Total", receipt.Total},
		{"Pagado", receipt.Paid},
		{"Vuelto", receipt.Change},
	}
	for _, row := range totals {
		m.AddRow(7,
			col.New(8),
			text.NewCol(2, row.label, props.Text{Size: 9}),
			text.NewCol(2, row.value, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		text.NewCol(12, "Pagos ("+receipt.Method+")", props.Text{Style: fontstyle.Bold, Size: 10, Top: 3}),
	)
	for _, payment := range receipt.Payments {
		m.AddRow(7,
			text.NewCol(3, payment.Method, props.Text{Size: 9}),
			text.NewCol(6, payment.Reference, props.Text{Size: 9}),
			text.NewCol(3, payment.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
