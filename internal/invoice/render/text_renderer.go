package render

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/possettle/internal/invoice/domain"
)

const invoiceTextTemplate = `{{.Number}}  {{.Invoice.Date}} {{.Invoice.Time}}
Cliente: {{.Invoice.PayerName}} ({{.Invoice.PayerID}})
Mesa:    {{.Invoice.TableLabel}}{{if .Invoice.OrderID}}  Pedido: {{.Invoice.OrderID}}{{end}}
{{- range .Lines}}
  {{printf "%-24s" .Name}} {{printf "%3d" .Quantity}} x {{money .UnitPrice}} = {{money .Total}}
{{- end}}
Subtotal: {{money .Invoice.Subtotal}}
IVA:      {{money .Invoice.Tax}}
Total:    {{money .Invoice.Total}}
Pago:     {{.Invoice.Method}}
{{- range .Payments}}
  {{printf "%-6s" .Method}} {{money .Amount}}{{if .Reference}} ref {{.Reference}}{{end}}
{{- end}}
{{- if .Change}}
Vuelto:   {{money .Change}}
{{- end}}
`

// Line is one settled product shown on a printed invoice.
type Line struct {
	Name      string
	Quantity  int64
	UnitPrice int64
	Total     int64
}

// Payment is one payment row shown on a printed invoice.
type Payment struct {
	Method    string
	Amount    int64
	Reference string
}

type Document struct {
	Number   string
	Invoice  invoicedomain.Invoice
	Lines    []Line
	Payments []Payment
	Change   int64
}

type Renderer struct {
	currency string
	tmpl     *template.Template
}

func NewRenderer(currency string) (*Renderer, error) {
	r := &Renderer{currency: currency}
	tmpl, err := template.New("invoice").Funcs(template.FuncMap{"money": r.Money}).Parse(invoiceTextTemplate)
	if err != nil {
		return nil, err
	}
	r.tmpl = tmpl
	return r, nil
}

func (r *Renderer) Render(doc Document) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("render invoice %s: %w", doc.Number, err)
	}
	return buf.String(), nil
}

// Money formats an amount of whole currency units with thousands grouping,
// e.g. ₡1,130.
func (r *Renderer) Money(amount int64) string {
	return r.currency + FormatAmount(amount)
}

func FormatAmount(amount int64) string {
	s := decimal.NewFromInt(amount).StringFixed(0)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
