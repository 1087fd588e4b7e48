package pdf

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	posconfig "github.com/smallbiznis/possettle/internal/config"
	reconciledomain "github.com/smallbiznis/possettle/internal/reconcile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type PrinterParams struct {
	fx.In

	Log      *zap.Logger
	Provider Provider
	Pos      *posconfig.PosConfigHolder
}

// Printer saves a PDF receipt for every settlement when a receipt directory
// is configured.
type Printer struct {
	log      *zap.Logger
	provider Provider
	pos      *posconfig.PosConfigHolder
}

func NewPrinter(p PrinterParams) *Printer {
	return &Printer{
		log:      p.Log.Named("pdf.printer"),
		provider: p.Provider,
		pos:      p.Pos,
	}
}

// Print writes the receipt and returns its path, or "" when printing is off.
func (p *Printer) Print(ctx context.Context, s reconciledomain.Settlement) (string, error) {
	cfg := p.pos.Get()
	dir := strings.TrimSpace(cfg.ReceiptDir)
	if dir == "" {
		return "", nil
	}

	data := FromSettlement(s, cfg.CurrencySymbol)
	reader, err := p.provider.GenerateReceipt(ctx, data)
	if err != nil {
		return "", fmt.Errorf("generate receipt %s: %w", data.InvoiceNumber, err)
	}
	if reader == nil {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s-%s.pdf", data.InvoiceNumber, s.SessionID)
	path := filepath.Join(dir, strings.NewReplacer("/", "_", " ", "_").Replace(name))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, reader); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	p.log.Info("receipt saved", zap.String("path", path), zap.Int64("invoice_id", s.Invoice.ID))
	return path, nil
}
