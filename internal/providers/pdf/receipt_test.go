package pdf

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/smallbiznis/possettle/internal/config"
	invoicedomain "github.com/smallbiznis/possettle/internal/invoice/domain"
	orderdomain "github.com/smallbiznis/possettle/internal/order/domain"
	reconciledomain "github.com/smallbiznis/possettle/internal/reconcile/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleSettlement() reconciledomain.Settlement {
	return reconciledomain.Settlement{
		SessionID:     "1734",
		InvoiceNumber: "FAC-000001",
		Invoice: invoicedomain.Invoice{
			ID: 1, Date: "2026-03-01", Time: "12:00:00", OrderID: 7,
			PayerID: "101112131", PayerName: "Ana Mora", TableLabel: "Mesa 3",
			Subtotal: 1000, Tax: 130, Total: 1130, Method: "CASH",
		},
		Mode: reconciledomain.ModeFull,
		Lines: []orderdomain.Line{
			{ProductID: "L1", Name: "Casado", Quantity: 1, UnitPrice: 600, Total: 600},
			{ProductID: "L2", Name: "Refresco", Quantity: 1, UnitPrice: 400, Total: 400},
		},
		Payments: []reconciledomain.Payment{{Method: "CASH", Amount: 1200, PayerID: "101112131"}},
		Paid:     1200,
		Change:   70,
	}
}

func TestFromSettlement(t *testing.T) {
	data := FromSettlement(sampleSettlement(), "₡")

	assert.Equal(t, "FAC-000001", data.InvoiceNumber)
	assert.Equal(t, "7", data.OrderID)
	assert.Equal(t, "₡1,130", data.Total)
	assert.Equal(t, "₡70", data.Change)
	require.Len(t, data.Items, 2)
	assert.Equal(t, "₡600", data.Items[0].Amount)
	require.Len(t, data.Payments, 1)
	assert.Equal(t, "₡1,200", data.Payments[0].Amount)
}

func TestGenerateReceipt(t *testing.T) {
	reader, err := New().GenerateReceipt(context.Background(), FromSettlement(sampleSettlement(), "₡"))
	require.NoError(t, err)

	raw, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))
}

func TestPrinterWritesToReceiptDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "recibos")
	cfg := config.DefaultPosConfig()
	cfg.ReceiptDir = dir

	printer := NewPrinter(PrinterParams{Log: zap.NewNop(), Provider: New(), Pos: config.NewStaticPosConfigHolder(cfg)})
	path, err := printer.Print(context.Background(), sampleSettlement())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "FAC-000001-1734.pdf"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestPrinterDisabledWithoutDir(t *testing.T) {
	printer := NewPrinter(PrinterParams{
		Log:      zap.NewNop(),
		Provider: &NoOpProvider{},
		Pos:      config.NewStaticPosConfigHolder(config.DefaultPosConfig()),
	})
	path, err := printer.Print(context.Background(), sampleSettlement())
	require.NoError(t, err)
	assert.Empty(t, path)
}
