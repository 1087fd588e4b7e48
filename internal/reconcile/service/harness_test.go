package service

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/possettle/internal/clock"
	"github.com/smallbiznis/possettle/internal/config"
	customerrepo "github.com/smallbiznis/possettle/internal/customer/repository"
	customerservice "github.com/smallbiznis/possettle/internal/customer/service"
	invoicedomain "github.com/smallbiznis/possettle/internal/invoice/domain"
	invoicerepo "github.com/smallbiznis/possettle/internal/invoice/repository"
	invoiceservice "github.com/smallbiznis/possettle/internal/invoice/service"
	"github.com/smallbiznis/possettle/internal/observability/metrics"
	orderrepo "github.com/smallbiznis/possettle/internal/order/repository"
	"github.com/smallbiznis/possettle/internal/payment/adapters"
	paymentdomain "github.com/smallbiznis/possettle/internal/payment/domain"
	paymentrepo "github.com/smallbiznis/possettle/internal/payment/repository"
	paymentservice "github.com/smallbiznis/possettle/internal/payment/service"
	productrepo "github.com/smallbiznis/possettle/internal/product/repository"
	productservice "github.com/smallbiznis/possettle/internal/product/service"
	taxservice "github.com/smallbiznis/possettle/internal/tax/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const ordersFixture = `ID,FECHA,HORA,MESA,CEDULA,ITEMS,SUBTOTAL,IVA,TOTAL
7,2026-03-01,12:30:00,Mesa 3,101112131,L1|1|600|600;L2|1|400|400,1000,130,1130
8,2026-03-01,12:40:00,Mesa 5,101112131,L1|1|600|600;L2|1|0|0,600,78,678
42,2026-03-01,13:00:00,Mesa 4,202020202,P1|2|500|1000,1000,130,1130
50,2026-03-01,13:10:00,Mesa 9,303030303,P1|1|500|500,500,65,565
51,2026-03-01,13:15:00,Mesa 9,404-040-404,P2|1|300|300,300,39,339
60,2026-03-01,14:00:00,PARA LLEVAR,,,0,0,0
`

const catalogFixture = "ID|NOMBRE\nL1|Casado\nL2|Refresco\nP1|Pizza\nP2|Flan\n"

const clientsFixture = "CEDULA|NOMBRE|TIPO|VISITAS\n101112131|Ana Mora|FRECUENTE|3\n"

type harness struct {
	dir      string
	engine   *Engine
	invoices invoicedomain.Ledger
	payments paymentdomain.Repository
	details  paymentdomain.DetailRepository
	settleM  *metrics.SettlementMetrics
}

type harnessOption func(*Params)

func withPayments(svc paymentdomain.Service) harnessOption {
	return func(p *Params) { p.Payments = svc }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	log := zap.NewNop()
	pos := config.NewStaticPosConfigHolder(config.DefaultPosConfig())
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local))

	catalog := productservice.New(productservice.Params{
		Log:  log,
		Repo: productrepo.NewFileRepository(write("productos.txt", catalogFixture)),
	})
	tax := taxservice.NewCalculator(taxservice.CalculatorParams{Pos: pos})

	h := &harness{
		dir:      dir,
		invoices: invoicerepo.NewFileLedger(filepath.Join(dir, "facturas.txt")),
		payments: paymentrepo.NewFileRepository(filepath.Join(dir, "pagos.txt")),
		details:  paymentrepo.NewFileDetailRepository(filepath.Join(dir, "pagos_detalle.txt")),
		settleM:  metrics.NewSettlementMetrics(metrics.Config{}),
	}

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	p := Params{
		Log:    log,
		Orders: orderrepo.NewFileSource(write("pedidos.txt", ordersFixture), catalog, tax, log),
		Invoices: invoiceservice.NewService(invoiceservice.ServiceParam{
			Log: log, Ledger: h.invoices, Pos: pos, Clock: fake,
		}),
		Payments: paymentservice.NewService(paymentservice.Params{
			Config: config.Config{PaymentDetailAudit: true}, Log: log, Repo: h.payments, Details: h.details,
		}),
		Methods: adapters.NewDefaultRegistry(),
		Customers: customerservice.New(customerservice.Params{
			Log: log, Repo: customerrepo.NewFileRepository(write("clientes.txt", clientsFixture)),
		}),
		Tax:               tax,
		Clock:             fake,
		GenID:             node,
		Pos:               pos,
		SettlementMetrics: h.settleM,
	}
	for _, opt := range opts {
		opt(&p)
	}
	h.engine = New(p)
	return h
}

func (h *harness) path(name string) string {
	return filepath.Join(h.dir, name)
}
