package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smallbiznis/possettle/internal/config"
	customerdomain "github.com/smallbiznis/possettle/internal/customer/domain"
	"github.com/smallbiznis/possettle/internal/order/domain"
	productdomain "github.com/smallbiznis/possettle/internal/product/domain"
	taxdomain "github.com/smallbiznis/possettle/internal/tax/domain"
	"github.com/smallbiznis/possettle/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Catalog resolves product display names.
type Catalog interface {
	Name(ctx context.Context, productID string) string
}

type Params struct {
	fx.In

	Config  config.Config
	Log     *zap.Logger
	Catalog productdomain.Service
	Tax     taxdomain.Calculator
}

type source struct {
	store   repository.Repository[domain.Row]
	catalog Catalog
	tax     taxdomain.Calculator
	log     *zap.Logger
}

func Provide(p Params) domain.Source {
	return NewFileSource(p.Config.Path(p.Config.OrdersFile), p.Catalog, p.Tax, p.Log)
}

func NewFileSource(path string, catalog Catalog, tax taxdomain.Calculator, log *zap.Logger) domain.Source {
	return &source{
		store:   repository.ProvideStore[domain.Row](path, rowCodec{}, repository.WithSeparator(OrderSeparator)),
		catalog: catalog,
		tax:     tax,
		log:     log.Named("order.source"),
	}
}

func (s *source) LoadByOrderID(ctx context.Context, orderID int64) (*domain.Aggregate, error) {
	row, err := s.store.FindOne(ctx, func(r *domain.Row) bool {
		id, ok := rowOrderID(r)
		return ok && id == orderID
	})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, domain.ErrNotFound
	}

	order, err := parseRow(row)
	if err != nil {
		return nil, s.corrupt(orderID, err)
	}
	s.checkTax(order)

	agg := &domain.Aggregate{
		Origin:       domain.OriginOrder,
		OrderID:      order.id,
		OrderIDs:     []int64{order.id},
		Date:         order.date,
		Time:         order.time,
		TableLabel:   order.table,
		PayerDisplay: order.payer,
		Subtotal:     order.subtotal,
		Tax:          order.tax,
		Total:        order.total,
	}
	if payer := customerdomain.NormalizeID(order.payer); payer != "" {
		agg.PayerIDs = []string{payer}
	}
	agg.Lines = s.lines(ctx, order.items)
	return agg, nil
}

func (s *source) LoadByTable(ctx context.Context, table int64) (*domain.Aggregate, error) {
	rows, err := s.store.Find(ctx, func(r *domain.Row) bool {
		n, ok := tableNumber(r.Field(colTable))
		return ok && n == table
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNoOrders
	}

	agg := &domain.Aggregate{Origin: domain.OriginTable, TableNumber: table}
	seen := make(map[string]struct{})
	for i, row := range rows {
		order, err := parseRow(row)
		if err != nil {
			id, _ := rowOrderID(row)
			return nil, s.corrupt(id, err)
		}
		s.checkTax(order)

		if i == 0 {
			agg.Date = order.date
			agg.Time = order.time
			agg.TableLabel = order.table
		}
		agg.OrderIDs = append(agg.OrderIDs, order.id)
		agg.Lines = append(agg.Lines, s.lines(ctx, order.items)...)
		agg.Subtotal += order.subtotal
		agg.Tax += order.tax
		agg.Total += order.total

		payer := customerdomain.NormalizeID(order.payer)
		if payer == "" {
			continue
		}
		if _, ok := seen[payer]; !ok {
			seen[payer] = struct{}{}
			agg.PayerIDs = append(agg.PayerIDs, payer)
		}
	}
	agg.PayerDisplay = strings.Join(agg.PayerIDs, ", ")

	s.log.Debug("table aggregated",
		zap.Int64("table", table),
		zap.Int64s("order_ids", agg.OrderIDs),
		zap.Int("lines", len(agg.Lines)),
	)
	return agg, nil
}

func (s *source) lines(ctx context.Context, items []itemLine) []domain.Line {
	lines := make([]domain.Line, 0, len(items))
	for _, item := range items {
		name := item.productID
		if s.catalog != nil {
			name = s.catalog.Name(ctx, item.productID)
		}
		lines = append(lines, domain.Line{
			ProductID: item.productID,
			Name:      name,
			Quantity:  item.quantity,
			UnitPrice: item.unitPrice,
			Total:     item.total,
		})
	}
	return lines
}

// checkTax flags stored totals that disagree with the configured rate. The
// stored values stay authoritative.
func (s *source) checkTax(order *parsedOrder) {
	if s.tax != nil {
		if expected := s.tax.Exclusive(order.subtotal); expected != order.tax {
			s.log.Warn("stored tax differs from configured rate",
				zap.Int64("order_id", order.id),
				zap.Int64("subtotal", order.subtotal),
				zap.Int64("stored_tax", order.tax),
				zap.Int64("expected_tax", expected),
			)
		}
	}

	var sum int64
	for _, item := range order.items {
		sum += item.total
	}
	if sum != order.subtotal {
		s.log.Warn("stored subtotal differs from line totals",
			zap.Int64("order_id", order.id),
			zap.Int64("subtotal", order.subtotal),
			zap.Int64("line_sum", sum),
		)
	}
}

func (s *source) corrupt(orderID int64, err error) error {
	s.log.Warn("corrupt order record", zap.Int64("order_id", orderID), zap.Error(err))
	if errors.Is(err, domain.ErrCorruptRecord) {
		return err
	}
	return fmt.Errorf("%w: order %d: %w", domain.ErrCorruptRecord, orderID, err)
}
