package repository

import (
	"fmt"
	"strconv"
	"strings"

	customerdomain "github.com/smallbiznis/possettle/internal/customer/domain"
	"github.com/smallbiznis/possettle/internal/order/domain"
	"github.com/smallbiznis/possettle/pkg/repository"
)

// OrderSeparator separates the columns of the orders file.
const OrderSeparator = ","

const (
	colID = iota
	colDate
	colTime
	colTable
	colPayer
	colItems
	colSubtotal
	colTax
	colTotal
	orderColumns
)

const (
	itemSeparator      = ";"
	itemFieldSeparator = "|"
)

type rowCodec struct{}

func (rowCodec) Header() []string {
	return []string{"ID", "FECHA", "HORA", "MESA", "CEDULA", "ITEMS", "SUBTOTAL", "IVA", "TOTAL"}
}

func (rowCodec) Encode(r *domain.Row) []string {
	return r.Fields
}

func (rowCodec) Decode(fields []string) (*domain.Row, error) {
	return &domain.Row{Fields: fields}, nil
}

type itemLine struct {
	productID string
	quantity  int64
	unitPrice int64
	total     int64
}

type parsedOrder struct {
	id       int64
	date     string
	time     string
	table    string
	payer    string
	items    []itemLine
	subtotal int64
	tax      int64
	total    int64
}

func rowOrderID(r *domain.Row) (int64, bool) {
	id, err := strconv.ParseInt(r.Field(colID), 10, 64)
	return id, err == nil
}

// tableNumber extracts the digits of a MESA label such as "Mesa 4". Takeaway
// labels carry no digits and never match a table.
func tableNumber(label string) (int64, bool) {
	digits := customerdomain.NormalizeID(label)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	return n, err == nil
}

func parseRow(r *domain.Row) (*parsedOrder, error) {
	if err := repository.Require(r.Fields, orderColumns); err != nil {
		return nil, err
	}

	id, err := repository.Int64(r.Fields, colID, "ID")
	if err != nil {
		return nil, err
	}
	subtotal, err := repository.Int64(r.Fields, colSubtotal, "SUBTOTAL")
	if err != nil {
		return nil, err
	}
	tax, err := repository.Int64(r.Fields, colTax, "IVA")
	if err != nil {
		return nil, err
	}
	total, err := repository.Int64(r.Fields, colTotal, "TOTAL")
	if err != nil {
		return nil, err
	}
	items, err := parseItems(r.Field(colItems))
	if err != nil {
		return nil, err
	}

	return &parsedOrder{
		id:       id,
		date:     r.Field(colDate),
		time:     r.Field(colTime),
		table:    r.Field(colTable),
		payer:    r.Field(colPayer),
		items:    items,
		subtotal: subtotal,
		tax:      tax,
		total:    total,
	}, nil
}

func parseItems(raw string) ([]itemLine, error) {
	var items []itemLine
	for i, entry := range strings.Split(raw, itemSeparator) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, itemFieldSeparator)
		if len(parts) < 3 {
			return nil, fmt.Errorf("item %d: expected productId|qty|unitPrice, got %q", i+1, entry)
		}

		productID := strings.TrimSpace(parts[0])
		if productID == "" {
			return nil, fmt.Errorf("item %d: empty product id", i+1)
		}
		qty, err := repository.Int64(parts, 1, "CANTIDAD")
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		if qty < 1 {
			return nil, fmt.Errorf("item %d: quantity %d below 1", i+1, qty)
		}
		price, err := repository.Int64(parts, 2, "PRECIO")
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		if price < 0 {
			return nil, fmt.Errorf("item %d: negative unit price", i+1)
		}

		lineTotal := qty * price
		if repository.Field(parts, 3) != "" {
			lineTotal, err = repository.Int64(parts, 3, "TOTAL_LINEA")
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i+1, err)
			}
		}

		items = append(items, itemLine{
			productID: productID,
			quantity:  qty,
			unitPrice: price,
			total:     lineTotal,
		})
	}
	return items, nil
}
