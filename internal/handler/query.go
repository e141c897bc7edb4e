package handler

import (
	"fmt"
	"strconv"
	"time"

	"go-receipts-api/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// queryTimeLayouts are tried in order; values without a zone are read as UTC.
var queryTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseFilter reads the receipt filter query parameters. A returned error
// carries the client message for a value that could not be decoded.
func parseFilter(c *fiber.Ctx) (model.ReceiptFilter, error) {
	var filter model.ReceiptFilter
	var err error

	if filter.CreatedFrom, err = queryTime(c, "created_from"); err != nil {
		return filter, err
	}
	if filter.CreatedTo, err = queryTime(c, "created_to"); err != nil {
		return filter, err
	}
	if filter.MinTotal, err = queryDecimal(c, "min_total"); err != nil {
		return filter, err
	}
	if filter.MaxTotal, err = queryDecimal(c, "max_total"); err != nil {
		return filter, err
	}
	if raw := c.Query("payment_type"); raw != "" {
		pt := model.PaymentType(raw)
		filter.PaymentType = &pt
	}
	return filter, nil
}

func parsePage(c *fiber.Ctx) (model.Page, error) {
	number, err := queryInt(c, "page", 1)
	if err != nil {
		return model.Page{}, err
	}
	size, err := queryInt(c, "page_size", 10)
	if err != nil {
		return model.Page{}, err
	}
	return model.Page{Number: number, Size: size}, nil
}

func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range queryTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("'%s' must be a valid datetime", key)
}

func queryDecimal(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("'%s' must be a valid number", key)
	}
	return &d, nil
}

func queryInt(c *fiber.Ctx, key string, defaultValue int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("'%s' must be a valid integer", key)
	}
	return n, nil
}
