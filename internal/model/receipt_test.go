package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductSubtotal(t *testing.T) {
	p := Product{Name: "Milk", Price: decimal.RequireFromString("0.10"), Quantity: 3}
	assert.True(t, p.Subtotal().Equal(decimal.RequireFromString("0.30")))
}

func TestPaymentTypeValid(t *testing.T) {
	assert.True(t, PaymentCash.Valid())
	assert.True(t, PaymentCashless.Valid())
	assert.False(t, PaymentType("card").Valid())
	assert.False(t, PaymentType("").Valid())
}

func TestReceiptFilterMatches(t *testing.T) {
	created := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	r := &Receipt{BaseModel: BaseModel{CreatedAt: created}, Total: decimal.NewFromInt(20), PaymentType: PaymentCashless}

	minTotal := decimal.NewFromInt(20)
	maxTotal := decimal.NewFromInt(15)
	cash := PaymentCash
	later := created.Add(time.Second)

	assert.True(t, ReceiptFilter{}.Matches(r))
	assert.True(t, ReceiptFilter{CreatedFrom: &created, CreatedTo: &created}.Matches(r), "date bounds are inclusive")
	assert.True(t, ReceiptFilter{MinTotal: &minTotal}.Matches(r), "min_total is inclusive")
	assert.False(t, ReceiptFilter{MaxTotal: &maxTotal}.Matches(r))
	assert.False(t, ReceiptFilter{PaymentType: &cash}.Matches(r))
	assert.False(t, ReceiptFilter{CreatedFrom: &later}.Matches(r))
}

func TestPageOffset(t *testing.T) {
	assert.Equal(t, 0, Page{Number: 1, Size: 10}.Offset())
	assert.Equal(t, 20, Page{Number: 3, Size: 10}.Offset())
}

func TestReceiptResponseJSON(t *testing.T) {
	r := &Receipt{
		BaseModel:     BaseModel{ID: 1},
		Total:         decimal.RequireFromString("10.00"),
		PaymentType:   PaymentCash,
		PaymentAmount: decimal.RequireFromString("10"),
		Rest:          decimal.Zero,
		Products:      []Product{{Name: "Product 1", Price: decimal.RequireFromString("5"), Quantity: 2}},
	}

	raw, err := json.Marshal(r.ToResponse())
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, 10.0, body["total"])
	assert.Equal(t, 0.0, body["rest"])
	assert.Equal(t, "cash", body["payment_type"])
	products := body["products"].([]interface{})
	require.Len(t, products, 1)
	assert.Equal(t, 5.0, products[0].(map[string]interface{})["price"])
}
