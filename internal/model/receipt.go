package model

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money travels as JSON numbers on the wire
	decimal.MarshalJSONWithoutQuotes = true
}

type PaymentType string

const (
	PaymentCash     PaymentType = "cash"
	PaymentCashless PaymentType = "cashless"
)

// Valid reports whether p is one of the accepted payment types.
func (p PaymentType) Valid() bool {
	return p == PaymentCash || p == PaymentCashless
}

// Receipt is one completed purchase. It is created once and never mutated.
type Receipt struct {
	BaseModel
	UserID        uint            `gorm:"not null;index" json:"-"`
	User          *User           `gorm:"foreignKey:UserID" json:"-"`
	Total         decimal.Decimal `gorm:"type:numeric(14,2);not null;index" json:"total"`
	PaymentType   PaymentType     `gorm:"type:varchar(10);not null;index" json:"payment_type"`
	PaymentAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"payment_amount"`
	Rest          decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"rest"`

	Products []Product `gorm:"foreignKey:ReceiptID;constraint:OnDelete:CASCADE" json:"products"`
}

// Product is a line item owned by exactly one receipt.
type Product struct {
	ID        uint            `gorm:"primaryKey" json:"-"`
	ReceiptID uint            `gorm:"not null;index" json:"-"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
}

// Subtotal returns price * quantity.
func (p Product) Subtotal() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// ProductResponse mirrors a line item on the wire
type ProductResponse struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// ReceiptResponse for API responses
type ReceiptResponse struct {
	ID            uint              `json:"id"`
	Products      []ProductResponse `json:"products"`
	PaymentType   PaymentType       `json:"payment_type"`
	PaymentAmount decimal.Decimal   `json:"payment_amount"`
	Total         decimal.Decimal   `json:"total"`
	Rest          decimal.Decimal   `json:"rest"`
	CreatedAt     time.Time         `json:"created_at"`
}

// ToResponse converts Receipt to ReceiptResponse
func (r *Receipt) ToResponse() ReceiptResponse {
	products := make([]ProductResponse, len(r.Products))
	for i, p := range r.Products {
		products[i] = ProductResponse{Name: p.Name, Price: p.Price, Quantity: p.Quantity}
	}

	return ReceiptResponse{
		ID:            r.ID,
		Products:      products,
		PaymentType:   r.PaymentType,
		PaymentAmount: r.PaymentAmount,
		Total:         r.Total,
		Rest:          r.Rest,
		CreatedAt:     r.CreatedAt,
	}
}

// ReceiptFilter narrows a user's receipts. Nil fields are not applied.
type ReceiptFilter struct {
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	MinTotal    *decimal.Decimal
	MaxTotal    *decimal.Decimal
	PaymentType *PaymentType
}

// Matches applies the filter to a single receipt; bounds are inclusive.
func (f ReceiptFilter) Matches(r *Receipt) bool {
	if f.CreatedFrom != nil && r.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && r.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	if f.MinTotal != nil && r.Total.LessThan(*f.MinTotal) {
		return false
	}
	if f.MaxTotal != nil && r.Total.GreaterThan(*f.MaxTotal) {
		return false
	}
	if f.PaymentType != nil && r.PaymentType != *f.PaymentType {
		return false
	}
	return true
}

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// PaymentSummary aggregates a user's receipts for one payment type.
type PaymentSummary struct {
	PaymentType PaymentType     `json:"payment_type"`
	Count       int64           `json:"count"`
	Total       decimal.Decimal `json:"total"`
}

// ReceiptSummary is the per-user dashboard view.
type ReceiptSummary struct {
	Count     int64            `json:"count"`
	Total     decimal.Decimal  `json:"total"`
	ByPayment []PaymentSummary `json:"by_payment_type"`
}
