package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentCOD    PaymentType = "COD"
	PaymentOnline PaymentType = "Online"
)

// MaxLineQuantity caps the merged quantity of a single product in one order.
const MaxLineQuantity = 1_000_000

// TaxRate is applied to the order subtotal and rounded down.
var TaxRate = decimal.RequireFromString("0.02")

type LineItem struct {
	ProductID string `bson:"product_id" json:"product" validate:"required"`
	Quantity  int    `bson:"quantity" json:"quantity" validate:"gt=0"`
}

type Order struct {
	ID               string      `bson:"_id" json:"id"`
	UserID           string      `bson:"user_id" json:"userId"`
	Items            []LineItem  `bson:"items" json:"items"`
	Amount           int64       `bson:"amount" json:"amount"`
	AddressID        string      `bson:"address_id" json:"address"`
	PaymentType      PaymentType `bson:"payment_type" json:"paymentType"`
	IsPaid           bool        `bson:"is_paid" json:"isPaid"`
	GatewayOrderID   string      `bson:"gateway_order_id,omitempty" json:"razorpayOrderId,omitempty"`
	GatewayPaymentID string      `bson:"gateway_payment_id,omitempty" json:"razorpayPaymentId,omitempty"`
	CreatedAt        time.Time   `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time   `bson:"updated_at" json:"updatedAt"`
}

// Visible reports whether the order shows up in order listings:
// COD orders always, online orders only once paid.
func (o *Order) Visible() bool {
	return o.PaymentType == PaymentCOD || o.IsPaid
}

func (o *Order) Clone() *Order {
	c := *o
	c.Items = append([]LineItem(nil), o.Items...)
	return &c
}

// GatewayReference identifies a captured gateway payment.
type GatewayReference struct {
	OrderID   string
	PaymentID string
}

// ApplyTax returns subtotal plus floor(subtotal * TaxRate).
func ApplyTax(subtotal int64) int64 {
	tax := decimal.NewFromInt(subtotal).Mul(TaxRate).Floor()
	return subtotal + tax.IntPart()
}

// MergeLineItems validates the items and folds repeated products into one line, ordered by product id.
func MergeLineItems(items []LineItem) ([]LineItem, error) {
	if len(items) == 0 {
		return nil, InvalidInput("order has no items")
	}
	totals := make(map[string]int, len(items))
	for _, item := range items {
		if item.ProductID == "" {
			return nil, InvalidInput("line item without product id")
		}
		if item.Quantity <= 0 {
			return nil, InvalidInput("quantity must be positive for product %s", item.ProductID)
		}
		if item.Quantity > MaxLineQuantity-totals[item.ProductID] {
			return nil, InvalidInput("quantity for product %s exceeds %d", item.ProductID, MaxLineQuantity)
		}
		totals[item.ProductID] += item.Quantity
	}

	merged := make([]LineItem, 0, len(totals))
	for id, qty := range totals {
		merged = append(merged, LineItem{ProductID: id, Quantity: qty})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ProductID < merged[j].ProductID })
	return merged, nil
}
