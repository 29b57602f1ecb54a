package domain

import "time"

// PendingPayment holds everything needed to finish an online order once the gateway confirms it.
// It is keyed by the gateway order id.
type PendingPayment struct {
	GatewayOrderID string     `bson:"_id"`
	OrderID        string     `bson:"order_id"`
	UserID         string     `bson:"user_id"`
	Items          []LineItem `bson:"items"`
	Amount         int64      `bson:"amount"`
	AddressID      string     `bson:"address_id"`
	CreatedAt      time.Time  `bson:"created_at"`
}

func (p *PendingPayment) IsExpired(ttl time.Duration, now time.Time) bool {
	return now.Sub(p.CreatedAt) > ttl
}

func (p *PendingPayment) Clone() *PendingPayment {
	c := *p
	c.Items = append([]LineItem(nil), p.Items...)
	return &c
}

// PaymentIntent is the gateway's answer to an order creation request.
type PaymentIntent struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// PendingCheckout is returned to the client so it can open the gateway checkout.
type PendingCheckout struct {
	OrderID        string `json:"orderId"`
	GatewayOrderID string `json:"razorpayOrderId"`
	Amount         int64  `json:"amount"`
	GatewayAmount  int64  `json:"gatewayAmount"`
	Currency       string `json:"currency"`
	KeyID          string `json:"key"`
}
