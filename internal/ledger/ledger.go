package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/google/uuid"
)

var ErrDuplicateEntry = errors.New("ledger entry for this order already exists")

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// Entry is one settled order: COD orders when placed, online orders once paid.
type Entry struct {
	ID          uuid.UUID          `json:"id"`
	OrderID     string             `json:"orderId"`
	UserID      string             `json:"userId"`
	Amount      int64              `json:"amount"`
	PaymentType domain.PaymentType `json:"paymentType"`
	IsPaid      bool               `json:"isPaid"`
	EventType   string             `json:"eventType"`
	Items       []domain.LineItem  `json:"items"`
	OccurredAt  time.Time          `json:"occurredAt"`
	RecordedAt  time.Time          `json:"recordedAt"`
}

type Repository interface {
	// Record returns ErrDuplicateEntry when the order is already in the ledger.
	Record(ctx context.Context, entry *Entry) error
	// List returns the newest entries first; limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]*Entry, error)
	Close() error
}
