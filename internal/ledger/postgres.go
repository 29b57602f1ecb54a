package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

type PostgresLedger struct {
	db *sql.DB
}

var _ Repository = (*PostgresLedger)(nil)

func NewPostgresLedger(ctx context.Context, cred *Credentials, logger *zap.Logger) (*PostgresLedger, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	logger.Info("connected to postgres", zap.String("host", cred.Host), zap.String("db", cred.DBName))
	return &PostgresLedger{db: db}, nil
}

func (l *PostgresLedger) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(l.db, &postgres.Config{
		MigrationsTable: "ledger_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (l *PostgresLedger) Record(ctx context.Context, entry *Entry) error {
	itemsJSON, err := json.Marshal(entry.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger items: %w", err)
	}

	query := `INSERT INTO order_ledger (id, order_id, user_id, amount, payment_type, is_paid, event_type, items, occurred_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = l.db.ExecContext(ctx, query,
		entry.ID,
		entry.OrderID,
		entry.UserID,
		entry.Amount,
		string(entry.PaymentType),
		entry.IsPaid,
		entry.EventType,
		itemsJSON,
		entry.OccurredAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateEntry
		}
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

func (l *PostgresLedger) List(ctx context.Context, limit int) ([]*Entry, error) {
	query := `SELECT id, order_id, user_id, amount, payment_type, is_paid, event_type, items, occurred_at, recorded_at
	          FROM order_ledger ORDER BY occurred_at DESC, order_id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	entries := make([]*Entry, 0)
	for rows.Next() {
		var e Entry
		var paymentType string
		var itemsJSON []byte
		if err := rows.Scan(
			&e.ID,
			&e.OrderID,
			&e.UserID,
			&e.Amount,
			&paymentType,
			&e.IsPaid,
			&e.EventType,
			&itemsJSON,
			&e.OccurredAt,
			&e.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		e.PaymentType = domain.PaymentType(paymentType)
		if err := json.Unmarshal(itemsJSON, &e.Items); err != nil {
			return nil, fmt.Errorf("unmarshal ledger items: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

func (l *PostgresLedger) Close() error {
	return l.db.Close()
}
