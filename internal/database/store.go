package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edgard/quotebot/internal/dispatch"
)

// Store defines the delivery journal operations. It satisfies dispatch.Ledger and
// dispatch.Journal.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// State returns the fire state of a chat.
	State(ctx context.Context, chatID int64) (dispatch.FireState, error)

	// MarkFired records that a chat received its scheduled quote on day.
	MarkFired(ctx context.Context, chatID int64, day dispatch.Date) error

	// RecordDelivery appends a delivery to the history.
	RecordDelivery(ctx context.Context, d dispatch.Delivery) error

	// RecentDeliveries returns up to limit deliveries of a chat, newest first.
	RecentDeliveries(ctx context.Context, chatID int64, limit int) ([]DeliveryRow, error)

	// PruneBefore removes history and fire state older than day.
	PruneBefore(ctx context.Context, day dispatch.Date) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by db.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "journal_store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) State(ctx context.Context, chatID int64) (dispatch.FireState, error) {
	var row FireRow
	err := s.db.GetContext(ctx, &row,
		`SELECT chat_id, fired_on, updated_at FROM fire_ledger WHERE chat_id = ?`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return dispatch.NeverFired(), nil
	}
	if err != nil {
		return dispatch.FireState{}, fmt.Errorf("failed to read fire state (chat %d): %w", chatID, err)
	}
	return dispatch.FiredOn(dispatch.Date(row.FiredOn)), nil
}

func (s *sqlxStore) MarkFired(ctx context.Context, chatID int64, day dispatch.Date) error {
	if day == "" {
		return errors.New("fire date must not be empty")
	}

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO fire_ledger (chat_id, fired_on, updated_at)
        VALUES (?, ?, ?)
        ON CONFLICT(chat_id) DO UPDATE SET fired_on = excluded.fired_on, updated_at = excluded.updated_at;
    `, chatID, string(day), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		s.logger.ErrorContext(ctx, "Error marking chat as fired", "chat_id", chatID, "day", day, "error", err)
		return fmt.Errorf("failed to mark fired (chat %d): %w", chatID, err)
	}
	return nil
}

func (s *sqlxStore) RecordDelivery(ctx context.Context, d dispatch.Delivery) error {
	if d.ChatID == 0 {
		return errors.New("delivery must have a non-zero chat_id")
	}
	if d.DeliveredAt.IsZero() {
		d.DeliveredAt = time.Now()
	}

	row := DeliveryRow{
		ChatID:      d.ChatID,
		FiredOn:     string(d.Day),
		Category:    d.Category,
		Quote:       d.Quote,
		DeliveredAt: d.DeliveredAt.UTC().Format(time.RFC3339),
	}

	_, err := s.db.NamedExecContext(ctx, `
        INSERT INTO deliveries (chat_id, fired_on, category, quote, delivered_at)
        VALUES (:chat_id, :fired_on, :category, :quote, :delivered_at);
    `, row)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error recording delivery", "chat_id", d.ChatID, "error", err)
		return fmt.Errorf("failed to record delivery (chat %d): %w", d.ChatID, err)
	}
	return nil
}

func (s *sqlxStore) RecentDeliveries(ctx context.Context, chatID int64, limit int) ([]DeliveryRow, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	var rows []DeliveryRow
	err := s.db.SelectContext(ctx, &rows, `
        SELECT id, chat_id, fired_on, category, quote, delivered_at
        FROM deliveries
        WHERE chat_id = ?
        ORDER BY id DESC
        LIMIT ?;
    `, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries (chat %d): %w", chatID, err)
	}
	return rows, nil
}

// PruneBefore deletes old history and fire state in one transaction. A fire state older
// than today behaves like never fired, so dropping it does not change delivery.
func (s *sqlxStore) PruneBefore(ctx context.Context, day dispatch.Date) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM deliveries WHERE fired_on < ?`, string(day))
	if err != nil {
		return 0, fmt.Errorf("failed to prune deliveries: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned deliveries: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM fire_ledger WHERE fired_on < ?`, string(day)); err != nil {
		return 0, fmt.Errorf("failed to prune fire ledger: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prune: %w", err)
	}

	s.logger.InfoContext(ctx, "Pruned delivery history", "before", day, "removed", removed)
	return removed, nil
}

// RunSQLMaintenance runs VACUUM outside of any transaction.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")
	startTime := time.Now()

	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		s.logger.WarnContext(ctx, "Failed to set busy timeout", "error", err)
	}
	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "VACUUM failed", "error", err)
		return fmt.Errorf("failed to vacuum database: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance completed", "duration", time.Since(startTime))
	return nil
}
