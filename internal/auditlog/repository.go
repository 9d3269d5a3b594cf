package auditlog

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"confirmo-gateway/internal/version"
)

type Repository interface {
	Insert(ctx context.Context, orderID *uint, apiResponse, hook string) error
	List(ctx context.Context) ([]Entry, error)
	DeleteAll(ctx context.Context) error
	PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error)
	ExportCSV(ctx context.Context, w io.Writer) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, orderID *uint, apiResponse, hook string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO confirmo_logs (time, order_id, api_response, hook, version)
		VALUES (now(), $1, $2, $3, $4)
	`, orderID, apiResponse, hook, version.Version)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

func (r *repository) List(ctx context.Context) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, time, order_id, api_response, hook, version
		FROM confirmo_logs ORDER BY time ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var orderID sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Time, &orderID, &e.APIResponse, &e.Hook, &e.Version); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if orderID.Valid {
			id := uint(orderID.Int64)
			e.OrderID = &id
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM confirmo_logs`)
	if err != nil {
		return fmt.Errorf("failed to delete audit entries: %w", err)
	}
	return nil
}

func (r *repository) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM confirmo_logs WHERE time < $1
	`, time.Now().Add(-age))
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged audit entries: %w", err)
	}
	return n, nil
}

func (r *repository) ExportCSV(ctx context.Context, w io.Writer) error {
	entries, err := r.List(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Time", "Order ID", "API Response", "Hook", "Version"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, e := range entries {
		orderID := ""
		if e.OrderID != nil {
			orderID = strconv.FormatUint(uint64(*e.OrderID), 10)
		}
		record := []string{e.Time.Format(time.RFC3339), orderID, e.APIResponse, e.Hook, e.Version}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
