// Package archive persists terminal reports durably. The in-memory
// registry and report store do not survive the process; callers that
// need a report later pull it back out of here by property address.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zishinew/Hearth-AI/internal/domain"
)

// PostgresArchive stores materialized reports keyed by property address.
type PostgresArchive struct {
	pool *pgxpool.Pool
}

// NewPostgresArchive creates a report archive backed by PostgreSQL.
func NewPostgresArchive(pool *pgxpool.Pool) *PostgresArchive {
	return &PostgresArchive{pool: pool}
}

// EnsureSchema creates the reports table when it does not exist yet.
func (a *PostgresArchive) EnsureSchema(ctx context.Context) error {
	query := `
CREATE TABLE IF NOT EXISTS reports (
	address     TEXT PRIMARY KEY,
	report_id   TEXT NOT NULL,
	job_id      TEXT NOT NULL,
	payload     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	if _, err := a.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure reports schema: %w", err)
	}
	return nil
}

// SaveReport upserts the report under its normalized property address.
// Reports without an address fall back to the report id so nothing is
// silently dropped.
func (a *PostgresArchive) SaveReport(ctx context.Context, rep *domain.Report) error {
	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	query := `
INSERT INTO reports (address, report_id, job_id, payload)
VALUES ($1, $2, $3, $4)
ON CONFLICT (address) DO UPDATE
SET report_id = EXCLUDED.report_id,
    job_id = EXCLUDED.job_id,
    payload = EXCLUDED.payload,
    updated_at = NOW();
`
	_, err = a.pool.Exec(ctx, query, addressKey(rep), rep.ID, rep.JobID, payload)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// GetReportByAddress fetches the archived report for a property.
func (a *PostgresArchive) GetReportByAddress(ctx context.Context, address string) (*domain.Report, error) {
	query := `
SELECT payload
FROM reports
WHERE address = $1;
`
	row := a.pool.QueryRow(ctx, query, normalizeAddress(address))
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var rep domain.Report
	if err := json.Unmarshal(payload, &rep); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &rep, nil
}

func addressKey(rep *domain.Report) string {
	if rep.PropertyInfo != nil {
		if addr := normalizeAddress(rep.PropertyInfo.Address); addr != "" {
			return addr
		}
	}
	return rep.ID
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}
