package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ids-rs/idsrs/internal/db"
)

// AlertAuditRepository defines data access for the alert audit trail.
type AlertAuditRepository interface {
	Create(ctx context.Context, a *db.AlertAudit) error
	FindAll(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]db.AlertAudit, error)
	FindBySourceIP(ctx context.Context, ip string, limit, offset int) ([]db.AlertAudit, error)
}

type alertAuditRepo struct {
	BasePostgresRepo
}

// NewAlertAuditRepository creates a new AlertAuditRepository.
func NewAlertAuditRepository(conn *sql.DB) AlertAuditRepository {
	return &alertAuditRepo{BasePostgresRepo{DB: conn}}
}

var alertAuditCols = `id, scan_type, source_ip, dest_ip, count, scanned_ports, message, occurred_at, inserted_at, block_triggered`

func (r *alertAuditRepo) Create(ctx context.Context, a *db.AlertAudit) error {
	return r.QueryRowContext(ctx,
		`INSERT INTO alert_audit (scan_type, source_ip, dest_ip, count, scanned_ports, message, occurred_at, block_triggered)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id, inserted_at`,
		a.ScanType, a.SourceIP, nullIfEmpty(a.DestIP), a.Count, a.ScannedPorts, a.Message, a.OccurredAt, a.BlockTriggered,
	).Scan(&a.ID, &a.InsertedAt)
}

func (r *alertAuditRepo) FindAll(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]db.AlertAudit, error) {
	where, args := BuildWhereClause(filter, 1)
	nextParam := len(args) + 1
	query := fmt.Sprintf(`SELECT %s FROM alert_audit %s ORDER BY occurred_at DESC LIMIT $%d OFFSET $%d`,
		alertAuditCols, where, nextParam, nextParam+1)
	args = append(args, limit, offset)

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []db.AlertAudit
	for rows.Next() {
		var a db.AlertAudit
		var destIP sql.NullString
		if err := rows.Scan(&a.ID, &a.ScanType, &a.SourceIP, &destIP, &a.Count, &a.ScannedPorts,
			&a.Message, &a.OccurredAt, &a.InsertedAt, &a.BlockTriggered); err != nil {
			return nil, err
		}
		a.DestIP = destIP.String
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *alertAuditRepo) FindBySourceIP(ctx context.Context, ip string, limit, offset int) ([]db.AlertAudit, error) {
	return r.FindAll(ctx, map[string]interface{}{"source_ip": ip}, limit, offset)
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
