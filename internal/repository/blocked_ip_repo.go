package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/ids-rs/idsrs/internal/db"
)

// BlockedIPRepository defines the interface for auto-response block audit
// records. Unlike the firewall-CRUD original this is derived from, entries
// here are written only by the daemon's alert sink when auto-response
// blocks a source, and read and lifted by the status API — there is no user/role attribution, since the daemon runs as
// a single operator-facing service.
type BlockedIPRepository interface {
	Create(ctx context.Context, entry *db.BlockedIPRecord) error
	FindActive(ctx context.Context, limit, offset int) ([]db.BlockedIPRecord, error)
	FindByIP(ctx context.Context, ip string) (*db.BlockedIPRecord, error)
	Unblock(ctx context.Context, ip string) error
	Count(ctx context.Context, activeOnly bool) (int, error)
}

type blockedIPRepo struct {
	BasePostgresRepo
}

// NewBlockedIPRepository creates a new BlockedIPRepository.
func NewBlockedIPRepository(conn *sql.DB) BlockedIPRepository {
	return &blockedIPRepo{BasePostgresRepo{DB: conn}}
}

func (r *blockedIPRepo) Create(ctx context.Context, entry *db.BlockedIPRecord) error {
	return r.QueryRowContext(ctx,
		`INSERT INTO blocked_ips (ip, reason, scan_type, blocked_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		entry.IP, entry.Reason, entry.ScanType, entry.BlockedAt,
	).Scan(&entry.ID)
}

func (r *blockedIPRepo) FindActive(ctx context.Context, limit, offset int) ([]db.BlockedIPRecord, error) {
	rows, err := r.QueryContext(ctx,
		`SELECT id, ip, reason, scan_type, blocked_at, unblocked_at
		 FROM blocked_ips WHERE unblocked_at IS NULL
		 ORDER BY blocked_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []db.BlockedIPRecord
	for rows.Next() {
		var e db.BlockedIPRecord
		var unblockedAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.IP, &e.Reason, &e.ScanType, &e.BlockedAt, &unblockedAt); err != nil {
			return nil, err
		}
		if unblockedAt.Valid {
			e.UnblockedAt = &unblockedAt.Time
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *blockedIPRepo) FindByIP(ctx context.Context, ip string) (*db.BlockedIPRecord, error) {
	e := &db.BlockedIPRecord{}
	var unblockedAt sql.NullTime
	err := r.QueryRowContext(ctx,
		`SELECT id, ip, reason, scan_type, blocked_at, unblocked_at
		 FROM blocked_ips WHERE ip = $1 AND unblocked_at IS NULL LIMIT 1`,
		ip,
	).Scan(&e.ID, &e.IP, &e.Reason, &e.ScanType, &e.BlockedAt, &unblockedAt)
	if err != nil {
		return nil, err
	}
	if unblockedAt.Valid {
		e.UnblockedAt = &unblockedAt.Time
	}
	return e, nil
}

func (r *blockedIPRepo) Unblock(ctx context.Context, ip string) error {
	_, err := r.ExecContext(ctx,
		`UPDATE blocked_ips SET unblocked_at = $2 WHERE ip = $1 AND unblocked_at IS NULL`,
		ip, time.Now(),
	)
	return err
}

func (r *blockedIPRepo) Count(ctx context.Context, activeOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM blocked_ips`
	if activeOnly {
		query += ` WHERE unblocked_at IS NULL`
	}
	var count int
	err := r.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}
