package backfill

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taehoonhoonn/where-smoking/internal/models"
)

// PgSource 백필용 Postgres 접근 (pgx 커넥션 풀)
type PgSource struct {
	Pool *pgxpool.Pool
}

// NewPgSource 새로운 DB 연결 생성
func NewPgSource(ctx context.Context, databaseURL string) (*PgSource, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// 배치 작업은 순차 처리라 소수 연결이면 충분
	poolConfig.MaxConns = 4
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// 연결 테스트
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PgSource{Pool: pool}, nil
}

// Close 데이터베이스 연결 종료
func (s *PgSource) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

// CitizenRecords loads citizen submissions (approved or not) ordered by id.
func (s *PgSource) CitizenRecords(ctx context.Context, limit int) ([]Record, error) {
	query := `
		SELECT id, address, latitude, longitude, postal_code, status
		FROM smoking_areas
		WHERE category = $1 OR submitted_category IS NOT NULL
		ORDER BY id
	`
	args := []any{models.CategoryCitizenReport}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query citizen records: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var r Record
		var id int64
		err := row.Scan(&id, &r.Address, &r.Latitude, &r.Longitude, &r.PostalCode, &r.Status)
		r.ID = uint(id)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan citizen records: %w", err)
	}
	return records, nil
}

// UpdateAddress overwrites the placeholder address and fills postal_code
// when it is still empty.
func (s *PgSource) UpdateAddress(ctx context.Context, id uint, oldAddress, newAddress, postalCode string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE smoking_areas
		SET address = $2,
		    postal_code = COALESCE(NULLIF(postal_code, ''), NULLIF($4, '')),
		    updated_at = NOW()
		WHERE id = $1 AND address = $3
	`, int64(id), newAddress, oldAddress, postalCode)
	if err != nil {
		return false, fmt.Errorf("failed to update address of %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}
