// Package backfill replaces coordinate placeholder addresses of citizen
// submissions with reverse-geocoded addresses.
package backfill

import (
	"context"
	"regexp"
	"time"

	"github.com/taehoonhoonn/where-smoking/pkg/kakao"
	"go.uber.org/zap"
)

// DefaultDelay Kakao API 호출 간격
const DefaultDelay = 200 * time.Millisecond

// 제출 시 생성된 "지역명 (lat, lng)" 형태의 주소
var placeholderPattern = regexp.MustCompile(`\(-?\d+\.\d+,?\s*-?\d+\.\d+\)`)

// IsPlaceholder reports whether addr still holds the coordinate placeholder.
func IsPlaceholder(addr string) bool {
	return placeholderPattern.MatchString(addr)
}

// Record 백필 대상 레코드
type Record struct {
	ID         uint
	Address    string
	Latitude   float64
	Longitude  float64
	PostalCode *string
	Status     string
}

// Source 시민 제보 레코드 조회/갱신
type Source interface {
	CitizenRecords(ctx context.Context, limit int) ([]Record, error)
	// UpdateAddress overwrites the address only while it still equals
	// oldAddress. It reports whether a row was changed.
	UpdateAddress(ctx context.Context, id uint, oldAddress, newAddress, postalCode string) (bool, error)
}

// Geocoder 좌표 -> 주소 변환
type Geocoder interface {
	CoordToAddress(ctx context.Context, lat, lng float64) (*kakao.Address, error)
}

// Stats 처리 결과
type Stats struct {
	Total   int
	Updated int
	Failed  int
	Skipped int
}

type Runner struct {
	source   Source
	geocoder Geocoder
	log      *zap.SugaredLogger

	DryRun bool
	Limit  int
	Delay  time.Duration
}

func NewRunner(source Source, geocoder Geocoder, log *zap.SugaredLogger) *Runner {
	return &Runner{source: source, geocoder: geocoder, log: log, Delay: DefaultDelay}
}

// Run processes every citizen record once. A failed lookup or update is
// counted and the run continues; only loading the records or a cancelled
// context stops it.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	records, err := r.source.CitizenRecords(ctx, r.Limit)
	if err != nil {
		return stats, err
	}
	stats.Total = len(records)
	r.log.Infow("Citizen records loaded", "count", len(records), "dry_run", r.DryRun, "limit", r.Limit)

	called := false
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if !IsPlaceholder(rec.Address) {
			stats.Skipped++
			r.log.Debugw("Address already resolved", "id", rec.ID, "address", rec.Address)
			continue
		}

		if called && r.Delay > 0 {
			if err := sleep(ctx, r.Delay); err != nil {
				return stats, err
			}
		}
		called = true

		addr, err := r.geocoder.CoordToAddress(ctx, rec.Latitude, rec.Longitude)
		if err != nil {
			stats.Failed++
			r.log.Warnw("Reverse geocoding failed", "id", rec.ID, "lat", rec.Latitude, "lng", rec.Longitude, "error", err)
			continue
		}
		if addr == nil {
			stats.Failed++
			r.log.Warnw("No address for coordinates", "id", rec.ID, "lat", rec.Latitude, "lng", rec.Longitude)
			continue
		}

		postal := ""
		if rec.PostalCode == nil || *rec.PostalCode == "" {
			postal = addr.ZoneNo
		}

		if r.DryRun {
			stats.Updated++
			r.log.Infow("[DRY RUN] Would update address", "id", rec.ID, "old", rec.Address, "new", addr.Formatted, "postal_code", postal)
			continue
		}

		changed, err := r.source.UpdateAddress(ctx, rec.ID, rec.Address, addr.Formatted, postal)
		switch {
		case err != nil:
			stats.Failed++
			r.log.Errorw("Address update failed", "id", rec.ID, "error", err)
		case !changed:
			// 조회 이후 다른 경로로 주소가 바뀜
			stats.Skipped++
			r.log.Infow("Address changed concurrently, skipped", "id", rec.ID)
		default:
			stats.Updated++
			r.log.Infow("Address updated", "id", rec.ID, "address", addr.Formatted, "postal_code", postal)
		}
	}

	return stats, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
