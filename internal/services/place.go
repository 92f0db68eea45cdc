package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/taehoonhoonn/where-smoking/internal/apperrors"
	"github.com/taehoonhoonn/where-smoking/internal/cache"
	"github.com/taehoonhoonn/where-smoking/pkg/kakao"
	"go.uber.org/zap"
)

// 장소 검색 응답 캐시
const (
	placeCacheSize = 1000
	placeCacheTTL  = 10 * time.Minute
)

// ErrPlaceSearchNotConfigured is returned when no Kakao key is configured.
var ErrPlaceSearchNotConfigured = errors.New("kakao API key not configured")

// KeywordSearcher Kakao 키워드 검색
type KeywordSearcher interface {
	Configured() bool
	SearchKeyword(ctx context.Context, q kakao.KeywordQuery) (*kakao.KeywordResult, error)
}

// PlaceService 장소 검색 프록시
type PlaceService struct {
	client KeywordSearcher
	cache  *cache.Local[*kakao.KeywordResult]
	log    *zap.SugaredLogger
}

func NewPlaceService(client KeywordSearcher, log *zap.SugaredLogger) *PlaceService {
	return &PlaceService{
		client: client,
		cache:  cache.NewLocal[*kakao.KeywordResult]("places", placeCacheSize, placeCacheTTL),
		log:    log,
	}
}

// Search proxies a keyword search. Upstream failures are returned as
// *apperrors.UpstreamError.
func (s *PlaceService) Search(ctx context.Context, q kakao.KeywordQuery) (*kakao.KeywordResult, error) {
	if !s.client.Configured() {
		return nil, ErrPlaceSearchNotConfigured
	}

	key := placeCacheKey(q)
	if res, ok := s.cache.Get(key); ok {
		return res, nil
	}

	res, err := s.client.SearchKeyword(ctx, q)
	if err != nil {
		upstream := &apperrors.UpstreamError{Op: "kakao.keyword", Err: err}
		var apiErr *kakao.APIError
		switch {
		case kakao.IsTimeout(err):
			upstream.Timeout = true
			kakaoRequestsTotal.WithLabelValues("keyword", "timeout").Inc()
		case errors.As(err, &apiErr):
			upstream.StatusCode = apiErr.StatusCode
			kakaoRequestsTotal.WithLabelValues("keyword", fmt.Sprintf("status_%d", apiErr.StatusCode)).Inc()
		default:
			kakaoRequestsTotal.WithLabelValues("keyword", "error").Inc()
		}
		s.log.Errorw("Place search failed", "op", "Search", "query", q.Query, "error", err)
		return nil, upstream
	}

	kakaoRequestsTotal.WithLabelValues("keyword", "ok").Inc()
	s.cache.Set(key, res)
	s.log.Debugw("Place search completed", "query", q.Query, "results", len(res.Places), "total", res.Meta.TotalCount)
	return res, nil
}

// UpstreamStatus maps a Kakao failure to the status returned to clients:
// an authentication failure is our misconfiguration (500), a timeout is 408,
// other upstream statuses pass through and anything else is 502.
func UpstreamStatus(e *apperrors.UpstreamError) int {
	switch {
	case e.Timeout:
		return http.StatusRequestTimeout
	case e.StatusCode == http.StatusUnauthorized:
		return http.StatusInternalServerError
	case e.StatusCode >= 400:
		return e.StatusCode
	}
	return http.StatusBadGateway
}

func placeCacheKey(q kakao.KeywordQuery) string {
	key := fmt.Sprintf("q=%s|size=%d", q.Query, q.Size)
	if q.X != nil {
		key += fmt.Sprintf("|x=%.6f", *q.X)
	}
	if q.Y != nil {
		key += fmt.Sprintf("|y=%.6f", *q.Y)
	}
	if q.Radius != nil {
		key += fmt.Sprintf("|r=%d", *q.Radius)
	}
	return key
}
