package kakao

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCoordToAddressPrefersRoadAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/local/geo/coord2address.json" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "KakaoAK test-key" {
			t.Errorf("Unexpected Authorization header: %s", got)
		}
		if r.URL.Query().Get("x") != "126.9707" || r.URL.Query().Get("y") != "37.5547" {
			t.Errorf("Expected x=lng, y=lat, got %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"documents":[{"road_address":{"address_name":"서울 중구 한강대로 405","zone_no":"04509"},"address":{"address_name":"서울 중구 봉래동2가 122"}}]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", 5*time.Second, WithBaseURL(srv.URL))
	addr, err := c.CoordToAddress(context.Background(), 37.5547, 126.9707)
	if err != nil {
		t.Fatalf("CoordToAddress failed: %v", err)
	}
	if addr.Formatted != "서울 중구 한강대로 405" {
		t.Errorf("Expected road address, got %s", addr.Formatted)
	}
	if addr.ZoneNo != "04509" {
		t.Errorf("Expected zone 04509, got %s", addr.ZoneNo)
	}
	if addr.Jibun != "서울 중구 봉래동2가 122" {
		t.Errorf("Unexpected jibun: %s", addr.Jibun)
	}
}

func TestCoordToAddressFallsBackToJibun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"documents":[{"road_address":null,"address":{"address_name":"서울 강서구 공항동 1"}}]}`))
	}))
	defer srv.Close()

	c := NewClient("k", time.Second, WithBaseURL(srv.URL))
	addr, err := c.CoordToAddress(context.Background(), 37.55, 126.8)
	if err != nil {
		t.Fatalf("CoordToAddress failed: %v", err)
	}
	if addr.Formatted != "서울 강서구 공항동 1" || addr.ZoneNo != "" {
		t.Errorf("Unexpected address: %+v", addr)
	}
}

func TestCoordToAddressNoDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"documents":[]}`))
	}))
	defer srv.Close()

	c := NewClient("k", time.Second, WithBaseURL(srv.URL))
	addr, err := c.CoordToAddress(context.Background(), 37.55, 126.8)
	if err != nil || addr != nil {
		t.Errorf("Expected nil, nil; got %+v, %v", addr, err)
	}
}

func TestSearchKeyword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("query") != "강남역" || q.Get("size") != "5" || q.Get("radius") != "500" {
			t.Errorf("Unexpected query: %s", r.URL.RawQuery)
		}
		if q.Has("x") {
			t.Error("x must be omitted when not set")
		}
		w.Write([]byte(`{"documents":[{"id":"1","place_name":"강남역 2호선","x":"127.0276","y":"37.4979","distance":""}],"meta":{"total_count":1,"pageable_count":1,"is_end":true}}`))
	}))
	defer srv.Close()

	radius := 500
	c := NewClient("k", time.Second, WithBaseURL(srv.URL))
	res, err := c.SearchKeyword(context.Background(), KeywordQuery{Query: "강남역", Radius: &radius, Size: 5})
	if err != nil {
		t.Fatalf("SearchKeyword failed: %v", err)
	}
	if len(res.Places) != 1 || res.Places[0].PlaceName != "강남역 2호선" {
		t.Fatalf("Unexpected places: %+v", res.Places)
	}
	if res.Places[0].X != 127.0276 || res.Places[0].Y != 37.4979 {
		t.Errorf("Unexpected coordinates: %+v", res.Places[0])
	}
	if !res.Meta.IsEnd || res.Meta.TotalCount != 1 {
		t.Errorf("Unexpected meta: %+v", res.Meta)
	}
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errorType":"AccessDeniedError","message":"wrong appKey"}`))
	}))
	defer srv.Close()

	c := NewClient("bad", time.Second, WithBaseURL(srv.URL))
	_, err := c.SearchKeyword(context.Background(), KeywordQuery{Query: "x"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || apiErr.ErrorType != "AccessDeniedError" {
		t.Errorf("Unexpected error: %+v", apiErr)
	}
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"documents":[]}`))
	}))
	defer srv.Close()

	c := NewClient("k", 50*time.Millisecond, WithBaseURL(srv.URL))
	_, err := c.CoordToAddress(context.Background(), 37.5, 127.0)
	if err == nil || !IsTimeout(err) {
		t.Errorf("Expected timeout error, got %v", err)
	}
}

func TestMissingAPIKey(t *testing.T) {
	c := NewClient("", time.Second)
	if c.Configured() {
		t.Error("Expected unconfigured client")
	}
	if _, err := c.CoordToAddress(context.Background(), 37.5, 127.0); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}
}
