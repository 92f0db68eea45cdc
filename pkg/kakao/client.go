package kakao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL Kakao Local API
const DefaultBaseURL = "https://dapi.kakao.com"

// ErrMissingAPIKey is returned before any request when no REST key is set.
var ErrMissingAPIKey = errors.New("kakao REST API key not configured")

// APIError non-2xx response from Kakao
type APIError struct {
	StatusCode int
	ErrorType  string `json:"errorType"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.ErrorType != "" {
		return fmt.Sprintf("kakao API returned status %d (%s)", e.StatusCode, e.ErrorType)
	}
	return fmt.Sprintf("kakao API returned status %d", e.StatusCode)
}

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Client Kakao Local API client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another host (tests).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

func NewClient(apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether a REST API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "KakaoAK "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// KeywordQuery 키워드 장소 검색 조건 (X/Y/Radius는 선택)
type KeywordQuery struct {
	Query  string
	X      *float64 // 경도
	Y      *float64 // 위도
	Radius *int
	Size   int
}

// Place 장소 검색 결과
type Place struct {
	ID                string  `json:"id"`
	PlaceName         string  `json:"placeName"`
	CategoryName      string  `json:"categoryName"`
	CategoryGroupCode string  `json:"categoryGroupCode"`
	Phone             string  `json:"phone"`
	AddressName       string  `json:"addressName"`
	RoadAddressName   string  `json:"roadAddressName"`
	X                 float64 `json:"x"`
	Y                 float64 `json:"y"`
	PlaceURL          string  `json:"placeUrl"`
	Distance          string  `json:"distance"`
}

// KeywordMeta 검색 메타 정보
type KeywordMeta struct {
	TotalCount    int  `json:"totalCount"`
	PageableCount int  `json:"pageableCount"`
	IsEnd         bool `json:"isEnd"`
	SameName      any  `json:"sameName"`
}

// KeywordResult 키워드 검색 응답
type KeywordResult struct {
	Places []Place     `json:"places"`
	Meta   KeywordMeta `json:"meta"`
}

type keywordResponse struct {
	Documents []struct {
		ID                string `json:"id"`
		PlaceName         string `json:"place_name"`
		CategoryName      string `json:"category_name"`
		CategoryGroupCode string `json:"category_group_code"`
		Phone             string `json:"phone"`
		AddressName       string `json:"address_name"`
		RoadAddressName   string `json:"road_address_name"`
		X                 string `json:"x"`
		Y                 string `json:"y"`
		PlaceURL          string `json:"place_url"`
		Distance          string `json:"distance"`
	} `json:"documents"`
	Meta struct {
		TotalCount    int  `json:"total_count"`
		PageableCount int  `json:"pageable_count"`
		IsEnd         bool `json:"is_end"`
		SameName      any  `json:"same_name"`
	} `json:"meta"`
}

// SearchKeyword calls /v2/local/search/keyword.json.
func (c *Client) SearchKeyword(ctx context.Context, q KeywordQuery) (*KeywordResult, error) {
	params := url.Values{}
	params.Set("query", q.Query)
	if q.X != nil {
		params.Set("x", strconv.FormatFloat(*q.X, 'f', -1, 64))
	}
	if q.Y != nil {
		params.Set("y", strconv.FormatFloat(*q.Y, 'f', -1, 64))
	}
	if q.Radius != nil {
		params.Set("radius", strconv.Itoa(*q.Radius))
	}
	if q.Size > 0 {
		params.Set("size", strconv.Itoa(q.Size))
	}

	var resp keywordResponse
	if err := c.get(ctx, "/v2/local/search/keyword.json", params, &resp); err != nil {
		return nil, err
	}

	result := &KeywordResult{
		Places: make([]Place, 0, len(resp.Documents)),
		Meta: KeywordMeta{
			TotalCount:    resp.Meta.TotalCount,
			PageableCount: resp.Meta.PageableCount,
			IsEnd:         resp.Meta.IsEnd,
			SameName:      resp.Meta.SameName,
		},
	}
	for _, d := range resp.Documents {
		x, _ := strconv.ParseFloat(d.X, 64)
		y, _ := strconv.ParseFloat(d.Y, 64)
		result.Places = append(result.Places, Place{
			ID:                d.ID,
			PlaceName:         d.PlaceName,
			CategoryName:      d.CategoryName,
			CategoryGroupCode: d.CategoryGroupCode,
			Phone:             d.Phone,
			AddressName:       d.AddressName,
			RoadAddressName:   d.RoadAddressName,
			X:                 x,
			Y:                 y,
			PlaceURL:          d.PlaceURL,
			Distance:          d.Distance,
		})
	}
	return result, nil
}

// Address 좌표 -> 주소 변환 결과
type Address struct {
	Road      string // 도로명주소 (없으면 빈 문자열)
	Jibun     string // 지번주소
	ZoneNo    string // 도로명주소 우편번호
	Formatted string // 도로명 우선, 없으면 지번
}

type coord2AddressResponse struct {
	Documents []struct {
		RoadAddress *struct {
			AddressName string `json:"address_name"`
			ZoneNo      string `json:"zone_no"`
		} `json:"road_address"`
		Address *struct {
			AddressName string `json:"address_name"`
		} `json:"address"`
	} `json:"documents"`
}

// CoordToAddress calls /v2/local/geo/coord2address.json. It returns nil
// without error when Kakao has no address for the point.
func (c *Client) CoordToAddress(ctx context.Context, lat, lng float64) (*Address, error) {
	params := url.Values{}
	params.Set("x", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("y", strconv.FormatFloat(lat, 'f', -1, 64))

	var resp coord2AddressResponse
	if err := c.get(ctx, "/v2/local/geo/coord2address.json", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Documents) == 0 {
		return nil, nil
	}

	doc := resp.Documents[0]
	addr := &Address{}
	if doc.RoadAddress != nil {
		addr.Road = doc.RoadAddress.AddressName
		addr.ZoneNo = doc.RoadAddress.ZoneNo
	}
	if doc.Address != nil {
		addr.Jibun = doc.Address.AddressName
	}

	addr.Formatted = addr.Road
	if addr.Formatted == "" {
		addr.Formatted = addr.Jibun
	}
	if addr.Formatted == "" {
		return nil, nil
	}
	return addr, nil
}
