// Package geo computes great-circle distances and ranks candidate points
// around an origin.
package geo

import (
	"math"
	"sort"
)

// EarthRadiusMeters 지구 평균 반지름
const EarthRadiusMeters = 6371000.0

// Point WGS84 좌표 (degrees)
type Point struct {
	Lat float64
	Lng float64
}

// Valid reports whether p lies within the WGS84 ranges.
func (p Point) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lng) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Candidate 거리 계산 대상
type Candidate struct {
	ID    uint
	Point Point
}

// Match 반경 내 결과
type Match struct {
	ID       uint
	Distance float64 // meters, unrounded
	Meters   int     // rounded to the nearest meter
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Distance returns the great-circle distance in meters using the spherical
// law of cosines. The acos argument is clamped to [-1, 1] so that identical
// points yield exactly 0.
func Distance(a, b Point) float64 {
	if a == b {
		return 0
	}
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	cosC := math.Cos(lat1)*math.Cos(lat2)*math.Cos(dLng) + math.Sin(lat1)*math.Sin(lat2)
	if cosC > 1 {
		cosC = 1
	} else if cosC < -1 {
		cosC = -1
	}
	return EarthRadiusMeters * math.Acos(cosC)
}

// Nearby keeps candidates within radius meters of origin, ranks them by
// ascending distance (ties by ascending id) and truncates to limit.
// A non-positive limit returns every match.
func Nearby(origin Point, radius float64, limit int, candidates []Candidate) []Match {
	if radius < 0 {
		return nil
	}

	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		d := Distance(origin, c.Point)
		if d <= radius {
			matches = append(matches, Match{ID: c.ID, Distance: d, Meters: int(math.Round(d))})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].ID < matches[j].ID
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Bounds 위경도 사각형 (inclusive)
type Bounds struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// Contains reports whether p lies inside b.
func (b Bounds) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// boundsSlackDegrees absorbs floating-point error at the rectangle edges.
const boundsSlackDegrees = 1e-7

// BoundsAround returns a rectangle containing every point within radius
// meters of origin. It returns false when such a rectangle would cross a
// pole or the antimeridian, in which case callers should scan without it.
func BoundsAround(origin Point, radius float64) (Bounds, bool) {
	if radius < 0 || !origin.Valid() {
		return Bounds{}, false
	}

	angular := radius / EarthRadiusMeters
	dLat := toDegrees(angular) + boundsSlackDegrees

	minLat := origin.Lat - dLat
	maxLat := origin.Lat + dLat
	if minLat <= -90 || maxLat >= 90 {
		return Bounds{}, false
	}

	// Widest longitude offset reachable on a sphere from origin latitude.
	ratio := math.Sin(angular) / math.Cos(toRadians(origin.Lat))
	if ratio >= 1 {
		return Bounds{}, false
	}
	dLng := toDegrees(math.Asin(ratio)) + boundsSlackDegrees

	minLng := origin.Lng - dLng
	maxLng := origin.Lng + dLng
	if minLng < -180 || maxLng > 180 {
		return Bounds{}, false
	}

	return Bounds{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}, true
}
