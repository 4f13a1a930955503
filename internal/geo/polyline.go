package geo

import (
	"delivery-route-engine/internal/domain"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrMalformedPolyline is returned when an encoded path cannot be decoded.
var ErrMalformedPolyline = errors.New("malformed polyline")

const (
	polylineScale    = 1e5
	polylineBias     = 63
	polylineChunk    = 0x1f
	polylineContinue = 0x20
	// The last chunk that still fits in 64 bits starts at bit 55.
	maxPolylineShift = 64 - 5
)

// DecodePolyline decodes an encoded polyline (five decimal digits of
// precision) into an ordered coordinate path.
//
// Each point stores a zig-zag encoded delta for latitude then longitude,
// relative to the previous point.
func DecodePolyline(encoded string) ([]domain.Coordinate, error) {
	path := make([]domain.Coordinate, 0, len(encoded)/4)

	var lat, lng int64
	for i := 0; i < len(encoded); {
		dLat, next, err := decodeValue(encoded, i)
		if err != nil {
			return nil, err
		}

		if next >= len(encoded) {
			return nil, fmt.Errorf("%w: point at offset %d has no longitude", ErrMalformedPolyline, i)
		}

		dLng, next, err := decodeValue(encoded, next)
		if err != nil {
			return nil, err
		}
		i = next

		lat += dLat
		lng += dLng
		path = append(path, domain.Coordinate{
			Lat: float64(lat) / polylineScale,
			Lng: float64(lng) / polylineScale,
		})
	}

	return path, nil
}

func decodeValue(s string, i int) (int64, int, error) {
	var (
		result int64
		shift  uint
	)
	start := i

	for {
		if i >= len(s) {
			return 0, i, fmt.Errorf("%w: unterminated value at offset %d", ErrMalformedPolyline, start)
		}

		b := int64(s[i]) - polylineBias
		if b < 0 || b > polylineChunk|polylineContinue {
			return 0, i, fmt.Errorf("%w: invalid character %q at offset %d", ErrMalformedPolyline, s[i], i)
		}
		if shift > maxPolylineShift {
			return 0, i, fmt.Errorf("%w: value at offset %d overflows", ErrMalformedPolyline, start)
		}
		i++

		result |= (b & polylineChunk) << shift
		shift += 5

		if b < polylineContinue {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), i, nil
	}
	return result >> 1, i, nil
}

// EncodePolyline is the inverse of DecodePolyline.
func EncodePolyline(path []domain.Coordinate) string {
	var b strings.Builder
	b.Grow(len(path) * 8)

	var prevLat, prevLng int64
	for _, c := range path {
		lat := int64(math.Round(c.Lat * polylineScale))
		lng := int64(math.Round(c.Lng * polylineScale))

		encodeValue(&b, lat-prevLat)
		encodeValue(&b, lng-prevLng)

		prevLat, prevLng = lat, lng
	}

	return b.String()
}

func encodeValue(b *strings.Builder, v int64) {
	u := v << 1
	if v < 0 {
		u = ^u
	}

	for u >= polylineContinue {
		b.WriteByte(byte((polylineContinue | (u & polylineChunk)) + polylineBias))
		u >>= 5
	}
	b.WriteByte(byte(u + polylineBias))
}
