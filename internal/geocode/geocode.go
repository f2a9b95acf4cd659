// Package geocode resolves location keys to coordinates.
package geocode

import (
	"context"
	"errors"
	"hash/fnv"
	"math/rand"
	"strings"
)

var ErrEmptyKey = errors.New("geocode: empty key")

// Point is a WGS84 position in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Geocoder interface {
	Locate(ctx context.Context, key string) (Point, error)
}

// Hashed places every key at a stable pseudo-random position inside a square
// of side Spread degrees around Center. The same key always maps to the same
// point.
type Hashed struct {
	Center Point
	Spread float64
}

func NewHashed(center Point, spread float64) *Hashed {
	if spread <= 0 {
		spread = 0.1
	}
	return &Hashed{Center: center, Spread: spread}
}

func (h *Hashed) Locate(ctx context.Context, key string) (Point, error) {
	if err := ctx.Err(); err != nil {
		return Point{}, err
	}
	if strings.TrimSpace(key) == "" {
		return Point{}, ErrEmptyKey
	}
	f := fnv.New64a()
	_, _ = f.Write([]byte(key))
	r := rand.New(rand.NewSource(int64(f.Sum64())))
	return Point{
		Lat: h.Center.Lat + (r.Float64()-0.5)*h.Spread,
		Lng: h.Center.Lng + (r.Float64()-0.5)*h.Spread,
	}, nil
}
