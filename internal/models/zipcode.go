package models

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/leapstack-labs/snfsearch/pkg/geo"
	"github.com/leapstack-labs/snfsearch/pkg/orm"
)

// ZipCode is the centroid of a zip code.
type ZipCode struct {
	Code string
	geo.Point
}

// NewZipCode builds a ZipCode from a zipcode_mapping record. It reports false
// when the record lacks a code or either coordinate.
func NewZipCode(rec *orm.Record) (ZipCode, bool) {
	code := rec.String("zip_code")
	lat, okLat := rec.Float("lat")
	lng, okLng := rec.Float("lng")
	if code == "" || !okLat || !okLng {
		return ZipCode{}, false
	}
	return ZipCode{Code: code, Point: geo.Point{Lat: lat, Lng: lng}}, true
}

// ZipCodeRepository maps zip codes to centroids and measures distances
// between them. It is read-only after loading and safe for concurrent reads.
type ZipCodeRepository struct {
	unit geo.Unit
	zips map[string]ZipCode
}

// NewZipCodeRepository creates an empty repository measuring in unit.
func NewZipCodeRepository(unit geo.Unit) *ZipCodeRepository {
	return &ZipCodeRepository{unit: unit, zips: make(map[string]ZipCode)}
}

// Load reads every row of src into the repository. Rows without usable
// coordinates are skipped. It returns the number of rows read.
func (r *ZipCodeRepository) Load(src orm.RowSource, f *orm.Factory) (int, error) {
	n := 0
	for {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("failed to read zip code row %d: %w", n+1, err)
		}
		n++
		rec, err := f.Get(ZipCodeMapping, row)
		if err != nil {
			return n, err
		}
		if z, ok := NewZipCode(rec); ok {
			r.zips[z.Code] = z
		}
	}
}

// Put adds or replaces a zip code.
func (r *ZipCodeRepository) Put(z ZipCode) {
	r.zips[z.Code] = z
}

// Get returns the centroid of zip.
func (r *ZipCodeRepository) Get(zip string) (ZipCode, bool) {
	z, ok := r.zips[zip]
	return z, ok
}

// Len returns the number of mapped zip codes.
func (r *ZipCodeRepository) Len() int { return len(r.zips) }

// Unit returns the unit distances are reported in.
func (r *ZipCodeRepository) Unit() geo.Unit { return r.unit }

// Distance returns the great-circle distance between the centroids of two
// zip codes, or +Inf when either is unmapped.
func (r *ZipCodeRepository) Distance(a, b string) float64 {
	za, ok := r.zips[a]
	if !ok {
		return math.Inf(1)
	}
	zb, ok := r.zips[b]
	if !ok {
		return math.Inf(1)
	}
	return geo.Haversine(za.Point, zb.Point, r.unit)
}
