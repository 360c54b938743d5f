// Package geo computes great-circle distances between coordinates.
package geo

import (
	"fmt"
	"math"
	"strings"
)

// Earth radii used by Haversine.
const (
	EarthRadiusMiles = 3956.0
	EarthRadiusKm    = 6371.0
)

// Unit selects the unit distances are reported in.
type Unit int

const (
	Miles Unit = iota
	Kilometers
)

// ParseUnit parses "miles"/"mi" or "km"/"kilometers".
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mi", "mile", "miles":
		return Miles, nil
	case "km", "kilometer", "kilometers":
		return Kilometers, nil
	}
	return Miles, fmt.Errorf("unknown distance unit %q (want miles or km)", s)
}

// Radius returns the earth radius in u.
func (u Unit) Radius() float64 {
	if u == Kilometers {
		return EarthRadiusKm
	}
	return EarthRadiusMiles
}

// ToMiles converts a distance in u to miles using the same radii as Haversine,
// so a converted distance matches a distance computed in miles.
func (u Unit) ToMiles(d float64) float64 {
	if u == Kilometers {
		return d * EarthRadiusMiles / EarthRadiusKm
	}
	return d
}

func (u Unit) String() string {
	if u == Kilometers {
		return "km"
	}
	return "mi"
}

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Haversine returns the great-circle distance between a and b in u.
func Haversine(a, b Point, u Unit) float64 {
	lat1, lng1 := radians(a.Lat), radians(a.Lng)
	lat2, lng2 := radians(b.Lat), radians(b.Lng)

	dlat := lat2 - lat1
	dlng := lng2 - lng1
	h := math.Pow(math.Sin(dlat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dlng/2), 2)
	c := 2 * math.Asin(math.Sqrt(h))
	return c * u.Radius()
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
