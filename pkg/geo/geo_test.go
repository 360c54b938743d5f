package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reference computes the same formula independently for a known pair.
func reference(lat1, lng1, lat2, lng2, r float64) float64 {
	p1, p2 := lat1*math.Pi/180, lat2*math.Pi/180
	dp := p2 - p1
	dl := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dp/2)*math.Sin(dp/2) + math.Cos(p1)*math.Cos(p2)*math.Sin(dl/2)*math.Sin(dl/2)
	return 2 * r * math.Asin(math.Sqrt(a))
}

func TestHaversine(t *testing.T) {
	nyc := Point{Lat: 40.7128, Lng: -74.0060}
	la := Point{Lat: 34.0522, Lng: -118.2437}
	chicago := Point{Lat: 41.8781, Lng: -87.6298}

	t.Run("identical points", func(t *testing.T) {
		assert.Equal(t, 0.0, Haversine(nyc, nyc, Miles))
		assert.Equal(t, 0.0, Haversine(la, la, Kilometers))
	})

	t.Run("new york to los angeles", func(t *testing.T) {
		got := Haversine(nyc, la, Miles)
		assert.InDelta(t, reference(nyc.Lat, nyc.Lng, la.Lat, la.Lng, EarthRadiusMiles), got, 1e-3)
		assert.InDelta(t, 2443.857, got, 1e-3)
	})

	t.Run("chicago to new york in km", func(t *testing.T) {
		got := Haversine(chicago, nyc, Kilometers)
		assert.InDelta(t, reference(chicago.Lat, chicago.Lng, nyc.Lat, nyc.Lng, EarthRadiusKm), got, 1e-3)
		assert.InDelta(t, 1144.291, got, 1e-3)
	})

	t.Run("symmetric", func(t *testing.T) {
		assert.InDelta(t, Haversine(nyc, chicago, Miles), Haversine(chicago, nyc, Miles), 1e-9)
	})

	t.Run("km converts back to miles", func(t *testing.T) {
		km := Haversine(nyc, la, Kilometers)
		assert.InDelta(t, Haversine(nyc, la, Miles), Kilometers.ToMiles(km), 1e-6)
	})
}

func TestParseUnit(t *testing.T) {
	tests := []struct {
		in      string
		want    Unit
		wantErr bool
	}{
		{in: "", want: Miles},
		{in: "miles", want: Miles},
		{in: "MI", want: Miles},
		{in: "km", want: Kilometers},
		{in: "Kilometers", want: Kilometers},
		{in: "furlongs", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUnit(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
