package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/snfsearch/internal/models"
	"github.com/leapstack-labs/snfsearch/internal/testutil"
	"github.com/leapstack-labs/snfsearch/pkg/geo"
)

func testZips() *models.ZipCodeRepository {
	zips := models.NewZipCodeRepository(geo.Miles)
	zips.Put(models.ZipCode{Code: "10001", Point: geo.Point{Lat: 40.7128, Lng: -74.0060}})
	zips.Put(models.ZipCode{Code: "10002", Point: geo.Point{Lat: 40.7128, Lng: -73.9}})
	return zips
}

func TestScorer_Populate(t *testing.T) {
	population := []*models.Provider{
		{Num: "1", Zip: "10001", OverallRating: 5, NumDeficiencies: 1, NumPenalties: 0},
		{Num: "2", Zip: "10002", OverallRating: 3, NumDeficiencies: 3, NumPenalties: 0},
		{Num: "3", Zip: "99999", OverallRating: 1, NumDeficiencies: 5, NumPenalties: 2},
		{Num: "4", Zip: "10001", OverallRating: 1, NumDeficiencies: 5, NumPenalties: 1},
	}
	s, err := NewScorer(population, testZips(), DefaultWeights(), testutil.NewTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 4, s.Population())

	p := population[0]
	b := s.Populate(p, "10001")
	assert.Equal(t, Breakdown{Rating: 75, Deficiencies: 75, Penalties: 50, Distance: 100}, b)
	require.NotNil(t, p.Score)
	assert.Equal(t, 75.0, *p.Score)
	require.NotNil(t, p.Lat)
	require.NotNil(t, p.Lng)
	require.NotNil(t, p.Distance)
	assert.Equal(t, 40.7128, *p.Lat)
	assert.Equal(t, 0.0, *p.Distance)
	assert.Equal(t, "mi", p.DistanceUnit)
}

func TestScorer_Populate_UnmappedZip(t *testing.T) {
	population := []*models.Provider{
		{Num: "1", Zip: "10001", OverallRating: 5},
		{Num: "2", Zip: "99999", OverallRating: 5},
	}
	s, err := NewScorer(population, testZips(), DefaultWeights(), nil)
	require.NoError(t, err)

	p := population[1]
	b := s.Populate(p, "10001")

	assert.Equal(t, 0.0, b.Distance)
	require.NotNil(t, p.Score)
	assert.Nil(t, p.Lat)
	assert.Nil(t, p.Lng)
	assert.Nil(t, p.Distance)
	assert.Empty(t, p.DistanceUnit)
}

func TestScorer_Populate_UnmappedTarget(t *testing.T) {
	p := &models.Provider{Num: "1", Zip: "10001"}
	s, err := NewScorer([]*models.Provider{p}, testZips(), DefaultWeights(), nil)
	require.NoError(t, err)

	s.Populate(p, "00000")

	assert.NotNil(t, p.Lat)
	assert.Nil(t, p.Distance)
}

func TestScorer_Weights(t *testing.T) {
	population := []*models.Provider{
		{Num: "1", Zip: "10001", OverallRating: 5},
		{Num: "2", Zip: "10001", OverallRating: 1},
	}
	s, err := NewScorer(population, testZips(), Weights{Rating: 1}, nil)
	require.NoError(t, err)

	s.PopulateAll(population, "10001")
	assert.Equal(t, 50.0, *population[0].Score)
	assert.Equal(t, 0.0, *population[1].Score)

	_, err = NewScorer(population, testZips(), Weights{}, nil)
	assert.ErrorIs(t, err, ErrInvalidWeights)
}

func TestScorer_Kilometers(t *testing.T) {
	zips := models.NewZipCodeRepository(geo.Kilometers)
	zips.Put(models.ZipCode{Code: "a", Point: geo.Point{Lat: 0, Lng: 0}})
	zips.Put(models.ZipCode{Code: "b", Point: geo.Point{Lat: 0, Lng: 0.1}})

	p := &models.Provider{Num: "1", Zip: "b"}
	s, err := NewScorer([]*models.Provider{p}, zips, DefaultWeights(), nil)
	require.NoError(t, err)

	b := s.Populate(p, "a")
	km := *p.Distance
	assert.Equal(t, "km", p.DistanceUnit)
	assert.InDelta(t, DistancePercentile(geo.Kilometers.ToMiles(km)), b.Distance, 1e-9)
	assert.InDelta(t, 11.12, km, 0.01)
}
