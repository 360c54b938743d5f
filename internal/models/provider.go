package models

import (
	"errors"
	"fmt"
	"io"

	"github.com/leapstack-labs/snfsearch/pkg/orm"
)

// Provider is a skilled nursing facility with its aggregate counts and, once
// scored for a query, its computed fields.
type Provider struct {
	Num           string `json:"num" yaml:"num"`
	Name          string `json:"name" yaml:"name"`
	Street        string `json:"street" yaml:"street"`
	City          string `json:"city" yaml:"city"`
	State         string `json:"state" yaml:"state"`
	Zip           string `json:"zip" yaml:"zip"`
	Phone         string `json:"phone" yaml:"phone"`
	OverallRating int    `json:"overall_rating" yaml:"overall_rating"`

	NumDeficiencies int `json:"num_deficiencies" yaml:"num_deficiencies"`
	NumPenalties    int `json:"num_penalties" yaml:"num_penalties"`

	Score        *float64 `json:"score,omitempty" yaml:"score,omitempty"`
	Lat          *float64 `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty" yaml:"lng,omitempty"`
	Distance     *float64 `json:"distance,omitempty" yaml:"distance,omitempty"`
	DistanceUnit string   `json:"distance_unit,omitempty" yaml:"distance_unit,omitempty"`
}

// NewProvider builds a Provider from a provider record. Counts start at zero.
func NewProvider(rec *orm.Record) *Provider {
	return &Provider{
		Num:           rec.String("num"),
		Name:          rec.String("name"),
		Street:        rec.String("street"),
		City:          rec.String("city"),
		State:         rec.String("state"),
		Zip:           rec.String("zip"),
		Phone:         rec.String("phone"),
		OverallRating: rec.Int("overall_rating"),
	}
}

// Clone returns a copy safe to score without touching the original.
func (p *Provider) Clone() *Provider {
	c := *p
	return &c
}

// ProviderRepository holds providers by number in insertion order.
type ProviderRepository struct {
	factory *orm.Factory
	byNum   map[string]*Provider
	order   []string
}

// NewProviderRepository creates an empty repository building records with f.
func NewProviderRepository(f *orm.Factory) *ProviderRepository {
	return &ProviderRepository{factory: f, byNum: make(map[string]*Provider)}
}

// Load adds every row of src. It returns the number of rows read.
func (r *ProviderRepository) Load(src orm.RowSource) (int, error) {
	n := 0
	for {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("failed to read provider row %d: %w", n+1, err)
		}
		n++
		if _, err := r.Add(row); err != nil {
			return n, err
		}
	}
}

// Add builds a provider from row and stores it. A later provider with the
// same number replaces the earlier one but keeps its position.
func (r *ProviderRepository) Add(row orm.Row) (*Provider, error) {
	rec, err := r.factory.Get(ProviderModel, row)
	if err != nil {
		return nil, err
	}
	p := NewProvider(rec)
	r.Put(p)
	return p, nil
}

// Put stores p under its number.
func (r *ProviderRepository) Put(p *Provider) {
	if _, ok := r.byNum[p.Num]; !ok {
		r.order = append(r.order, p.Num)
	}
	r.byNum[p.Num] = p
}

// Get returns the provider with number num.
func (r *ProviderRepository) Get(num string) (*Provider, bool) {
	p, ok := r.byNum[num]
	return p, ok
}

// Lookup returns the provider a deficiency, penalty or aggregate row refers
// to. The row's provider number is resolved through the provider key field,
// so provnum, provider_num and num all match.
func (r *ProviderRepository) Lookup(row orm.Row) (*Provider, bool) {
	key, err := ProviderModel.Key(row, r.factory)
	if err != nil {
		return nil, false
	}
	num, _ := key.(string)
	if num == "" {
		return nil, false
	}
	return r.Get(num)
}

// CountDeficiency adds the row's count to the deficiency count of the
// provider it refers to. It reports false when no such provider is loaded.
func (r *ProviderRepository) CountDeficiency(row orm.Row) bool {
	p, ok := r.Lookup(row)
	if !ok {
		return false
	}
	p.NumDeficiencies += r.count(row)
	return true
}

// CountPenalty adds the row's count to the penalty count of the provider it
// refers to. It reports false when no such provider is loaded.
func (r *ProviderRepository) CountPenalty(row orm.Row) bool {
	p, ok := r.Lookup(row)
	if !ok {
		return false
	}
	p.NumPenalties += r.count(row)
	return true
}

func (r *ProviderRepository) count(row orm.Row) int {
	v, _ := CountField.Resolve(row, r.factory)
	n, _ := v.(int)
	return n
}

// All returns the providers in insertion order.
func (r *ProviderRepository) All() []*Provider {
	out := make([]*Provider, 0, len(r.order))
	for _, num := range r.order {
		out = append(out, r.byNum[num])
	}
	return out
}

// Len returns the number of providers.
func (r *ProviderRepository) Len() int { return len(r.order) }
