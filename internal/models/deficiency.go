package models

import (
	"fmt"

	"github.com/leapstack-labs/snfsearch/pkg/orm"
)

// DeficiencyType is one tag of the deficiency vocabulary. It reads the
// record the Factory interns for the tag, so copies share their data.
type DeficiencyType struct {
	rec *orm.Record
}

// Tag returns the deficiency tag.
func (t DeficiencyType) Tag() string { return t.rec.String("tag") }

// SurveyType returns the kind of survey citing the tag.
func (t DeficiencyType) SurveyType() string { return t.rec.String("survey_type") }

// Desc returns the tag description.
func (t DeficiencyType) Desc() string { return t.rec.String("desc") }

// DefPref returns the tag prefix.
func (t DeficiencyType) DefPref() string { return t.rec.String("defpref") }

// Record returns the interned record.
func (t DeficiencyType) Record() *orm.Record { return t.rec }

// Deficiency is a deficiency cited against a provider on a survey date.
type Deficiency struct {
	ProviderNum string
	SurveyDate  string
	Type        DeficiencyType
}

// Catalog resolves deficiency types through the Factory's interner.
type Catalog struct {
	factory *orm.Factory
}

// NewCatalog creates a catalog building records with f.
func NewCatalog(f *orm.Factory) *Catalog {
	return &Catalog{factory: f}
}

// Type returns the deficiency type of row. Only the tag is read for a tag
// seen before.
func (c *Catalog) Type(row orm.Row) (DeficiencyType, error) {
	rec, err := c.factory.Get(DeficiencyTypeModel, row)
	if err != nil {
		return DeficiencyType{}, fmt.Errorf("failed to build deficiency type: %w", err)
	}
	return DeficiencyType{rec: rec}, nil
}

// Deficiency builds the deficiency of row.
func (c *Catalog) Deficiency(row orm.Row) (*Deficiency, error) {
	t, err := c.Type(row)
	if err != nil {
		return nil, err
	}
	d := &Deficiency{Type: t}
	for _, fd := range DeficiencyModel.Fields {
		if fd.Model != nil {
			continue
		}
		v, err := fd.Resolve(row, c.factory)
		if err != nil {
			return nil, fmt.Errorf("failed to build deficiency: %w", err)
		}
		s, _ := v.(string)
		switch fd.Name {
		case "provider_num":
			d.ProviderNum = s
		case "survey_date":
			d.SurveyDate = s
		}
	}
	return d, nil
}

// Len returns the number of distinct deficiency types seen.
func (c *Catalog) Len() int { return c.factory.Interned(DeficiencyTypeModel) }
