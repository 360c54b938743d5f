// Package models declares the skilled nursing facility record types and the
// in-memory repositories built from them.
//
// Every record type is an explicit orm.Model registration. The same
// declarations parse the CMS download files, generate the relational schema,
// and read the schema back.
package models

import (
	"fmt"

	"github.com/leapstack-labs/snfsearch/internal/dag"
	"github.com/leapstack-labs/snfsearch/pkg/orm"
)

// ZipCodeMapping maps a zip code to its geographic centroid.
var ZipCodeMapping = orm.NewModel("zipcode_mapping",
	&orm.Field{Name: "zip_code", Aliases: []string{"zip", "ZIP"}, Key: true, Cast: orm.Text, SQLType: "TEXT PRIMARY KEY"},
	&orm.Field{Name: "lat", Aliases: []string{"latitude", "LAT"}, Cast: orm.Float, SQLType: "REAL"},
	&orm.Field{Name: "lng", Aliases: []string{"lon", "longitude", "LNG"}, Cast: orm.Float, SQLType: "REAL"},
)

// ProviderModel is a skilled nursing facility and its identifying data.
var ProviderModel = orm.NewModel("provider",
	&orm.Field{Name: "num", Aliases: []string{"provnum", "provider_num", "PROVNUM"}, Key: true, Cast: orm.Text, SQLType: "TEXT PRIMARY KEY"},
	&orm.Field{Name: "name", Aliases: []string{"PROVNAME"}, Cast: orm.Text, SQLType: "TEXT"},
	&orm.Field{Name: "street", Aliases: []string{"ADDRESS", "address"}, Cast: orm.Text, SQLType: "TEXT"},
	&orm.Field{Name: "city", Aliases: []string{"CITY"}, Cast: orm.Text, SQLType: "TEXT"},
	&orm.Field{Name: "state", Aliases: []string{"STATE"}, Cast: orm.Text, SQLType: "TEXT"},
	&orm.Field{Name: "zip", Aliases: []string{"ZIP"}, Cast: orm.Text, SQLType: "TEXT REFERENCES zipcode_mapping(zip_code)"},
	&orm.Field{Name: "phone", Aliases: []string{"PHONE"}, Cast: orm.Text, SQLType: "TEXT"},
	&orm.Field{Name: "overall_rating", Cast: orm.Int, Default: 0, SQLType: "INTEGER"},
)

// DeficiencyTypeModel is one entry of the deficiency tag vocabulary. The
// vocabulary is small and repeats across a very large deficiency file, so
// its records are interned per tag.
var DeficiencyTypeModel = &orm.Model{
	Name: "deficiency_type",
	Fields: []*orm.Field{
		{Name: "tag", Key: true, Cast: orm.Text, SQLType: "TEXT"},
		{Name: "survey_type", Aliases: []string{"SurveyType"}, Cast: orm.Text, SQLType: "TEXT"},
		{Name: "desc", Aliases: []string{"tag_desc"}, Cast: orm.Text, SQLType: "TEXT"},
		{Name: "defpref", Cast: orm.Text, SQLType: "TEXT"},
	},
	Interned: true,
}

// DeficiencyModel is a deficiency cited against a provider. Its type fields
// live in the same table.
var DeficiencyModel = orm.NewModel("deficiency",
	&orm.Field{Name: "provider_num", Aliases: []string{"provnum"}, Cast: orm.Text, SQLType: "TEXT REFERENCES provider(num)"},
	&orm.Field{Name: "survey_date", Aliases: []string{"survey_date_output"}, Cast: orm.Text, SQLType: "TEXT"},
	&orm.Field{Name: "deficiency_type", Model: DeficiencyTypeModel, SQLType: orm.Flatten},
)

// PenaltyModel holds the fields shared by every penalty variant. The type
// column is the variant discriminator.
var PenaltyModel = orm.NewModel("penalty",
	&orm.Field{Name: "provider_num", Aliases: []string{"provnum"}, Cast: orm.Text, SQLType: "TEXT REFERENCES provider(num)"},
	&orm.Field{Name: "penalty_date", Aliases: []string{"pnlty_date"}, Cast: orm.Text, SQLType: "TEXT"},
	&orm.Field{Name: "file_date", Aliases: []string{"filedate"}, Cast: orm.Text, SQLType: "TEXT"},
	&orm.Field{Name: "type", Aliases: []string{"pnlty_type"}, Key: true, Cast: orm.Text, SQLType: "TEXT"},
)

// FineDetailModel holds the fields only a fine carries. The columns are
// nullable because payment denial rows share the penalty table.
var FineDetailModel = orm.NewModel("fine_detail",
	&orm.Field{Name: "fine_amount", Aliases: []string{"fine_amt", "amount"}, Cast: orm.Float, SQLType: "REAL NULL"},
)

// PaymentDenialDetailModel holds the fields only a payment denial carries.
var PaymentDenialDetailModel = orm.NewModel("payment_denial_detail",
	&orm.Field{Name: "payment_denial_start_date", Aliases: []string{"payden_strt_dt", "start_date"}, Cast: orm.Text, SQLType: "TEXT NULL"},
	&orm.Field{Name: "payment_denial_days", Aliases: []string{"payden_days", "days"}, Cast: orm.Int, SQLType: "INTEGER NULL"},
)

// FineModel is a monetary penalty.
var FineModel = orm.NewModel("fine",
	&orm.Field{Name: "penalty", Model: PenaltyModel, SQLType: orm.Flatten},
	&orm.Field{Name: "detail", Model: FineDetailModel, SQLType: orm.Flatten},
)

// PaymentDenialModel is a denial of payment for new admissions.
var PaymentDenialModel = orm.NewModel("payment_denial",
	&orm.Field{Name: "penalty", Model: PenaltyModel, SQLType: orm.Flatten},
	&orm.Field{Name: "detail", Model: PaymentDenialDetailModel, SQLType: orm.Flatten},
)

// PenaltyRowModel is the wide row of the penalty table: the shared fields
// followed by the nullable fields of every variant.
var PenaltyRowModel = orm.NewModel("penalty_row",
	&orm.Field{Name: "penalty", Model: PenaltyModel, SQLType: orm.Flatten},
	&orm.Field{Name: "fine", Model: FineDetailModel, SQLType: orm.Flatten},
	&orm.Field{Name: "payment_denial", Model: PaymentDenialDetailModel, SQLType: orm.Flatten},
)

// CountField reads the server-side aggregate count of a pre-aggregated row.
// Rows read one by one from a file have no count column and count as one.
var CountField = &orm.Field{Name: "count", Cast: orm.Int, Default: 1}

// All lists every declared model.
var All = []*orm.Model{
	ZipCodeMapping,
	ProviderModel,
	DeficiencyTypeModel,
	DeficiencyModel,
	PenaltyModel,
	FineDetailModel,
	PaymentDenialDetailModel,
	FineModel,
	PaymentDenialModel,
	PenaltyRowModel,
}

// Table names.
const (
	ZipCodeTable    = "zipcode_mapping"
	ProviderTable   = "provider"
	DeficiencyTable = "deficiency"
	PenaltyTable    = "penalty"
)

// Tables returns the persisted tables in load order: referenced tables first.
func Tables() ([]*orm.Table, error) {
	specs := []struct {
		name    string
		models  []*orm.Model
		indexes []orm.Index
	}{
		{name: ZipCodeTable, models: []*orm.Model{ZipCodeMapping}},
		{name: ProviderTable, models: []*orm.Model{ProviderModel}, indexes: []orm.Index{
			{Name: "provider_overall_rating", Columns: []string{"overall_rating"}},
		}},
		{name: DeficiencyTable, models: []*orm.Model{DeficiencyModel}, indexes: []orm.Index{
			{Name: "deficiency_provider_num", Columns: []string{"provider_num"}},
		}},
		{name: PenaltyTable, models: []*orm.Model{PenaltyRowModel}, indexes: []orm.Index{
			{Name: "penalty_provider_num", Columns: []string{"provider_num"}},
		}},
	}

	tables := make([]*orm.Table, 0, len(specs))
	for _, s := range specs {
		t, err := orm.NewTable(s.name, s.models, s.indexes...)
		if err != nil {
			return nil, err
		}
		if s.name == PenaltyTable {
			t.MapRows(PenaltyVariantRow)
		}
		tables = append(tables, t)
	}
	return LoadOrder(tables)
}

// LoadOrder sorts tables so every table follows the tables it references.
// Tables with no ordering constraint between them keep their relative order.
func LoadOrder(tables []*orm.Table) ([]*orm.Table, error) {
	g := dag.NewGraph()
	byName := make(map[string]*orm.Table, len(tables))
	for _, t := range tables {
		g.AddNode(t.Name())
		byName[t.Name()] = t
	}
	for _, t := range tables {
		for _, ref := range t.References() {
			if err := g.AddEdge(ref, t.Name()); err != nil {
				return nil, fmt.Errorf("table %s: %w", t.Name(), err)
			}
		}
	}

	names, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	sorted := make([]*orm.Table, len(names))
	for i, name := range names {
		sorted[i] = byName[name]
	}
	return sorted, nil
}

// Validate checks every declaration and table for schema errors.
func Validate() error {
	if err := orm.Validate(All...); err != nil {
		return fmt.Errorf("invalid model declarations: %w", err)
	}
	if _, err := Tables(); err != nil {
		return fmt.Errorf("invalid table declarations: %w", err)
	}
	return nil
}
