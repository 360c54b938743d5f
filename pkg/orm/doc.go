// Package orm maps heterogeneous source rows onto declared record types.
//
// A Model is an ordered list of Fields. Each Field names its canonical column,
// the aliases it may appear under in a source row, an optional caster and
// default, and the SQL column type used when the model is stored.
//
// A Field whose SQLType is Flatten splices the resolved fields of its
// referenced Model into the enclosing model in place. Several record types can
// therefore share one physical table:
//
//	penalty := orm.NewModel("penalty",
//		&orm.Field{Name: "provider_num", Aliases: []string{"provnum"}, SQLType: "TEXT"},
//		&orm.Field{Name: "type", Aliases: []string{"pnlty_type"}, Key: true, SQLType: "TEXT"},
//	)
//	fine := orm.NewModel("fine",
//		&orm.Field{Name: "penalty", Model: penalty, SQLType: orm.Flatten},
//		&orm.Field{Name: "fine_amount", Aliases: []string{"fine_amt"}, Cast: orm.Float, SQLType: "REAL NULL"},
//	)
//
// The same resolved field list drives record construction (Factory), DDL and
// INSERT generation (Table), so column order never diverges between them.
package orm
