package orm

// Flatten is the SQLType marker of a field whose referenced model's fields are
// spliced into the enclosing model instead of forming a column of their own.
const Flatten = "FLATTEN"

// Field describes one named attribute of a Model.
type Field struct {
	// Name is the canonical column name, tried before any alias.
	Name string

	// Aliases are alternate source column names, tried in order.
	Aliases []string

	// Model, when set, makes the field a nested record built from the same row.
	Model *Model

	// Key marks the field that uniquely identifies a record of the model.
	Key bool

	// Cast converts the raw value. A failed cast yields Default.
	Cast Caster

	// Default is used when no source column is present or the cast fails.
	Default any

	// SQLType is the column type used in CREATE TABLE, or Flatten. Fields with
	// an empty SQLType are not persisted.
	SQLType string
}

// Flattened reports whether the field splices its model's fields in place.
func (fd *Field) Flattened() bool {
	return fd.Model != nil && fd.SQLType == Flatten
}

// Persisted reports whether the field contributes a table column.
func (fd *Field) Persisted() bool {
	return fd.SQLType != "" && fd.SQLType != Flatten
}

// Resolve returns the field's value for row.
//
// A field referencing another model builds that model from the same row
// through f, which interns it when the model asks for it. Otherwise the
// canonical name is tried first and then each alias in declared order; the
// first present value wins. A missing value yields Default.
//
// When Cast is set and fails, Default is returned and the failure is counted
// by f. Malformed source data such as empty rating columns never fails a
// row. The returned error only reports schema problems of nested models.
func (fd *Field) Resolve(row Row, f *Factory) (any, error) {
	if fd.Model != nil {
		rec, err := f.Get(fd.Model, row)
		if err != nil {
			return nil, err
		}
		return rec, nil
	}

	raw, ok := fd.lookup(row)
	if !ok {
		return fd.Default, nil
	}
	if fd.Cast == nil {
		return raw, nil
	}
	v, err := fd.Cast(raw)
	if err != nil {
		f.castFailed(fd, raw, err)
		return fd.Default, nil
	}
	return v, nil
}

func (fd *Field) lookup(row Row) (any, bool) {
	if v, ok := row.Lookup(fd.Name); ok {
		return v, true
	}
	for _, alias := range fd.Aliases {
		if v, ok := row.Lookup(alias); ok {
			return v, true
		}
	}
	return nil, false
}
