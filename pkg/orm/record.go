package orm

// Record holds one value per resolved field of its model.
type Record struct {
	model  *Model
	values []any
}

// Model returns the record's type.
func (r *Record) Model() *Model { return r.model }

// Values returns the record's values in resolved field order.
func (r *Record) Values() []any {
	out := make([]any, len(r.values))
	copy(out, r.values)
	return out
}

// Get returns the value of the named field, or nil when the model has no such
// field.
func (r *Record) Get(name string) any {
	i, ok := r.model.index[name]
	if !ok {
		return nil
	}
	return r.values[i]
}

// String returns the named value as a string, or "" when unset or not a string.
func (r *Record) String(name string) string {
	s, _ := r.Get(name).(string)
	return s
}

// Int returns the named value as an int, or 0 when unset or not an int.
func (r *Record) Int(name string) int {
	n, _ := r.Get(name).(int)
	return n
}

// Float returns the named value and whether it was set to a float64.
func (r *Record) Float(name string) (float64, bool) {
	f, ok := r.Get(name).(float64)
	return f, ok
}

// Record returns the named nested record, or nil.
func (r *Record) Record(name string) *Record {
	rec, _ := r.Get(name).(*Record)
	return rec
}
