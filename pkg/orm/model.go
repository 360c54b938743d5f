package orm

import (
	"fmt"
	"strings"
	"sync"
)

// Model is a named, ordered set of fields.
type Model struct {
	Name   string
	Fields []*Field

	// Interned makes Factory.Get return one shared record per key value.
	Interned bool

	once     sync.Once
	resolved []*Field
	index    map[string]int
	key      *Field
	err      error
}

// NewModel declares a model with fields in definition order.
func NewModel(name string, fields ...*Field) *Model {
	return &Model{Name: name, Fields: fields}
}

// Resolve returns the model's fields with every flattened field replaced in
// place by its referenced model's resolved fields. The result is computed
// once and cached. A model that flattens itself, directly or through other
// models, reports ErrFlattenCycle.
func (m *Model) Resolve() ([]*Field, error) {
	m.once.Do(func() {
		fields, err := m.walk(nil)
		if err != nil {
			m.err = err
			return
		}
		index := make(map[string]int, len(fields))
		var key *Field
		for i, fd := range fields {
			if _, dup := index[fd.Name]; dup {
				m.err = fmt.Errorf("model %s: %w: %s", m.Name, ErrDuplicateColumn, fd.Name)
				return
			}
			index[fd.Name] = i
			if fd.Key {
				if key != nil {
					m.err = fmt.Errorf("model %s: %w: %s and %s", m.Name, ErrDuplicateKey, key.Name, fd.Name)
					return
				}
				key = fd
			}
		}
		m.resolved, m.index, m.key = fields, index, key
	})
	return m.resolved, m.err
}

// walk expands flattened fields depth first. path holds the models whose
// expansion is in progress on the current call path.
func (m *Model) walk(path []*Model) ([]*Field, error) {
	for _, p := range path {
		if p == m {
			names := make([]string, 0, len(path)+1)
			for _, q := range path {
				names = append(names, q.Name)
			}
			names = append(names, m.Name)
			return nil, fmt.Errorf("%w: %s", ErrFlattenCycle, strings.Join(names, " -> "))
		}
	}
	path = append(path, m)

	fields := make([]*Field, 0, len(m.Fields))
	for _, fd := range m.Fields {
		if !fd.Flattened() {
			if fd.Model != nil {
				// Nested records are built from the same row, so a
				// self-reference would never terminate either.
				if _, err := fd.Model.walk(path); err != nil {
					return nil, err
				}
			}
			fields = append(fields, fd)
			continue
		}
		nested, err := fd.Model.walk(path)
		if err != nil {
			return nil, err
		}
		fields = append(fields, nested...)
	}
	return fields, nil
}

// KeyField returns the field marked as key, or nil when the model has none.
func (m *Model) KeyField() (*Field, error) {
	if _, err := m.Resolve(); err != nil {
		return nil, err
	}
	return m.key, nil
}

// Key resolves the model's key value from row.
func (m *Model) Key(row Row, f *Factory) (any, error) {
	key, err := m.KeyField()
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, fmt.Errorf("model %s: %w", m.Name, ErrNoKey)
	}
	return key.Resolve(row, f)
}

// SourceNames returns every source column name the model's resolved fields
// read: each canonical name followed by its aliases.
func (m *Model) SourceNames() ([]string, error) {
	fields, err := m.Resolve()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, fd := range fields {
		names = append(names, fd.Name)
		names = append(names, fd.Aliases...)
	}
	return names, nil
}

// Validate resolves each model and returns the first schema error.
func Validate(models ...*Model) error {
	for _, m := range models {
		if _, err := m.Resolve(); err != nil {
			return err
		}
	}
	return nil
}
