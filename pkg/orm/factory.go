package orm

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Factory builds records from rows. It owns the intern caches of interned
// models and counts cast failures, so one Factory should serve one ingestion
// run. A nil *Factory builds records without interning or counting.
type Factory struct {
	logger *slog.Logger

	mu        sync.Mutex
	interners map[*Model]*Interner[any, *Record]
	fallbacks map[string]int
}

// NewFactory creates a Factory. If logger is nil, a discard logger is used.
func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Factory{
		logger:    logger,
		interners: make(map[*Model]*Interner[any, *Record]),
		fallbacks: make(map[string]int),
	}
}

// New builds a record of m from row, resolving every field of m in order.
func (f *Factory) New(m *Model, row Row) (*Record, error) {
	fields, err := m.Resolve()
	if err != nil {
		return nil, err
	}
	values := make([]any, len(fields))
	for i, fd := range fields {
		v, err := fd.Resolve(row, f)
		if err != nil {
			return nil, fmt.Errorf("model %s field %s: %w", m.Name, fd.Name, err)
		}
		values[i] = v
	}
	return &Record{model: m, values: values}, nil
}

// Get returns the record of m for row. For interned models the record is
// shared between all rows with the same key value; otherwise Get is New.
func (f *Factory) Get(m *Model, row Row) (*Record, error) {
	if f == nil || !m.Interned {
		return f.New(m, row)
	}
	key, err := m.Key(row, f)
	if err != nil {
		return nil, err
	}
	return f.interner(m).GetOrCreate(key, func() (*Record, error) {
		return f.New(m, row)
	})
}

// Interned returns the number of distinct records cached for m.
func (f *Factory) Interned(m *Model) int {
	if f == nil {
		return 0
	}
	return f.interner(m).Len()
}

func (f *Factory) interner(m *Model) *Interner[any, *Record] {
	f.mu.Lock()
	defer f.mu.Unlock()
	in, ok := f.interners[m]
	if !ok {
		in = NewInterner[any, *Record]()
		f.interners[m] = in
	}
	return in
}

func (f *Factory) castFailed(fd *Field, raw any, err error) {
	if f == nil {
		return
	}
	f.mu.Lock()
	f.fallbacks[fd.Name]++
	f.mu.Unlock()
	f.logger.Debug("cast failed, using default",
		slog.String("field", fd.Name),
		slog.Any("value", raw),
		slog.Any("default", fd.Default),
		slog.String("error", err.Error()))
}

// CastFallbacks returns how often each field fell back to its default because
// its value could not be cast.
func (f *Factory) CastFallbacks() map[string]int {
	out := make(map[string]int)
	if f == nil {
		return out
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, v := range f.fallbacks {
		out[k] = v
	}
	return out
}

// TotalCastFallbacks returns the sum of CastFallbacks.
func (f *Factory) TotalCastFallbacks() int {
	total := 0
	for _, n := range f.CastFallbacks() {
		total += n
	}
	return total
}

// FallbackFields returns the names of fields with cast fallbacks, sorted.
func (f *Factory) FallbackFields() []string {
	counts := f.CastFallbacks()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
