package ingest

import (
	"errors"
	"log/slog"

	"github.com/leapstack-labs/snfsearch/internal/models"
	"github.com/leapstack-labs/snfsearch/pkg/orm"
)

// PenaltyAudit passes penalty rows through unchanged while counting the rows
// whose type is neither a fine nor a payment denial. The wide penalty table
// stores such rows with every variant column empty.
type PenaltyAudit struct {
	*CSVSource
	factory *orm.Factory
	logger  *slog.Logger
	unknown int
}

// AuditPenalties wraps src.
func AuditPenalties(src *CSVSource, f *orm.Factory, logger *slog.Logger) *PenaltyAudit {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PenaltyAudit{CSVSource: src, factory: f, logger: logger}
}

// Next returns the next row of the wrapped source.
func (a *PenaltyAudit) Next() (orm.Row, error) {
	row, err := a.CSVSource.Next()
	if err != nil {
		return row, err
	}
	typ, err := models.PenaltyModel.Key(row, a.factory)
	if err != nil {
		return nil, err
	}
	s, _ := typ.(string)
	if _, err := models.ParsePenaltyKind(s); errors.Is(err, models.ErrUnknownPenaltyType) {
		a.unknown++
		a.logger.Debug("penalty of unknown type", "type", s)
	}
	return row, nil
}

// Unknown returns the number of rows of unknown type seen so far.
func (a *PenaltyAudit) Unknown() int { return a.unknown }
