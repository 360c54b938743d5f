package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/snfsearch/pkg/orm"
)

// ErrUnknownPenaltyType is returned for a penalty row whose type matches no
// known variant.
var ErrUnknownPenaltyType = errors.New("unknown penalty type")

// PenaltyKind discriminates penalty variants.
type PenaltyKind string

// Penalty kinds as they appear in the type column, compared case-insensitively.
const (
	KindFine          PenaltyKind = "fine"
	KindPaymentDenial PenaltyKind = "payment denial"
)

// Penalty is a penalty imposed on a provider. Detail holds the fields of its
// variant and is a Fine or a PaymentDenial.
type Penalty struct {
	ProviderNum string
	PenaltyDate string
	FileDate    string
	Type        string
	Detail      PenaltyDetail
}

// Kind returns the variant of p.
func (p *Penalty) Kind() PenaltyKind { return p.Detail.Kind() }

// PenaltyDetail is the variant-specific part of a penalty.
type PenaltyDetail interface {
	Kind() PenaltyKind
}

// Fine is a monetary penalty. Amount is nil when the source value is missing
// or malformed.
type Fine struct {
	Amount *float64
}

// Kind implements PenaltyDetail.
func (Fine) Kind() PenaltyKind { return KindFine }

// PaymentDenial denies payment for new admissions from StartDate for Days days.
type PaymentDenial struct {
	StartDate string
	Days      *int
}

// Kind implements PenaltyDetail.
func (PaymentDenial) Kind() PenaltyKind { return KindPaymentDenial }

// ParsePenaltyKind maps a type column value to its variant.
func ParsePenaltyKind(s string) (PenaltyKind, error) {
	switch k := PenaltyKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindFine, KindPaymentDenial:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPenaltyType, s)
	}
}

// NewPenalty builds the penalty variant selected by row's type column.
func NewPenalty(row orm.Row, f *orm.Factory) (*Penalty, error) {
	t, err := PenaltyModel.Key(row, f)
	if err != nil {
		return nil, err
	}
	typ, _ := t.(string)
	kind, err := ParsePenaltyKind(typ)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindFine:
		rec, err := f.New(FineModel, row)
		if err != nil {
			return nil, err
		}
		p := newPenalty(rec)
		var fine Fine
		if v, ok := rec.Float("fine_amount"); ok {
			fine.Amount = &v
		}
		p.Detail = fine
		return p, nil
	default:
		rec, err := f.New(PaymentDenialModel, row)
		if err != nil {
			return nil, err
		}
		p := newPenalty(rec)
		denial := PaymentDenial{StartDate: rec.String("payment_denial_start_date")}
		if v, ok := rec.Get("payment_denial_days").(int); ok {
			denial.Days = &v
		}
		p.Detail = denial
		return p, nil
	}
}

// PenaltyVariantRow hides the source columns of every variant other than the
// one selected by row's type column, so the wide penalty row stores NULL for
// them without casting. A row of unknown type keeps none of them.
func PenaltyVariantRow(row orm.Row, f *orm.Factory) (orm.Row, error) {
	t, err := PenaltyModel.Key(row, f)
	if err != nil {
		return nil, err
	}
	typ, _ := t.(string)

	var hidden []*orm.Model
	switch kind, _ := ParsePenaltyKind(typ); kind {
	case KindFine:
		hidden = []*orm.Model{PaymentDenialDetailModel}
	case KindPaymentDenial:
		hidden = []*orm.Model{FineDetailModel}
	default:
		hidden = []*orm.Model{FineDetailModel, PaymentDenialDetailModel}
	}

	var names []string
	for _, m := range hidden {
		n, err := m.SourceNames()
		if err != nil {
			return nil, err
		}
		names = append(names, n...)
	}
	return row.Without(names...), nil
}

func newPenalty(rec *orm.Record) *Penalty {
	return &Penalty{
		ProviderNum: rec.String("provider_num"),
		PenaltyDate: rec.String("penalty_date"),
		FileDate:    rec.String("file_date"),
		Type:        rec.String("type"),
	}
}
