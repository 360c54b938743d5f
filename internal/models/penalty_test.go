package models

import (
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/snfsearch/pkg/orm"
)

func TestNewPenalty(t *testing.T) {
	amount := 6500.0
	days := 30

	tests := []struct {
		name string
		row  orm.Row
		want *Penalty
	}{
		{
			name: "fine",
			row:  orm.Row{"provnum": "1", "pnlty_date": "2015-01-01", "filedate": "2015-06-01", "pnlty_type": "Fine", "fine_amt": "6500"},
			want: &Penalty{ProviderNum: "1", PenaltyDate: "2015-01-01", FileDate: "2015-06-01", Type: "Fine", Detail: Fine{Amount: &amount}},
		},
		{
			name: "fine without amount",
			row:  orm.Row{"provnum": "1", "pnlty_type": "fine", "fine_amt": ""},
			want: &Penalty{ProviderNum: "1", Type: "fine", Detail: Fine{}},
		},
		{
			name: "payment denial",
			row:  orm.Row{"provnum": "2", "pnlty_type": "Payment Denial", "payden_strt_dt": "2015-02-01", "payden_days": "30"},
			want: &Penalty{ProviderNum: "2", Type: "Payment Denial", Detail: PaymentDenial{StartDate: "2015-02-01", Days: &days}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewPenalty(tt.row, orm.NewFactory(nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewPenalty_Kind(t *testing.T) {
	p, err := NewPenalty(orm.Row{"pnlty_type": " FINE "}, nil)
	require.NoError(t, err)
	assert.Equal(t, KindFine, p.Kind())

	p, err = NewPenalty(orm.Row{"pnlty_type": "payment denial"}, nil)
	require.NoError(t, err)
	assert.Equal(t, KindPaymentDenial, p.Kind())
}

func TestNewPenalty_UnknownType(t *testing.T) {
	for _, typ := range []string{"Warning", ""} {
		_, err := NewPenalty(orm.Row{"provnum": "1", "pnlty_type": typ}, nil)
		assert.ErrorIs(t, err, ErrUnknownPenaltyType, typ)
	}

	_, err := NewPenalty(orm.Row{"provnum": "1"}, nil)
	assert.ErrorIs(t, err, ErrUnknownPenaltyType)
}

func TestPenaltyVariantRow(t *testing.T) {
	row := orm.Row{
		"provnum": "1", "pnlty_type": "", "fine_amt": "100",
		"payden_strt_dt": "2015-02-01", "payden_days": "30",
	}

	tests := []struct {
		typ  string
		want []string
	}{
		{typ: "Fine", want: []string{"fine_amt", "pnlty_type", "provnum"}},
		{typ: "payment denial", want: []string{"payden_days", "payden_strt_dt", "pnlty_type", "provnum"}},
		{typ: "Warning", want: []string{"pnlty_type", "provnum"}},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			in := orm.Row{}
			for k, v := range row {
				in[k] = v
			}
			in["pnlty_type"] = tt.typ

			got, err := PenaltyVariantRow(in, orm.NewFactory(nil))
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, slices.Collect(maps.Keys(got)))
			assert.Len(t, in, 5)
		})
	}
}

func TestPenaltyTable_SkipsOtherVariants(t *testing.T) {
	tables, err := Tables()
	require.NoError(t, err)
	penalty := tables[len(tables)-1]
	require.Equal(t, PenaltyTable, penalty.Name())

	f := orm.NewFactory(nil)
	values, err := penalty.Values(orm.Row{
		"provnum": "1", "pnlty_type": "Fine", "fine_amt": "6500",
		"payden_strt_dt": "", "payden_days": "",
	}, f)
	require.NoError(t, err)
	assert.Equal(t, []any{"1", nil, nil, "Fine", 6500.0, nil, nil}, values)
	assert.Equal(t, 0, f.TotalCastFallbacks())
}
