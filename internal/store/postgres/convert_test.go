package postgres

import (
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "19.99", "1200", "0.000001", "123456789.123456789"} {
		t.Run(s, func(t *testing.T) {
			want := decimal.RequireFromString(s)
			got, err := fromPgNumeric(toPgNumeric(want))
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}
}

func TestFromPgNumeric(t *testing.T) {
	tests := []struct {
		name    string
		in      pgtype.Numeric
		want    string
		wantErr bool
	}{
		{name: "null is zero", in: pgtype.Numeric{}, want: "0"},
		{name: "nil int is zero", in: pgtype.Numeric{Valid: true}, want: "0"},
		{name: "scaled", in: pgtype.Numeric{Int: big.NewInt(50850), Exp: -2, Valid: true}, want: "508.5"},
		{name: "nan", in: pgtype.Numeric{NaN: true, Valid: true}, wantErr: true},
		{name: "infinity", in: pgtype.Numeric{InfinityModifier: pgtype.Infinity, Valid: true}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fromPgNumeric(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestToPgDate(t *testing.T) {
	in := time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("X", 5*3600))
	got := toPgDate(in)
	assert.True(t, got.Valid)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), got.Time)

	assert.False(t, toPgDateBound(nil).Valid)
	assert.True(t, toPgDateBound(&in).Valid)
}

func TestToPgUUID(t *testing.T) {
	id := uuid.New()
	got := toPgUUID(id)
	assert.True(t, got.Valid)
	assert.Equal(t, [16]byte(id), got.Bytes)
}
