package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestCreateEntryRequest_Validate(t *testing.T) {
	valid := CreateEntryRequest{Date: "2024-03-01", Time: "08:30", Liters: 5, PricePerLiter: 102.5, Odometer: ptr(1200)}
	assert.NoError(t, valid.Validate())

	noTime := valid
	noTime.Time = ""
	assert.NoError(t, noTime.Validate())

	tests := []struct {
		name  string
		mut   func(r *CreateEntryRequest)
		field string
	}{
		{"zero liters", func(r *CreateEntryRequest) { r.Liters = 0 }, "liters"},
		{"negative price", func(r *CreateEntryRequest) { r.PricePerLiter = -1 }, "price_per_liter"},
		{"negative cost", func(r *CreateEntryRequest) { r.Cost = -3 }, "cost"},
		{"negative odometer", func(r *CreateEntryRequest) { r.Odometer = ptr(-1) }, "odometer"},
		{"bad date", func(r *CreateEntryRequest) { r.Date = "01/03/2024" }, "date"},
		{"bad time", func(r *CreateEntryRequest) { r.Time = "8pm" }, "time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mut(&req)
			var ve *ValidationError
			require.True(t, errors.As(req.Validate(), &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestEntryPatch_Apply(t *testing.T) {
	entry := FuelEntry{Liters: 4, PricePerLiter: 100, Cost: 400, Odometer: ptr(900)}

	patch := EntryPatch{Liters: ptr(5), Odometer: ptr(950)}
	require.NoError(t, patch.Validate())
	assert.False(t, patch.IsEmpty())

	out := patch.Apply(entry)
	assert.Equal(t, 5.0, out.Liters)
	assert.Equal(t, 100.0, out.PricePerLiter)
	assert.Equal(t, 950.0, out.OdometerValue())
	assert.Equal(t, 900.0, entry.OdometerValue(), "original entry must be untouched")

	assert.True(t, EntryPatch{}.IsEmpty())
	assert.Error(t, EntryPatch{PricePerLiter: ptr(0)}.Validate())
}

func TestWrapStorage_Cause(t *testing.T) {
	assert.NoError(t, WrapStorage("find", nil))
	assert.ErrorIs(t, WrapStorage("find", ErrNotFound), ErrNotFound)

	cause := errors.New("connection reset")
	err := WrapStorage("find vehicle", cause)
	var se *StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "find vehicle", se.Op)
	assert.ErrorIs(t, err, cause)
	assert.Same(t, err, WrapStorage("again", err))
}
