package state

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: `"abc"`, want: "abc"},
		{raw: `" 42 "`, want: "42"},
		{raw: `7`, want: "7"},
		{raw: `7.0`, want: "7"},
		{raw: `1e3`, want: "1000"},
		{raw: `""`, wantErr: true},
		{raw: `true`, wantErr: true},
		{raw: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizeID(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecord(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"Id":3,"Name":"Laminado","priceTransparent":null,"price":"$10"}`), &rec))

	id, err := rec.ID()
	require.NoError(t, err)
	assert.Equal(t, "3", id)

	name, err := rec.String("name", "Name")
	require.NoError(t, err)
	assert.Equal(t, "Laminado", name)

	raw, ok := rec.First("priceTransparent", "price")
	require.True(t, ok)
	assert.JSONEq(t, `"$10"`, string(raw))

	_, ok = rec.First("priceColor")
	assert.False(t, ok)

	missing, err := rec.String("address")
	require.NoError(t, err)
	assert.Empty(t, missing)

	_, err = Record{}.ID()
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestRecord_StringAcceptsNumbers(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"phone":1155550000,"name":true}`), &rec))

	phone, err := rec.String("phone")
	require.NoError(t, err)
	assert.Equal(t, "1155550000", phone)

	_, err = rec.String("name")
	assert.Error(t, err)
}
