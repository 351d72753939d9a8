package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericStringToSatang(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0.00", 0},
		{"1.00", 100},
		{"199.50", 19950},
		{"0.01", 1},
		{"-45.30", -4530},
		{" 12.34 ", 1234},
		{"999999.99", 99999999},
	}

	for _, tt := range tests {
		got, err := numericStringToSatang(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNumericStringToSatang_Invalid(t *testing.T) {
	_, err := numericStringToSatang("")
	assert.Error(t, err)

	_, err = numericStringToSatang("not-a-number")
	assert.Error(t, err)
}

func TestSatangToNumericString(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0.00"},
		{100, "1.00"},
		{19950, "199.50"},
		{1, "0.01"},
		{-4530, "-45.30"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, satangToNumericString(tt.in))
	}
}

func TestMoneyRoundTrip(t *testing.T) {
	for _, satang := range []int64{0, 1, 99, 100, 19950, 123456789} {
		got, err := numericStringToSatang(satangToNumericString(satang))
		require.NoError(t, err)
		assert.Equal(t, satang, got)
	}
}
