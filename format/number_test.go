package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{0.025, "0.025"},
		{-3.5, "-3.5"},
		{1, "1"},
		{123456.7, "123457"},
		{1.0 / 3.0, "0.333333"},
		{0.000001, "0.000001"},
		{0.00000015, "1.5e-7"},
		{123456789, "123457000"},
		{1234567890, "1.23457e+9"},
		{1e9, "1e+9"},
		{-2.5e-10, "-2.5e-10"},
		{6.02214076e23, "6.02214e+23"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in), "FormatNumber(%v)", tt.in)
	}
}
