package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	accept := map[string]float64{
		"12":     12,
		"12.5":   12.5,
		"12,5":   12.5,
		" 7 ":    7,
		".5":     0.5,
		"12.":    12,
		"0":      0,
		"007.50": 7.5,
	}
	for in, want := range accept {
		got, ok := ParseAmount(in)
		if assert.True(t, ok, "%q should parse", in) {
			assert.Equal(t, want, got, in)
		}
	}

	for _, in := range []string{"12.5.6", "12,5.1", "-5", "+5", "abc", "", " ", ".", "1e3", "12 5", "١٢", "inf", "0x10"} {
		_, ok := ParseAmount(in)
		assert.False(t, ok, "%q should be rejected", in)
	}
}
