package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_Int(t *testing.T) {
	s := Parse("42")
	assert.Equal(t, "42", s.Canonical())
	assert.True(t, s.IsNumeric())
}

func TestParse_Float(t *testing.T) {
	s := Parse("3.5")
	assert.Equal(t, "3.5", s.Canonical())
	assert.True(t, s.IsNumeric())
	assert.Equal(t, 3.5, s.Float())
}

func TestParse_String(t *testing.T) {
	s := Parse("water")
	assert.Equal(t, "water", s.Canonical())
	assert.False(t, s.IsNumeric())
}

func TestInt_Canonical(t *testing.T) {
	assert.Equal(t, "7", Int(7).Canonical())
}

func TestFloat_Canonical_ShortestRoundTrip(t *testing.T) {
	assert.Equal(t, "0.1", Float(0.1).Canonical())
}

func TestString_Canonical(t *testing.T) {
	assert.Equal(t, "hello world", String("hello world").Canonical())
}
