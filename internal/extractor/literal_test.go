package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLiteral_Int(t *testing.T) {
	v, ok := parseLiteral("42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), v)
}

func TestParseLiteral_NegativeFloat(t *testing.T) {
	v, ok := parseLiteral("-1.5e3")
	assert.True(t, ok)
	assert.Equal(t, -1.5e3, v)
}

func TestParseLiteral_QuotedString(t *testing.T) {
	v, ok := parseLiteral(`'hello'`)
	assert.True(t, ok)
	assert.Equal(t, "hello", v)
}

func TestParseLiteral_EscapedQuoteInString(t *testing.T) {
	v, ok := parseLiteral(`"a\"b"`)
	assert.True(t, ok)
	assert.Equal(t, `a"b`, v)
}

func TestParseLiteral_NestedList(t *testing.T) {
	v, ok := parseLiteral("[1, [2, 3], 4]")
	assert.True(t, ok)
	assert.Equal(t, []any{int64(1), []any{int64(2), int64(3)}, int64(4)}, v)
}

func TestParseLiteral_Dict(t *testing.T) {
	v, ok := parseLiteral(`{'a': 1, 'b': 2}`)
	assert.True(t, ok)
	assert.Equal(t, map[string]any{"a": int64(1), "b": int64(2)}, v)
}

func TestParseLiteral_EmptyListAndDict(t *testing.T) {
	v, ok := parseLiteral("[]")
	assert.True(t, ok)
	assert.Nil(t, v)

	v, ok = parseLiteral("{}")
	assert.True(t, ok)
	assert.Equal(t, map[string]any{}, v)
}

func TestParseLiteral_RejectsGarbage(t *testing.T) {
	_, ok := parseLiteral("not a literal at all")
	assert.False(t, ok)
}

func TestParseLiteral_RejectsTrailingGarbage(t *testing.T) {
	_, ok := parseLiteral("42 garbage")
	assert.False(t, ok)
}
