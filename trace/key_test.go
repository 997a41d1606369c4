package trace

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallKey(t *testing.T) {
	a := CallKey("search", map[string]any{"q": "x", "n": 1})
	b := CallKey("search", map[string]any{"n": 1.0, "q": "x"})
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, CallKey("lookup", map[string]any{"q": "x", "n": 1}))
	assert.NotEqual(t, a, CallKey("search", map[string]any{"q": "y", "n": 1}))
	assert.Equal(t, CallKey("list", nil), CallKey("list", map[string]any{}))
}

func TestCanonicalArgs(t *testing.T) {
	args, enc := canonicalArgs(map[string]any{"b": []int{1, 2}, "a": map[string]any{"z": true}})
	assert.Equal(t, `{"a":{"z":true},"b":[1,2]}`, enc)
	assert.Equal(t, map[string]any{"a": map[string]any{"z": true}, "b": []any{1.0, 2.0}}, args)

	args, enc = canonicalArgs(nil)
	assert.Nil(t, args)
	assert.Equal(t, "{}", enc)
}

func TestCanonicalArgs_UnencodableValues(t *testing.T) {
	args, enc := canonicalArgs(map[string]any{
		"score":  math.Inf(1),
		"nested": map[string]any{"ratio": math.NaN(), "ok": "yes"},
		"list":   []any{1, math.Inf(-1)},
		"q":      "x",
	})
	assert.Equal(t, `{"list":[1,"-Inf"],"nested":{"ok":"yes","ratio":"NaN"},"q":"x","score":"+Inf"}`, enc)
	assert.Equal(t, map[string]any{
		"list":   []any{1.0, "-Inf"},
		"nested": map[string]any{"ok": "yes", "ratio": "NaN"},
		"q":      "x",
		"score":  "+Inf",
	}, args)

	assert.Equal(t,
		CallKey("search", map[string]any{"score": math.Inf(1)}),
		CallKey("search", map[string]any{"score": math.Inf(1)}))
}
