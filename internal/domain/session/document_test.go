package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentGetters(t *testing.T) {
	d := Document{
		"name":   "Tari",
		"amount": 1500.0,
		"count":  3,
		"active": true,
		"nested": map[string]any{"k": "v"},
		"list":   []any{"a", "b"},
	}
	assert.Equal(t, "Tari", d.GetString("name", ""))
	assert.Equal(t, "x", d.GetString("missing", "x"))
	assert.Equal(t, 1500.0, d.GetFloat("amount", 0))
	assert.Equal(t, 3.0, d.GetFloat("count", 0))
	assert.Equal(t, 9.0, d.GetFloat("name", 9))
	assert.True(t, d.GetBool("active", false))
	assert.Equal(t, "v", d.GetMap("nested").GetString("k", ""))
	assert.Len(t, d.GetSlice("list"), 2)
	assert.Nil(t, d.GetSlice("name"))
}

func TestDocumentCloneIsDeep(t *testing.T) {
	d := Document{"nested": map[string]any{"k": "v"}}
	c := d.Clone()
	c.GetMap("nested")["k"] = "changed"
	assert.Equal(t, "v", d.GetMap("nested").GetString("k", ""))
}

func TestDocumentScrubRecursive(t *testing.T) {
	d := Document{
		"top":    "a\x00b",
		"nested": map[string]any{"inner": "c\x07d"},
		"list":   []any{"e\x1ff"},
	}
	s := d.Scrub()
	assert.Equal(t, "ab", s.GetString("top", ""))
	assert.Equal(t, "cd", s.GetMap("nested").GetString("inner", ""))
	assert.Equal(t, "ef", s.GetSlice("list")[0])
}

func TestFieldCountSkipsEmpty(t *testing.T) {
	d := Document{
		"a": "x",
		"b": "",
		"c": nil,
		"d": 0.0,
	}
	assert.Equal(t, 2, d.FieldCount())
}

func TestDeepEqualNormalizesTypes(t *testing.T) {
	a := Document{"n": 5, "m": map[string]any{"k": "v"}}
	b := map[string]any{"n": 5.0, "m": Document{"k": "v"}}
	assert.True(t, DeepEqual(a, b))
	assert.False(t, DeepEqual(a, Document{"n": 6.0, "m": Document{"k": "v"}}))
}
