package sdjwt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario F: ClaimPath JSON round-trip.
func TestClaimPath_JSONRoundTrip_ScenarioF(t *testing.T) {
	raw := `[["address", null, "country"]]`
	var paths []ClaimPath
	require.NoError(t, json.Unmarshal([]byte(raw), &paths))
	require.Len(t, paths, 1)

	p := paths[0]
	require.Len(t, p, 3)
	assert.Equal(t, ClaimName("address"), p[0])
	assert.Equal(t, AllArrayElements{}, p[1])
	assert.Equal(t, ClaimName("country"), p[2])

	out, err := json.Marshal(paths)
	require.NoError(t, err)

	var reparsed []ClaimPath
	require.NoError(t, json.Unmarshal(out, &reparsed))
	assert.Equal(t, paths, reparsed)
}

func TestClaimPath_UnmarshalJSON_MalformedElement(t *testing.T) {
	var p ClaimPath
	err := json.Unmarshal([]byte(`[true]`), &p)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrMalformedClaimPath, kind)
}

func TestClaimPath_Contains(t *testing.T) {
	wildcard := ClaimPath{ClaimName("nationalities"), AllArrayElements{}}
	indexed := ClaimPath{ClaimName("nationalities"), ArrayIndex(2)}
	assert.True(t, wildcard.Contains(indexed))
	assert.False(t, indexed.Contains(wildcard))
	assert.True(t, indexed.Contains(indexed))
}

func TestClaimPath_ParentHeadTailLast(t *testing.T) {
	p := ClaimPath{ClaimName("address"), ClaimName("country")}
	parent, ok := p.Parent()
	require.True(t, ok)
	assert.Equal(t, ClaimPath{ClaimName("address")}, parent)
	assert.Equal(t, ClaimName("address"), p.Head())
	assert.Equal(t, ClaimPath{ClaimName("country")}, p.Tail())
	assert.Equal(t, ClaimName("country"), p.Last())

	root := ClaimPath{ClaimName("address")}
	_, ok = root.Parent()
	assert.False(t, ok)
}

func TestSelect_ObjectTraversal(t *testing.T) {
	doc := map[string]any{
		"address": map[string]any{
			"country": "DE",
		},
	}
	v, present, err := Select(doc, ClaimPath{ClaimName("address"), ClaimName("country")})
	require.NoError(t, err)
	require.True(t, present)
	assert.Equal(t, "DE", v)

	_, present, err = Select(doc, ClaimPath{ClaimName("address"), ClaimName("missing")})
	require.NoError(t, err)
	assert.False(t, present)
}

func TestSelect_PathTypeMismatch(t *testing.T) {
	doc := map[string]any{"address": "not-an-object"}
	_, _, err := Select(doc, ClaimPath{ClaimName("address"), ClaimName("country")})
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, ErrPathTypeMismatch, kind)
}

func TestSelect_AllArrayElements(t *testing.T) {
	doc := map[string]any{
		"nationalities": []any{
			map[string]any{"code": "DE"},
			map[string]any{"code": "GR"},
		},
	}
	v, present, err := Select(doc, ClaimPath{ClaimName("nationalities"), AllArrayElements{}, ClaimName("code")})
	require.NoError(t, err)
	require.True(t, present)
	assert.Equal(t, []any{"DE", "GR"}, v)

	whole, present, err := Select(doc, ClaimPath{ClaimName("nationalities"), AllArrayElements{}})
	require.NoError(t, err)
	require.True(t, present)
	assert.Len(t, whole, 2)
}

func TestEnsureObjectAttributes(t *testing.T) {
	require.NoError(t, EnsureObjectAttributes([]ClaimPath{{ClaimName("a")}}))
	err := EnsureObjectAttributes([]ClaimPath{{ArrayIndex(0)}})
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, ErrMalformedClaimPath, kind)
}
