package sdjwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noDecoyOpts(salts ...Salt) CreateOptions {
	return CreateOptions{
		Alg:    SHA256,
		Salts:  &DeterministicSaltProvider{Salts: salts},
		Decoys: CryptoDecoyGenerator{},
	}
}

// Scenario A: flat issuance.
func TestCreateSDJWT_ScenarioA_FlatIssuance(t *testing.T) {
	content := NewOrderedMap[DisclosableElement]()
	content.Set("family_name", SD("Doe"))
	content.Set("iss", NSD("https://ex.com/issuer"))
	root := Obj(false, content, nil)

	out, err := CreateSDJWT(root, noDecoyOpts("_26bc4LT-ac6q2KI6cBW5es"))
	require.NoError(t, err)
	require.Len(t, out.Disclosures, 1)

	d := out.Disclosures[0]
	assert.True(t, d.IsObjectProperty())
	assert.Equal(t, "family_name", *d.Name)
	assert.Equal(t, "Doe", d.Value)

	assert.Equal(t, "https://ex.com/issuer", out.Payload["iss"])
	assert.NotContains(t, out.Payload, "family_name")
	assert.Equal(t, "sha-256", out.Payload["_sd_alg"])

	sd, ok := out.Payload["_sd"].([]any)
	require.True(t, ok)
	require.Len(t, sd, 1)

	wantDigest, err := Digest(d, SHA256)
	require.NoError(t, err)
	assert.Equal(t, wantDigest, sd[0])
}

// Scenario B: recreation with no disclosures.
func TestRecreateClaims_ScenarioB_NoDisclosures(t *testing.T) {
	payload := JsonObject{
		"iss":     "x",
		"_sd":     []any{"AAA", "BBB"},
		"_sd_alg": "sha-256",
	}
	recreated, _, err := RecreateClaims(payload, nil, RecreateOptions{Lenient: true})
	require.NoError(t, err)
	assert.Equal(t, JsonObject{"iss": "x"}, recreated)
}

func TestRecreateClaims_StrictUnusedDisclosure(t *testing.T) {
	payload := JsonObject{"iss": "x"}
	d, err := NewObjectProperty("s", "name", "value")
	require.NoError(t, err)

	_, _, err = RecreateClaims(payload, []*Disclosure{d}, RecreateOptions{})
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, ErrUnusedDisclosure, kind)

	recreated, _, err := RecreateClaims(payload, []*Disclosure{d}, RecreateOptions{Lenient: true})
	require.NoError(t, err)
	assert.Equal(t, JsonObject{"iss": "x"}, recreated)
}

// Scenario C: array element disclosure.
func TestCreateSDJWT_ScenarioC_ArrayElementDisclosure(t *testing.T) {
	arrContent := []DisclosableElement{
		SD("DE"),
		NSD("GR"),
	}
	content := NewOrderedMap[DisclosableElement]()
	content.Set("nationalities", Arr(true, arrContent, nil))
	root := Obj(false, content, nil)

	out, err := CreateSDJWT(root, noDecoyOpts("salt1", "salt2"))
	require.NoError(t, err)

	// nationalities itself is behind a top-level _sd digest.
	assert.NotContains(t, out.Payload, "nationalities")
	sd, ok := out.Payload["_sd"].([]any)
	require.True(t, ok)
	require.Len(t, sd, 1)

	// Exactly one disclosure carries the array-level wrapping and one
	// the array-element DE value: two disclosures total.
	require.Len(t, out.Disclosures, 2)

	var arrayPropertyDisclosure *Disclosure
	for _, d := range out.Disclosures {
		if d.IsObjectProperty() && *d.Name == "nationalities" {
			arrayPropertyDisclosure = d
		}
	}
	require.NotNil(t, arrayPropertyDisclosure)
	arr, ok := arrayPropertyDisclosure.Value.([]any)
	require.True(t, ok)
	require.Len(t, arr, 2)
	assert.Equal(t, "GR", arr[1])

	wrapped, ok := arr[0].(JsonObject)
	require.True(t, ok)
	assert.Contains(t, wrapped, "...")
}

func buildNestedSpec() *ObjNode {
	addressContent := NewOrderedMap[DisclosableElement]()
	addressContent.Set("country", SD("DE"))
	addressContent.Set("locality", NSD("Berlin"))

	root := NewOrderedMap[DisclosableElement]()
	root.Set("address", Obj(true, addressContent, nil))
	root.Set("iss", NSD("https://ex.com/issuer"))
	root.Set("family_name", SD("Doe"))
	return Obj(false, root, nil)
}

// Property 1 + 2: round-trip identity and no-disclosure identity.
func TestRoundTrip_IdentityDisclosure(t *testing.T) {
	spec := buildNestedSpec()
	out, err := CreateSDJWT(spec, DefaultCreateOptions())
	require.NoError(t, err)

	recreated, _, err := RecreateClaims(out.Payload, out.Disclosures, RecreateOptions{})
	require.NoError(t, err)

	assert.Equal(t, "https://ex.com/issuer", recreated["iss"])
	assert.Equal(t, "Doe", recreated["family_name"])
	addr, ok := recreated["address"].(JsonObject)
	require.True(t, ok)
	assert.Equal(t, "DE", addr["country"])
	assert.Equal(t, "Berlin", addr["locality"])

	noDisclosure, _, err := RecreateClaims(out.Payload, nil, RecreateOptions{Lenient: true})
	require.NoError(t, err)
	assert.NotContains(t, noDisclosure, "family_name")
	assert.NotContains(t, noDisclosure, "address")
	assert.Equal(t, "https://ex.com/issuer", noDisclosure["iss"])
}

// Property 3: subset monotonicity.
func TestRoundTrip_SubsetMonotonicity(t *testing.T) {
	spec := buildNestedSpec()
	out, err := CreateSDJWT(spec, DefaultCreateOptions())
	require.NoError(t, err)
	require.True(t, len(out.Disclosures) >= 2)

	d1 := out.Disclosures[:1]
	d2 := out.Disclosures

	r1, _, err := RecreateClaims(out.Payload, d1, RecreateOptions{Lenient: true})
	require.NoError(t, err)
	r2, _, err := RecreateClaims(out.Payload, d2, RecreateOptions{Lenient: true})
	require.NoError(t, err)

	for k, v := range r1 {
		assert.Equal(t, v, r2[k], "key %s should carry the same value in both recreations", k)
	}
}

// Property 4: disclosure/digest bijection.
func TestRoundTrip_DigestBijection(t *testing.T) {
	spec := buildNestedSpec()
	out, err := CreateSDJWT(spec, DefaultCreateOptions())
	require.NoError(t, err)

	digests := collectDigestStrings(out.Payload)
	for _, d := range out.Disclosures {
		digests = append(digests, collectDigestStrings(d.Value)...)
	}
	for _, d := range out.Disclosures {
		want, err := Digest(d, SHA256)
		require.NoError(t, err)
		count := 0
		for _, g := range digests {
			if g == want {
				count++
			}
		}
		assert.Equal(t, 1, count, "digest of disclosure %v must appear exactly once", d)
	}
}

func collectDigestStrings(v any) []string {
	var out []string
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if k == "_sd" {
				if arr, ok := val.([]any); ok {
					for _, g := range arr {
						if s, ok := g.(string); ok {
							out = append(out, s)
						}
					}
				}
				continue
			}
			if k == "..." {
				if s, ok := val.(string); ok {
					out = append(out, s)
				}
				continue
			}
			out = append(out, collectDigestStrings(val)...)
		}
	case []any:
		for _, e := range t {
			out = append(out, collectDigestStrings(e)...)
		}
	}
	return out
}

// Property 5: _sd arrays are sorted and duplicate-free.
func TestSDArray_SortedNoDuplicates(t *testing.T) {
	content := NewOrderedMap[DisclosableElement]()
	content.Set("z_claim", SD("1"))
	content.Set("a_claim", SD("2"))
	content.Set("m_claim", SD("3"))
	root := Obj(false, content, nil)

	out, err := CreateSDJWT(root, DefaultCreateOptions())
	require.NoError(t, err)

	sd, ok := out.Payload["_sd"].([]any)
	require.True(t, ok)
	seen := map[string]bool{}
	var prev string
	for i, raw := range sd {
		s := raw.(string)
		assert.False(t, seen[s], "duplicate digest %s", s)
		seen[s] = true
		if i > 0 {
			assert.True(t, prev <= s, "_sd array must be lexicographically sorted")
		}
		prev = s
	}
}

// Property 6: _sd_alg present iff at least one disclosure emitted.
func TestSDAlg_PresentIffDisclosuresEmitted(t *testing.T) {
	content := NewOrderedMap[DisclosableElement]()
	content.Set("iss", NSD("https://ex.com"))
	root := Obj(false, content, nil)

	out, err := CreateSDJWT(root, DefaultCreateOptions())
	require.NoError(t, err)
	assert.Empty(t, out.Disclosures)
	assert.NotContains(t, out.Payload, "_sd_alg")

	content2 := NewOrderedMap[DisclosableElement]()
	content2.Set("name", SD("Doe"))
	root2 := Obj(false, content2, nil)
	out2, err := CreateSDJWT(root2, DefaultCreateOptions())
	require.NoError(t, err)
	assert.NotEmpty(t, out2.Disclosures)
	assert.Equal(t, "sha-256", out2.Payload["_sd_alg"])
}

// Property 7: decoys indistinguishable from real digests by shape.
func TestDecoys_SameShapeAsRealDigests(t *testing.T) {
	content := NewOrderedMap[DisclosableElement]()
	content.Set("name", SD("Doe"))
	minDigests := uint32(5)
	root := Obj(false, content, &minDigests)

	out, err := CreateSDJWT(root, DefaultCreateOptions())
	require.NoError(t, err)

	sd, ok := out.Payload["_sd"].([]any)
	require.True(t, ok)
	require.Len(t, sd, 5)
	for _, raw := range sd {
		s := raw.(string)
		assert.Len(t, s, 43) // base64url-nopad of a 32-byte sha-256 digest
	}
}

// Properties 8/9: pre-recreation visibility of Never/Always leaves.
func TestPreRecreationVisibility(t *testing.T) {
	spec := buildNestedSpec()
	out, err := CreateSDJWT(spec, DefaultCreateOptions())
	require.NoError(t, err)

	v, present, err := Select(out.Payload, ClaimPath{ClaimName("iss")})
	require.NoError(t, err)
	require.True(t, present)
	assert.Equal(t, "https://ex.com/issuer", v)

	_, present, err = Select(out.Payload, ClaimPath{ClaimName("family_name")})
	require.NoError(t, err)
	assert.False(t, present)
}

func TestRecreateClaims_UnsupportedAlgorithm(t *testing.T) {
	payload := JsonObject{"_sd_alg": "md5"}
	_, _, err := RecreateClaims(payload, nil, RecreateOptions{})
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, ErrUnsupportedAlgorithm, kind)
}

func TestRecreateClaims_DuplicateDisclosures(t *testing.T) {
	d, err := NewObjectProperty("s", "name", "v")
	require.NoError(t, err)
	payload := JsonObject{"_sd": []any{mustDigest(t, d)}, "_sd_alg": "sha-256"}

	_, _, err = RecreateClaims(payload, []*Disclosure{d, d}, RecreateOptions{})
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, ErrDuplicateDisclosures, kind)
}

func TestRecreateClaims_DuplicateClaim(t *testing.T) {
	d, err := NewObjectProperty("s", "name", "v2")
	require.NoError(t, err)
	payload := JsonObject{
		"name":    "v1",
		"_sd":     []any{mustDigest(t, d)},
		"_sd_alg": "sha-256",
	}
	_, _, err = RecreateClaims(payload, []*Disclosure{d}, RecreateOptions{})
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, ErrDuplicateClaim, kind)
}

func mustDigest(t *testing.T, d *Disclosure) string {
	t.Helper()
	digest, err := Digest(d, SHA256)
	require.NoError(t, err)
	return digest
}
