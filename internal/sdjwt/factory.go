package sdjwt

import "sort"

// CreateOptions configures CreateSDJWT: the hash algorithm governing the
// whole SD-JWT, the salt/decoy collaborators, and the decoy floor applied
// to object nodes that do not set their own MinimumDigests.
type CreateOptions struct {
	Alg             HashAlg
	Salts           SaltProvider
	Decoys          DecoyGenerator
	FallbackMinimum uint32
}

// DefaultCreateOptions returns production defaults: SHA-256, a
// crypto/rand-backed salt provider and decoy generator, and no decoy
// floor beyond what individual nodes request.
func DefaultCreateOptions() CreateOptions {
	return CreateOptions{
		Alg:    DefaultHashAlg,
		Salts:  CryptoSaltProvider{},
		Decoys: CryptoDecoyGenerator{},
	}
}

// CreateSDJWT folds a DisclosableObject specification into an issuer
// payload and its matching disclosure list, per spec §4.4.1.
func CreateSDJWT(root *ObjNode, opts CreateOptions) (*UnsignedSDJWT, error) {
	if opts.Alg == "" {
		opts.Alg = DefaultHashAlg
	}
	if opts.Salts == nil {
		opts.Salts = CryptoSaltProvider{}
	}
	if opts.Decoys == nil {
		opts.Decoys = CryptoDecoyGenerator{}
	}

	var disclosures []*Disclosure
	payload, err := createObjectContent(root, &disclosures, opts)
	if err != nil {
		return nil, err
	}
	if len(disclosures) > 0 {
		payload["_sd_alg"] = string(opts.Alg)
	}
	return &UnsignedSDJWT{Payload: payload, Disclosures: disclosures}, nil
}

func createObjectContent(node *ObjNode, all *[]*Disclosure, opts CreateOptions) (JsonObject, error) {
	result := JsonObject{}
	var sdDigests []string

	for _, key := range node.Content.Keys() {
		elem, _ := node.Content.Get(key)
		switch child := elem.(type) {
		case *IDNode:
			if !child.Always() {
				result[key] = child.Value
				continue
			}
			digest, d, err := discloseObjectProperty(key, child.Value, opts)
			if err != nil {
				return nil, err
			}
			*all = append(*all, d)
			sdDigests = append(sdDigests, digest)

		case *ObjNode:
			childResult, err := createObjectContent(child, all, opts)
			if err != nil {
				return nil, err
			}
			if !child.Always() {
				result[key] = childResult
				continue
			}
			digest, d, err := discloseObjectProperty(key, childResult, opts)
			if err != nil {
				return nil, err
			}
			*all = append(*all, d)
			sdDigests = append(sdDigests, digest)

		case *ArrNode:
			childResult, err := createArrayContent(child, all, opts)
			if err != nil {
				return nil, err
			}
			if !child.Always() {
				result[key] = childResult
				continue
			}
			digest, d, err := discloseObjectProperty(key, childResult, opts)
			if err != nil {
				return nil, err
			}
			*all = append(*all, d)
			sdDigests = append(sdDigests, digest)
		}
	}

	floor := opts.FallbackMinimum
	if node.MinimumDigests != nil {
		floor = *node.MinimumDigests
	}
	if need := int(floor) - len(sdDigests); need > 0 {
		decoys, err := opts.Decoys.Gen(opts.Alg, need)
		if err != nil {
			return nil, err
		}
		sdDigests = append(sdDigests, decoys...)
	}

	if len(sdDigests) > 0 {
		sort.Strings(sdDigests)
		sdArr := make([]any, len(sdDigests))
		for i, d := range sdDigests {
			sdArr[i] = d
		}
		result["_sd"] = sdArr
	}
	return result, nil
}

func createArrayContent(node *ArrNode, all *[]*Disclosure, opts CreateOptions) ([]any, error) {
	result := make([]any, 0, len(node.Content))
	for _, elem := range node.Content {
		switch child := elem.(type) {
		case *IDNode:
			if !child.Always() {
				result = append(result, child.Value)
				continue
			}
			wrapped, d, err := discloseArrayElement(child.Value, opts)
			if err != nil {
				return nil, err
			}
			*all = append(*all, d)
			result = append(result, wrapped)

		case *ObjNode:
			childResult, err := createObjectContent(child, all, opts)
			if err != nil {
				return nil, err
			}
			if !child.Always() {
				result = append(result, childResult)
				continue
			}
			wrapped, d, err := discloseArrayElement(childResult, opts)
			if err != nil {
				return nil, err
			}
			*all = append(*all, d)
			result = append(result, wrapped)

		case *ArrNode:
			childResult, err := createArrayContent(child, all, opts)
			if err != nil {
				return nil, err
			}
			if !child.Always() {
				result = append(result, childResult)
				continue
			}
			wrapped, d, err := discloseArrayElement(childResult, opts)
			if err != nil {
				return nil, err
			}
			*all = append(*all, d)
			result = append(result, wrapped)
		}
	}
	return result, nil
}

func discloseObjectProperty(key string, value any, opts CreateOptions) (digest string, d *Disclosure, err error) {
	salt, err := opts.Salts.Next()
	if err != nil {
		return "", nil, err
	}
	d, err = NewObjectProperty(salt, key, value)
	if err != nil {
		return "", nil, err
	}
	digest, err = Digest(d, opts.Alg)
	if err != nil {
		return "", nil, err
	}
	return digest, d, nil
}

func discloseArrayElement(value any, opts CreateOptions) (wrapped JsonObject, d *Disclosure, err error) {
	salt, err := opts.Salts.Next()
	if err != nil {
		return nil, nil, err
	}
	d, err = NewArrayElement(salt, value)
	if err != nil {
		return nil, nil, err
	}
	digest, err := Digest(d, opts.Alg)
	if err != nil {
		return nil, nil, err
	}
	return JsonObject{"...": digest}, d, nil
}

// RecreateOptions configures RecreateClaims.
type RecreateOptions struct {
	// Lenient, when true, tolerates disclosures that are never referenced
	// by any digest instead of failing with ErrUnusedDisclosure. Intended
	// for verifier scenarios that receive an already-pruned disclosure
	// set; the default (false) matches the spec's recommended strict
	// policy.
	Lenient bool
}

// RecreateClaims reconstructs the originally-intended JSON view from a
// payload and an arbitrary subset of disclosures, per spec §4.4.2. It
// returns the recreated object and the per-claim disclosure index that is
// the authoritative input to Validate (C5).
func RecreateClaims(payload JsonObject, disclosures []*Disclosure, opts RecreateOptions) (JsonObject, DisclosuresPerClaim, error) {
	alg := DefaultHashAlg
	if raw, ok := payload["_sd_alg"]; ok {
		s, ok := raw.(string)
		if !ok {
			return nil, nil, newError(ErrUnsupportedAlgorithm, "RecreateClaims")
		}
		switch HashAlg(s) {
		case SHA256, SHA384, SHA512:
			alg = HashAlg(s)
		default:
			return nil, nil, newErrorPath(ErrUnsupportedAlgorithm, "RecreateClaims", s)
		}
	}

	digestMap, err := buildDigestMap(disclosures, alg)
	if err != nil {
		return nil, nil, err
	}

	perClaim := DisclosuresPerClaim{}
	recreated, err := recreateObject(payload, ClaimPath{}, nil, digestMap, perClaim, opts)
	if err != nil {
		return nil, nil, err
	}

	if !opts.Lenient && len(digestMap) > 0 {
		return nil, nil, newError(ErrUnusedDisclosure, "RecreateClaims")
	}
	return recreated, perClaim, nil
}

func buildDigestMap(disclosures []*Disclosure, alg HashAlg) (map[string]*Disclosure, error) {
	seen := make(map[string]bool, len(disclosures))
	m := make(map[string]*Disclosure, len(disclosures))
	for _, d := range disclosures {
		if seen[d.encoded] {
			return nil, newError(ErrDuplicateDisclosures, "RecreateClaims")
		}
		seen[d.encoded] = true

		digest, err := Digest(d, alg)
		if err != nil {
			return nil, err
		}
		if existing, exists := m[digest]; exists && !existing.Equal(d) {
			return nil, newError(ErrNonUniqueDigests, "RecreateClaims")
		}
		m[digest] = d
	}
	return m, nil
}

func cloneClaimPath(path ClaimPath, extra ClaimPathElement) ClaimPath {
	out := make(ClaimPath, len(path), len(path)+1)
	copy(out, path)
	return append(out, extra)
}

func cloneDisclosures(base []*Disclosure, extra *Disclosure) []*Disclosure {
	out := make([]*Disclosure, len(base), len(base)+1)
	copy(out, base)
	return append(out, extra)
}

func recreateObject(obj JsonObject, path ClaimPath, ancestor []*Disclosure, digestMap map[string]*Disclosure, perClaim DisclosuresPerClaim, opts RecreateOptions) (JsonObject, error) {
	result := JsonObject{}

	var sdRaw []any
	if v, ok := obj["_sd"]; ok {
		arr, ok := v.([]any)
		if !ok {
			return nil, newError(ErrMalformedSdJwt, "recreateObject")
		}
		sdRaw = arr
	}

	for key, val := range obj {
		if key == "_sd" || key == "_sd_alg" {
			continue
		}
		childPath := cloneClaimPath(path, ClaimName(key))
		recreatedVal, err := recreateAny(val, childPath, ancestor, digestMap, perClaim, opts)
		if err != nil {
			return nil, err
		}
		result[key] = recreatedVal
		perClaim[childPath.Key()] = ancestor
	}

	for _, gRaw := range sdRaw {
		g, ok := gRaw.(string)
		if !ok {
			return nil, newError(ErrMalformedSdJwt, "recreateObject")
		}
		d, found := digestMap[g]
		if !found {
			continue
		}
		if d.Name == nil {
			return nil, newError(ErrMalformedSdJwt, "recreateObject: _sd digest matched an array-element disclosure")
		}
		delete(digestMap, g)

		name := *d.Name
		if _, exists := result[name]; exists {
			return nil, newErrorPath(ErrDuplicateClaim, "recreateObject", name)
		}

		childPath := cloneClaimPath(path, ClaimName(name))
		claimAncestors := cloneDisclosures(ancestor, d)
		recreatedVal, err := recreateAny(d.Value, childPath, claimAncestors, digestMap, perClaim, opts)
		if err != nil {
			return nil, err
		}
		result[name] = recreatedVal
		perClaim[childPath.Key()] = claimAncestors
	}

	return result, nil
}

func recreateArray(arr []any, path ClaimPath, ancestor []*Disclosure, digestMap map[string]*Disclosure, perClaim DisclosuresPerClaim, opts RecreateOptions) ([]any, error) {
	result := make([]any, 0, len(arr))
	idx := 0

	for _, elem := range arr {
		if m, ok := elem.(map[string]any); ok && len(m) == 1 {
			if gRaw, has := m["..."]; has {
				g, ok := gRaw.(string)
				if !ok {
					return nil, newError(ErrMalformedSdJwt, "recreateArray")
				}
				d, found := digestMap[g]
				if !found {
					continue
				}
				if d.Name != nil {
					return nil, newError(ErrMalformedSdJwt, "recreateArray: array digest matched an object-property disclosure")
				}
				delete(digestMap, g)

				childPath := cloneClaimPath(path, ArrayIndex(uint32(idx)))
				claimAncestors := cloneDisclosures(ancestor, d)
				recreatedVal, err := recreateAny(d.Value, childPath, claimAncestors, digestMap, perClaim, opts)
				if err != nil {
					return nil, err
				}
				result = append(result, recreatedVal)
				perClaim[childPath.Key()] = claimAncestors
				idx++
				continue
			}
		}

		childPath := cloneClaimPath(path, ArrayIndex(uint32(idx)))
		recreatedVal, err := recreateAny(elem, childPath, ancestor, digestMap, perClaim, opts)
		if err != nil {
			return nil, err
		}
		result = append(result, recreatedVal)
		perClaim[childPath.Key()] = ancestor
		idx++
	}

	return result, nil
}

func recreateAny(val any, path ClaimPath, ancestor []*Disclosure, digestMap map[string]*Disclosure, perClaim DisclosuresPerClaim, opts RecreateOptions) (any, error) {
	switch v := val.(type) {
	case map[string]any:
		return recreateObject(v, path, ancestor, digestMap, perClaim, opts)
	case []any:
		return recreateArray(v, path, ancestor, digestMap, perClaim, opts)
	default:
		return v, nil
	}
}
