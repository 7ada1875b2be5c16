package sdjwt

// ClaimMetadata carries the attribute-level metadata an SdJwtDefinition
// leaf is parameterised over (display labels etc. in the VC profile);
// the core validator only reads the disclosability/type tags on the
// surrounding DefElement, never this payload, so it is left open for
// embedders (internal/vc elaborates it for SD-JWT-VC type metadata).
type ClaimMetadata struct {
	DisplayName string
	Description string
}

// DefElement is the definition-side counterpart of DisclosableElement:
// the same SD/NSD-tagged tree shape, parameterised over ClaimMetadata
// instead of JSON leaf values, used only for validation.
type DefElement interface {
	isDefElement()
	Always() bool
}

// DefID is a definition leaf: a scalar attribute with no children.
type DefID struct {
	tag
	Metadata ClaimMetadata
}

func (*DefID) isDefElement() {}

// DefObj is a definition object: an ordered map of named child
// definitions.
type DefObj struct {
	tag
	Content *OrderedMap[DefElement]
}

func (*DefObj) isDefElement() {}

// DefArr is a definition array. A single Content descriptor is the
// uniform-array policy the validator applies to every element; more than
// one descriptor is the spec's documented non-uniform-array no-op.
type DefArr struct {
	tag
	Content []DefElement
}

func (*DefArr) isDefElement() {}

// NSDDef / SDDef build definition leaves; DefObjNode / DefArrNode build
// definition containers, mirroring the SD/Obj/Arr constructors of
// the disclosable tree.
func NSDDef(meta ClaimMetadata) *DefID { return &DefID{tag{false}, meta} }
func SDDef(meta ClaimMetadata) *DefID  { return &DefID{tag{true}, meta} }

func DefObjNode(always bool, content *OrderedMap[DefElement]) *DefObj {
	return &DefObj{tag{always}, content}
}

func DefArrNode(always bool, content []DefElement) *DefArr {
	return &DefArr{tag{always}, content}
}

// DefaultWellKnownClaims is the RFC 7519 + SD-JWT-VC set the validator
// treats as always permitted at the top level even when not enumerated
// by the definition (spec §4.5 step 1, §9 open question 3).
func DefaultWellKnownClaims() []string {
	return []string{"iss", "sub", "aud", "exp", "nbf", "iat", "jti", "vct", "vct#integrity"}
}

// Definition is a credential definition: a root DefObj plus the
// well-known-claim list governing the top-level unknown-attribute check.
type Definition struct {
	Root            *DefObj
	WellKnownClaims []string
}

// ViolationKind enumerates the four shapes a validation violation can
// take, per spec §4.5.
type ViolationKind string

const (
	DisclosureInconsistencies ViolationKind = "disclosure_inconsistencies"
	UnknownClaim              ViolationKind = "unknown_claim"
	WrongClaimType            ViolationKind = "wrong_claim_type"
	IncorrectlyDisclosedClaim ViolationKind = "incorrectly_disclosed_claim"
)

// Violation is a single definition-vs-payload mismatch.
type Violation struct {
	Kind  ViolationKind
	Path  ClaimPath
	Cause error
}

// ValidationResult is the outcome of Validate: either Valid with no
// violations, or Invalid carrying every violation found, in document
// order — never only the first.
type ValidationResult struct {
	Valid      bool
	Violations []Violation
}

// isDisclosed reports whether the attribute at path was selectively
// disclosed: its disclosure set strictly extends its parent's (spec
// §4.5 "Disclosure accounting"), taking ∅ for the root's own parent.
func isDisclosed(path ClaimPath, perClaim DisclosuresPerClaim) bool {
	parentLen := 0
	if parent, ok := path.Parent(); ok {
		parentLen = len(perClaim[parent.Key()])
	}
	return len(perClaim[path.Key()]) > parentLen
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any:
		return true
	case []any:
		return true
	default:
		return false
	}
}

// Validate walks definition in lock-step with recreated and
// disclosuresPerClaim, the recursive-descent strategy (spec §4.5,
// strategy (b)).
func Validate(definition *Definition, recreated JsonObject, perClaim DisclosuresPerClaim) (*ValidationResult, error) {
	wellKnown := toSet(definition.WellKnownClaims)
	if len(wellKnown) == 0 {
		wellKnown = toSet(DefaultWellKnownClaims())
	}
	v := &descentValidator{wellKnown: wellKnown, perClaim: perClaim}
	v.validateObjectChildren(definition.Root, recreated, ClaimPath{})
	return result(v.violations), nil
}

func result(violations []Violation) *ValidationResult {
	if len(violations) == 0 {
		return &ValidationResult{Valid: true}
	}
	return &ValidationResult{Valid: false, Violations: violations}
}

func toSet(xs []string) map[string]bool {
	m := make(map[string]bool, len(xs))
	for _, x := range xs {
		m[x] = true
	}
	return m
}

type descentValidator struct {
	wellKnown  map[string]bool
	perClaim   DisclosuresPerClaim
	violations []Violation
}

func (v *descentValidator) validateAgainst(elem DefElement, val any, path ClaimPath) {
	disclosed := isDisclosed(path, v.perClaim)
	if elem.Always() != disclosed {
		v.violations = append(v.violations, Violation{Kind: IncorrectlyDisclosedClaim, Path: path})
	}

	switch e := elem.(type) {
	case *DefID:
		if isContainer(val) {
			v.violations = append(v.violations, Violation{Kind: WrongClaimType, Path: path})
		}
	case *DefObj:
		objVal, ok := val.(map[string]any)
		if !ok {
			v.violations = append(v.violations, Violation{Kind: WrongClaimType, Path: path})
			return
		}
		v.validateObjectChildren(e, objVal, path)
	case *DefArr:
		arrVal, ok := val.([]any)
		if !ok {
			v.violations = append(v.violations, Violation{Kind: WrongClaimType, Path: path})
			return
		}
		if len(e.Content) == 1 {
			descriptor := e.Content[0]
			for i, ev := range arrVal {
				v.validateAgainst(descriptor, ev, cloneClaimPath(path, ArrayIndex(uint32(i))))
			}
		}
		// len(e.Content) != 1: non-uniform array, documented no-op.
	}
}

func (v *descentValidator) validateObjectChildren(def *DefObj, recreated JsonObject, path ClaimPath) {
	defined := make(map[string]bool, def.Content.Len())
	for _, key := range def.Content.Keys() {
		defined[key] = true
		elem, _ := def.Content.Get(key)
		val, present := recreated[key]
		if !present {
			continue
		}
		v.validateAgainst(elem, val, cloneClaimPath(path, ClaimName(key)))
	}

	topLevel := len(path) == 0
	for key := range recreated {
		if defined[key] {
			continue
		}
		if topLevel && v.wellKnown[key] {
			continue
		}
		v.violations = append(v.violations, Violation{Kind: UnknownClaim, Path: cloneClaimPath(path, ClaimName(key))})
	}
}

// ValidateFold re-derives the same verdict via a post-order fold over the
// definition tree instead of recursive descent (spec §4.5 strategy (a)),
// kept and tested against Validate for agreement (testable property 13)
// rather than used in the production path.
func ValidateFold(definition *Definition, recreated JsonObject, perClaim DisclosuresPerClaim) (*ValidationResult, error) {
	wellKnown := toSet(definition.WellKnownClaims)
	if len(wellKnown) == 0 {
		wellKnown = toSet(DefaultWellKnownClaims())
	}

	var violations []Violation
	var walk func(def *DefObj, recreated JsonObject, path ClaimPath)
	var walkElem func(elem DefElement, val any, path ClaimPath)

	walkElem = func(elem DefElement, val any, path ClaimPath) {
		disclosed := isDisclosed(path, perClaim)
		if elem.Always() != disclosed {
			violations = append(violations, Violation{Kind: IncorrectlyDisclosedClaim, Path: path})
		}
		switch e := elem.(type) {
		case *DefID:
			if isContainer(val) {
				violations = append(violations, Violation{Kind: WrongClaimType, Path: path})
			}
		case *DefObj:
			objVal, ok := val.(map[string]any)
			if !ok {
				violations = append(violations, Violation{Kind: WrongClaimType, Path: path})
				return
			}
			walk(e, objVal, path)
		case *DefArr:
			arrVal, ok := val.([]any)
			if !ok {
				violations = append(violations, Violation{Kind: WrongClaimType, Path: path})
				return
			}
			if len(e.Content) == 1 {
				descriptor := e.Content[0]
				// Post-order: fold every element before combining, via
				// an explicit work stack rather than native recursion
				// for the element loop itself.
				type frame struct {
					idx int
					val any
				}
				stack := make([]frame, len(arrVal))
				for i, ev := range arrVal {
					stack[i] = frame{i, ev}
				}
				for _, f := range stack {
					walkElem(descriptor, f.val, cloneClaimPath(path, ArrayIndex(uint32(f.idx))))
				}
			}
		}
	}

	walk = func(def *DefObj, recreated JsonObject, path ClaimPath) {
		// Post-order: visit children first (each subtree fully resolved)
		// then perform this level's unknown-attribute accounting.
		defined := make(map[string]bool, def.Content.Len())
		for _, key := range def.Content.Keys() {
			defined[key] = true
		}
		for _, key := range def.Content.Keys() {
			elem, _ := def.Content.Get(key)
			val, present := recreated[key]
			if !present {
				continue
			}
			walkElem(elem, val, cloneClaimPath(path, ClaimName(key)))
		}
		topLevel := len(path) == 0
		for key := range recreated {
			if defined[key] {
				continue
			}
			if topLevel && wellKnown[key] {
				continue
			}
			violations = append(violations, Violation{Kind: UnknownClaim, Path: cloneClaimPath(path, ClaimName(key))})
		}
	}

	walk(definition.Root, recreated, ClaimPath{})
	return result(violations), nil
}

// ValidateSDJWT combines recreation and validation: if RecreateClaims
// itself fails, that failure is surfaced as a single
// DisclosureInconsistencies violation rather than a Go error, matching
// the spec's Violation taxonomy.
func ValidateSDJWT(definition *Definition, payload JsonObject, disclosures []*Disclosure, recreateOpts RecreateOptions) (*ValidationResult, error) {
	recreated, perClaim, err := RecreateClaims(payload, disclosures, recreateOpts)
	if err != nil {
		return &ValidationResult{
			Valid:      false,
			Violations: []Violation{{Kind: DisclosureInconsistencies, Cause: err}},
		}, nil
	}
	return Validate(definition, recreated, perClaim)
}
