package vc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ParichayaHQ/credence/internal/did"
	"github.com/ParichayaHQ/credence/internal/sdjwt"
)

// SDJWTProcessor handles Selective Disclosure JWT operations by delegating
// the digest/disclosure algebra to internal/sdjwt and keeping only the
// SD-JWT VC profile wrapping (vct, cnf, key binding, DID-based key
// resolution) at this layer.
type SDJWTProcessor struct {
	keyManager did.KeyManager
	resolver   did.MultiResolver
}

// NewSDJWTProcessor creates a new SD-JWT processor
func NewSDJWTProcessor(keyManager did.KeyManager, resolver did.MultiResolver) *SDJWTProcessor {
	return &SDJWTProcessor{
		keyManager: keyManager,
		resolver:   resolver,
	}
}

// CreateSDJWT creates a Selective Disclosure JWT from a credential template.
// Fields named in template.SelectivelyDisclosable (dotted paths, e.g.
// "address.country"; a trailing "[]" marks every element of an array claim)
// are folded behind digests; everything else is carried in the clear.
func (p *SDJWTProcessor) CreateSDJWT(template *CredentialTemplate, options *IssuanceOptions, privateKey interface{}) (string, error) {
	if template == nil {
		return "", NewVCError(ErrorInvalidCredential, "template cannot be nil")
	}
	if options == nil {
		return "", NewVCError(ErrorInvalidCredential, "options cannot be nil")
	}

	subjectMap, err := p.interfaceToMap(template.CredentialSubject)
	if err != nil {
		return "", NewVCErrorWithDetails(ErrorInvalidCredential, "failed to read credential subject", err.Error())
	}

	root := buildDisclosableRoot(subjectMap, template.SelectivelyDisclosable)

	createOpts := sdjwt.DefaultCreateOptions()
	if options.SaltGenerator != nil {
		createOpts.Salts = funcSaltProvider{options.SaltGenerator}
	}
	if options.HashAlg != "" {
		createOpts.Alg = sdjwt.HashAlg(options.HashAlg)
	}
	if options.DecoyFloor > 0 {
		createOpts.FallbackMinimum = options.DecoyFloor
	}

	unsigned, err := sdjwt.CreateSDJWT(root, createOpts)
	if err != nil {
		return "", wrapSDJWTError(err)
	}

	payload := unsigned.Payload
	payload["iss"] = getIssuerID(template.Issuer)
	payload["iat"] = getCurrentTime()

	if vct := vctFromType(template.Type); vct != "" {
		payload["vct"] = vct
	}
	if cnf := p.createConfirmationClaim(options.RequireKeyBinding); cnf != nil {
		payload["cnf"] = cnf
	}
	if subject := getCredentialSubjectID(template.CredentialSubject); subject != "" {
		payload["sub"] = subject
	}
	if template.ExpirationDate != "" {
		if expTime, err := parseTimeToUnix(template.ExpirationDate); err == nil {
			payload["exp"] = expTime
		}
	}
	for key, value := range options.AdditionalClaims {
		payload[key] = value
	}

	signer := newDIDKeyJWTSigner(p.keyManager, privateKey)
	jwt, err := signer.Sign(context.Background(), sdjwt.JWTHeader{
		Algorithm: options.Algorithm,
		Type:      "vc+sd-jwt",
		KeyID:     options.KeyID,
	}, payload)
	if err != nil {
		return "", err
	}

	return sdjwt.FormatCompact(jwt, sdjwt.EncodedDisclosures(unsigned.Disclosures), ""), nil
}

// ParseSDJWT parses an SD-JWT string into its components.
func (p *SDJWTProcessor) ParseSDJWT(sd string) (*SDJWTCredential, error) {
	compact, err := sdjwt.ParseCompact(sd)
	if err != nil {
		return nil, wrapSDJWTError(err)
	}

	jwtParts := strings.Split(compact.JWT, ".")
	if len(jwtParts) != 3 {
		return nil, NewVCError(ErrorInvalidJWT, "JWT must have 3 parts")
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(jwtParts[0])
	if err != nil {
		return nil, NewVCErrorWithDetails(ErrorInvalidJWT, "failed to decode header", err.Error())
	}
	var header JWTHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, NewVCErrorWithDetails(ErrorInvalidJWT, "failed to parse header", err.Error())
	}

	claimsBytes, err := base64.RawURLEncoding.DecodeString(jwtParts[1])
	if err != nil {
		return nil, NewVCErrorWithDetails(ErrorInvalidJWT, "failed to decode claims", err.Error())
	}
	var claims map[string]interface{}
	if err := json.Unmarshal(claimsBytes, &claims); err != nil {
		return nil, NewVCErrorWithDetails(ErrorInvalidJWT, "failed to parse claims", err.Error())
	}

	coreDisclosures, err := sdjwt.DecodeDisclosures(compact.Disclosures)
	if err != nil {
		return nil, wrapSDJWTError(err)
	}
	disclosures := make([]Disclosure, len(coreDisclosures))
	for i, d := range coreDisclosures {
		disclosures[i] = fromCoreDisclosure(d)
	}

	var keyBinding *KeyBinding
	if compact.HasKeyBinding() {
		keyBinding, err = p.parseKeyBinding(compact.KeyBindingJWT)
		if err != nil {
			return nil, err
		}
	}

	return &SDJWTCredential{
		JWT:         compact.JWT,
		Disclosures: disclosures,
		KeyBinding:  keyBinding,
		Header:      header,
		Claims:      claims,
	}, nil
}

// VerifySDJWT verifies a Selective Disclosure JWT: signature, recreation of
// the disclosed claim tree in lenient mode (a disclosure whose digest the
// payload does not reference is dropped, not rejected), and the optional
// definition. Key binding is not verified: the holder key is not extracted
// from cnf, so an SD-JWT that carries a key binding JWT always fails.
func (p *SDJWTProcessor) VerifySDJWT(sd string, options *VerificationOptions) (*VerificationResult, error) {
	sdCredential, err := p.ParseSDJWT(sd)
	if err != nil {
		return &VerificationResult{Verified: false, Error: err.Error()}, nil
	}

	issuer, ok := sdCredential.Claims["iss"].(string)
	if !ok {
		return &VerificationResult{Verified: false, Error: "missing or invalid issuer claim"}, nil
	}

	verifier := newDIDResolvingJWTVerifier(p.keyManager, p.resolver)
	if _, err := verifier.Verify(context.Background(), sdCredential.JWT); err != nil {
		return &VerificationResult{Verified: false, Error: "JWT signature verification failed: " + err.Error()}, nil
	}

	recreated, perClaim, err := sdjwt.RecreateClaims(sdCredential.Claims, toCoreDisclosures(sdCredential.Disclosures), sdjwt.RecreateOptions{Lenient: true})
	if err != nil {
		return &VerificationResult{Verified: false, Error: "disclosure verification failed: " + err.Error()}, nil
	}

	if options != nil && options.Definition != nil {
		validation, err := sdjwt.Validate(options.Definition, recreated, perClaim)
		if err != nil {
			return &VerificationResult{Verified: false, Error: "definition validation failed: " + err.Error()}, nil
		}
		if !validation.Valid {
			return &VerificationResult{
				Verified: false,
				Error:    "credential definition violated: " + summarizeViolations(validation.Violations),
				Details:  map[string]interface{}{"violations": validation.Violations},
			}, nil
		}
	}

	if sdCredential.KeyBinding != nil {
		if err := p.verifyKeyBinding(sdCredential, options); err != nil {
			return &VerificationResult{Verified: false, Error: "key binding verification failed: " + err.Error()}, nil
		}
	}

	if err := p.validateTimeClaimsFromMap(sdCredential.Claims, options); err != nil {
		return &VerificationResult{Verified: false, Error: "time validation failed: " + err.Error()}, nil
	}

	return &VerificationResult{
		Verified:        true,
		SDJWTCredential: sdCredential,
		Details: map[string]interface{}{
			"issuer":              issuer,
			"algorithm":           sdCredential.Header.Algorithm,
			"disclosed_claims":    recreated,
			"disclosure_count":    len(sdCredential.Disclosures),
			"key_binding_present": sdCredential.KeyBinding != nil,
		},
	}, nil
}

// CreateKeyBindingJWT creates a key binding JWT for holder verification
func (p *SDJWTProcessor) CreateKeyBindingJWT(sd string, audience, nonce string, holderKey interface{}) (string, error) {
	jwt := strings.SplitN(sd, "~", 2)[0]
	jwtParts := strings.Split(jwt, ".")
	if len(jwtParts) != 3 {
		return "", NewVCError(ErrorInvalidJWT, "JWT must have 3 parts")
	}

	claims := map[string]interface{}{
		"aud":     audience,
		"nonce":   nonce,
		"iat":     getCurrentTime(),
		"sd_hash": p.hashString(jwt),
		"jti":     uuid.New().String(),
	}

	header := map[string]interface{}{
		"alg": "EdDSA",
		"typ": "kb+jwt",
	}

	return p.signJWT(header, claims, holderKey)
}

// buildDisclosableRoot converts a flat credential-subject map into the
// disclosable tree internal/sdjwt folds into an issuer payload. A claim
// path (dotted for nested objects, "[]"-suffixed for array elements) marks
// the corresponding node AlwaysSelectively; everything else stays
// NeverSelectively.
func buildDisclosableRoot(subjectMap map[string]interface{}, selective []string) *sdjwt.ObjNode {
	sel := make(map[string]bool, len(selective))
	for _, s := range selective {
		sel[s] = true
	}
	content := buildObjectContent(subjectMap, "", sel)
	return sdjwt.Obj(false, content, nil)
}

func buildObjectContent(m map[string]interface{}, prefix string, sel map[string]bool) *sdjwt.OrderedMap[sdjwt.DisclosableElement] {
	content := sdjwt.NewOrderedMap[sdjwt.DisclosableElement]()
	for _, key := range sortedKeys(m) {
		path := joinClaimPath(prefix, key)
		content.Set(key, toDisclosableElement(m[key], path, sel))
	}
	return content
}

func toDisclosableElement(v interface{}, path string, sel map[string]bool) sdjwt.DisclosableElement {
	switch val := v.(type) {
	case map[string]interface{}:
		return sdjwt.Obj(sel[path], buildObjectContent(val, path, sel), nil)
	case []interface{}:
		elemAlways := sel[path+"[]"]
		elems := make([]sdjwt.DisclosableElement, 0, len(val))
		for _, item := range val {
			elems = append(elems, toArrayElement(item, path+"[]", sel, elemAlways))
		}
		return sdjwt.Arr(sel[path], elems, nil)
	default:
		if sel[path] {
			return sdjwt.SD(val)
		}
		return sdjwt.NSD(val)
	}
}

func toArrayElement(v interface{}, path string, sel map[string]bool, elemAlways bool) sdjwt.DisclosableElement {
	switch val := v.(type) {
	case map[string]interface{}:
		return sdjwt.Obj(elemAlways, buildObjectContent(val, path, sel), nil)
	case []interface{}:
		nested := make([]sdjwt.DisclosableElement, 0, len(val))
		for _, item := range val {
			nested = append(nested, toArrayElement(item, path+"[]", sel, sel[path+"[]"]))
		}
		return sdjwt.Arr(elemAlways, nested, nil)
	default:
		if elemAlways {
			return sdjwt.SD(val)
		}
		return sdjwt.NSD(val)
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinClaimPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// summarizeViolations renders a credential definition's violations as a
// short semicolon-joined string for VerificationResult.Error; the full list
// survives in Details for callers that want structured access.
func summarizeViolations(violations []sdjwt.Violation) string {
	parts := make([]string, len(violations))
	for i, v := range violations {
		parts[i] = string(v.Kind) + " at " + v.Path.String()
	}
	return strings.Join(parts, "; ")
}

// vctFromType picks the SD-JWT VC "vct" claim from a W3C type array: the
// first entry other than the generic "VerifiableCredential" marker.
func vctFromType(types []string) string {
	for _, t := range types {
		if t != "" && t != "VerifiableCredential" {
			return t
		}
	}
	return ""
}

// funcSaltProvider adapts a legacy func()-string salt generator to
// sdjwt.SaltProvider.
type funcSaltProvider struct {
	fn func() string
}

func (f funcSaltProvider) Next() (sdjwt.Salt, error) {
	return sdjwt.Salt(f.fn()), nil
}

func fromCoreDisclosure(d *sdjwt.Disclosure) Disclosure {
	claim := ""
	if d.IsObjectProperty() {
		claim = *d.Name
	}
	return Disclosure{
		Salt:    string(d.Salt),
		Claim:   claim,
		Value:   d.Value,
		Encoded: d.Encoded(),
	}
}

// toCoreDisclosures decodes from each wrapper's preserved wire encoding
// rather than re-encoding (Salt, Claim, Value): digests are computed over
// the exact bytes the issuer signed, so any re-serialization — even one
// that round-trips to equal JSON values — would silently break every
// digest check.
func toCoreDisclosures(ds []Disclosure) []*sdjwt.Disclosure {
	out := make([]*sdjwt.Disclosure, len(ds))
	for i, d := range ds {
		cd, _ := sdjwt.DecodeDisclosure(d.Encoded)
		out[i] = cd
	}
	return out
}

// wrapSDJWTError translates a core *sdjwt.Error into the package's flat
// VCError shape so callers only ever handle one error type.
func wrapSDJWTError(err error) *VCError {
	kind, ok := sdjwt.KindOf(err)
	if !ok {
		return NewVCErrorWithDetails(ErrorInvalidJWT, "sd-jwt processing failed", err.Error())
	}
	code, ok := sdjwtErrorCodes[kind]
	if !ok {
		code = ErrorInvalidCredential
	}
	return NewVCErrorWithDetails(code, "sd-jwt processing failed", err.Error())
}

var sdjwtErrorCodes = map[sdjwt.ErrorKind]string{
	sdjwt.ErrMalformedEncoding:    ErrorSDJWTMalformedEncoding,
	sdjwt.ErrMalformedDisclosure:  ErrorSDJWTMalformedDisclosure,
	sdjwt.ErrReservedClaimName:    ErrorSDJWTReservedClaimName,
	sdjwt.ErrUnsupportedAlgorithm: ErrorSDJWTUnsupportedAlgorithm,
	sdjwt.ErrNonUniqueDigests:     ErrorSDJWTNonUniqueDigests,
	sdjwt.ErrDuplicateDisclosures: ErrorSDJWTDuplicateDisclosures,
	sdjwt.ErrDuplicateClaim:       ErrorSDJWTDuplicateClaim,
	sdjwt.ErrUnusedDisclosure:     ErrorSDJWTUnusedDisclosure,
	sdjwt.ErrPathTypeMismatch:     ErrorSDJWTPathTypeMismatch,
	sdjwt.ErrMalformedSdJwt:       ErrorSDJWTMalformed,
	sdjwt.ErrMalformedClaimPath:   ErrorSDJWTMalformedClaimPath,
}

// Helper methods retained from the original processor

func (p *SDJWTProcessor) createConfirmationClaim(requireKeyBinding bool) map[string]interface{} {
	if !requireKeyBinding {
		return nil
	}
	return map[string]interface{}{
		"jwk": map[string]interface{}{
			"kty": "OKP",
			"crv": "Ed25519",
		},
	}
}

func (p *SDJWTProcessor) parseKeyBinding(jwt string) (*KeyBinding, error) {
	parts := strings.Split(jwt, ".")
	if len(parts) != 3 {
		return nil, NewVCError(ErrorInvalidJWT, "key binding JWT must have 3 parts")
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, NewVCErrorWithDetails(ErrorInvalidJWT, "failed to decode key binding header", err.Error())
	}
	var header JWTHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, NewVCErrorWithDetails(ErrorInvalidJWT, "failed to parse key binding header", err.Error())
	}

	claimsBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, NewVCErrorWithDetails(ErrorInvalidJWT, "failed to decode key binding claims", err.Error())
	}
	var claims map[string]interface{}
	if err := json.Unmarshal(claimsBytes, &claims); err != nil {
		return nil, NewVCErrorWithDetails(ErrorInvalidJWT, "failed to parse key binding claims", err.Error())
	}

	return &KeyBinding{JWT: jwt, Header: header, Claims: claims}, nil
}

func (p *SDJWTProcessor) verifyKeyBinding(credential *SDJWTCredential, options *VerificationOptions) error {
	if credential.KeyBinding == nil {
		return nil
	}

	cnf, ok := credential.Claims["cnf"]
	if !ok {
		return NewVCError(ErrorInvalidProof, "missing confirmation claim")
	}

	publicKey, err := p.extractPublicKeyFromConfirmation(cnf)
	if err != nil {
		return err
	}

	if err := p.verifyJWTSignature(credential.KeyBinding.JWT, publicKey); err != nil {
		return NewVCError(ErrorInvalidProof, "key binding signature verification failed: "+err.Error())
	}

	if options != nil {
		if options.Challenge != "" {
			if nonce, ok := credential.KeyBinding.Claims["nonce"].(string); !ok || nonce != options.Challenge {
				return NewVCError(ErrorInvalidProof, "key binding nonce mismatch")
			}
		}
		if options.Domain != "" {
			if aud, ok := credential.KeyBinding.Claims["aud"].(string); !ok || aud != options.Domain {
				return NewVCError(ErrorInvalidProof, "key binding audience mismatch")
			}
		}
	}

	expectedHash := p.hashString(credential.JWT)
	if actualHash, ok := credential.KeyBinding.Claims["sd_hash"].(string); !ok || actualHash != expectedHash {
		return NewVCError(ErrorInvalidProof, "key binding SD-JWT hash mismatch")
	}

	return nil
}

func (p *SDJWTProcessor) interfaceToMap(v interface{}) (map[string]interface{}, error) {
	switch val := v.(type) {
	case map[string]interface{}:
		return val, nil
	case *CredentialSubject:
		result := make(map[string]interface{})
		if val.ID != "" {
			result["id"] = val.ID
		}
		for k, v := range val.Claims {
			result[k] = v
		}
		return result, nil
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		var result map[string]interface{}
		err = json.Unmarshal(bytes, &result)
		return result, err
	}
}

func (p *SDJWTProcessor) hashString(input string) string {
	sum, _ := sdjwt.Hash(sdjwt.SHA256, []byte(input))
	return sdjwt.EncodeB64(sum)
}

func (p *SDJWTProcessor) extractPublicKeyFromConfirmation(cnf interface{}) (interface{}, error) {
	return nil, NewVCError(ErrorInvalidProof, "key binding verification not fully implemented")
}

func getCurrentTime() int64 {
	return time.Now().Unix()
}

func parseTimeToUnix(timeStr string) (int64, error) {
	t, err := time.Parse(time.RFC3339, timeStr)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

// signJWT and verifyJWTSignature sign/verify with a key handed to them
// directly rather than resolved through a DID, for the key-binding JWT
// flows below where the key comes from the holder or the credential's
// own cnf claim. DID-resolving issuance/verification goes through
// jwt_signer.go's didKeyJWTSigner/didResolvingJWTVerifier instead.

func (p *SDJWTProcessor) signJWT(header, claims map[string]interface{}, privateKey interface{}) (string, error) {
	headerBytes, err := json.Marshal(header)
	if err != nil {
		return "", NewVCErrorWithDetails(ErrorInvalidJWT, "failed to encode header", err.Error())
	}
	headerB64 := base64.RawURLEncoding.EncodeToString(headerBytes)

	claimsBytes, err := json.Marshal(claims)
	if err != nil {
		return "", NewVCErrorWithDetails(ErrorInvalidJWT, "failed to encode claims", err.Error())
	}
	claimsB64 := base64.RawURLEncoding.EncodeToString(claimsBytes)

	signingInput := headerB64 + "." + claimsB64

	signature, err := p.keyManager.Sign(privateKey, []byte(signingInput))
	if err != nil {
		return "", NewVCErrorWithDetails(ErrorInvalidSignature, "failed to sign JWT", err.Error())
	}

	signatureB64 := base64.RawURLEncoding.EncodeToString(signature)
	return signingInput + "." + signatureB64, nil
}

func (p *SDJWTProcessor) verifyJWTSignature(token string, publicKey interface{}) error {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return NewVCError(ErrorInvalidJWT, "JWT must have 3 parts")
	}

	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return NewVCErrorWithDetails(ErrorInvalidSignature, "failed to decode signature", err.Error())
	}

	signingInput := parts[0] + "." + parts[1]
	if !p.keyManager.Verify(publicKey, []byte(signingInput), signature) {
		return NewVCError(ErrorInvalidSignature, "signature verification failed")
	}

	return nil
}

func (p *SDJWTProcessor) validateTimeClaimsFromMap(claims map[string]interface{}, options *VerificationOptions) error {
	var now time.Time
	if options != nil && options.Now != nil {
		now = *options.Now
	} else {
		now = time.Now()
	}

	if expInterface, ok := claims["exp"]; ok {
		if exp, ok := expInterface.(float64); ok && now.Unix() >= int64(exp) {
			return NewVCError(ErrorExpiredCredential, "credential has expired")
		}
	}

	if nbfInterface, ok := claims["nbf"]; ok {
		if nbf, ok := nbfInterface.(float64); ok && now.Unix() < int64(nbf) {
			return NewVCError(ErrorInvalidCredential, "credential not yet valid")
		}
	}

	return nil
}
