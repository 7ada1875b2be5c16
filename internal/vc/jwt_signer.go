package vc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/ParichayaHQ/credence/internal/did"
	"github.com/ParichayaHQ/credence/internal/sdjwt"
)

// didKeyJWTSigner adapts a resolved wallet private key into the core
// sdjwt.JWTSigner collaborator that internal/sdjwt's factory calls to turn
// an issuer payload into a compact JWS. It is also reused by
// JWTCredentialProcessor for non-SD JWT-VC issuance so both processors
// share one signing implementation.
type didKeyJWTSigner struct {
	keyManager did.KeyManager
	privateKey interface{}
}

func newDIDKeyJWTSigner(keyManager did.KeyManager, privateKey interface{}) sdjwt.JWTSigner {
	return &didKeyJWTSigner{keyManager: keyManager, privateKey: privateKey}
}

func (s *didKeyJWTSigner) Sign(ctx context.Context, header sdjwt.JWTHeader, payload sdjwt.JsonObject) (string, error) {
	headerMap := map[string]interface{}{"alg": header.Algorithm}
	if header.Type != "" {
		headerMap["typ"] = header.Type
	}
	if header.KeyID != "" {
		headerMap["kid"] = header.KeyID
	}

	headerBytes, err := json.Marshal(headerMap)
	if err != nil {
		return "", NewVCErrorWithDetails(ErrorInvalidJWT, "failed to encode header", err.Error())
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", NewVCErrorWithDetails(ErrorInvalidJWT, "failed to encode payload", err.Error())
	}

	signingInput := base64.RawURLEncoding.EncodeToString(headerBytes) + "." + base64.RawURLEncoding.EncodeToString(payloadBytes)

	signature, err := s.keyManager.Sign(s.privateKey, []byte(signingInput))
	if err != nil {
		return "", NewVCErrorWithDetails(ErrorInvalidSignature, "failed to sign JWT", err.Error())
	}

	return signingInput + "." + base64.RawURLEncoding.EncodeToString(signature), nil
}

// didResolvingJWTVerifier adapts DID-based key resolution into the core
// sdjwt.JWTVerifier collaborator: it trusts nothing about the token up
// front, reads the signer's identity from the token's own "iss" claim (and
// "kid" header, when present), resolves the verification key through a DID
// resolver, and checks the JWS signature before handing back the parsed
// header/payload. Also reused by JWTCredentialProcessor.
type didResolvingJWTVerifier struct {
	keyManager did.KeyManager
	resolver   did.MultiResolver
}

func newDIDResolvingJWTVerifier(keyManager did.KeyManager, resolver did.MultiResolver) sdjwt.JWTVerifier {
	return &didResolvingJWTVerifier{keyManager: keyManager, resolver: resolver}
}

func (v *didResolvingJWTVerifier) Verify(ctx context.Context, raw string) (*sdjwt.VerifiedJWT, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, NewVCError(ErrorInvalidJWT, "JWT must have 3 parts")
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, NewVCErrorWithDetails(ErrorInvalidJWT, "failed to decode header", err.Error())
	}
	var header JWTHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, NewVCErrorWithDetails(ErrorInvalidJWT, "failed to parse header", err.Error())
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, NewVCErrorWithDetails(ErrorInvalidJWT, "failed to decode payload", err.Error())
	}
	var payload sdjwt.JsonObject
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return nil, NewVCErrorWithDetails(ErrorInvalidJWT, "failed to parse payload", err.Error())
	}

	issuer, _ := payload["iss"].(string)
	if issuer == "" {
		return nil, NewVCError(ErrorInvalidIssuer, "missing issuer claim")
	}

	publicKey, err := v.resolvePublicKey(issuer, header.KeyID)
	if err != nil {
		return nil, err
	}

	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, NewVCErrorWithDetails(ErrorInvalidSignature, "failed to decode signature", err.Error())
	}
	signingInput := parts[0] + "." + parts[1]
	if !v.keyManager.Verify(publicKey, []byte(signingInput), signature) {
		return nil, NewVCError(ErrorInvalidSignature, "signature verification failed")
	}

	return &sdjwt.VerifiedJWT{
		Header:  sdjwt.JWTHeader{Algorithm: header.Algorithm, Type: header.Type, KeyID: header.KeyID},
		Payload: payload,
		Raw:     raw,
	}, nil
}

func (v *didResolvingJWTVerifier) resolvePublicKey(didStr, keyID string) (interface{}, error) {
	if v.resolver == nil {
		return nil, NewVCError(ErrorInvalidIssuer, "no DID resolver configured")
	}

	result, err := v.resolver.Resolve(context.Background(), didStr, nil)
	if err != nil {
		return nil, NewVCErrorWithDetails(ErrorInvalidIssuer, "failed to resolve DID", err.Error())
	}
	if result.DIDResolutionMetadata.Error != "" {
		return nil, NewVCError(ErrorInvalidIssuer, "DID resolution failed: "+result.DIDResolutionMetadata.Error)
	}
	if result.DIDDocument == nil {
		return nil, NewVCError(ErrorInvalidIssuer, "no DID document found")
	}

	var methodID string
	if keyID != "" {
		methodID = keyID
	} else if len(result.DIDDocument.Authentication) > 0 {
		if authRef, ok := result.DIDDocument.Authentication[0].(string); ok {
			methodID = authRef
		}
	}
	if methodID == "" {
		return nil, NewVCError(ErrorInvalidIssuer, "no verification method found")
	}

	for _, vm := range result.DIDDocument.VerificationMethod {
		if vm.ID == methodID || "#"+strings.TrimPrefix(vm.ID, didStr) == methodID {
			return extractPublicKeyFromVM(v.keyManager, &vm)
		}
	}

	return nil, NewVCError(ErrorInvalidIssuer, "verification method not found: "+methodID)
}

// extractPublicKeyFromVM decodes a DID document verification method into
// the raw key material did.KeyManager.Verify expects.
func extractPublicKeyFromVM(keyManager did.KeyManager, vm *did.VerificationMethod) (interface{}, error) {
	if vm.PublicKeyMultibase != nil {
		decoded, err := MultibaseDecode(*vm.PublicKeyMultibase)
		if err != nil {
			return nil, NewVCErrorWithDetails(ErrorInvalidIssuer, "failed to decode multibase key", err.Error())
		}
		if len(decoded) >= 2 && decoded[0] == 0xed && decoded[1] == 0x01 {
			return decoded[2:], nil
		}
		return decoded, nil
	}

	if vm.PublicKeyJwk != nil {
		return keyManager.JWKToKey(vm.PublicKeyJwk)
	}

	return nil, NewVCError(ErrorInvalidIssuer, "unsupported key format")
}
