package testutil

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/ParichayaHQ/credence/internal/crypto"
	"github.com/ParichayaHQ/credence/internal/didvc"
	"github.com/ParichayaHQ/credence/internal/vc"
	"github.com/ParichayaHQ/credence/internal/wallet"
)

// TestKeyPair represents a test key pair with DID
type TestKeyPair struct {
	KeyPair *crypto.Ed25519KeyPair
	DID     *didvc.DID
	Signer  *crypto.Ed25519Signer
}

// NewTestKeyPair creates a new test key pair with associated DID
func NewTestKeyPair() (*TestKeyPair, error) {
	keyPair, err := crypto.NewEd25519KeyPair()
	if err != nil {
		return nil, err
	}

	did, err := didvc.CreateDIDKey(keyPair.PublicKey)
	if err != nil {
		return nil, err
	}

	signer := crypto.NewEd25519Signer(keyPair)

	return &TestKeyPair{
		KeyPair: keyPair,
		DID:     did,
		Signer:  signer,
	}, nil
}

// NewTestKeyPairFromSeed creates a test key pair from a deterministic seed
func NewTestKeyPairFromSeed(seed []byte) (*TestKeyPair, error) {
	keyPair, err := crypto.NewEd25519KeyPairFromSeed(seed)
	if err != nil {
		return nil, err
	}

	did, err := didvc.CreateDIDKey(keyPair.PublicKey)
	if err != nil {
		return nil, err
	}

	signer := crypto.NewEd25519Signer(keyPair)

	return &TestKeyPair{
		KeyPair: keyPair,
		DID:     did,
		Signer:  signer,
	}, nil
}

// GenerateTestSeed generates a deterministic test seed
func GenerateTestSeed(identifier string) []byte {
	seed := make([]byte, ed25519.SeedSize)
	copy(seed, []byte(identifier))
	// Pad to required size
	for i := len(identifier); i < ed25519.SeedSize; i++ {
		seed[i] = byte(i % 256)
	}
	return seed
}

// GenerateRandomSeed generates a random seed for testing
func GenerateRandomSeed() ([]byte, error) {
	seed := make([]byte, ed25519.SeedSize)
	_, err := rand.Read(seed)
	return seed, err
}

// CreateTestNetwork creates a set of deterministic test key pairs, useful
// for multi-issuer / multi-holder credential scenarios.
func CreateTestNetwork(size int) ([]*TestKeyPair, error) {
	network := make([]*TestKeyPair, size)

	for i := 0; i < size; i++ {
		seed := GenerateTestSeed(string(rune('A' + i)))
		keyPair, err := NewTestKeyPairFromSeed(seed)
		if err != nil {
			return nil, err
		}
		network[i] = keyPair
	}

	return network, nil
}

// CreateTestCredentialSubject returns a minimal credentialSubject map for
// a holder DID, suitable for both JSON-LD and SD-JWT issuance requests.
func CreateTestCredentialSubject(holderDID string) map[string]interface{} {
	return map[string]interface{}{
		"id":        holderDID,
		"name":      "Test Subject",
		"email":     "subject@example.test",
		"birthDate": "1990-01-01",
	}
}

// CreateTestCredentialTemplate builds a CredentialTemplate for issuer-side
// tests, marking name/email/birthDate as selectively disclosable.
func CreateTestCredentialTemplate(issuerDID, holderDID string) *vc.CredentialTemplate {
	return &vc.CredentialTemplate{
		Context:                []string{"https://www.w3.org/2018/credentials/v1"},
		Type:                   []string{"VerifiableCredential", "TestCredential"},
		Issuer:                 issuerDID,
		CredentialSubject:      CreateTestCredentialSubject(holderDID),
		SelectivelyDisclosable: []string{"name", "email", "birthDate"},
	}
}

// CreateTestIssuanceRequest builds a wallet.IssuanceRequest for an
// issuer/holder pair, ready to pass to IssuerService.IssueCredential.
func CreateTestIssuanceRequest(issuerDID, holderDID, signingKeyID string) *wallet.IssuanceRequest {
	return &wallet.IssuanceRequest{
		Context:           []string{"https://www.w3.org/2018/credentials/v1"},
		Type:              []string{"VerifiableCredential", "TestCredential"},
		Issuer:            issuerDID,
		CredentialSubject: CreateTestCredentialSubject(holderDID),
		IssuanceDate:      time.Now(),
		SigningKeyID:      signingKeyID,
		Algorithm:         "EdDSA",
		StoreInWallet:     true,
	}
}

// CreateTestPresentationRequest builds a wallet.PresentationRequest that
// discloses a subset of claims from the given credential IDs.
func CreateTestPresentationRequest(credentialIDs []string, holderDID, keyID string, disclose map[string][]string) *wallet.PresentationRequest {
	return &wallet.PresentationRequest{
		CredentialIDs:       credentialIDs,
		Holder:              holderDID,
		KeyID:               keyID,
		Algorithm:           "EdDSA",
		SelectiveDisclosure: disclose,
	}
}

// ValidateSignature validates a detached base64 signature against a DID's
// public key, mirroring the check wallet/vc collaborators perform when
// verifying SD-JWT issuer signatures by hand in tests.
func ValidateSignature(did *didvc.DID, message []byte, signatureB64 string) (bool, error) {
	publicKey, err := didvc.ExtractPublicKeyFromDIDKey(did)
	if err != nil {
		return false, err
	}

	signature, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return false, err
	}

	verifier := crypto.NewEd25519Verifier()
	return verifier.Verify(publicKey, message, signature), nil
}
