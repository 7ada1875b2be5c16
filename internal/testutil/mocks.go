package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/ParichayaHQ/credence/internal/cid"
	"github.com/stretchr/testify/mock"
	ipfscid "github.com/ipfs/go-cid"
)

// TestErrors defines common test errors
var (
	ErrContentNotFound = fmt.Errorf("content not found")
)

// MockStorageService provides an in-memory content-addressed storage
// implementation for testing, mirroring the wallet's credential store
// without a filesystem or database dependency.
type MockStorageService struct {
	mu      sync.RWMutex
	content map[string][]byte
	index   map[string]map[string]interface{}
}

// NewMockStorageService creates a new mock storage service
func NewMockStorageService() *MockStorageService {
	return &MockStorageService{
		content: make(map[string][]byte),
		index:   make(map[string]map[string]interface{}),
	}
}

func (m *MockStorageService) Put(ctx context.Context, data []byte) (ipfscid.Cid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Generate CID for the data
	cidGen := cid.NewCIDGenerator()
	c, err := cidGen.GenerateFromBytes(data)
	if err != nil {
		return ipfscid.Undef, err
	}

	m.content[c.String()] = make([]byte, len(data))
	copy(m.content[c.String()], data)

	return c, nil
}

func (m *MockStorageService) Get(ctx context.Context, c ipfscid.Cid) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, exists := m.content[c.String()]
	if !exists {
		return nil, ErrContentNotFound
	}

	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

func (m *MockStorageService) Has(ctx context.Context, c ipfscid.Cid) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.content[c.String()]
	return exists, nil
}

func (m *MockStorageService) Delete(ctx context.Context, c ipfscid.Cid) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.content, c.String())
	delete(m.index, c.String())
	return nil
}

func (m *MockStorageService) Size(ctx context.Context, c ipfscid.Cid) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, exists := m.content[c.String()]
	if !exists {
		return 0, ErrContentNotFound
	}

	return int64(len(data)), nil
}

func (m *MockStorageService) Index(ctx context.Context, c ipfscid.Cid, metadata map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.index[c.String()] = metadata
	return nil
}

// MockTrustEvaluator is a testify mock of vc.TrustEvaluator, for tests that
// need to exercise the trusted/untrusted/error branches of verification
// without standing up a real AllowListTrustEvaluator.
type MockTrustEvaluator struct {
	mock.Mock
}

func (m *MockTrustEvaluator) IsTrusted(frameworkID, issuerDID string) (bool, error) {
	args := m.Called(frameworkID, issuerDID)
	return args.Bool(0), args.Error(1)
}
