package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ParichayaHQ/credence/internal/vc"
	"github.com/ParichayaHQ/credence/internal/wallet"
)

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"service":   "walletd",
		"version":   "1.0.0",
		"timestamp": r.Context().Value("timestamp"),
	}
	
	s.writeResponse(w, http.StatusOK, health, nil)
}

// Key Management Handlers

type GenerateKeyRequest struct {
	KeyType string `json:"keyType"`
}

func (s *Server) handleGenerateKey(w http.ResponseWriter, r *http.Request) {
	var req GenerateKeyRequest
	if err := s.parseJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if req.KeyType == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("keyType is required"))
		return
	}

	key, err := s.walletService.GenerateKey(req.KeyType)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeResponse(w, http.StatusCreated, key, nil)
}

func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.walletService.ListKeys()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeResponse(w, http.StatusOK, keys, nil)
}

func (s *Server) handleGetKey(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	keyID := vars["keyId"]

	if keyID == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("keyId is required"))
		return
	}

	key, err := s.walletService.GetKey(keyID)
	if err != nil {
		if err == wallet.ErrKeyNotFound {
			s.writeError(w, http.StatusNotFound, err)
		} else {
			s.writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	s.writeResponse(w, http.StatusOK, key, nil)
}

func (s *Server) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	keyID := vars["keyId"]

	if keyID == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("keyId is required"))
		return
	}

	err := s.walletService.DeleteKey(keyID)
	if err != nil {
		if err == wallet.ErrKeyNotFound {
			s.writeError(w, http.StatusNotFound, err)
		} else {
			s.writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	s.writeResponse(w, http.StatusOK, map[string]string{"message": "Key deleted successfully"}, nil)
}

// DID Management Handlers

type CreateDIDRequest struct {
	KeyID  string `json:"keyId"`
	Method string `json:"method"`
}

func (s *Server) handleCreateDID(w http.ResponseWriter, r *http.Request) {
	var req CreateDIDRequest
	if err := s.parseJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if req.KeyID == "" || req.Method == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("keyId and method are required"))
		return
	}

	did, err := s.walletService.CreateDID(req.KeyID, req.Method)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeResponse(w, http.StatusCreated, did, nil)
}

func (s *Server) handleListDIDs(w http.ResponseWriter, r *http.Request) {
	dids, err := s.walletService.ListDIDs()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeResponse(w, http.StatusOK, dids, nil)
}

func (s *Server) handleGetDID(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	didStr := vars["did"]

	if didStr == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("did is required"))
		return
	}

	did, err := s.walletService.GetDID(didStr)
	if err != nil {
		if err == wallet.ErrDIDNotFound {
			s.writeError(w, http.StatusNotFound, err)
		} else {
			s.writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	s.writeResponse(w, http.StatusOK, did, nil)
}

type ResolveDIDRequest struct {
	DID string `json:"did"`
}

func (s *Server) handleResolveDID(w http.ResponseWriter, r *http.Request) {
	var req ResolveDIDRequest
	if err := s.parseJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if req.DID == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("did is required"))
		return
	}

	didDocument, err := s.walletService.ResolveDID(req.DID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeResponse(w, http.StatusOK, didDocument, nil)
}

// Credential Management Handlers

type StoreCredentialRequest struct {
	Credential interface{}            `json:"credential"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

func (s *Server) handleListCredentials(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		// Parse query parameters for filtering
		query := r.URL.Query()
		filter := make(map[string]interface{})
		
		for key, values := range query {
			if len(values) > 0 {
				filter[key] = values[0]
			}
		}

		credentials, err := s.walletService.ListCredentials(filter)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}

		s.writeResponse(w, http.StatusOK, credentials, nil)

	case "POST":
		var req StoreCredentialRequest
		if err := s.parseJSON(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}

		if req.Credential == nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("credential is required"))
			return
		}

		credentialID, err := s.walletService.StoreCredential(req.Credential, req.Metadata)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}

		response := map[string]string{"credentialId": credentialID}
		s.writeResponse(w, http.StatusCreated, response, nil)
	}
}

func (s *Server) handleGetCredential(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	credentialID := vars["credentialId"]

	if credentialID == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("credentialId is required"))
		return
	}

	credential, err := s.walletService.GetCredential(credentialID)
	if err != nil {
		if err == wallet.ErrCredentialNotFound {
			s.writeError(w, http.StatusNotFound, err)
		} else {
			s.writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	s.writeResponse(w, http.StatusOK, credential, nil)
}

func (s *Server) handleDeleteCredential(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	credentialID := vars["credentialId"]

	if credentialID == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("credentialId is required"))
		return
	}

	err := s.walletService.DeleteCredential(credentialID)
	if err != nil {
		if err == wallet.ErrCredentialNotFound {
			s.writeError(w, http.StatusNotFound, err)
		} else {
			s.writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	s.writeResponse(w, http.StatusOK, map[string]string{"message": "Credential deleted successfully"}, nil)
}

// Credential Issuance Handlers

func (s *Server) handleIssueCredential(w http.ResponseWriter, r *http.Request) {
	var req wallet.IssuanceRequest
	if err := s.parseJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if req.Issuer == "" || req.CredentialSubject == nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("issuer and credentialSubject are required"))
		return
	}

	credential, err := s.walletService.IssueCredential(r.Context(), &req)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeResponse(w, http.StatusCreated, credential, nil)
}

func (s *Server) handleCreateCredentialTemplate(w http.ResponseWriter, r *http.Request) {
	var req wallet.CredentialTemplate
	if err := s.parseJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if req.ID == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("id is required"))
		return
	}

	if err := s.walletService.CreateCredentialTemplate(&req); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeResponse(w, http.StatusCreated, req, nil)
}

type IssueFromTemplateRequest struct {
	Data map[string]interface{} `json:"data"`
}

func (s *Server) handleIssueCredentialFromTemplate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	templateID := vars["templateId"]

	var req IssueFromTemplateRequest
	if err := s.parseJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	credential, err := s.walletService.IssueCredentialFromTemplate(r.Context(), templateID, req.Data)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeResponse(w, http.StatusCreated, credential, nil)
}

func (s *Server) handleRevokeCredential(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	credentialID := vars["credentialId"]

	var req struct {
		Reason string `json:"reason"`
	}
	if err := s.parseJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.walletService.RevokeCredential(r.Context(), credentialID, req.Reason); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeResponse(w, http.StatusOK, map[string]string{"message": "Credential revoked successfully"}, nil)
}

// Presentation Handlers

func (s *Server) handleCreatePresentation(w http.ResponseWriter, r *http.Request) {
	var req wallet.PresentationRequest
	if err := s.parseJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if len(req.CredentialIDs) == 0 || req.Holder == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("credentialIds and holder are required"))
		return
	}

	presentation, err := s.walletService.CreatePresentation(r.Context(), &req)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeResponse(w, http.StatusCreated, presentation, nil)
}

type VerifyPresentationRequest struct {
	Presentation *vc.VerifiablePresentation `json:"presentation"`
	Options      *wallet.VerificationOptions `json:"options,omitempty"`
}

func (s *Server) handleVerifyPresentation(w http.ResponseWriter, r *http.Request) {
	var req VerifyPresentationRequest
	if err := s.parseJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if req.Presentation == nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("presentation is required"))
		return
	}

	if req.Options == nil {
		req.Options = &wallet.VerificationOptions{}
	}

	result, err := s.walletService.VerifyPresentation(r.Context(), req.Presentation, req.Options)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeResponse(w, http.StatusOK, result, nil)
}

// Wallet Operation Handlers

type LockWalletRequest struct {
	Password string `json:"password"`
}

type UnlockWalletRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleLockWallet(w http.ResponseWriter, r *http.Request) {
	var req LockWalletRequest
	if err := s.parseJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if req.Password == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("password is required"))
		return
	}

	err := s.walletService.Lock(req.Password)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeResponse(w, http.StatusOK, map[string]string{"message": "Wallet locked successfully"}, nil)
}

func (s *Server) handleUnlockWallet(w http.ResponseWriter, r *http.Request) {
	var req UnlockWalletRequest
	if err := s.parseJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if req.Password == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("password is required"))
		return
	}

	err := s.walletService.Unlock(req.Password)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeResponse(w, http.StatusOK, map[string]string{"message": "Wallet unlocked successfully"}, nil)
}

func (s *Server) handleWalletStatus(w http.ResponseWriter, r *http.Request) {
	status := s.walletService.GetStatus()
	s.writeResponse(w, http.StatusOK, status, nil)
}

