package httpapi

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"jobclip-engine/internal/config"
	"jobclip-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
}

type setIngestTokenReq struct {
	Token string `json:"token"`
}

func (h SecretsHandler) SetIngestToken(w http.ResponseWriter, r *http.Request) {
	var req setIngestTokenReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	account := cfg.Ingest.TokenAccount
	if account == "" {
		account = secrets.IngestKeyringAccount(cfg.Ingest.URL)
	}

	if err := secrets.SetIngestToken(account, req.Token); err != nil {
		WriteError(w, r, http.StatusBadRequest, "store_failed", "failed to store token: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h SecretsHandler) DeleteIngestToken(w http.ResponseWriter, r *http.Request) {
	cfg := h.CfgVal.Load().(config.Config)
	account := cfg.Ingest.TokenAccount
	if account == "" {
		account = secrets.IngestKeyringAccount(cfg.Ingest.URL)
	}

	if err := secrets.DeleteIngestToken(account); err != nil {
		WriteError(w, r, http.StatusBadRequest, "delete_failed", "failed to delete token: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
