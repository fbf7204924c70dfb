package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/yndnr/assetgw-go/internal/core/domain"
	"github.com/yndnr/assetgw-go/internal/core/service"
)

// handleCreateAsset handles POST /asset.
func (h *Handler) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	identity, err := h.identity(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	in, err := decodeAsset(w, r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp, err := h.assets.Create(r.Context(), &service.WriteAssetRequest{
		Identity: identity,
		Asset:    in,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, WriteAssetResponse{
		Message:       msgAssetCreated,
		TransactionID: resp.TransactionID,
		BlockNumber:   resp.BlockNumber,
	})
}

// handleUpdateAsset handles PUT /asset.
func (h *Handler) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	identity, err := h.identity(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	in, err := decodeAsset(w, r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp, err := h.assets.Update(r.Context(), &service.WriteAssetRequest{
		Identity: identity,
		Asset:    in,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, WriteAssetResponse{
		Message:       msgAssetUpdated,
		TransactionID: resp.TransactionID,
		BlockNumber:   resp.BlockNumber,
	})
}

// handleReadAsset handles GET /asset/{id}.
func (h *Handler) handleReadAsset(w http.ResponseWriter, r *http.Request) {
	identity, err := h.identity(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	payload, err := h.assets.Read(r.Context(), &service.QueryAssetRequest{
		Identity: identity,
		ID:       r.PathValue("id"),
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeRaw(w, r, payload)
}

// handleAssetHistory handles GET /asset/{id}/history.
func (h *Handler) handleAssetHistory(w http.ResponseWriter, r *http.Request) {
	identity, err := h.identity(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	payload, err := h.assets.History(r.Context(), &service.QueryAssetRequest{
		Identity: identity,
		ID:       r.PathValue("id"),
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeRaw(w, r, payload)
}

func decodeAsset(w http.ResponseWriter, r *http.Request) (*domain.AssetInput, error) {
	var in domain.AssetInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&in); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return nil, domain.ErrBadRequest.WithDetails("request body is empty")
		case errors.As(err, &tooLarge):
			return nil, domain.ErrBadRequest.WithDetailsf("request body exceeds %d bytes", tooLarge.Limit)
		default:
			return nil, domain.ErrBadRequest.WithDetails("invalid JSON body").WithCause(err)
		}
	}
	return &in, nil
}
