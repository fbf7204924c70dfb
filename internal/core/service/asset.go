package service

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/yndnr/assetgw-go/internal/core/domain"
)

// Dispatcher runs ledger operations as a named identity. An empty
// identity selects the configured default.
type Dispatcher interface {
	DispatchAs(ctx context.Context, identity string, op domain.Operation) (*domain.Result, error)
}

// AssetService handles asset operations.
type AssetService struct {
	gateway Dispatcher
}

// NewAssetService creates a new AssetService.
func NewAssetService(gateway Dispatcher) *AssetService {
	return &AssetService{gateway: gateway}
}

// ============================================================================
// Write Operations
// ============================================================================

// WriteAssetRequest contains parameters for create and update.
type WriteAssetRequest struct {
	Identity string             // Optional wallet identity
	Asset    *domain.AssetInput // Required
}

// WriteAssetResponse contains the result of a committed write.
type WriteAssetResponse struct {
	TransactionID string
	BlockNumber   uint64
}

// Create submits CreateAsset. An existing asset with the same dealerID is
// overwritten by the contract.
func (s *AssetService) Create(ctx context.Context, req *WriteAssetRequest) (*WriteAssetResponse, error) {
	if req == nil {
		return nil, domain.ErrMissingArgument.WithDetails("request body is required")
	}
	op, err := domain.NewCreateAsset(req.Asset)
	if err != nil {
		return nil, err
	}
	return s.write(ctx, req.Identity, op)
}

// Update submits UpdateAsset. The contract rejects unknown assets.
func (s *AssetService) Update(ctx context.Context, req *WriteAssetRequest) (*WriteAssetResponse, error) {
	if req == nil {
		return nil, domain.ErrMissingArgument.WithDetails("request body is required")
	}
	op, err := domain.NewUpdateAsset(req.Asset)
	if err != nil {
		return nil, err
	}
	return s.write(ctx, req.Identity, op)
}

func (s *AssetService) write(ctx context.Context, identity string, op domain.Operation) (*WriteAssetResponse, error) {
	res, err := s.gateway.DispatchAs(ctx, identity, op)
	if err != nil {
		return nil, err
	}
	return &WriteAssetResponse{
		TransactionID: res.TransactionID,
		BlockNumber:   res.BlockNumber,
	}, nil
}

// ============================================================================
// Query Operations
// ============================================================================

// QueryAssetRequest identifies the asset to query.
type QueryAssetRequest struct {
	Identity string // Optional wallet identity
	ID       string // Required dealerID
}

// Read evaluates ReadAsset and returns the ledger's JSON unchanged.
func (s *AssetService) Read(ctx context.Context, req *QueryAssetRequest) (json.RawMessage, error) {
	if req == nil {
		return nil, domain.ErrMissingArgument.WithDetails("id is required")
	}
	op, err := domain.NewReadAsset(req.ID)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, req.Identity, op, false)
}

// History evaluates GetAssetHistory and returns the ledger's JSON array,
// oldest version first.
func (s *AssetService) History(ctx context.Context, req *QueryAssetRequest) (json.RawMessage, error) {
	if req == nil {
		return nil, domain.ErrMissingArgument.WithDetails("id is required")
	}
	op, err := domain.NewGetAssetHistory(req.ID)
	if err != nil {
		return nil, err
	}
	raw, err := s.query(ctx, req.Identity, op, true)
	if err != nil {
		return nil, err
	}
	if string(raw) == "null" {
		return json.RawMessage(`[]`), nil
	}
	return raw, nil
}

// query evaluates op and returns its JSON payload. With allowEmpty an
// empty payload is returned as JSON null.
func (s *AssetService) query(ctx context.Context, identity string, op domain.Operation, allowEmpty bool) (json.RawMessage, error) {
	res, err := s.gateway.DispatchAs(ctx, identity, op)
	if err != nil {
		return nil, err
	}
	payload := bytes.TrimSpace(res.Payload)
	if len(payload) == 0 && allowEmpty {
		return json.RawMessage(`null`), nil
	}
	if !json.Valid(payload) {
		return nil, domain.ErrInternalServer.WithDetailsf("%s returned a non-JSON payload", op.Name)
	}
	return json.RawMessage(payload), nil
}
