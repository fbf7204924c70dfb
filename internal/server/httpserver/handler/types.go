package handler

// WriteAssetResponse is the response body for POST and PUT /asset.
type WriteAssetResponse struct {
	Message       string `json:"message"`
	TransactionID string `json:"transaction_id"`
	BlockNumber   uint64 `json:"block_number,omitempty"`
}

// ErrorResponse is the response body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse is the response body for GET /health and GET /ready.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
	Reason string `json:"reason,omitempty"`
}

const (
	msgAssetCreated = "Asset created successfully!"
	msgAssetUpdated = "Asset updated successfully!"
)
