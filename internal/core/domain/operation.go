package domain

import "strings"

// Contract transaction names.
const (
	OpCreateAsset     = "CreateAsset"
	OpUpdateAsset     = "UpdateAsset"
	OpReadAsset       = "ReadAsset"
	OpGetAssetHistory = "GetAssetHistory"
)

// Operation describes one ledger call.
//
// Mutating operations are submitted for ordering and commit; read-only
// operations are evaluated on a single peer. Args are passed to the
// contract positionally and are never interpreted by the gateway.
type Operation struct {
	Name     string
	Args     []string
	Mutating bool
}

// Mode returns "submit" for mutating operations and "evaluate" otherwise.
func (op Operation) Mode() string {
	if op.Mutating {
		return "submit"
	}
	return "evaluate"
}

// Validate checks the operation is dispatchable.
func (op Operation) Validate() error {
	if strings.TrimSpace(op.Name) == "" {
		return ErrMissingArgument.WithDetails("operation name is required")
	}
	return nil
}

// NewCreateAsset builds the CreateAsset submit operation.
func NewCreateAsset(in *AssetInput) (Operation, error) {
	if err := in.Validate(); err != nil {
		return Operation{}, err
	}
	return Operation{Name: OpCreateAsset, Args: in.Args(), Mutating: true}, nil
}

// NewUpdateAsset builds the UpdateAsset submit operation.
func NewUpdateAsset(in *AssetInput) (Operation, error) {
	if err := in.Validate(); err != nil {
		return Operation{}, err
	}
	return Operation{Name: OpUpdateAsset, Args: in.Args(), Mutating: true}, nil
}

// NewReadAsset builds the ReadAsset evaluate operation.
func NewReadAsset(id string) (Operation, error) {
	if err := validateAssetID(id); err != nil {
		return Operation{}, err
	}
	return Operation{Name: OpReadAsset, Args: []string{id}}, nil
}

// NewGetAssetHistory builds the GetAssetHistory evaluate operation.
func NewGetAssetHistory(id string) (Operation, error) {
	if err := validateAssetID(id); err != nil {
		return Operation{}, err
	}
	return Operation{Name: OpGetAssetHistory, Args: []string{id}}, nil
}

func validateAssetID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingArgument.WithDetails("id is required")
	}
	if len(id) > MaxDealerIDLength {
		return ErrInvalidArgument.WithDetailsf("id exceeds %d characters", MaxDealerIDLength)
	}
	return nil
}

// Result is the outcome of a successful ledger call.
type Result struct {
	// Payload is the raw contract response, typically UTF-8 JSON.
	Payload []byte

	// TransactionID is set for submitted transactions.
	TransactionID string

	// BlockNumber is the block the transaction committed in, if known.
	BlockNumber uint64
}
