package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Asset field limits.
const (
	MaxDealerIDLength = 128
	MaxFieldLength    = 256
	MaxRemarksLength  = 1024
)

// Asset is a dealer account record as stored on the ledger.
//
// Balance and TransAmount decode from either a JSON number or a JSON
// string, since the contract may store them in either form.
type Asset struct {
	DealerID    string          `json:"dealerID"`
	MSISDN      string          `json:"msisdn"`
	MPIN        string          `json:"mpin"`
	Balance     decimal.Decimal `json:"balance"`
	Status      string          `json:"status"`
	TransAmount decimal.Decimal `json:"transAmount"`
	TransType   string          `json:"transType"`
	Remarks     string          `json:"remarks"`
}

// AssetInput is the payload of a create or update request.
type AssetInput struct {
	DealerID    string              `json:"dealerID"`
	MSISDN      string              `json:"msisdn"`
	MPIN        string              `json:"mpin"`
	Balance     decimal.NullDecimal `json:"balance"`
	Status      string              `json:"status"`
	TransAmount decimal.NullDecimal `json:"transAmount"`
	TransType   string              `json:"transType"`
	Remarks     string              `json:"remarks"`
}

// Validate checks that every required field is present.
// Remarks may be empty; every other field must be set.
func (in *AssetInput) Validate() error {
	if in == nil {
		return ErrMissingArgument.WithDetails("asset is required")
	}

	required := []struct {
		name  string
		value string
	}{
		{"dealerID", in.DealerID},
		{"msisdn", in.MSISDN},
		{"mpin", in.MPIN},
		{"status", in.Status},
		{"transType", in.TransType},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return ErrMissingArgument.WithDetails(f.name + " is required")
		}
		if len(f.value) > MaxFieldLength {
			return ErrInvalidArgument.WithDetailsf("%s exceeds %d characters", f.name, MaxFieldLength)
		}
	}

	if len(in.DealerID) > MaxDealerIDLength {
		return ErrInvalidArgument.WithDetailsf("dealerID exceeds %d characters", MaxDealerIDLength)
	}
	if len(in.Remarks) > MaxRemarksLength {
		return ErrInvalidArgument.WithDetailsf("remarks exceeds %d characters", MaxRemarksLength)
	}
	if !in.Balance.Valid {
		return ErrMissingArgument.WithDetails("balance is required")
	}
	if !in.TransAmount.Valid {
		return ErrMissingArgument.WithDetails("transAmount is required")
	}

	return nil
}

// Args returns the positional contract arguments for create and update:
// dealerID, msisdn, mpin, status, transType, remarks, balance, transAmount.
func (in *AssetInput) Args() []string {
	return []string{
		in.DealerID,
		in.MSISDN,
		in.MPIN,
		in.Status,
		in.TransType,
		in.Remarks,
		CanonicalAmount(in.Balance.Decimal),
		CanonicalAmount(in.TransAmount.Decimal),
	}
}

// CanonicalAmount renders an amount in the single form sent to the
// ledger: plain decimal notation, no exponent, no trailing fractional
// zeros. 100, 100.0 and "100.00" all become "100"; 0.50 becomes "0.5".
func CanonicalAmount(d decimal.Decimal) string {
	return d.String()
}

// ParseAmount parses a decimal amount from its textual form.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, ErrInvalidArgument.WithDetailsf("invalid amount %q", s).WithCause(err)
	}
	return d, nil
}
