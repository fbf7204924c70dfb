package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() *AssetInput {
	return &AssetInput{
		DealerID:    "D1",
		MSISDN:      "9999999999",
		MPIN:        "1234",
		Balance:     decimal.NewNullDecimal(decimal.NewFromInt(500)),
		Status:      "active",
		TransAmount: decimal.NewNullDecimal(decimal.Zero),
		TransType:   "init",
		Remarks:     "seed",
	}
}

func TestAssetInput_Args_Order(t *testing.T) {
	args := validInput().Args()
	assert.Equal(t, []string{"D1", "9999999999", "1234", "active", "init", "seed", "500", "0"}, args)
}

func TestAssetInput_DecodeNumberOrString(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		balance string
		amount  string
	}{
		{"integers", `{"balance":500,"transAmount":0}`, "500", "0"},
		{"trailing zero", `{"balance":100.0,"transAmount":2.50}`, "100", "2.5"},
		{"strings", `{"balance":"100.00","transAmount":"0.10"}`, "100", "0.1"},
		{"exponent", `{"balance":1e3,"transAmount":-5}`, "1000", "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in AssetInput
			require.NoError(t, json.Unmarshal([]byte(tt.body), &in))
			require.True(t, in.Balance.Valid)
			require.True(t, in.TransAmount.Valid)
			assert.Equal(t, tt.balance, CanonicalAmount(in.Balance.Decimal))
			assert.Equal(t, tt.amount, CanonicalAmount(in.TransAmount.Decimal))
		})
	}
}

func TestCanonicalAmount_EquivalentFormsMatch(t *testing.T) {
	a, err := ParseAmount("100")
	require.NoError(t, err)
	b, err := ParseAmount("100.0")
	require.NoError(t, err)
	assert.Equal(t, CanonicalAmount(a), CanonicalAmount(b))
}

func TestParseAmount_Invalid(t *testing.T) {
	_, err := ParseAmount("12abc")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAssetInput_Validate(t *testing.T) {
	require.NoError(t, validInput().Validate())

	noRemarks := validInput()
	noRemarks.Remarks = ""
	assert.NoError(t, noRemarks.Validate())

	tests := []struct {
		name   string
		mutate func(*AssetInput)
		want   *DomainError
	}{
		{"missing dealer", func(in *AssetInput) { in.DealerID = " " }, ErrMissingArgument},
		{"missing msisdn", func(in *AssetInput) { in.MSISDN = "" }, ErrMissingArgument},
		{"missing mpin", func(in *AssetInput) { in.MPIN = "" }, ErrMissingArgument},
		{"missing status", func(in *AssetInput) { in.Status = "" }, ErrMissingArgument},
		{"missing trans type", func(in *AssetInput) { in.TransType = "" }, ErrMissingArgument},
		{"missing balance", func(in *AssetInput) { in.Balance = decimal.NullDecimal{} }, ErrMissingArgument},
		{"missing amount", func(in *AssetInput) { in.TransAmount = decimal.NullDecimal{} }, ErrMissingArgument},
		{"long dealer", func(in *AssetInput) { in.DealerID = string(make([]byte, MaxDealerIDLength+1)) + "x" }, ErrInvalidArgument},
		{"long remarks", func(in *AssetInput) { in.Remarks = string(make([]byte, MaxRemarksLength+1)) }, ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(in)
			assert.ErrorIs(t, in.Validate(), tt.want)
		})
	}

	var nilInput *AssetInput
	assert.ErrorIs(t, nilInput.Validate(), ErrMissingArgument)
}

func TestAsset_DecodeStringBalance(t *testing.T) {
	var a Asset
	require.NoError(t, json.Unmarshal([]byte(`{"dealerID":"D1","balance":"500","transAmount":0}`), &a))
	assert.Equal(t, "500", CanonicalAmount(a.Balance))
}
