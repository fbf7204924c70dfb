package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreateAndUpdate(t *testing.T) {
	create, err := NewCreateAsset(validInput())
	require.NoError(t, err)
	assert.Equal(t, OpCreateAsset, create.Name)
	assert.True(t, create.Mutating)
	assert.Equal(t, "submit", create.Mode())
	assert.Len(t, create.Args, 8)

	update, err := NewUpdateAsset(validInput())
	require.NoError(t, err)
	assert.Equal(t, OpUpdateAsset, update.Name)
	assert.True(t, update.Mutating)
	assert.Equal(t, create.Args, update.Args)

	bad := validInput()
	bad.MPIN = ""
	_, err = NewUpdateAsset(bad)
	assert.ErrorIs(t, err, ErrMissingArgument)
}

func TestNewReadOperations(t *testing.T) {
	read, err := NewReadAsset("D1")
	require.NoError(t, err)
	assert.Equal(t, Operation{Name: OpReadAsset, Args: []string{"D1"}}, read)
	assert.Equal(t, "evaluate", read.Mode())

	hist, err := NewGetAssetHistory("D1")
	require.NoError(t, err)
	assert.Equal(t, OpGetAssetHistory, hist.Name)
	assert.False(t, hist.Mutating)

	_, err = NewReadAsset("")
	assert.ErrorIs(t, err, ErrMissingArgument)
	_, err = NewGetAssetHistory(string(make([]byte, MaxDealerIDLength+1)))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestOperation_Validate(t *testing.T) {
	assert.ErrorIs(t, Operation{}.Validate(), ErrMissingArgument)
	assert.NoError(t, Operation{Name: "Custom", Args: nil}.Validate())
}
