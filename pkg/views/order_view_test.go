package views

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRequest_UnmarshalKeepsWronglyTypedFields(t *testing.T) {
	var req OrderRequest
	err := json.Unmarshal([]byte(`{"side":7,"tenor":"10Y","issuance_type":null,"quantity":"abc","yield":true,"notes":"desk"}`), &req)
	require.NoError(t, err)

	assert.Equal(t, "7", req.Side)
	assert.Equal(t, "10Y", req.Tenor)
	assert.Empty(t, req.IssuanceType)
	assert.Equal(t, json.Number("abc"), req.Quantity)
	assert.Equal(t, json.Number("true"), req.Yield)
	require.NotNil(t, req.Notes)
	assert.Equal(t, "desk", *req.Notes)
}

func TestOrderRequest_UnmarshalNumbers(t *testing.T) {
	var req OrderRequest
	require.NoError(t, json.Unmarshal([]byte(`{"quantity":5000.0,"yield":"4.25","notes":null}`), &req))

	assert.Equal(t, json.Number("5000.0"), req.Quantity)
	assert.Equal(t, json.Number("4.25"), req.Yield)
	assert.Nil(t, req.Notes)
}

func TestOrderRequest_UnmarshalRejectsNonObject(t *testing.T) {
	var req OrderRequest
	assert.Error(t, json.Unmarshal([]byte(`["Buy"]`), &req))
}
