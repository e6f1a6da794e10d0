package store

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenixforecast/annualref/stats"
)

func TestMarshalJSONBMapsNaNToNull(t *testing.T) {
	// The mean model reports all-NaN accuracy metrics; the payload must
	// still encode.
	nan := math.NaN()
	acc := stats.Accuracy{ME: nan, RMSE: nan, MAE: nan, MPE: nan, MAPE: nan, R2: nan}

	raw, err := marshalJSONB(acc)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, field := range []string{"ME", "RMSE", "MAE", "MPE", "MAPE", "R2"} {
		v, ok := decoded[field]
		require.True(t, ok, "field %s missing from payload", field)
		assert.Nil(t, v, "NaN %s should encode as null", field)
	}
}

func TestMarshalJSONBKeepsFiniteValues(t *testing.T) {
	payload := []struct {
		Month string
		Value float64
		Flag  bool
	}{
		{Month: "2023-04", Value: 1250.5, Flag: true},
		{Month: "2023-05", Value: math.NaN(), Flag: false},
	}

	raw, err := marshalJSONB(payload)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "2023-04", decoded[0]["Month"])
	assert.Equal(t, 1250.5, decoded[0]["Value"])
	assert.Equal(t, true, decoded[0]["Flag"])
	assert.Nil(t, decoded[1]["Value"])
}

func TestMarshalJSONBNilPayload(t *testing.T) {
	raw, err := marshalJSONB(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))

	var coefficients *struct{ Names []string }
	raw, err = marshalJSONB(coefficients)
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
}
