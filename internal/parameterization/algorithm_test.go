package parameterization

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in   string
		want Algorithm
	}{
		{"P2015", Proksch2015},
		{"p2015", Proksch2015},
		{"proksch2015", Proksch2015},
		{" CR2020 ", CalonneRichter2020},
		{"Calonne_Richter2020", CalonneRichter2020},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseAlgorithm("K2020")
	assert.True(t, errors.Is(err, ErrUnknownAlgorithm))
}

func TestAlgorithm_Names(t *testing.T) {
	assert.Equal(t, "P2015", Proksch2015.String())
	assert.Equal(t, "CR2020", CalonneRichter2020.String())
	assert.Equal(t, "calonne_richter2020", CalonneRichter2020.LongName())
	assert.Equal(t, "Algorithm(7)", Algorithm(7).String())
}

func TestAlgorithm_JSON(t *testing.T) {
	var v struct {
		Algo Algorithm `json:"algo"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"algo":"cr2020"}`), &v))
	assert.Equal(t, CalonneRichter2020, v.Algo)

	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"algo":"CR2020"}`, string(b))

	assert.Error(t, json.Unmarshal([]byte(`{"algo":"nope"}`), &v))
}
