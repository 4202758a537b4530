package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowSetMarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		rs       RowSet
		expected string
	}{
		{"nothing requested", RowSet{}, `{}`},
		{"empty rows kept", RowSet{Rows: []IRObject{}}, `{"rows":[]}`},
		{"rows", RowSet{Rows: []IRObject{{"id": IRInt(1), "name": IRString("Ann")}}}, `{"rows":[{"id":1,"name":"Ann"}]}`},
		{"aggregates only", RowSet{Aggregates: IRObject{"count": IRInt(3)}}, `{"aggregates":{"count":3}}`},
		{"both", RowSet{
			Aggregates: IRObject{"count": IRInt(0)},
			Rows:       []IRObject{},
		}, `{"aggregates":{"count":0},"rows":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.rs)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(data))
		})
	}
}

func TestQueryResponseMarshal(t *testing.T) {
	resp := QueryResponse{{Rows: []IRObject{{"id": IRInt(2)}}}}
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Equal(t, `[{"rows":[{"id":2}]}]`, string(data))
}

func TestRowSetToIR(t *testing.T) {
	rs := RowSet{Rows: []IRObject{{"id": IRInt(1)}}}
	canonical, err := MarshalCanonical(rs.ToIR())
	require.NoError(t, err)
	assert.Equal(t, `{"rows":[{"id":1}]}`, string(canonical))

	assert.Equal(t, IRObject{}, RowSet{}.ToIR())
}
