package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeShapes(t *testing.T) {
	tests := []struct {
		name string
		resp APIResponse
		want string
	}{
		{
			name: "success without data",
			resp: NewSuccessResponse(http.StatusOK, nil),
			want: `{"hasError":false,"statusCode":200,"message":{},"response":{}}`,
		},
		{
			name: "success with message",
			resp: NewSuccessResponse(http.StatusCreated, map[string]int{"karma": 5}, "Created"),
			want: `{"hasError":false,"statusCode":201,"message":{"general":["Created"]},"response":{"karma":5}}`,
		},
		{
			name: "error defaults to status text",
			resp: NewErrorResponse(http.StatusNotFound),
			want: `{"hasError":true,"statusCode":404,"message":{"general":["Not Found"]},"response":{}}`,
		},
		{
			name: "validation",
			resp: NewValidationErrorResponse(map[string][]string{"email": {"this field is required"}}),
			want: `{"hasError":true,"statusCode":400,"message":{"email":["this field is required"]},"response":{}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.resp)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}
