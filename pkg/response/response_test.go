package response_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/tayseer-service/internal/repository"
	"github.com/maxviazov/tayseer-service/internal/service"
	"github.com/maxviazov/tayseer-service/pkg/response"
)

func TestMapError(t *testing.T) {
	invalid := service.NewInvalidInput([]service.FieldError{{Field: "name", Message: "bad"}})
	cases := []struct {
		name     string
		in       error
		wantCode int
		wantErr  string
	}{
		{"invalid_input", invalid, 400, "invalid_input"},
		{"not_found", repository.ErrNotFound, 404, "not_found"},
		{"wrapped_not_found", fmt.Errorf("get: %w", repository.ErrNotFound), 404, "not_found"},
		{"already_exists", repository.ErrAlreadyExists, 409, "already_exists"},
		{"conflict", repository.ErrConflict, 409, "conflict"},
		{"internal", errors.New("pq: password authentication failed"), 500, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, payload := response.MapError(tc.in)
			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantErr, payload.Error)
			assert.False(t, payload.Success)
			assert.NotEmpty(t, payload.Message)
			assert.NotContains(t, payload.Message, "password")
			if tc.wantErr == "invalid_input" {
				assert.Equal(t, []service.FieldError{{Field: "name", Message: "bad"}}, payload.FieldErrors)
			}
		})
	}
}

func TestWriteHelpers_Envelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	response.WriteData(c, http.StatusCreated, map[string]int{"id": 3})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":3}}`, w.Body.String())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	response.WriteError(c, repository.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, c.IsAborted())
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "not_found", body["error"])
	require.Len(t, c.Errors, 1)
}
