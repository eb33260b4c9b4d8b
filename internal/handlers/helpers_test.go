package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-bank-core/internal/jwt"
	"github.com/sbilibin2017/gw-bank-core/internal/middlewares"
	"github.com/stretchr/testify/require"
)

// serve routes one request through a chi router so URL params resolve.
func serve(t *testing.T, register func(chi.Router), method, path string, body any, claims *jwt.Claims) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		b, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if claims != nil {
		req = req.WithContext(middlewares.WithClaims(req.Context(), claims))
	}

	r := chi.NewRouter()
	register(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func userClaims(id uuid.UUID) *jwt.Claims {
	return &jwt.Claims{AccountID: id, Role: jwt.RoleUser}
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}
