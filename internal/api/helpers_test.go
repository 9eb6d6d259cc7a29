package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ecomroutine/ecomroutine-api/internal/api/shared"
	"github.com/ecomroutine/ecomroutine-api/internal/domain"
)

// fixedNow is the deterministic clock handler tests inject via timeNow.
var fixedNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Total   *int            `json:"total"`
}

// doJSON serves one request against the handler and decodes the envelope.
// A non-nil user is injected into the context the way the auth middleware
// would.
func doJSON(
	t *testing.T,
	handler http.Handler,
	method, path string,
	body any,
	user *domain.User,
) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req = req.WithContext(context.WithValue(req.Context(), shared.CurrentUserKey, user))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var env testEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return rec, env
}

func decodeData(t *testing.T, env testEnvelope, dst any) {
	t.Helper()
	require.NotNil(t, env.Data)
	require.NoError(t, json.Unmarshal(env.Data, dst))
}
