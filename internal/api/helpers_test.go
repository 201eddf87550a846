package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/stretchr/testify/require"
)

func newAdmin() *domain.User {
	return &domain.User{ID: uuid.New(), Name: "Admin", Email: "admin@example.com", Role: domain.RoleAdmin}
}

func newMember() *domain.User {
	return &domain.User{ID: uuid.New(), Name: "Member", Email: "member@example.com", Role: domain.RoleMember}
}

// newRequest builds a request with an optional JSON body and caller.
func newRequest(t *testing.T, method, target string, body any, caller *domain.User) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller != nil {
		req = req.WithContext(shared.WithUser(req.Context(), caller))
	}
	return req
}

func serve(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body shared.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}
