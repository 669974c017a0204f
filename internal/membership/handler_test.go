package membership

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clubverse/internal/httpx"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T, store Store) http.Handler {
	svc := newTestService(t, store)
	h := NewHandler(svc, zap.NewNop(), func(context.Context) string { return "" })
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

const createBody = `{
	"name": "Anmol Singh",
	"email": "anmol@example.com",
	"phone": "98765 43210",
	"membershipType": "diamond",
	"membershipPeriod": "weekly",
	"startDate": "2024-01-31"
}`

func TestHandleCreate(t *testing.T) {
	rr := do(t, newTestRouter(t, newMemoryStore()), http.MethodPost, "/memberships", createBody)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var rec Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, TypeDiamond, rec.Type)
	assert.Equal(t, Units(120), rec.TotalAmount)
	assert.Equal(t, "2024-02-07", rec.EndDate.Format("2006-01-02"))
	assert.Contains(t, rr.Body.String(), `"totalAmount":120.00`)
}

func TestHandleCreateDegradedStillCreated(t *testing.T) {
	store := newMemoryStore()
	store.fail = errors.New("database is down")

	rr := do(t, newTestRouter(t, store), http.MethodPost, "/memberships", createBody)
	require.Equal(t, http.StatusCreated, rr.Code)

	var rec Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, Units(120), rec.TotalAmount)
}

func TestHandleCreateValidationErrors(t *testing.T) {
	h := newTestRouter(t, newMemoryStore())

	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing field", `{"name":"A B","email":"a@b.co","phone":"9876543210","membershipType":"gold"}`, "missing_field"},
		{"invalid email", `{"name":"A B","email":"not-an-email","phone":"9876543210","membershipType":"gold","membershipPeriod":"weekly"}`, "invalid_format"},
		{"invalid enum", `{"name":"A B","email":"a@b.co","phone":"9876543210","membershipType":"unobtainium","membershipPeriod":"weekly"}`, "invalid_enum"},
		{"invalid start", `{"name":"A B","email":"a@b.co","phone":"9876543210","membershipType":"gold","membershipPeriod":"weekly","startDate":"soon"}`, "invalid_format"},
		{"broken json", `{"name":`, "invalid_format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/memberships", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)

			var body httpx.ErrorBody
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestHandleQuote(t *testing.T) {
	h := newTestRouter(t, newMemoryStore())

	rr := do(t, h, http.MethodGet, "/memberships/quote?type=gold&period=monthly&start=2024-01-31", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var q Quote
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &q))
	assert.Equal(t, "2024-02-29", q.EndDate.Format("2006-01-02"))
	assert.Equal(t, Units(150), q.TotalAmount)

	rr = do(t, h, http.MethodGet, "/memberships/quote?type=gold&period=fortnightly", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleGet(t *testing.T) {
	h := newTestRouter(t, newMemoryStore())

	rr := do(t, h, http.MethodPost, "/memberships", createBody)
	require.Equal(t, http.StatusCreated, rr.Code)
	var rec Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))

	rr = do(t, h, http.MethodGet, "/memberships/"+rec.ID, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, h, http.MethodGet, "/memberships/"+rec.ID+"/history", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, h, http.MethodGet, "/memberships/unknown", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
