package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/maxviazov/tayseer-service/internal/handler"
	"github.com/maxviazov/tayseer-service/internal/repository"
	"github.com/maxviazov/tayseer-service/internal/repository/memory"
	"github.com/maxviazov/tayseer-service/internal/service"
)

// stubPinger implements handler.Pinger for health endpoints.
type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type envelope struct {
	Success     bool                 `json:"success"`
	Message     string               `json:"message"`
	Error       string               `json:"error"`
	Data        json.RawMessage      `json:"data"`
	FieldErrors []service.FieldError `json:"field_errors"`
}

type page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
}

type caseDTO struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

type productDTO struct {
	ID       int64  `json:"id"`
	SKU      string `json:"sku"`
	Quantity int64  `json:"quantity"`
}

func newServices() *service.Services {
	return service.New(service.Stores{
		Customers: memory.NewStore(repository.Customers, nil),
		Products:  memory.NewStore(repository.Products, nil),
		Documents: memory.NewStore(repository.Documents, nil),
		Cases:     memory.NewStore(repository.Cases, nil),
		Contracts: memory.NewStore(repository.Contracts, nil),
		Audits:    memory.NewStore(repository.Audits, nil),
	}, zerolog.New(io.Discard))
}

func newRouter(t *testing.T, p handler.Pinger) (*gin.Engine, *service.Services) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svcs := newServices()
	r := handler.NewRouter(zerolog.New(io.Discard), handler.RouterOptions{}, map[string]handler.Pinger{"storage": p}, svcs)
	return r, svcs
}

func do(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func TestCases_ListScenario(t *testing.T) {
	r, _ := newRouter(t, stubPinger{})
	// three open litigation cases among noise
	seed := []map[string]any{
		{"title": "c1", "type": "litigation", "status": "open"},
		{"title": "c2", "type": "litigation", "status": "closed"},
		{"title": "c3", "type": "litigation", "status": "open"},
		{"title": "c4", "type": "advisory", "status": "open"},
		{"title": "c5", "type": "litigation", "status": "open"},
		{"title": "c6", "type": "litigation", "status": "in_progress"},
	}
	for _, body := range seed {
		w, _ := do(t, r, http.MethodPost, "/api/v1/legal/cases", body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w, env := do(t, r, http.MethodGet, "/api/v1/legal/cases?type=litigation&status=open&page=1&limit=2&sortBy=id&sortOrder=desc", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, env.Success)

	var res page[caseDTO]
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.TotalPages)
	assert.Equal(t, 1, res.Page)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "c5", res.Items[0].Title)
	assert.Equal(t, "c3", res.Items[1].Title)

	_, env = do(t, r, http.MethodGet, "/api/v1/legal/cases?type=litigation&status=open&page=9&limit=2", nil)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 3, res.Total)
	assert.Empty(t, res.Items)
}

func TestList_HugePageIsEmptyNotAnError(t *testing.T) {
	r, _ := newRouter(t, stubPinger{})
	for _, title := range []string{"c1", "c2"} {
		w, _ := do(t, r, http.MethodPost, "/api/v1/legal/cases", map[string]any{"title": title, "type": "advisory", "status": "open"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w, env := do(t, r, http.MethodGet, "/api/v1/legal/cases?page=100000000000000000&limit=100", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res page[caseDTO]
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 100000000000000000, res.Page)
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)

	// beyond int64 the value cannot be decoded at all
	w, _ = do(t, r, http.MethodGet, "/api/v1/legal/cases?page=100000000000000000000", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestList_RejectsBadParams(t *testing.T) {
	r, _ := newRouter(t, stubPinger{})
	cases := []struct {
		name      string
		query     string
		wantField string
	}{
		{"page zero", "page=0", "page"},
		{"page not a number", "page=abc", "page"},
		{"limit too big", "limit=101", "limit"},
		{"limit zero", "limit=0", "limit"},
		{"bad order", "sortOrder=sideways", "sortOrder"},
		{"unknown sort", "sortBy=phone", "sortBy"},
		{"unknown filter", "color=red", "color"},
		{"sort-only field as filter", "name=Acme", "name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, env := do(t, r, http.MethodGet, "/api/v1/customers?"+tc.query, nil)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.False(t, env.Success)
			assert.Equal(t, "invalid_input", env.Error)
			require.NotEmpty(t, env.FieldErrors)
			assert.Equal(t, tc.wantField, env.FieldErrors[0].Field)
		})
	}
}

func TestList_TypedFilter(t *testing.T) {
	r, _ := newRouter(t, stubPinger{})
	w, _ := do(t, r, http.MethodGet, "/api/v1/legal/cases?customer_id=seven", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := do(t, r, http.MethodGet, "/api/v1/legal/cases?customer_id=7&status=", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res page[caseDTO]
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Zero(t, res.Total)
	assert.Zero(t, res.TotalPages)
	assert.NotNil(t, res.Items)
}

func TestCRUD_Lifecycle(t *testing.T) {
	r, _ := newRouter(t, stubPinger{})

	w, env := do(t, r, http.MethodPost, "/api/v1/customers", map[string]any{"name": "Acme", "email": "ops@acme.example", "type": "company"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "active", created.Status)

	w, _ = do(t, r, http.MethodPost, "/api/v1/customers", map[string]any{"name": "Acme 2", "email": "OPS@acme.example", "type": "company"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = do(t, r, http.MethodPut, "/api/v1/customers/1", map[string]any{"status": "inactive"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), `"status":"inactive"`)
	assert.Contains(t, string(env.Data), `"name":"Acme"`)

	w, _ = do(t, r, http.MethodGet, "/api/v1/customers/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = do(t, r, http.MethodDelete, "/api/v1/customers/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "deleted", env.Message)

	w, env = do(t, r, http.MethodGet, "/api/v1/customers/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", env.Error)

	w, _ = do(t, r, http.MethodDelete, "/api/v1/customers/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCRUD_BadInput(t *testing.T) {
	r, _ := newRouter(t, stubPinger{})

	w, env := do(t, r, http.MethodGet, "/api/v1/legal/documents/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "id", env.FieldErrors[0].Field)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/legal/documents", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "malformed JSON")

	w, env = do(t, r, http.MethodPost, "/api/v1/legal/documents", map[string]any{"title": "", "type": "poem"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var fields []string
	for _, fe := range env.FieldErrors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"title", "type"}, fields)
}

func TestInventory_Routes(t *testing.T) {
	r, _ := newRouter(t, stubPinger{})
	for _, body := range []map[string]any{
		{"sku": "A", "name": "A", "category": "x", "quantity": 10},
		{"sku": "B", "name": "B", "category": "x", "quantity": 2},
		{"sku": "C", "name": "C", "category": "x", "quantity": 0},
	} {
		w, _ := do(t, r, http.MethodPost, "/api/v1/products", body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w, env := do(t, r, http.MethodPost, "/api/v1/products/1/stock", map[string]any{"delta": -4})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var p productDTO
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, int64(6), p.Quantity)

	w, env = do(t, r, http.MethodPost, "/api/v1/products/2/stock", map[string]any{"delta": -3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "delta", env.FieldErrors[0].Field)

	w, env = do(t, r, http.MethodGet, "/api/v1/products/low-stock?threshold=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res page[productDTO]
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.Len(t, res.Items, 2)
	assert.Equal(t, "C", res.Items[0].SKU)
	assert.Equal(t, "B", res.Items[1].SKU)

	w, _ = do(t, r, http.MethodGet, "/api/v1/products/low-stock?threshold=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompliance_ReportRoutes(t *testing.T) {
	r, svcs := newRouter(t, stubPinger{})
	require.NoError(t, service.Seed(context.Background(), svcs))

	w, env := do(t, r, http.MethodGet, "/api/v1/legal/compliance/report", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report struct {
		TotalAudits     int `json:"total_audits"`
		OpenCases       int `json:"open_cases"`
		ActiveContracts int `json:"active_contracts"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 3, report.TotalAudits)
	assert.Equal(t, 1, report.OpenCases)
	assert.Equal(t, 2, report.ActiveContracts)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/legal/compliance/report.xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "compliance_report_")
	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Recent audits")
}

func TestHealth(t *testing.T) {
	r, _ := newRouter(t, stubPinger{})
	for _, path := range []string{"/live", "/ready", "/api/v1/health/live", "/api/v1/health/ready"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	down, _ := newRouter(t, stubPinger{err: errors.New("db down")})
	w := httptest.NewRecorder()
	down.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"storage":"unavailable"`)
	assert.NotContains(t, w.Body.String(), "db down")
}

func TestDocs(t *testing.T) {
	r, _ := newRouter(t, stubPinger{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/v1/legal/cases")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger-ui")
}

func TestRequestID_Header(t *testing.T) {
	r, _ := newRouter(t, stubPinger{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
