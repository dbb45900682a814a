package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txdash/internal/core"
	"txdash/internal/remote/memory"
)

func seeded() *memory.Store {
	return memory.New(
		[]core.StatusOption{{ID: 0, Name: "Lunas"}, {ID: 1, Name: "Belum Lunas"}},
		[]core.Transaction{{
			ID:              "t1",
			ProductID:       "P1",
			ProductName:     "Kopi",
			Amount:          core.MustAmount("15000"),
			CustomerName:    "Andi",
			Status:          0,
			TransactionDate: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			CreateBy:        "system",
			CreateOn:        time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		}},
	)
}

func newTestServer(t *testing.T, store *memory.Store) *Server {
	t.Helper()
	srv := NewServer(store, Options{WritesPerMinute: 3})
	t.Cleanup(srv.limiter.Stop)
	return srv
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) Error {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestServer_ListAndStatuses(t *testing.T) {
	h := newTestServer(t, seeded()).Handler()

	rec := do(t, h, http.MethodGet, "/data", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var txs []core.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, "t1", txs[0].ID)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = do(t, h, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var statuses []core.StatusOption
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statuses))
	assert.Equal(t, []core.StatusOption{{ID: 0, Name: "Lunas"}, {ID: 1, Name: "Belum Lunas"}}, statuses)
}

func TestServer_EmptyListIsArray(t *testing.T) {
	h := newTestServer(t, memory.New(nil, nil)).Handler()

	rec := do(t, h, http.MethodGet, "/data", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestServer_Create(t *testing.T) {
	store := seeded()
	h := newTestServer(t, store).Handler()

	rec := do(t, h, http.MethodPost, "/data", map[string]any{
		"productID":    "P2",
		"productName":  "Teh",
		"amount":       "5000",
		"customerName": "Budi",
		"status":       1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var saved core.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "system", saved.CreateBy)
	assert.False(t, saved.CreateOn.IsZero())
	assert.False(t, saved.TransactionDate.IsZero())
	assert.Equal(t, 1, store.Calls(memory.OpCreate))
}

func TestServer_CreateRejectsUnknownStatus(t *testing.T) {
	store := seeded()
	h := newTestServer(t, store).Handler()

	rec := do(t, h, http.MethodPost, "/data", map[string]any{
		"productID":    "P2",
		"productName":  "Teh",
		"amount":       "5000",
		"customerName": "Budi",
		"status":       7,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	apiErr := decodeError(t, rec)
	assert.Equal(t, "validation_failure", apiErr.Code)
	assert.Contains(t, apiErr.Fields, "status")
	assert.Equal(t, 0, store.Calls(memory.OpCreate))
}

func TestServer_CreateRejectsBadBody(t *testing.T) {
	h := newTestServer(t, seeded()).Handler()

	req := httptest.NewRequest(http.MethodPost, "/data", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decodeError(t, rec).Code)
}

func TestServer_Update(t *testing.T) {
	store := seeded()
	h := newTestServer(t, store).Handler()

	body := map[string]any{
		"id":              "t1",
		"productID":       "P1",
		"productName":     "Kopi Susu",
		"amount":          "18000",
		"customerName":    "Andi",
		"status":          1,
		"transactionDate": "2024-05-01T10:00:00Z",
		"createBy":        "system",
		"createOn":        "2024-05-01T10:00:00Z",
	}
	rec := do(t, h, http.MethodPut, "/data/t1", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var saved core.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.Equal(t, "Kopi Susu", saved.ProductName)
	assert.Equal(t, "18000", saved.Amount.Text())

	t.Run("id mismatch", func(t *testing.T) {
		rec := do(t, h, http.MethodPut, "/data/t2", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		body := map[string]any{
			"productID":    "P9",
			"productName":  "X",
			"amount":       "1",
			"customerName": "Y",
			"status":       0,
		}
		rec := do(t, h, http.MethodPut, "/data/missing", body)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_Delete(t *testing.T) {
	store := seeded()
	h := newTestServer(t, store).Handler()

	rec := do(t, h, http.MethodDelete, "/data/t1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "{}", rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/data/t1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Code)
}

func TestServer_StoreFailureIs500(t *testing.T) {
	store := seeded()
	store.FailWith(memory.OpList, errors.New("disk on fire"))
	h := newTestServer(t, store).Handler()

	rec := do(t, h, http.MethodGet, "/data", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decodeError(t, rec).Code)
}

func TestServer_RateLimitsWritesOnly(t *testing.T) {
	h := newTestServer(t, seeded()).Handler()

	for i := 0; i < 3; i++ {
		rec := do(t, h, http.MethodDelete, "/data/nope", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	}
	rec := do(t, h, http.MethodDelete, "/data/nope", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limited", decodeError(t, rec).Code)

	rec = do(t, h, http.MethodGet, "/data", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_UnknownRoute(t *testing.T) {
	h := newTestServer(t, seeded()).Handler()

	rec := do(t, h, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPatch, "/data/t1", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Healthz(t *testing.T) {
	h := newTestServer(t, seeded()).Handler()

	rec := do(t, h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}
