package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txdash/internal/core"
	"txdash/internal/dialog"
	"txdash/internal/grouping"
	"txdash/internal/remote/memory"
	"txdash/internal/render"
	"txdash/internal/session"
)

type fixture struct {
	srv   *Server
	sess  *session.Session
	store *memory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New(
		[]core.StatusOption{{ID: 0, Name: "Lunas"}, {ID: 1, Name: "Belum Lunas"}},
		[]core.Transaction{
			{
				ID: "t1", ProductID: "P1", ProductName: "Kopi Gayo", CustomerName: "Andi",
				Amount: core.MustAmount("15000"), Status: 0,
				TransactionDate: time.Date(2024, time.May, 1, 14, 30, 0, 0, time.UTC),
				CreateBy:        "seed", CreateOn: time.Date(2024, time.May, 1, 14, 30, 0, 0, time.UTC),
			},
			{
				ID: "t2", ProductID: "P2", ProductName: "Teh Tarik", CustomerName: "Budi",
				Amount: core.MustAmount("8000"), Status: 1,
				TransactionDate: time.Date(2023, time.November, 2, 9, 0, 0, 0, time.UTC),
				CreateBy:        "seed", CreateOn: time.Date(2023, time.November, 2, 9, 0, 0, 0, time.UTC),
			},
		},
	)
	locale := render.MustLocale("en", time.UTC)
	sess := session.New(store, session.Config{
		Grouping: grouping.Options{Location: time.UTC, MonthName: locale.MonthName},
		Clock:    func() time.Time { return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC) },
	})
	srv, err := NewServer(":0", sess, locale, nil)
	require.NoError(t, err)
	return &fixture{srv: srv, sess: sess, store: store}
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	f.srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func (f *fixture) post(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	f.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func validForm() url.Values {
	return url.Values{
		"productID":    {"P9"},
		"productName":  {"Es Kopi"},
		"customerName": {"Citra"},
		"amount":       {"22000"},
		"status":       {"1"},
	}
}

func TestIndex_LoadsAndGroups(t *testing.T) {
	f := newFixture(t)

	rr := f.get(t, "/")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()

	assert.Contains(t, body, "Kopi Gayo")
	assert.Contains(t, body, "Teh Tarik")
	assert.Contains(t, body, "Rp 15,000")
	assert.Contains(t, body, "badge-negative")
	assert.Less(t, strings.Index(body, "<h2>2024"), strings.Index(body, "<h2>2023"), "years newest first")
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rr.Header().Get("Content-Security-Policy"))
	assert.Equal(t, 1, f.store.Calls(memory.OpList))

	f.get(t, "/")
	assert.Equal(t, 1, f.store.Calls(memory.OpList), "loaded once")
}

func TestIndex_LoadFailureIsWholeScreen(t *testing.T) {
	f := newFixture(t)
	f.store.FailWith(memory.OpStatuses, errors.New("connection refused"))

	rr := f.get(t, "/")
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "Could not load transactions")
	assert.NotContains(t, rr.Body.String(), "Kopi Gayo")

	rr = f.get(t, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	f.store.FailWith(memory.OpStatuses, nil)
	rr = f.get(t, "/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Kopi Gayo")

	rr = f.get(t, "/readyz")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAddFlow(t *testing.T) {
	f := newFixture(t)
	f.get(t, "/")

	rr := f.post(t, "/dialog/add", nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.Equal(t, dialog.Add, f.sess.Dialog().Kind)

	rr = f.get(t, "/")
	assert.Contains(t, rr.Body.String(), "dialog-add")

	t.Run("validation failure keeps the form", func(t *testing.T) {
		form := validForm()
		form.Set("productID", "  ")
		form.Set("amount", "abc")
		rr := f.post(t, "/transactions", form)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, "Product ID is required")
		assert.Contains(t, body, "Amount must be a number")
		assert.Contains(t, body, `value="Es Kopi"`)
		assert.Equal(t, 0, f.store.Calls(memory.OpCreate))
		assert.Equal(t, dialog.Add, f.sess.Dialog().Kind)
	})

	t.Run("remote failure keeps the dialog open", func(t *testing.T) {
		f.store.FailWith(memory.OpCreate, errors.New("503 from upstream"))
		defer f.store.FailWith(memory.OpCreate, nil)

		rr := f.post(t, "/transactions", validForm())
		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.Contains(t, rr.Body.String(), "Failed to save transaction.")
		assert.Equal(t, dialog.Add, f.sess.Dialog().Kind)
		assert.Len(t, f.sess.Transactions(), 2)
	})

	rr = f.post(t, "/transactions", validForm())
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, dialog.Closed, f.sess.Dialog().Kind)

	txs := f.sess.Transactions()
	require.Len(t, txs, 3)
	assert.Equal(t, "Es Kopi", txs[0].ProductName)
	assert.Contains(t, f.get(t, "/").Body.String(), "Es Kopi")
}

func TestEditFlow(t *testing.T) {
	f := newFixture(t)
	f.get(t, "/")

	rr := f.post(t, "/dialog/edit/t2", nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)

	body := f.get(t, "/").Body.String()
	assert.Contains(t, body, "dialog-edit")
	assert.Contains(t, body, `value="Teh Tarik"`)
	assert.Contains(t, body, `<option value="1" selected>`)

	form := url.Values{
		"productID":    {"P2"},
		"productName":  {"Teh Tarik Panas"},
		"customerName": {"Budi"},
		"amount":       {"9000"},
		"status":       {"0"},
	}
	rr = f.post(t, "/transactions", form)
	require.Equal(t, http.StatusSeeOther, rr.Code)

	tx, ok := f.sess.Transaction("t2")
	require.True(t, ok)
	assert.Equal(t, "Teh Tarik Panas", tx.ProductName)
	assert.Equal(t, 0, tx.Status)
	assert.Equal(t, dialog.Closed, f.sess.Dialog().Kind)
}

func TestEditUnknownIDIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.get(t, "/")

	rr := f.post(t, "/dialog/edit/nope", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "Transaction nope not found.")
	assert.Equal(t, dialog.Closed, f.sess.Dialog().Kind)
}

func TestViewAndClose(t *testing.T) {
	f := newFixture(t)
	f.get(t, "/")

	require.Equal(t, http.StatusSeeOther, f.post(t, "/dialog/view/t1", nil).Code)
	body := f.get(t, "/").Body.String()
	assert.Contains(t, body, "dialog-view")
	assert.Contains(t, body, "May 1, 2024 at 2:30 PM")
	assert.NotContains(t, body, "field-id")

	require.Equal(t, http.StatusSeeOther, f.post(t, "/dialog/close", nil).Code)
	assert.Equal(t, dialog.Closed, f.sess.Dialog().Kind)

	rr := f.post(t, "/dialog/close", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	f.get(t, "/")

	f.post(t, "/dialog/add", nil)
	require.Equal(t, http.StatusSeeOther, f.post(t, "/dialog/cancel", nil).Code)
	assert.Equal(t, dialog.Closed, f.sess.Dialog().Kind)
	assert.Equal(t, 0, f.store.Calls(memory.OpCreate))
}

func TestSubmitWithoutFormIsRejected(t *testing.T) {
	f := newFixture(t)
	f.get(t, "/")

	rr := f.post(t, "/transactions", validForm())
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, 0, f.store.Calls(memory.OpCreate))
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	f.get(t, "/")

	t.Run("unconfirmed is a no-op", func(t *testing.T) {
		rr := f.post(t, "/transactions/t1/delete", nil)
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, 0, f.store.Calls(memory.OpDelete))
		_, ok := f.sess.Transaction("t1")
		assert.True(t, ok)
	})

	t.Run("confirmed removes the row", func(t *testing.T) {
		rr := f.post(t, "/transactions/t1/delete", url.Values{"confirm": {"yes"}})
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		_, ok := f.sess.Transaction("t1")
		assert.False(t, ok)
		assert.NotContains(t, f.get(t, "/").Body.String(), "Kopi Gayo")
	})

	t.Run("unknown id fails", func(t *testing.T) {
		rr := f.post(t, "/transactions/t1/delete", url.Values{"confirm": {"yes"}})
		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.Contains(t, rr.Body.String(), "Transaction no longer exists.")
	})
}

func TestDeleteClosesDetailOfSameRecord(t *testing.T) {
	f := newFixture(t)
	f.get(t, "/")

	f.post(t, "/dialog/view/t2", nil)
	rr := f.post(t, "/transactions/t2/delete", url.Values{"confirm": {"yes"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, dialog.Closed, f.sess.Dialog().Kind)
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t)

	rr := f.get(t, "/dialog/add")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHealthAndStatic(t *testing.T) {
	f := newFixture(t)

	rr := f.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)

	rr = f.get(t, "/static/app.css")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Cache-Control"), "max-age")
}
