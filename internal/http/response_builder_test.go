package http

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txdash/internal/core"
	"txdash/internal/grouping"
	"txdash/internal/mutation"
	"txdash/internal/remote/memory"
	"txdash/internal/render"
	"txdash/internal/session"
)

func loadedSession(t *testing.T) (*session.Session, *render.Locale) {
	t.Helper()
	locale := render.MustLocale("id", time.UTC)
	store := memory.New(
		[]core.StatusOption{{ID: 0, Name: "Lunas"}, {ID: 1, Name: "Belum Lunas"}},
		[]core.Transaction{
			{
				ID: "t1", ProductID: "P1", ProductName: "Kopi", CustomerName: "Andi",
				Amount: core.MustAmount("1250000"), Status: 0,
				TransactionDate: time.Date(2024, time.May, 1, 14, 30, 0, 0, time.UTC),
			},
			{
				ID: "t2", ProductID: "P2", ProductName: "Teh", CustomerName: "Budi",
				Amount: core.MustAmount("8000"), Status: 5,
				TransactionDate: time.Date(2024, time.February, 2, 9, 0, 0, 0, time.UTC),
			},
		},
	)
	sess := session.New(store, session.Config{
		Grouping: grouping.Options{Location: time.UTC, MonthName: locale.MonthName},
	})
	require.NoError(t, sess.Load(t.Context()))
	return sess, locale
}

func TestPageBuilder_Grouping(t *testing.T) {
	sess, locale := loadedSession(t)

	data := NewPage(sess, locale).Build()

	assert.Equal(t, "id", data.Lang)
	assert.Equal(t, 2, data.Count)
	assert.False(t, data.Empty)
	assert.Nil(t, data.Dialog)
	require.Len(t, data.Years, 1)
	require.Len(t, data.Years[0].Months, 2)
	assert.Equal(t, "Februari", data.Years[0].Months[0].Name)
	assert.Equal(t, "Mei", data.Years[0].Months[1].Name)

	row := data.Years[0].Months[1].Rows[0]
	assert.Equal(t, "t1", row.ID)
	require.Len(t, row.Cells, len(data.Headers))
	assert.Equal(t, "Rp 1.250.000", row.Cells[3].Value)
	assert.Equal(t, "badge badge-positive", row.Cells[4].Class)

	unknown := data.Years[0].Months[0].Rows[0]
	assert.Equal(t, "Unknown (5)", unknown.Cells[4].Value)
	assert.Equal(t, "badge badge-negative", unknown.Cells[4].Class)
}

func TestPageBuilder_NoticeWithoutDialog(t *testing.T) {
	sess, locale := loadedSession(t)

	data := NewPage(sess, locale).Notice("Something went wrong.").Build()
	assert.Equal(t, "Something went wrong.", data.Notice)
}

func TestPageBuilder_EditDialogPrefill(t *testing.T) {
	sess, locale := loadedSession(t)
	require.NoError(t, sess.OpenEdit("t1"))

	data := NewPage(sess, locale).Build()
	require.NotNil(t, data.Dialog)
	assert.Equal(t, "edit", data.Dialog.Kind)
	assert.Equal(t, "t1", data.Dialog.ID)
	assert.Equal(t, "1250000", data.Dialog.Draft.Amount)

	var selected []string
	for _, o := range data.Dialog.Statuses {
		if o.Selected {
			selected = append(selected, o.Value)
		}
	}
	assert.Equal(t, []string{"0"}, selected)
}

func TestPageBuilder_FormOverridesPrefill(t *testing.T) {
	sess, locale := loadedSession(t)
	sess.OpenAdd()

	draft := mutation.Draft{ProductName: "Roti", Amount: "x", Status: "1"}
	fieldErrs := map[string]string{mutation.FieldAmount: "Amount must be a number"}
	data := NewPage(sess, locale).Form(draft, fieldErrs).Notice("Failed to save transaction.").Build()

	require.NotNil(t, data.Dialog)
	assert.Equal(t, "add", data.Dialog.Kind)
	assert.Equal(t, draft, data.Dialog.Draft)
	assert.Equal(t, fieldErrs, data.Dialog.Errors)
	assert.Equal(t, "Failed to save transaction.", data.Dialog.Notice)
	assert.Empty(t, data.Notice, "notice moves into the open dialog")
}

func TestPageBuilder_ViewDialogHidesProvenance(t *testing.T) {
	sess, locale := loadedSession(t)
	require.NoError(t, sess.OpenView("t1"))

	data := NewPage(sess, locale).Build()
	require.NotNil(t, data.Dialog)
	assert.Equal(t, "view", data.Dialog.Kind)
	for _, row := range data.Dialog.Detail {
		assert.NotContains(t, []string{"id", "createBy", "createOn"}, row.Key)
	}
	assert.Equal(t, "1 Mei 2024 pukul 14.30", data.Dialog.Detail[5].Value)
}

func TestAsAppError(t *testing.T) {
	sess, _ := loadedSession(t)

	assert.Equal(t, "invalid_input", string(asAppError(sess.Close()).Code))
	assert.Equal(t, "internal_error", string(asAppError(errors.New("boom")).Code))
}
