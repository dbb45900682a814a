// Package http serves the server-rendered dashboard.
//
// This file assembles the view model handed to the templates. A PageBuilder
// is created per request and rendered once.

package http

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"

	"txdash/internal/dialog"
	"txdash/internal/log"
	"txdash/internal/mutation"
	"txdash/internal/render"
	"txdash/internal/session"
)

type (
	pageData struct {
		Lang    string
		Title   string
		Headers []string
		Years   []yearView
		Count   int
		Empty   bool
		Notice  string
		Dialog  *dialogView
	}

	yearView struct {
		Year   int
		Count  int
		Months []monthView
	}

	monthView struct {
		Name string
		Rows []rowView
	}

	rowView struct {
		ID    string
		Cells []cellView
	}

	cellView struct {
		Key   string
		Value string
		Class string
	}

	dialogView struct {
		Kind     string
		Title    string
		ID       string
		Draft    mutation.Draft
		Errors   map[string]string
		Detail   []render.Row
		Statuses []optionView
		Notice   string
	}

	optionView struct {
		Value    string
		Name     string
		Selected bool
	}

	errorPage struct {
		Lang    string
		Title   string
		Message string
		Details string
	}
)

const pageTitle = "Transactions"

// PageBuilder provides a fluent API for building a dashboard page.
type PageBuilder struct {
	sess       *session.Session
	locale     *render.Locale
	statusCode int
	notice     string
	draft      *mutation.Draft
	errors     map[string]string
}

func NewPage(sess *session.Session, locale *render.Locale) *PageBuilder {
	return &PageBuilder{sess: sess, locale: locale, statusCode: http.StatusOK}
}

// Status sets the HTTP status code for the response.
func (b *PageBuilder) Status(code int) *PageBuilder {
	b.statusCode = code
	return b
}

// Notice shows a blocking message above the content, or inside the open
// dialog when there is one.
func (b *PageBuilder) Notice(msg string) *PageBuilder {
	b.notice = msg
	return b
}

// Form keeps the submitted values and their field errors in the open form.
func (b *PageBuilder) Form(d mutation.Draft, fieldErrors map[string]string) *PageBuilder {
	b.draft = &d
	b.errors = fieldErrors
	return b
}

// Build produces the view model from the current session state.
func (b *PageBuilder) Build() pageData {
	data := pageData{
		Lang:    b.locale.Code,
		Title:   pageTitle,
		Headers: b.locale.Headers(),
	}

	idx := b.sess.Index()
	data.Count = idx.Count()
	data.Empty = idx.Empty()
	for _, y := range idx.Years {
		yv := yearView{Year: y.Year, Count: y.Count()}
		for _, m := range y.Months {
			mv := monthView{Name: m.Name}
			for _, tx := range m.Transactions {
				row := rowView{ID: tx.ID}
				for _, r := range b.locale.Detail(tx, b.sess.StatusName) {
					cell := cellView{Key: r.Key, Value: r.Value}
					if r.Key == mutation.FieldStatus {
						cell.Class = "badge badge-" + render.StatusTone(tx.Status)
					}
					row.Cells = append(row.Cells, cell)
				}
				mv.Rows = append(mv.Rows, row)
			}
			yv.Months = append(yv.Months, mv)
		}
		data.Years = append(data.Years, yv)
	}

	data.Dialog = b.dialog()
	if data.Dialog != nil {
		data.Dialog.Notice = b.notice
	} else {
		data.Notice = b.notice
	}
	return data
}

func (b *PageBuilder) dialog() *dialogView {
	st := b.sess.Dialog()
	dv := &dialogView{Kind: st.Kind.String(), Errors: b.errors}

	switch st.Kind {
	case dialog.Closed:
		return nil
	case dialog.View:
		dv.Title = "Transaction detail"
		dv.ID = st.Payload.ID
		dv.Detail = b.locale.Detail(*st.Payload, b.sess.StatusName)
		return dv
	case dialog.Add:
		dv.Title = "Add transaction"
	case dialog.Edit:
		dv.Title = "Edit transaction"
		dv.ID = st.Payload.ID
		dv.Draft = mutation.DraftFrom(*st.Payload)
	}
	if b.draft != nil {
		dv.Draft = *b.draft
	}
	for _, s := range b.sess.Statuses() {
		value := strconv.Itoa(s.ID)
		dv.Statuses = append(dv.Statuses, optionView{
			Value:    value,
			Name:     s.Name,
			Selected: value == dv.Draft.Status,
		})
	}
	return dv
}

// Render executes the index template. Output is buffered so a template
// failure still yields a clean 500.
func (b *PageBuilder) Render(w http.ResponseWriter, r *http.Request, tmpl *template.Template) {
	renderTemplate(w, r, tmpl, "index.html", b.statusCode, b.Build())
}

func renderTemplate(w http.ResponseWriter, r *http.Request, tmpl *template.Template, name string, status int, data any) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err, "template", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
