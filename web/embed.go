// Package web holds the dashboard's embedded templates and stylesheet.
package web

import "embed"

// TemplatesFS holds index.html (dashboard and dialogs) and error.html
// (whole-screen load failure).
//
//go:embed templates/*.html
var TemplatesFS embed.FS

//go:embed static/*
var StaticFS embed.FS
