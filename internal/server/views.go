package server

import (
	"bytes"
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var views = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type currentView struct {
	HasValue bool
	Value    float64
	At       string
}

type maxView struct {
	Period   string
	Name     string
	HasValue bool
	Value    float64
}

func renderView(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := views.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
