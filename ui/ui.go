// Package ui holds the dashboard's HTML templates.
package ui

import (
	"embed"
	"html/template"
	"time"

	"taskboard/models"
)

//go:embed html/*.html
var files embed.FS

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format("Jan 2, 2006") },
	"selected": func(a, b models.Priority) bool { return a == b },
}

// Templates parses every page, each combined with the shared layout.
func Templates() (map[string]*template.Template, error) {
	pages := []string{"dashboard.html", "login.html"}
	out := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "html/layout.html", "html/"+page)
		if err != nil {
			return nil, err
		}
		out[page] = tmpl
	}
	return out, nil
}
