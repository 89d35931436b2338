package handlers

import (
	"html/template"
	"net/http"

	"github.com/ahsanfayaz52/notesservice/web"
)

// render executes page inside templates/base.html.
func render(w http.ResponseWriter, status int, page string, data map[string]interface{}) error {
	tmpl, err := template.ParseFS(web.Templates, "templates/base.html", "templates/"+page)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return tmpl.ExecuteTemplate(w, "base.html", data)
}
