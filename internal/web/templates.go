package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"
)

//go:embed templates/*.html
var templatesFS embed.FS

type Templates struct {
	base *template.Template
}

var funcs = template.FuncMap{
	"day": func(t time.Time) string { return t.Format("2006-01-02") },
	"signed": func(v float64) string {
		if v > 0 {
			return fmt.Sprintf("+%.1f%%", v)
		}
		return fmt.Sprintf("%.1f%%", v)
	},
	"signedInt": func(v int64) string {
		if v > 0 {
			return fmt.Sprintf("+%d", v)
		}
		return fmt.Sprintf("%d", v)
	},
}

func LoadTemplates() (*Templates, error) {
	t, err := template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Templates{base: t}, nil
}

func (t *Templates) Render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = t.base.ExecuteTemplate(w, name, data)
}
