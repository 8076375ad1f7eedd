package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/dmitrijs2005/tumordetect/internal/server/session"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))

type resultData struct {
	Original   template.URL
	Annotated  template.URL
	ArchiveURL template.URL
	Count      int
}

type pageData struct {
	View        session.View
	Target      string
	UploadError string
	Result      *resultData
}

func (d pageData) ShowDetection() bool { return d.View.Page == session.PageDetection }

// TargetTitle is the counted label as shown in the count line, e.g. "Tumour".
// A Caser is stateful, so each call builds its own.
func (d pageData) TargetTitle() string { return cases.Title(language.English).String(d.Target) }

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf bytes.Buffer
	if err := h.pages.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		h.logger.Error(r.Context(), "render", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
