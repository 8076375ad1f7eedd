// Package web serves the HTML front end: the login/signup form, the
// detection page and the session cookie that ties a browser to its state.
package web

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/tumordetect/internal/logging"
	"github.com/dmitrijs2005/tumordetect/internal/server/detection"
	"github.com/dmitrijs2005/tumordetect/internal/server/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	MsgNoFile         = "Please choose an image to upload."
	MsgUnsupported    = "Unsupported image. Please upload a JPG or PNG file."
	MsgDetectorFailed = "Detection failed. Please try again later."
)

// Analyzer runs detection on an uploaded image.
type Analyzer interface {
	Analyze(ctx context.Context, owner string, raw []byte) (*detection.Result, error)
	Target() string
}

// ArchiveLinker turns an archive key into a download link.
type ArchiveLinker interface {
	PresignedGetURL(ctx context.Context, key string) (string, error)
}

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func(ctx context.Context) error

type Handler struct {
	sessions  *session.Manager
	router    *session.Router
	analyzer  Analyzer
	linker    ArchiveLinker
	secret    []byte
	maxUpload int64
	checks    map[string]ReadinessCheck
	pages     *template.Template
	logger    logging.Logger
}

type Option func(*Handler)

// WithArchiveLinker shows a download link for archived scans.
func WithArchiveLinker(l ArchiveLinker) Option {
	return func(h *Handler) { h.linker = l }
}

// WithReadinessCheck adds a named dependency probe to /readyz.
func WithReadinessCheck(name string, c ReadinessCheck) Option {
	return func(h *Handler) { h.checks[name] = c }
}

func NewHandler(m *session.Manager, r *session.Router, a Analyzer, secretKey string, maxUpload int64, l logging.Logger, opts ...Option) *Handler {
	h := &Handler{
		sessions:  m,
		router:    r,
		analyzer:  a,
		secret:    []byte(secretKey),
		maxUpload: maxUpload,
		checks:    make(map[string]ReadinessCheck),
		pages:     pages,
		logger:    l.With("module", "web"),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Routes builds the chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)

	r.Group(func(r chi.Router) {
		r.Use(h.withSession)
		r.Get("/", h.index)
		r.Post("/auth", h.authenticate)
		r.Post("/logout", h.logout)
		r.Post("/detect", h.detect)
	})

	return r
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	if s == nil {
		// visitors that never submitted the form get a throwaway session
		s = session.New("")
	}
	h.render(w, r, http.StatusOK, pageData{View: h.router.View(s), Target: h.analyzer.Target()})
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := sessionFromContext(ctx)

	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	mode := r.PostFormValue("mode")
	if mode != "login" && mode != "signup" && mode != "" {
		http.Error(w, "unknown form type", http.StatusBadRequest)
		return
	}

	if s == nil {
		var err error
		if s, err = h.startSession(w); err != nil {
			h.logger.Error(ctx, "session create", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	var err error
	if mode == "signup" {
		err = h.router.Signup(ctx, s, username, password)
	} else {
		err = h.router.Login(ctx, s, username, password)
	}
	if errors.Is(err, session.ErrInvalidTransition) {
		h.logger.Debug(ctx, "auth ignored", "session", s.ID, "error", err)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := sessionFromContext(ctx)
	if s == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := h.router.Logout(ctx, s); err != nil {
		h.logger.Debug(ctx, "logout ignored", "session", s.ID, "error", err)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) detect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := sessionFromContext(ctx)

	if s == nil || !s.LoggedIn() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := pageData{View: h.router.View(s), Target: h.analyzer.Target()}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			data.UploadError = fmt.Sprintf("File too large. Maximum upload size is %d MB.", h.maxUpload>>20)
			h.render(w, r, http.StatusRequestEntityTooLarge, data)
			return
		}
		data.UploadError = MsgNoFile
		h.render(w, r, http.StatusBadRequest, data)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		data.UploadError = MsgNoFile
		h.render(w, r, http.StatusBadRequest, data)
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error(ctx, "read upload", "error", err)
		data.UploadError = MsgNoFile
		h.render(w, r, http.StatusBadRequest, data)
		return
	}

	res, err := h.analyzer.Analyze(ctx, s.Username(), raw)
	switch {
	case errors.Is(err, detection.ErrUnsupportedImage):
		data.UploadError = MsgUnsupported
		h.render(w, r, http.StatusUnsupportedMediaType, data)
		return
	case err != nil:
		h.logger.Error(ctx, "analyze", "error", err)
		data.UploadError = MsgDetectorFailed
		h.render(w, r, http.StatusBadGateway, data)
		return
	}

	data.Result = &resultData{
		Original:  pngDataURI(res.OriginalPNG),
		Annotated: pngDataURI(res.AnnotatedPNG),
		Count:     res.TargetCount,
	}

	if res.ArchiveKey != "" && h.linker != nil {
		link, err := h.linker.PresignedGetURL(ctx, res.ArchiveKey)
		if err != nil {
			h.logger.Warn(ctx, "archive link", "key", res.ArchiveKey, "error", err)
		} else {
			data.Result.ArchiveURL = template.URL(link)
		}
	}

	h.render(w, r, http.StatusOK, data)
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	body := map[string]string{"status": "ok"}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn(ctx, "readiness check failed", "check", name, "error", err)
			status = http.StatusServiceUnavailable
			body["status"] = "unavailable"
			body[name] = err.Error()
			continue
		}
		body[name] = "ok"
	}

	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func pngDataURI(b []byte) template.URL {
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(b))
}
