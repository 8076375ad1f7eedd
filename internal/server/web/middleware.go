package web

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/tumordetect/internal/common"
	"github.com/dmitrijs2005/tumordetect/internal/server/auth"
	"github.com/dmitrijs2005/tumordetect/internal/server/session"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const sessionKey ctxKey = "session"

func sessionFromContext(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey).(*session.Session)
	return s
}

// withSession attaches the caller's session to the request context when the
// cookie is valid and names a live session. Otherwise the context carries no
// session; only startSession registers new ones.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if c, err := r.Cookie(common.SessionCookieName); err == nil {
			id, err := auth.GetSessionIDFromToken(c.Value, h.secret)
			if err != nil {
				h.logger.Debug(ctx, "session cookie rejected", "error", err)
			} else if s, ok := h.sessions.Get(id); ok {
				ctx = context.WithValue(ctx, sessionKey, s)
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// startSession registers a new anonymous session and sets its cookie.
func (h *Handler) startSession(w http.ResponseWriter) (*session.Session, error) {
	s, err := h.sessions.Create()
	if err != nil {
		return nil, err
	}

	token, err := auth.GenerateToken(s.ID, h.secret)
	if err != nil {
		h.sessions.Delete(s.ID)
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return s, nil
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		h.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
