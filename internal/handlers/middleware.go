package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"storyquiz/internal/security"
	"storyquiz/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const SessionContextKey ContextKey = "quiz_session"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	quizService *service.QuizService
	tokens      *security.TokenIssuer
	csrf        *security.CSRFGenerator
	log         logrus.FieldLogger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(quizService *service.QuizService, tokens *security.TokenIssuer, csrf *security.CSRFGenerator, log logrus.FieldLogger) *Middleware {
	return &Middleware{
		quizService: quizService,
		tokens:      tokens,
		csrf:        csrf,
		log:         log,
	}
}

// RequireSession attaches a quiz session to the request, starting one when the
// browser has no valid session cookie
func (m *Middleware) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := m.resumeFromCookie(r)
		if !ok {
			var err error
			sessionID, err = m.quizService.Start(0)
			if err != nil {
				respondWithError(w, m.log, http.StatusInternalServerError, ErrInternalServerError, "Failed to start quiz session", err)
				return
			}
			if err := m.SetSessionCookie(w, r, sessionID, 0); err != nil {
				respondWithError(w, m.log, http.StatusInternalServerError, ErrInternalServerError, "Failed to issue session cookie", err)
				return
			}
		}

		ctx := context.WithValue(r.Context(), SessionContextKey, sessionID)
		next(w, r.WithContext(ctx))
	}
}

func (m *Middleware) resumeFromCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", false
	}

	claims, err := m.tokens.Parse(cookie.Value)
	if err != nil {
		m.log.WithError(err).Debug("Discarding session cookie")
		return "", false
	}

	sessionID, err := m.quizService.Resume(claims.Subject, claims.StoryIndex)
	if err != nil {
		m.log.WithError(err).WithField("session_id", claims.Subject).Warn("Failed to resume quiz session")
		return "", false
	}
	return sessionID, true
}

// SetSessionCookie issues a signed cookie naming the session and its story
func (m *Middleware) SetSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string, storyIndex int) error {
	token, expires, err := m.tokens.Issue(sessionID, storyIndex)
	if err != nil {
		return err
	}
	http.SetCookie(w, security.NewSessionCookie(r, token, expires))
	return nil
}

// CSRFToken returns the form token bound to the request's session
func (m *Middleware) CSRFToken(r *http.Request) string {
	token, err := m.csrf.GenerateToken(GetSessionID(r.Context()))
	if err != nil {
		return ""
	}
	return token
}

// CSRFProtect rejects state-changing requests without a valid CSRF token.
// Must run inside RequireSession.
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.csrf.ValidateToken(GetSessionID(r.Context()), security.TokenFromRequest(r)) {
			m.log.WithFields(logrus.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
			}).Warn("Rejected request with invalid CSRF token")
			http.Error(w, ErrInvalidCSRFToken, http.StatusForbidden)
			return
		}

		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging middleware logs HTTP requests
func Logging(log logrus.FieldLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Info("HTTP request")
	})
}

// GetSessionID retrieves the quiz session ID from the request context
func GetSessionID(ctx context.Context) string {
	id, _ := ctx.Value(SessionContextKey).(string)
	return id
}
