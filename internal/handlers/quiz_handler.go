package handlers

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"storyquiz/internal/security"
	"storyquiz/internal/service"
)

// QuizHandler handles the story quiz HTTP requests
type QuizHandler struct {
	quizService *service.QuizService
	middleware  *Middleware
	templates   *template.Template
	speakers    []string
	log         logrus.FieldLogger
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quizService *service.QuizService, middleware *Middleware, templates *template.Template, speakers []string, log logrus.FieldLogger) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
		middleware:  middleware,
		templates:   templates,
		speakers:    speakers,
		log:         log,
	}
}

// Show renders the story, its dialogue and the question in focus, or the
// completion screen once the quiz is finished
func (h *QuizHandler) Show(w http.ResponseWriter, r *http.Request) {
	sessionID := GetSessionID(r.Context())

	if err := h.quizService.WaitForDialogue(r.Context(), sessionID); err != nil {
		h.fail(w, r, err, "Failed to load quiz session")
		return
	}

	snap, err := h.quizService.Render(sessionID)
	if err != nil {
		h.fail(w, r, err, "Failed to load quiz session")
		return
	}

	data := newQuizViewData(snap, h.quizService.StoryTitles(), h.speakers, h.quizService.CelebrationThreshold(), h.middleware.CSRFToken(r))

	if err := h.templates.ExecuteTemplate(w, "quiz.tmpl", data); err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "Error rendering quiz template", err)
	}
}

// Answer records the chosen option for the question in focus
func (h *QuizHandler) Answer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}

	// any string is a valid choice, an empty option included
	answer, ok := r.PostForm["answer"]
	if !ok || len(answer) == 0 {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	if err := h.quizService.SelectAnswer(GetSessionID(r.Context()), answer[0]); err != nil {
		h.fail(w, r, err, "Failed to select answer")
		return
	}
	h.redirectHome(w, r)
}

// Next moves on to the next question, or finishes the quiz on the last one
func (h *QuizHandler) Next(w http.ResponseWriter, r *http.Request) {
	if err := h.quizService.Advance(GetSessionID(r.Context())); err != nil {
		h.fail(w, r, err, "Failed to advance quiz")
		return
	}
	h.redirectHome(w, r)
}

// Restart starts the same story's quiz over
func (h *QuizHandler) Restart(w http.ResponseWriter, r *http.Request) {
	if err := h.quizService.Restart(GetSessionID(r.Context())); err != nil {
		h.fail(w, r, err, "Failed to restart quiz")
		return
	}
	h.redirectHome(w, r)
}

// DismissSuggestion closes the review prompt
func (h *QuizHandler) DismissSuggestion(w http.ResponseWriter, r *http.Request) {
	if err := h.quizService.DismissSuggestion(GetSessionID(r.Context())); err != nil {
		h.fail(w, r, err, "Failed to dismiss suggestion")
		return
	}
	h.redirectHome(w, r)
}

// SelectStory switches the session to another story
func (h *QuizHandler) SelectStory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}

	storyIndex, err := strconv.Atoi(r.PostFormValue("story"))
	if err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	sessionID := GetSessionID(r.Context())
	if err := h.quizService.SelectStory(sessionID, storyIndex); err != nil {
		h.fail(w, r, err, "Failed to select story")
		return
	}
	if err := h.middleware.SetSessionCookie(w, r, sessionID, storyIndex); err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "Failed to issue session cookie", err)
		return
	}
	h.redirectHome(w, r)
}

// Viewport records the browser window size used to size the celebration
func (h *QuizHandler) Viewport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}

	width, errW := strconv.Atoi(r.PostFormValue("width"))
	height, errH := strconv.Atoi(r.PostFormValue("height"))
	if errW != nil || errH != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	if err := h.quizService.Resize(GetSessionID(r.Context()), width, height); err != nil {
		h.fail(w, r, err, "Failed to record viewport")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// State returns the session as JSON for the page script
func (h *QuizHandler) State(w http.ResponseWriter, r *http.Request) {
	snap, err := h.quizService.Snapshot(GetSessionID(r.Context()))
	if err != nil {
		h.fail(w, r, err, "Failed to load quiz session")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(newQuizStateResponse(snap)); err != nil {
		h.log.WithError(err).Error("Failed to encode quiz state")
	}
}

func (h *QuizHandler) redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *QuizHandler) fail(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		// expired between middleware and handler; the next page load starts a new one
		http.SetCookie(w, security.ExpiredSessionCookie(r))
		h.redirectHome(w, r)
	case errors.Is(err, service.ErrStoryNotFound):
		respondWithError(w, h.log, http.StatusNotFound, ErrStoryNotFound, logMsg, err)
	default:
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}
