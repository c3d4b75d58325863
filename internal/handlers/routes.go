package handlers

import "net/http"

// RegisterQuizRoutes wires the quiz pages and actions onto mux
func RegisterQuizRoutes(mux *http.ServeMux, quizHandler *QuizHandler, middleware *Middleware) {
	mux.HandleFunc("GET /{$}", middleware.RequireSession(quizHandler.Show))
	mux.HandleFunc("GET /quiz/state", middleware.RequireSession(quizHandler.State))

	mux.HandleFunc("POST /quiz/answer", middleware.RequireSession(middleware.CSRFProtect(quizHandler.Answer)))
	mux.HandleFunc("POST /quiz/next", middleware.RequireSession(middleware.CSRFProtect(quizHandler.Next)))
	mux.HandleFunc("POST /quiz/restart", middleware.RequireSession(middleware.CSRFProtect(quizHandler.Restart)))
	mux.HandleFunc("POST /quiz/suggestion/dismiss", middleware.RequireSession(middleware.CSRFProtect(quizHandler.DismissSuggestion)))
	mux.HandleFunc("POST /quiz/story", middleware.RequireSession(middleware.CSRFProtect(quizHandler.SelectStory)))
	mux.HandleFunc("POST /quiz/viewport", middleware.RequireSession(middleware.CSRFProtect(quizHandler.Viewport)))
}
