package models

import "time"

// Phase identifies where a quiz session is in its flow
type Phase string

const (
	PhasePresenting Phase = "presenting"
	PhaseRevealed   Phase = "revealed"
	PhaseCompleted  Phase = "completed"
)

// QuizSession is the mutable state of one pass through a story's quiz
type QuizSession struct {
	StoryIndex       int
	QuestionIndex    int
	SelectedAnswer   *string
	AnswerRevealed   bool
	Score            int
	Complete         bool
	Celebrating      bool
	SuggestingReview bool
}

// Phase derives the state machine position from the session fields
func (s QuizSession) Phase() Phase {
	switch {
	case s.Complete:
		return PhaseCompleted
	case s.AnswerRevealed:
		return PhaseRevealed
	default:
		return PhasePresenting
	}
}

// Answered returns how many questions have been answered so far
func (s QuizSession) Answered() int {
	if s.Complete || s.AnswerRevealed {
		return s.QuestionIndex + 1
	}
	return s.QuestionIndex
}

// Viewport is the browser window size last reported by the client
type Viewport struct {
	Width  int
	Height int
}

// SessionInfo is bookkeeping for a live session held by the server
type SessionInfo struct {
	ID         string
	StoryIndex int
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// IsExpiredAt reports whether the session has expired by now
func (s SessionInfo) IsExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
