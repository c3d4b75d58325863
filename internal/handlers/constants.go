package handlers

import "storyquiz/internal/security"

const (
	SessionCookieName = security.SessionCookieName
	CSRFFormField     = security.CSRFFormField
	CSRFHeader        = security.CSRFHeader

	ErrInvalidFormData     = "Invalid form data"
	ErrInvalidCSRFToken    = "Invalid CSRF token"
	ErrStoryNotFound       = "Story not found"
	ErrInternalServerError = "Internal server error"
)

// Copy shown by the quiz pages
const (
	FeedbackCorrect      = "Correct! Well done!"
	FeedbackIncorrectFmt = "Incorrect. The correct answer is: %s"
	NextQuestionLabel    = "Next Question"
	FinishQuizLabel      = "Finish Quiz"
	CompleteTitle        = "Quiz Complete!"
	ScoreTextFmt         = "You got %d out of %d questions correct"
	HighScoreText        = "Excellent! 🎉"
	RestartLabel         = "Take Quiz Again"
	ReviewTitle          = "Keep Practicing!"
	ReviewTextFmt        = "Your score is below %d%%. Consider reviewing the words in the Words tab before trying the quiz again."
	ReviewDismissLabel   = "Close"
)

// Celebration overlay settings
const (
	ConfettiPieces  = 500
	ConfettiGravity = 0.3
)

// ConfettiColors is the celebration palette
var ConfettiColors = []string{"#FFD700", "#FFA500", "#FF69B4", "#00CED1", "#9370DB"}
