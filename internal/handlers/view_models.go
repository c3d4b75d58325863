package handlers

import (
	"fmt"

	"storyquiz/internal/dialogue"
	"storyquiz/internal/models"
	"storyquiz/internal/quiz"
)

type StoryOption struct {
	Index   int
	Title   string
	Current bool
}

type OptionView struct {
	Text     string
	Selected bool
}

type FeedbackView struct {
	Correct bool
	Message string
}

// CelebrationView configures the confetti overlay, centred on the viewport
type CelebrationView struct {
	Width   int
	Height  int
	Pieces  int
	Gravity float64
	Colors  []string
	SourceX int
	SourceY int
	Recycle bool
}

type ReviewView struct {
	Title        string
	Text         string
	DismissLabel string
}

type QuizViewData struct {
	Title     string
	CSRFToken string
	Stories   []StoryOption

	StoryTitle string
	Dialogue   []models.DialogueLine

	QuestionNumber int
	TotalQuestions int
	Prompt         string
	Options        []OptionView
	Revealed       bool
	Feedback       *FeedbackView
	NextLabel      string

	Complete      bool
	CompleteTitle string
	ScoreText     string
	Percentage    int
	HighScore     bool
	HighScoreText string
	RestartLabel  string
	Celebration   *CelebrationView
	Review        *ReviewView

	ScrollDelayMs int64
}

// QuizStateResponse is the JSON view of a session polled by the page script
type QuizStateResponse struct {
	StoryIndex       int    `json:"storyIndex"`
	QuestionIndex    int    `json:"questionIndex"`
	Phase            string `json:"phase"`
	SelectedAnswer   string `json:"selectedAnswer,omitempty"`
	AnswerRevealed   bool   `json:"answerRevealed"`
	Score            int    `json:"score"`
	Total            int    `json:"total"`
	Percentage       int    `json:"percentage"`
	Complete         bool   `json:"complete"`
	Celebrating      bool   `json:"celebrating"`
	SuggestingReview bool   `json:"suggestingReview"`
}

func newQuizViewData(snap quiz.Snapshot, titles []string, speakers []string, threshold int, csrfToken string) QuizViewData {
	session := snap.Session

	data := QuizViewData{
		Title:          snap.Story.Title,
		CSRFToken:      csrfToken,
		StoryTitle:     snap.Story.Title,
		Dialogue:       dialogue.Format(snap.Dialogue, speakers),
		QuestionNumber: session.QuestionIndex + 1,
		TotalQuestions: snap.Total,
		Complete:       session.Complete,
		Percentage:     snap.Percentage,
	}

	for i, title := range titles {
		data.Stories = append(data.Stories, StoryOption{Index: i, Title: title, Current: i == session.StoryIndex})
	}

	if snap.Scroll != nil {
		data.ScrollDelayMs = snap.Scroll.Delay.Milliseconds()
	}

	if session.Complete {
		data.CompleteTitle = CompleteTitle
		data.ScoreText = fmt.Sprintf(ScoreTextFmt, session.Score, snap.Total)
		data.HighScore = snap.Percentage >= threshold
		data.HighScoreText = HighScoreText
		data.RestartLabel = RestartLabel

		if session.Celebrating {
			data.Celebration = newCelebrationView(snap.Viewport)
		}
		if session.SuggestingReview {
			data.Review = &ReviewView{
				Title:        ReviewTitle,
				Text:         fmt.Sprintf(ReviewTextFmt, threshold),
				DismissLabel: ReviewDismissLabel,
			}
		}
		return data
	}

	question := snap.Question
	data.Prompt = question.Prompt
	data.Revealed = session.AnswerRevealed
	for _, opt := range question.Options {
		data.Options = append(data.Options, OptionView{
			Text:     opt,
			Selected: session.SelectedAnswer != nil && *session.SelectedAnswer == opt,
		})
	}

	if session.AnswerRevealed && session.SelectedAnswer != nil {
		correct := question.IsCorrect(*session.SelectedAnswer)
		msg := FeedbackCorrect
		if !correct {
			msg = fmt.Sprintf(FeedbackIncorrectFmt, question.CorrectAnswer)
		}
		data.Feedback = &FeedbackView{Correct: correct, Message: msg}

		data.NextLabel = NextQuestionLabel
		if snap.IsLastQuestion() {
			data.NextLabel = FinishQuizLabel
		}
	}

	return data
}

func newCelebrationView(vp models.Viewport) *CelebrationView {
	return &CelebrationView{
		Width:   vp.Width,
		Height:  vp.Height,
		Pieces:  ConfettiPieces,
		Gravity: ConfettiGravity,
		Colors:  ConfettiColors,
		SourceX: vp.Width / 2,
		SourceY: vp.Height / 2,
		Recycle: false,
	}
}

func newQuizStateResponse(snap quiz.Snapshot) QuizStateResponse {
	session := snap.Session
	resp := QuizStateResponse{
		StoryIndex:       session.StoryIndex,
		QuestionIndex:    session.QuestionIndex,
		Phase:            string(session.Phase()),
		AnswerRevealed:   session.AnswerRevealed,
		Score:            session.Score,
		Total:            snap.Total,
		Percentage:       snap.Percentage,
		Complete:         session.Complete,
		Celebrating:      session.Celebrating,
		SuggestingReview: session.SuggestingReview,
	}
	if session.SelectedAnswer != nil {
		resp.SelectedAnswer = *session.SelectedAnswer
	}
	return resp
}
