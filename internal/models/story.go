package models

// Story is a titled piece of dialogue paired with its quiz questions
type Story struct {
	ID          int64      `json:"-"`
	Title       string     `json:"title"`
	DialogueRef string     `json:"textFile"`
	Questions   []Question `json:"questions"`
}

// Question is a single multiple-choice question. Options keep their display order.
type Question struct {
	ID            int64    `json:"-"`
	Prompt        string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// QuestionBank is the on-disk layout of the story collection
type QuestionBank struct {
	Stories []Story `json:"stories"`
}

// IsCorrect reports whether answer matches the correct answer exactly
func (q Question) IsCorrect(answer string) bool {
	return answer == q.CorrectAnswer
}

// LastIndex returns the index of the story's final question
func (s Story) LastIndex() int {
	return len(s.Questions) - 1
}
