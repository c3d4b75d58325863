package models

// DialogueLine is one rendered line of story text. Speaker is empty for narration.
type DialogueLine struct {
	Speaker string
	Text    string
}

// IsNarration reports whether the line has no speaker label
func (l DialogueLine) IsNarration() bool {
	return l.Speaker == ""
}
