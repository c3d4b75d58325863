package dialogue

import (
	"testing"

	"storyquiz/internal/models"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []models.DialogueLine
	}{
		{
			name:     "empty text",
			text:     "",
			expected: nil,
		},
		{
			name:     "speaker line",
			text:     "Ori: Hello there",
			expected: []models.DialogueLine{{Speaker: "Ori:", Text: "Hello there"}},
		},
		{
			name:     "narration unchanged",
			text:     "Just narration",
			expected: []models.DialogueLine{{Text: "Just narration"}},
		},
		{
			name:     "second speaker without space",
			text:     "Ariel:Shalom",
			expected: []models.DialogueLine{{Speaker: "Ariel:", Text: "Shalom"}},
		},
		{
			name:     "lowercase label is narration",
			text:     "ori: hello",
			expected: []models.DialogueLine{{Text: "ori: hello"}},
		},
		{
			name:     "unknown speaker is narration",
			text:     "Dan: hi",
			expected: []models.DialogueLine{{Text: "Dan: hi"}},
		},
		{
			name:     "name without delimiter is narration",
			text:     "Ori walks in.",
			expected: []models.DialogueLine{{Text: "Ori walks in."}},
		},
		{
			name: "mixed lines keep order",
			text: "At the cafe.\nOri:  Boker tov!\nAriel: Boker or!\n",
			expected: []models.DialogueLine{
				{Text: "At the cafe."},
				{Speaker: "Ori:", Text: "Boker tov!"},
				{Speaker: "Ariel:", Text: "Boker or!"},
				{Text: ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.text, DefaultSpeakers)
			if len(result) != len(tt.expected) {
				t.Fatalf("length mismatch: got %d, want %d (%v)", len(result), len(tt.expected), result)
			}
			for i, line := range result {
				if line != tt.expected[i] {
					t.Errorf("line %d: got %+v, want %+v", i, line, tt.expected[i])
				}
			}
		})
	}
}

func TestFormatCustomSpeakers(t *testing.T) {
	lines := Format("Ana: hola\nOri: hi", []string{"Ana"})

	if lines[0].Speaker != "Ana:" || lines[0].Text != "hola" {
		t.Errorf("first line = %+v, want Ana: hola", lines[0])
	}
	if !lines[1].IsNarration() {
		t.Errorf("second line should be narration when Ori is not a speaker, got %+v", lines[1])
	}
}
