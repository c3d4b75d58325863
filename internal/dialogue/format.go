package dialogue

import (
	"strings"

	"storyquiz/internal/models"
)

// Delimiter separates a speaker's name from what they say
const Delimiter = ":"

// DefaultSpeakers are the two characters of the bundled story
var DefaultSpeakers = []string{"Ori", "Ariel"}

// Format splits raw dialogue text into lines and tags the ones spoken by a known speaker.
// Matching is a case-sensitive prefix test on "<speaker>:". Anything else is narration, kept verbatim.
func Format(text string, speakers []string) []models.DialogueLine {
	if text == "" {
		return nil
	}

	labels := make([]string, 0, len(speakers))
	for _, s := range speakers {
		labels = append(labels, s+Delimiter)
	}

	raw := strings.Split(text, "\n")
	lines := make([]models.DialogueLine, 0, len(raw))
	for _, line := range raw {
		lines = append(lines, classify(line, labels))
	}
	return lines
}

func classify(line string, labels []string) models.DialogueLine {
	for _, label := range labels {
		if strings.HasPrefix(line, label) {
			return models.DialogueLine{
				Speaker: label,
				Text:    strings.TrimSpace(line[len(label):]),
			}
		}
	}
	return models.DialogueLine{Text: line}
}
