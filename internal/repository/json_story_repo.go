package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"storyquiz/internal/models"
)

// ErrEmptyBank is returned when a question bank holds no stories
var ErrEmptyBank = errors.New("question bank has no stories")

// JSONStoryRepository reads the story collection from a JSON file
type JSONStoryRepository struct {
	path string
}

// NewJSONStoryRepository creates a repository over the JSON file at path
func NewJSONStoryRepository(path string) *JSONStoryRepository {
	return &JSONStoryRepository{path: path}
}

// Stories parses the file and returns its stories in file order
func (r *JSONStoryRepository) Stories(ctx context.Context) ([]models.Story, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open question bank: %w", err)
	}
	defer f.Close()

	return DecodeBank(f)
}

// DecodeBank reads a {"stories": [...]} document
func DecodeBank(rd io.Reader) ([]models.Story, error) {
	var bank models.QuestionBank
	if err := json.NewDecoder(rd).Decode(&bank); err != nil {
		return nil, fmt.Errorf("failed to decode question bank: %w", err)
	}
	if len(bank.Stories) == 0 {
		return nil, ErrEmptyBank
	}
	return bank.Stories, nil
}

// EncodeBank writes stories in the same layout DecodeBank reads
func EncodeBank(w io.Writer, stories []models.Story) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(models.QuestionBank{Stories: stories})
}
