package repository

import (
	"context"
	"fmt"

	"storyquiz/internal/database"
	"storyquiz/internal/models"
)

// StoryRepository stores the story collection in SQL
type StoryRepository struct {
	db *database.DB
}

// NewStoryRepository creates a new story repository
func NewStoryRepository(db *database.DB) *StoryRepository {
	return &StoryRepository{db: db}
}

// Stories loads every story with its questions and options, all in stored order
func (r *StoryRepository) Stories(ctx context.Context) ([]models.Story, error) {
	stories, err := r.listStories(ctx)
	if err != nil {
		return nil, err
	}
	if len(stories) == 0 {
		return nil, ErrEmptyBank
	}

	byStory := make(map[int64]int, len(stories))
	for i, s := range stories {
		byStory[s.ID] = i
	}

	questionRows, err := r.db.QueryContext(ctx, `
		SELECT id, story_id, prompt, correct_answer
		FROM questions
		ORDER BY story_id, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer questionRows.Close()

	type questionRef struct{ story, question int }
	byQuestion := make(map[int64]questionRef)

	for questionRows.Next() {
		var q models.Question
		var storyID int64
		if err := questionRows.Scan(&q.ID, &storyID, &q.Prompt, &q.CorrectAnswer); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		si, ok := byStory[storyID]
		if !ok {
			continue
		}
		stories[si].Questions = append(stories[si].Questions, q)
		byQuestion[q.ID] = questionRef{story: si, question: len(stories[si].Questions) - 1}
	}
	if err := questionRows.Err(); err != nil {
		return nil, err
	}

	optionRows, err := r.db.QueryContext(ctx, `
		SELECT question_id, option_text
		FROM question_options
		ORDER BY question_id, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query options: %w", err)
	}
	defer optionRows.Close()

	for optionRows.Next() {
		var questionID int64
		var option string
		if err := optionRows.Scan(&questionID, &option); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		ref, ok := byQuestion[questionID]
		if !ok {
			continue
		}
		q := &stories[ref.story].Questions[ref.question]
		q.Options = append(q.Options, option)
	}
	if err := optionRows.Err(); err != nil {
		return nil, err
	}

	return stories, nil
}

func (r *StoryRepository) listStories(ctx context.Context) ([]models.Story, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, dialogue_ref
		FROM stories
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stories: %w", err)
	}
	defer rows.Close()

	var stories []models.Story
	for rows.Next() {
		var s models.Story
		if err := rows.Scan(&s.ID, &s.Title, &s.DialogueRef); err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		stories = append(stories, s)
	}
	return stories, rows.Err()
}

// ReplaceAll swaps the stored collection for stories in a single transaction
func (r *StoryRepository) ReplaceAll(ctx context.Context, stories []models.Story) error {
	if len(stories) == 0 {
		return ErrEmptyBank
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range tx.GetDialect().ClearStoriesStatements() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear stories: %w", err)
		}
	}

	if err := insertStories(ctx, tx, stories); err != nil {
		return err
	}

	return tx.Commit()
}

func insertStories(ctx context.Context, q database.DBTX, stories []models.Story) error {
	for si, story := range stories {
		storyID, err := q.ExecReturningID(ctx,
			`INSERT INTO stories (position, title, dialogue_ref) VALUES (?, ?, ?)`,
			si, story.Title, story.DialogueRef)
		if err != nil {
			return fmt.Errorf("failed to insert story %q: %w", story.Title, err)
		}

		for qi, question := range story.Questions {
			questionID, err := q.ExecReturningID(ctx,
				`INSERT INTO questions (story_id, position, prompt, correct_answer) VALUES (?, ?, ?, ?)`,
				storyID, qi, question.Prompt, question.CorrectAnswer)
			if err != nil {
				return fmt.Errorf("failed to insert question %d of %q: %w", qi, story.Title, err)
			}

			for oi, option := range question.Options {
				if _, err := q.ExecContext(ctx,
					`INSERT INTO question_options (question_id, position, option_text) VALUES (?, ?, ?)`,
					questionID, oi, option); err != nil {
					return fmt.Errorf("failed to insert option: %w", err)
				}
			}
		}
	}
	return nil
}
