package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"storyquiz/internal/dialogue"
	"storyquiz/internal/models"
	"storyquiz/internal/quiz"
	"storyquiz/internal/security"
)

var (
	ErrSessionNotFound = errors.New("quiz session not found")
	ErrStoryNotFound   = errors.New("story not found")
	ErrNoQuestions     = errors.New("story has no questions")
)

// StoryBank supplies the story collection
type StoryBank interface {
	Stories(ctx context.Context) ([]models.Story, error)
}

// QuizServiceOptions configures how sessions are built
type QuizServiceOptions struct {
	SessionDuration      time.Duration
	CelebrationThreshold int
	CelebrationDuration  time.Duration
	Scheduler            quiz.Scheduler
	// DialogueWait bounds how long a page render waits for a fresh session's
	// dialogue. Negative renders immediately.
	DialogueWait time.Duration
}

const defaultDialogueWait = 3 * time.Second

type sessionEntry struct {
	info       models.SessionInfo
	controller *quiz.Controller
	dialogue   <-chan struct{}
}

// QuizService keeps one quiz controller per browser session in memory
type QuizService struct {
	stories []models.Story
	source  dialogue.Source
	log     logrus.FieldLogger
	opts    QuizServiceOptions

	mu       sync.RWMutex
	sessions map[string]*sessionEntry

	// dialogue fetches outlive the request that started them
	baseCtx context.Context
	now     func() time.Time
}

// NewQuizService loads the story collection once and returns the service
func NewQuizService(ctx context.Context, bank StoryBank, source dialogue.Source, log logrus.FieldLogger, opts QuizServiceOptions) (*QuizService, error) {
	stories, err := bank.Stories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stories: %w", err)
	}
	for i, story := range stories {
		if len(story.Questions) == 0 {
			return nil, fmt.Errorf("%w: story %d (%q)", ErrNoQuestions, i, story.Title)
		}
	}
	if opts.SessionDuration <= 0 {
		opts.SessionDuration = 24 * time.Hour
	}
	if opts.DialogueWait == 0 {
		opts.DialogueWait = defaultDialogueWait
	}

	return &QuizService{
		stories:  stories,
		source:   source,
		log:      log,
		opts:     opts,
		sessions: make(map[string]*sessionEntry),
		baseCtx:  context.WithoutCancel(ctx),
		now:      time.Now,
	}, nil
}

// StoryCount returns how many stories are available
func (s *QuizService) StoryCount() int {
	return len(s.stories)
}

// Start opens a new session on storyIndex and begins loading its dialogue
func (s *QuizService) Start(storyIndex int) (string, error) {
	return s.start(security.GenerateSessionID(), storyIndex)
}

// Resume returns the session id if it is still live, or recreates it under the
// same id when the server no longer knows it
func (s *QuizService) Resume(sessionID string, storyIndex int) (string, error) {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok && !entry.info.IsExpiredAt(s.now()) {
		return sessionID, nil
	}
	if ok {
		s.End(sessionID)
	}
	return s.start(sessionID, storyIndex)
}

// SelectStory replaces the session's quiz with a fresh one on storyIndex
func (s *QuizService) SelectStory(sessionID string, storyIndex int) error {
	if _, err := s.controller(sessionID); err != nil {
		return err
	}
	_, err := s.start(sessionID, storyIndex)
	return err
}

// CelebrationThreshold is the percentage at or above which a finished quiz celebrates
func (s *QuizService) CelebrationThreshold() int {
	if s.opts.CelebrationThreshold == 0 {
		return quiz.DefaultCelebrationThreshold
	}
	return s.opts.CelebrationThreshold
}

// StoryTitles lists the title of every story in order
func (s *QuizService) StoryTitles() []string {
	titles := make([]string, len(s.stories))
	for i, story := range s.stories {
		titles[i] = story.Title
	}
	return titles
}

func (s *QuizService) start(sessionID string, storyIndex int) (string, error) {
	if storyIndex < 0 || storyIndex >= len(s.stories) {
		return "", fmt.Errorf("%w: index %d", ErrStoryNotFound, storyIndex)
	}

	controller := quiz.NewController(s.stories, storyIndex, quiz.Options{
		CelebrationThreshold: s.opts.CelebrationThreshold,
		CelebrationDuration:  s.opts.CelebrationDuration,
		Scheduler:            s.opts.Scheduler,
		Source:               s.source,
		Logger:               s.log.WithField("session_id", sessionID),
	})

	now := s.now()
	entry := &sessionEntry{
		info: models.SessionInfo{
			ID:         sessionID,
			StoryIndex: storyIndex,
			CreatedAt:  now,
			ExpiresAt:  now.Add(s.opts.SessionDuration),
		},
		controller: controller,
		dialogue:   controller.LoadDialogue(s.baseCtx, storyIndex),
	}

	s.mu.Lock()
	if old, ok := s.sessions[sessionID]; ok {
		old.controller.Close()
	}
	s.sessions[sessionID] = entry
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"session_id":  sessionID,
		"story_index": storyIndex,
	}).Debug("Quiz session started")

	return sessionID, nil
}

func (s *QuizService) controller(sessionID string) (*quiz.Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry.controller, nil
}

// WaitForDialogue blocks until the session's dialogue fetch has settled, the
// configured wait runs out, or ctx ends. A failed or slow fetch is not an error:
// the page renders without dialogue.
func (s *QuizService) WaitForDialogue(ctx context.Context, sessionID string) error {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}
	if s.opts.DialogueWait < 0 {
		return nil
	}

	timer := time.NewTimer(s.opts.DialogueWait)
	defer timer.Stop()

	select {
	case <-entry.dialogue:
	case <-timer.C:
		s.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"wait":       s.opts.DialogueWait,
		}).Warn("Dialogue still loading, rendering without it")
	case <-ctx.Done():
	}
	return nil
}

// Snapshot returns the session's current state without consuming the scroll hint
func (s *QuizService) Snapshot(sessionID string) (quiz.Snapshot, error) {
	c, err := s.controller(sessionID)
	if err != nil {
		return quiz.Snapshot{}, err
	}
	return c.Snapshot(), nil
}

// Render returns the session's state for a page render and consumes the scroll hint
func (s *QuizService) Render(sessionID string) (quiz.Snapshot, error) {
	c, err := s.controller(sessionID)
	if err != nil {
		return quiz.Snapshot{}, err
	}
	return c.TakeSnapshot(), nil
}

// SelectAnswer forwards an answer choice to the session
func (s *QuizService) SelectAnswer(sessionID, answer string) error {
	c, err := s.controller(sessionID)
	if err != nil {
		return err
	}
	c.SelectAnswer(answer)
	return nil
}

// Advance moves the session to the next question or to completion
func (s *QuizService) Advance(sessionID string) error {
	c, err := s.controller(sessionID)
	if err != nil {
		return err
	}
	if !c.Advance() {
		return nil
	}

	snap := c.Snapshot()
	s.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"score":      snap.Session.Score,
		"total":      snap.Total,
		"percentage": snap.Percentage,
	}).Info("Quiz completed")
	return nil
}

// DismissSuggestion hides the review prompt
func (s *QuizService) DismissSuggestion(sessionID string) error {
	c, err := s.controller(sessionID)
	if err != nil {
		return err
	}
	c.DismissSuggestion()
	return nil
}

// Restart resets the session to the first question
func (s *QuizService) Restart(sessionID string) error {
	c, err := s.controller(sessionID)
	if err != nil {
		return err
	}
	c.Restart()
	return nil
}

// Resize records the client's viewport size
func (s *QuizService) Resize(sessionID string, width, height int) error {
	c, err := s.controller(sessionID)
	if err != nil {
		return err
	}
	c.Resize(width, height)
	return nil
}

// End tears a session down and stops its timers
func (s *QuizService) End(sessionID string) {
	s.mu.Lock()
	entry, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if ok {
		entry.controller.Close()
	}
}

// CleanupExpiredSessions removes sessions past their expiry and returns how many went
func (s *QuizService) CleanupExpiredSessions() int {
	now := s.now()

	s.mu.Lock()
	var expired []*sessionEntry
	for id, entry := range s.sessions {
		if entry.info.IsExpiredAt(now) {
			expired = append(expired, entry)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, entry := range expired {
		entry.controller.Close()
	}
	return len(expired)
}

// ActiveSessions returns how many sessions are held in memory
func (s *QuizService) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
