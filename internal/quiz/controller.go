package quiz

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"storyquiz/internal/dialogue"
	"storyquiz/internal/models"
)

const (
	DefaultCelebrationThreshold = 90
	DefaultCelebrationDuration  = 5 * time.Second

	// Scroll hint delays: after picking an answer, and after moving on
	SelectScrollDelay  = 300 * time.Millisecond
	AdvanceScrollDelay = 100 * time.Millisecond
)

// Options tunes a Controller. Zero values fall back to defaults.
type Options struct {
	CelebrationThreshold int
	CelebrationDuration  time.Duration
	Scheduler            Scheduler
	Source               dialogue.Source
	Logger               logrus.FieldLogger
}

// ScrollHint asks the view to bring the question into the viewport after Delay
type ScrollHint struct {
	Delay time.Duration
}

// Snapshot is a copy of everything the view needs to render the quiz
type Snapshot struct {
	Session    models.QuizSession
	Story      models.Story
	Question   models.Question
	Dialogue   string
	Viewport   models.Viewport
	Total      int
	Percentage int
	Scroll     *ScrollHint
}

// IsLastQuestion reports whether the question in focus is the story's final one
func (s Snapshot) IsLastQuestion() bool {
	return s.Session.QuestionIndex == s.Story.LastIndex()
}

// Controller owns one quiz session and its transitions:
// Presenting(q) -select-> Revealed(q) -advance-> Presenting(q+1) | Completed -restart-> Presenting(0)
type Controller struct {
	mu sync.Mutex

	stories []models.Story
	session models.QuizSession

	dialogue string
	loadSeq  int
	viewport models.Viewport
	scroll   *ScrollHint

	celebration    Timer
	celebrationSeq int
	closed         bool

	threshold       int
	celebrationTime time.Duration
	scheduler       Scheduler
	source          dialogue.Source
	log             logrus.FieldLogger
}

// NewController creates a controller on the given story, in Presenting(0).
// stories must be non-empty and every story must have at least one question.
func NewController(stories []models.Story, storyIndex int, opts Options) *Controller {
	c := &Controller{
		stories:         stories,
		session:         models.QuizSession{StoryIndex: storyIndex},
		threshold:       opts.CelebrationThreshold,
		celebrationTime: opts.CelebrationDuration,
		scheduler:       opts.Scheduler,
		source:          opts.Source,
		log:             opts.Logger,
	}
	if c.threshold == 0 {
		c.threshold = DefaultCelebrationThreshold
	}
	if c.celebrationTime == 0 {
		c.celebrationTime = DefaultCelebrationDuration
	}
	if c.scheduler == nil {
		c.scheduler = ClockScheduler{}
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	return c
}

// Percentage is round(score/total*100), rounding halves up
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return (score*200 + total) / (2 * total)
}

// LoadDialogue fetches the dialogue text of the given story in the background.
// A failed fetch is logged and leaves the current text alone. Only the most recent
// request may apply its result. The returned channel closes once the fetch has settled.
func (c *Controller) LoadDialogue(ctx context.Context, storyIndex int) <-chan struct{} {
	done := make(chan struct{})

	c.mu.Lock()
	c.loadSeq++
	seq := c.loadSeq
	source := c.source
	ref := ""
	if storyIndex >= 0 && storyIndex < len(c.stories) {
		ref = c.stories[storyIndex].DialogueRef
	}
	c.mu.Unlock()

	if source == nil {
		close(done)
		return done
	}

	go func() {
		defer close(done)

		text, err := source.Fetch(ctx, ref)

		c.mu.Lock()
		defer c.mu.Unlock()

		if err != nil {
			c.log.WithError(err).WithFields(logrus.Fields{
				"story_index":  storyIndex,
				"dialogue_ref": ref,
			}).Error("Error loading story text")
			return
		}
		if c.closed || seq != c.loadSeq || storyIndex != c.session.StoryIndex {
			return
		}
		c.dialogue = text
	}()

	return done
}

// SelectAnswer records the user's choice for the question in focus. It does nothing
// once the answer has been revealed.
func (c *Controller) SelectAnswer(answer string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.AnswerRevealed || c.session.Complete {
		return
	}

	selected := answer
	c.session.SelectedAnswer = &selected
	c.session.AnswerRevealed = true
	if c.currentQuestion().IsCorrect(answer) {
		c.session.Score++
	}
	c.scroll = &ScrollHint{Delay: SelectScrollDelay}
}

// Advance moves past a revealed question, either to the next one or to completion
func (c *Controller) Advance() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.AnswerRevealed || c.session.Complete {
		return false
	}

	c.session.SelectedAnswer = nil
	c.session.AnswerRevealed = false

	story := c.currentStory()
	if c.session.QuestionIndex < story.LastIndex() {
		c.session.QuestionIndex++
		c.scroll = &ScrollHint{Delay: AdvanceScrollDelay}
		return false
	}

	c.session.Complete = true
	c.scroll = nil
	if Percentage(c.session.Score, len(story.Questions)) >= c.threshold {
		c.startCelebration()
	} else {
		c.session.SuggestingReview = true
	}
	return true
}

// DismissSuggestion hides the review prompt
func (c *Controller) DismissSuggestion() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session.SuggestingReview = false
}

// Restart returns the session to Presenting(0) with a zero score. Dialogue text
// and story selection are kept.
func (c *Controller) Restart() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopCelebration()
	c.session = models.QuizSession{StoryIndex: c.session.StoryIndex}
	c.scroll = nil
}

// Resize records the viewport size used to lay out the celebration overlay
func (c *Controller) Resize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	c.viewport = models.Viewport{Width: width, Height: height}
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshot()
}

// TakeSnapshot returns a copy of the current state and consumes any pending scroll hint
func (c *Controller) TakeSnapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.snapshot()
	c.scroll = nil
	return snap
}

// Close stops pending timers and makes late dialogue results a no-op
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.stopCelebration()
}

func (c *Controller) snapshot() Snapshot {
	story := c.currentStory()
	session := c.session
	if session.SelectedAnswer != nil {
		selected := *session.SelectedAnswer
		session.SelectedAnswer = &selected
	}

	snap := Snapshot{
		Session:    session,
		Story:      story,
		Question:   c.currentQuestion(),
		Dialogue:   c.dialogue,
		Viewport:   c.viewport,
		Total:      len(story.Questions),
		Percentage: Percentage(session.Score, len(story.Questions)),
	}
	if c.scroll != nil {
		hint := *c.scroll
		snap.Scroll = &hint
	}
	return snap
}

func (c *Controller) currentStory() models.Story {
	return c.stories[c.session.StoryIndex]
}

func (c *Controller) currentQuestion() models.Question {
	return c.currentStory().Questions[c.session.QuestionIndex]
}

// startCelebration turns the celebration on and schedules it off. Must hold c.mu.
func (c *Controller) startCelebration() {
	c.stopCelebration()
	c.session.Celebrating = true
	c.celebrationSeq++
	seq := c.celebrationSeq
	c.celebration = c.scheduler.AfterFunc(c.celebrationTime, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if seq == c.celebrationSeq && !c.closed {
			c.session.Celebrating = false
			c.celebration = nil
		}
	})
}

// stopCelebration cancels a pending auto-dismiss and clears the flag. Must hold c.mu.
func (c *Controller) stopCelebration() {
	if c.celebration != nil {
		c.celebration.Stop()
		c.celebration = nil
	}
	c.celebrationSeq++
	c.session.Celebrating = false
}
