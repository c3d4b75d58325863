package quiz

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"storyquiz/internal/models"
)

// fakeScheduler collects callbacks and fires them when time is advanced manually
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	wasPending := !t.stopped && !t.fired
	t.stopped = true
	return wasPending
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{at: s.now + d, fn: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired && t.at <= s.now {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

type fakeSource struct {
	text  string
	err   error
	block chan struct{}
}

func (f *fakeSource) Fetch(ctx context.Context, ref string) (string, error) {
	if f.block != nil {
		<-f.block
	}
	return f.text, f.err
}

func twoQuestionStory() []models.Story {
	return []models.Story{{
		Title:       "At the Market",
		DialogueRef: "data/story.txt",
		Questions: []models.Question{
			{Prompt: "First?", Options: []string{"A", "X"}, CorrectAnswer: "A"},
			{Prompt: "Second?", Options: []string{"B", "X"}, CorrectAnswer: "B"},
		},
	}}
}

func storyWith(n int) []models.Story {
	questions := make([]models.Question, n)
	for i := range questions {
		questions[i] = models.Question{Prompt: "Q", Options: []string{"right", "wrong"}, CorrectAnswer: "right"}
	}
	return []models.Story{{Title: "Long story", Questions: questions}}
}

func newTestController(stories []models.Story) (*Controller, *fakeScheduler) {
	sched := &fakeScheduler{}
	c := NewController(stories, 0, Options{Scheduler: sched})
	return c, sched
}

func assertInitial(t *testing.T, s models.QuizSession) {
	t.Helper()
	if s.QuestionIndex != 0 || s.Score != 0 || s.Complete || s.SelectedAnswer != nil ||
		s.AnswerRevealed || s.Celebrating || s.SuggestingReview {
		t.Errorf("session is not in the initial state: %+v", s)
	}
}

func TestNewControllerStartsPresentingFirstQuestion(t *testing.T) {
	c, _ := newTestController(twoQuestionStory())
	snap := c.Snapshot()

	assertInitial(t, snap.Session)
	if snap.Session.Phase() != models.PhasePresenting {
		t.Errorf("phase = %v, want presenting", snap.Session.Phase())
	}
	if snap.Question.Prompt != "First?" {
		t.Errorf("question = %q, want First?", snap.Question.Prompt)
	}
	if snap.Total != 2 {
		t.Errorf("total = %d, want 2", snap.Total)
	}
}

func TestSelectAnswer(t *testing.T) {
	tests := []struct {
		name      string
		answer    string
		wantScore int
	}{
		{name: "correct answer scores", answer: "A", wantScore: 1},
		{name: "incorrect answer does not score", answer: "X", wantScore: 0},
		{name: "comparison is case-sensitive", answer: "a", wantScore: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestController(twoQuestionStory())
			c.SelectAnswer(tt.answer)
			s := c.Snapshot().Session

			if !s.AnswerRevealed {
				t.Error("answer should be revealed")
			}
			if s.SelectedAnswer == nil || *s.SelectedAnswer != tt.answer {
				t.Errorf("selected = %v, want %q", s.SelectedAnswer, tt.answer)
			}
			if s.Score != tt.wantScore {
				t.Errorf("score = %d, want %d", s.Score, tt.wantScore)
			}
		})
	}
}

func TestSelectAnswerIsIdempotentOnceRevealed(t *testing.T) {
	c, _ := newTestController(twoQuestionStory())

	c.SelectAnswer("A")
	before := c.Snapshot().Session
	c.SelectAnswer("A")
	c.SelectAnswer("X")
	after := c.Snapshot().Session

	if after.Score != 1 {
		t.Errorf("score = %d, want 1 (no double counting)", after.Score)
	}
	if *after.SelectedAnswer != "A" {
		t.Errorf("selected = %q, want A", *after.SelectedAnswer)
	}
	if before.QuestionIndex != after.QuestionIndex || before.AnswerRevealed != after.AnswerRevealed {
		t.Errorf("state changed: before %+v after %+v", before, after)
	}
}

func TestSnapshotDoesNotAliasSelection(t *testing.T) {
	c, _ := newTestController(twoQuestionStory())
	c.SelectAnswer("A")

	snap := c.Snapshot()
	*snap.Session.SelectedAnswer = "tampered"

	if got := *c.Snapshot().Session.SelectedAnswer; got != "A" {
		t.Errorf("selected = %q, want A", got)
	}
}

func TestAdvanceFromPresentingIsNoOp(t *testing.T) {
	c, _ := newTestController(twoQuestionStory())

	if c.Advance() {
		t.Error("Advance() from presenting should not report completion")
	}
	assertInitial(t, c.Snapshot().Session)
}

func TestAdvanceMovesToNextQuestion(t *testing.T) {
	c, _ := newTestController(twoQuestionStory())

	c.SelectAnswer("A")
	c.Advance()
	snap := c.Snapshot()

	if snap.Session.QuestionIndex != 1 {
		t.Errorf("question index = %d, want 1", snap.Session.QuestionIndex)
	}
	if snap.Session.SelectedAnswer != nil || snap.Session.AnswerRevealed {
		t.Errorf("selection should be cleared: %+v", snap.Session)
	}
	if snap.Session.Score != 1 {
		t.Errorf("score = %d, want 1", snap.Session.Score)
	}
	if snap.Question.Prompt != "Second?" {
		t.Errorf("question = %q, want Second?", snap.Question.Prompt)
	}
	if !snap.IsLastQuestion() {
		t.Error("second question should be the last")
	}
}

func TestTwoQuestionScenarioSuggestsReview(t *testing.T) {
	c, _ := newTestController(twoQuestionStory())

	c.SelectAnswer("A")
	if c.Advance() {
		t.Error("Advance() to the second question should not report completion")
	}
	c.SelectAnswer("X")
	if !c.Advance() {
		t.Error("Advance() past the last question should report completion")
	}
	snap := c.Snapshot()

	if !snap.Session.Complete {
		t.Fatal("quiz should be complete")
	}
	if c.Advance() {
		t.Error("Advance() on a completed quiz should be a no-op")
	}
	if snap.Session.Phase() != models.PhaseCompleted {
		t.Errorf("phase = %v, want completed", snap.Session.Phase())
	}
	if snap.Session.Score != 1 {
		t.Errorf("score = %d, want 1", snap.Session.Score)
	}
	if snap.Percentage != 50 {
		t.Errorf("percentage = %d, want 50", snap.Percentage)
	}
	if !snap.Session.SuggestingReview {
		t.Error("review suggestion should be shown")
	}
	if snap.Session.Celebrating {
		t.Error("celebration should not be shown")
	}
}

func TestSingleQuestionCelebratesThenStops(t *testing.T) {
	c, sched := newTestController(storyWith(1))

	c.SelectAnswer("right")
	c.Advance()
	snap := c.Snapshot()

	if !snap.Session.Complete || snap.Session.Score != 1 || snap.Percentage != 100 {
		t.Fatalf("unexpected completion state: %+v pct=%d", snap.Session, snap.Percentage)
	}
	if !snap.Session.Celebrating {
		t.Fatal("celebration should be active")
	}
	if snap.Session.SuggestingReview {
		t.Error("review suggestion should not be shown")
	}

	sched.Advance(4999 * time.Millisecond)
	if !c.Snapshot().Session.Celebrating {
		t.Error("celebration ended too early")
	}

	sched.Advance(time.Millisecond)
	after := c.Snapshot().Session
	if after.Celebrating {
		t.Error("celebration should end after 5000ms")
	}

	expected := snap.Session
	expected.Celebrating = false
	if after.Complete != expected.Complete || after.Score != expected.Score ||
		after.QuestionIndex != expected.QuestionIndex || after.SuggestingReview != expected.SuggestingReview {
		t.Errorf("auto-dismiss changed other state: got %+v, want %+v", after, expected)
	}
}

func TestCompletionThresholds(t *testing.T) {
	tests := []struct {
		name          string
		correct       int
		total         int
		wantPct       int
		wantCelebrate bool
	}{
		{name: "9 of 10 celebrates", correct: 9, total: 10, wantPct: 90, wantCelebrate: true},
		{name: "8 of 10 suggests review", correct: 8, total: 10, wantPct: 80},
		{name: "0 of 1", correct: 0, total: 1, wantPct: 0},
		{name: "1 of 1", correct: 1, total: 1, wantPct: 100, wantCelebrate: true},
		{name: "17 of 19 rounds down to 89", correct: 17, total: 19, wantPct: 89},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestController(storyWith(tt.total))
			for i := 0; i < tt.total; i++ {
				if i < tt.correct {
					c.SelectAnswer("right")
				} else {
					c.SelectAnswer("wrong")
				}
				c.Advance()
			}

			snap := c.Snapshot()
			if !snap.Session.Complete {
				t.Fatal("quiz should be complete")
			}
			if snap.Percentage != tt.wantPct {
				t.Errorf("percentage = %d, want %d", snap.Percentage, tt.wantPct)
			}
			if snap.Session.Celebrating != tt.wantCelebrate {
				t.Errorf("celebrating = %v, want %v", snap.Session.Celebrating, tt.wantCelebrate)
			}
			if snap.Session.SuggestingReview == tt.wantCelebrate {
				t.Errorf("suggesting review = %v, want %v", snap.Session.SuggestingReview, !tt.wantCelebrate)
			}
		})
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		score, total, want int
	}{
		{9, 10, 90},
		{8, 10, 80},
		{0, 1, 0},
		{1, 1, 100},
		{1, 8, 13},
		{1, 3, 33},
		{2, 3, 67},
		{0, 0, 0},
	}

	for _, tt := range tests {
		if got := Percentage(tt.score, tt.total); got != tt.want {
			t.Errorf("Percentage(%d, %d) = %d, want %d", tt.score, tt.total, got, tt.want)
		}
	}
}

func TestScoreMatchesCorrectSelections(t *testing.T) {
	c, _ := newTestController(storyWith(5))
	answers := []string{"right", "wrong", "right", "right", "wrong"}

	correct := 0
	for i, a := range answers {
		c.SelectAnswer(a)
		if a == "right" {
			correct++
		}
		s := c.Snapshot().Session
		if s.Score != correct {
			t.Errorf("after answer %d: score = %d, want %d", i, s.Score, correct)
		}
		if s.Score > s.Answered() {
			t.Errorf("score %d exceeds answered %d", s.Score, s.Answered())
		}
		c.Advance()
	}
}

func TestDismissSuggestion(t *testing.T) {
	c, _ := newTestController(storyWith(1))
	c.SelectAnswer("wrong")
	c.Advance()

	c.DismissSuggestion()
	s := c.Snapshot().Session

	if s.SuggestingReview {
		t.Error("suggestion should be dismissed")
	}
	if !s.Complete || s.Score != 0 {
		t.Errorf("dismiss changed completion state: %+v", s)
	}
}

func TestRestartResetsFromAnyState(t *testing.T) {
	tests := []struct {
		name  string
		steps func(c *Controller)
	}{
		{name: "initial", steps: func(c *Controller) {}},
		{name: "revealed", steps: func(c *Controller) { c.SelectAnswer("A") }},
		{name: "second question", steps: func(c *Controller) { c.SelectAnswer("A"); c.Advance() }},
		{name: "completed with suggestion", steps: func(c *Controller) {
			c.SelectAnswer("X")
			c.Advance()
			c.SelectAnswer("X")
			c.Advance()
		}},
		{name: "completed celebrating", steps: func(c *Controller) {
			c.SelectAnswer("A")
			c.Advance()
			c.SelectAnswer("B")
			c.Advance()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestController(twoQuestionStory())
			tt.steps(c)
			c.Restart()
			assertInitial(t, c.Snapshot().Session)
		})
	}
}

func TestRestartCancelsCelebrationTimer(t *testing.T) {
	c, sched := newTestController(storyWith(1))
	c.SelectAnswer("right")
	c.Advance()
	c.Restart()

	// Finish again, then let the first timer's deadline pass
	sched.Advance(3 * time.Second)
	c.SelectAnswer("right")
	c.Advance()
	sched.Advance(2 * time.Second)

	if !c.Snapshot().Session.Celebrating {
		t.Error("stale timer from the first run ended the new celebration")
	}

	sched.Advance(3 * time.Second)
	if c.Snapshot().Session.Celebrating {
		t.Error("celebration should end 5s after the second completion")
	}
}

func TestRestartKeepsDialogue(t *testing.T) {
	sched := &fakeScheduler{}
	c := NewController(twoQuestionStory(), 0, Options{Scheduler: sched, Source: &fakeSource{text: "Ori: Hi"}})
	<-c.LoadDialogue(context.Background(), 0)

	c.SelectAnswer("A")
	c.Restart()

	if got := c.Snapshot().Dialogue; got != "Ori: Hi" {
		t.Errorf("dialogue = %q, want it kept across restart", got)
	}
}

func TestScrollHints(t *testing.T) {
	c, _ := newTestController(twoQuestionStory())

	if c.Snapshot().Scroll != nil {
		t.Error("no scroll hint expected initially")
	}

	c.SelectAnswer("A")
	snap := c.TakeSnapshot()
	if snap.Scroll == nil || snap.Scroll.Delay != SelectScrollDelay {
		t.Errorf("scroll = %+v, want %v delay", snap.Scroll, SelectScrollDelay)
	}
	if c.Snapshot().Scroll != nil {
		t.Error("scroll hint should be consumed by TakeSnapshot")
	}

	c.Advance()
	snap = c.TakeSnapshot()
	if snap.Scroll == nil || snap.Scroll.Delay != AdvanceScrollDelay {
		t.Errorf("scroll = %+v, want %v delay", snap.Scroll, AdvanceScrollDelay)
	}
}

func TestLoadDialogue(t *testing.T) {
	t.Run("success stores text", func(t *testing.T) {
		c := NewController(twoQuestionStory(), 0, Options{Source: &fakeSource{text: "Ori: Shalom"}})
		<-c.LoadDialogue(context.Background(), 0)

		if got := c.Snapshot().Dialogue; got != "Ori: Shalom" {
			t.Errorf("dialogue = %q, want %q", got, "Ori: Shalom")
		}
	})

	t.Run("failure is logged and keeps prior text", func(t *testing.T) {
		var buf bytes.Buffer
		log := logrus.New()
		log.SetOutput(&buf)

		source := &fakeSource{text: "first"}
		c := NewController(twoQuestionStory(), 0, Options{Source: source, Logger: log})
		<-c.LoadDialogue(context.Background(), 0)

		source.text, source.err = "", errors.New("boom")
		<-c.LoadDialogue(context.Background(), 0)

		if got := c.Snapshot().Dialogue; got != "first" {
			t.Errorf("dialogue = %q, want prior text kept", got)
		}
		if !strings.Contains(buf.String(), "boom") {
			t.Errorf("expected error to be logged, got %q", buf.String())
		}
		assertInitial(t, c.Snapshot().Session)
	})

	t.Run("stale result is dropped", func(t *testing.T) {
		slow := &fakeSource{text: "old", block: make(chan struct{})}
		c := NewController(twoQuestionStory(), 0, Options{Source: slow})
		first := c.LoadDialogue(context.Background(), 0)

		c.source = &fakeSource{text: "new"}
		<-c.LoadDialogue(context.Background(), 0)
		close(slow.block)
		<-first

		if got := c.Snapshot().Dialogue; got != "new" {
			t.Errorf("dialogue = %q, want the latest result", got)
		}
	})

	t.Run("result after close is ignored", func(t *testing.T) {
		slow := &fakeSource{text: "late", block: make(chan struct{})}
		c := NewController(twoQuestionStory(), 0, Options{Source: slow})
		done := c.LoadDialogue(context.Background(), 0)
		c.Close()
		close(slow.block)
		<-done

		if got := c.Snapshot().Dialogue; got != "" {
			t.Errorf("dialogue = %q, want empty after close", got)
		}
	})

	t.Run("no source", func(t *testing.T) {
		c := NewController(twoQuestionStory(), 0, Options{})
		<-c.LoadDialogue(context.Background(), 0)
		if c.Snapshot().Dialogue != "" {
			t.Error("dialogue should stay empty without a source")
		}
	})
}

func TestResize(t *testing.T) {
	c, _ := newTestController(twoQuestionStory())
	c.Resize(1280, 720)

	if vp := c.Snapshot().Viewport; vp.Width != 1280 || vp.Height != 720 {
		t.Errorf("viewport = %+v, want 1280x720", vp)
	}

	c.Resize(-5, 300)
	if vp := c.Snapshot().Viewport; vp.Width != 0 || vp.Height != 300 {
		t.Errorf("viewport = %+v, want 0x300", vp)
	}
}

func TestCustomThreshold(t *testing.T) {
	c := NewController(storyWith(2), 0, Options{Scheduler: &fakeScheduler{}, CelebrationThreshold: 50})
	c.SelectAnswer("right")
	c.Advance()
	c.SelectAnswer("wrong")
	c.Advance()

	if !c.Snapshot().Session.Celebrating {
		t.Error("50% should celebrate with a 50 threshold")
	}
}
