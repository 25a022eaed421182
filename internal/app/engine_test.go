package app

import (
	"context"
	"fmt"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"quantum-quiz-service/internal/domain"
	"quantum-quiz-service/internal/infra/memory"
)

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

func (c *stepClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEngine(pool []domain.Question) (*Engine, *stepClock) {
	clock := &stepClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewEngineWithClock(pool, clock.Now, rand.New(rand.NewSource(1))), clock
}

func qcmPool(n int) []domain.Question {
	qs := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		qs = append(qs, domain.Question{
			ID:           fmt.Sprintf("q%d", i),
			Type:         domain.TypeQCM,
			Category:     "wave-mechanics",
			Difficulty:   domain.DifficultyEasy,
			Prompt:       fmt.Sprintf("question %d", i),
			Options:      []string{"a", "b", "c"},
			CorrectIndex: 1,
		})
	}
	return qs
}

func flashcardPool(n int) []domain.Question {
	qs := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		qs = append(qs, domain.Question{
			ID:         fmt.Sprintf("f%d", i),
			Type:       domain.TypeFlashcard,
			Category:   "quantum-states",
			Difficulty: domain.DifficultyMedium,
			Front:      fmt.Sprintf("front %d", i),
			Back:       fmt.Sprintf("back %d", i),
		})
	}
	return qs
}

func TestInitializeDefaults(t *testing.T) {
	engine, _ := newTestEngine(qcmPool(50))

	length := engine.Initialize(context.Background(), domain.SessionConfig{})
	if length != 30 {
		t.Fatalf("expected default session of 30 questions, got %d", length)
	}
}

func TestInitializeShortPool(t *testing.T) {
	engine, _ := newTestEngine(qcmPool(5))

	length := engine.Initialize(context.Background(), domain.SessionConfig{NumQuestions: 10})
	if length != 5 {
		t.Fatalf("expected session capped at pool size 5, got %d", length)
	}
}

func TestInitializeIsPermutation(t *testing.T) {
	pool := qcmPool(10)
	engine, _ := newTestEngine(pool)

	length := engine.Initialize(context.Background(), domain.SessionConfig{NumQuestions: 10})
	if length != 10 {
		t.Fatalf("expected 10 questions, got %d", length)
	}

	seen := make(map[string]int)
	for !engine.IsComplete() {
		q, _ := engine.Current()
		seen[q.ID]++
		engine.Next()
	}
	if len(seen) != 10 {
		t.Fatalf("expected 10 distinct questions, got %d", len(seen))
	}
	for _, q := range pool {
		if seen[q.ID] != 1 {
			t.Fatalf("question %s appeared %d times", q.ID, seen[q.ID])
		}
	}
}

func TestInitializeFilters(t *testing.T) {
	pool := append(qcmPool(4), flashcardPool(3)...)
	pool = append(pool, domain.Question{
		ID:           "hard-1",
		Type:         domain.TypeQCM,
		Category:     "measurement",
		Difficulty:   domain.DifficultyHard,
		Options:      []string{"a", "b"},
		CorrectIndex: 0,
	})

	cases := []struct {
		name string
		cfg  domain.SessionConfig
		want int
	}{
		{"qcm mode drops flashcards", domain.SessionConfig{Mode: domain.ModeQCM}, 5},
		{"flashcard mode drops qcm", domain.SessionConfig{Mode: domain.ModeFlashcard}, 3},
		{"category filter", domain.SessionConfig{Categories: []string{"measurement"}}, 1},
		{"difficulty filter", domain.SessionConfig{Difficulties: []domain.Difficulty{domain.DifficultyHard}}, 1},
		{"wildcard admits everything", domain.SessionConfig{Categories: []string{domain.CategoryAll}}, 8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine, _ := newTestEngine(pool)
			if got := engine.Initialize(context.Background(), tc.cfg); got != tc.want {
				t.Fatalf("expected %d questions, got %d", tc.want, got)
			}
		})
	}
}

func TestInitializeDeduplicates(t *testing.T) {
	pool := qcmPool(3)
	pool = append(pool, pool...)
	engine, _ := newTestEngine(pool)

	if got := engine.Initialize(context.Background(), domain.SessionConfig{NumQuestions: 10}); got != 3 {
		t.Fatalf("expected duplicates dropped, got %d questions", got)
	}
}

func TestProgress(t *testing.T) {
	engine, _ := newTestEngine(qcmPool(4))
	engine.Initialize(context.Background(), domain.SessionConfig{NumQuestions: 4})

	if got := engine.Progress(); got != 0 {
		t.Fatalf("expected 0%% at start, got %v", got)
	}
	engine.Next()
	if got := engine.Progress(); got != 25 {
		t.Fatalf("expected 25%% after one question, got %v", got)
	}
	engine.Next()
	engine.Next()
	engine.Next()
	if got := engine.Progress(); got != 100 {
		t.Fatalf("expected 100%% at the end, got %v", got)
	}
	if !engine.IsComplete() {
		t.Fatal("expected session complete")
	}
}

func TestProgressEmptySession(t *testing.T) {
	engine, _ := newTestEngine(nil)
	engine.Initialize(context.Background(), domain.SessionConfig{})

	if got := engine.Progress(); got != 0 {
		t.Fatalf("expected 0%% for empty session, got %v", got)
	}
	if !engine.IsComplete() {
		t.Fatal("expected empty session to be complete")
	}
}

func TestSubmitQCMScoring(t *testing.T) {
	engine, _ := newTestEngine(qcmPool(10))
	engine.Initialize(context.Background(), domain.SessionConfig{NumQuestions: 10})

	for i := 0; i < 10; i++ {
		q, _ := engine.Current()
		selected := q.CorrectIndex
		if i >= 8 {
			selected = q.CorrectIndex + 1
		}
		feedback, err := engine.SubmitQCM(selected)
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if feedback.Correct != (i < 8) {
			t.Fatalf("submit %d: unexpected feedback %+v", i, feedback)
		}
		engine.Next()
	}

	results := engine.Results()
	if results.Score != 80 {
		t.Fatalf("expected score 80, got %d", results.Score)
	}
	if results.CorrectAnswers != 8 || results.IncorrectAnswers != 2 {
		t.Fatalf("expected 8/2 split, got %d/%d", results.CorrectAnswers, results.IncorrectAnswers)
	}
	if results.QCM.Correct != 8 || results.QCM.Incorrect != 2 {
		t.Fatalf("unexpected QCM stats %+v", results.QCM)
	}
}

func TestFlashcardScoring(t *testing.T) {
	engine, _ := newTestEngine(flashcardPool(4))
	engine.Initialize(context.Background(), domain.SessionConfig{Mode: domain.ModeFlashcard, NumQuestions: 4})

	for i := 0; i < 4; i++ {
		if err := engine.SubmitFlashcard(i < 2); err != nil {
			t.Fatalf("flashcard %d: %v", i, err)
		}
		engine.Next()
	}

	results := engine.Results()
	// Two mastered cards are worth one point over four questions.
	if results.Score != 25 {
		t.Fatalf("expected score 25, got %d", results.Score)
	}
	if results.Flashcards.Mastered != 2 || results.Flashcards.ToReview != 2 {
		t.Fatalf("unexpected flashcard stats %+v", results.Flashcards)
	}
}

func TestSubmitErrors(t *testing.T) {
	engine, _ := newTestEngine(qcmPool(1))

	if _, err := engine.SubmitQCM(0); err != domain.ErrNotInitialized {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}

	engine.Initialize(context.Background(), domain.SessionConfig{NumQuestions: 1})

	if err := engine.SubmitFlashcard(true); err != domain.ErrQuestionType {
		t.Fatalf("expected ErrQuestionType for flashcard on QCM, got %v", err)
	}
	if _, err := engine.SubmitQCM(1); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := engine.SubmitQCM(1); err != domain.ErrAlreadyAnswered {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}

	engine.Next()
	if _, err := engine.SubmitQCM(1); err != domain.ErrSessionExhausted {
		t.Fatalf("expected ErrSessionExhausted, got %v", err)
	}
}

func TestResultsCategoryBreakdown(t *testing.T) {
	pool := []domain.Question{
		{ID: "a1", Type: domain.TypeQCM, Category: "wave-mechanics", Difficulty: domain.DifficultyEasy, Options: []string{"x", "y"}, CorrectIndex: 0},
		{ID: "b1", Type: domain.TypeFlashcard, Category: "wave-mechanics", Difficulty: domain.DifficultyEasy, Front: "f", Back: "b"},
	}
	engine, _ := newTestEngine(pool)
	engine.Initialize(context.Background(), domain.SessionConfig{NumQuestions: 2})

	for !engine.IsComplete() {
		q, _ := engine.Current()
		if q.Type == domain.TypeFlashcard {
			if err := engine.SubmitFlashcard(true); err != nil {
				t.Fatalf("flashcard: %v", err)
			}
		} else {
			if _, err := engine.SubmitQCM(q.CorrectIndex); err != nil {
				t.Fatalf("qcm: %v", err)
			}
		}
		engine.Next()
	}

	results := engine.Results()
	cat := results.Categories["wave-mechanics"]
	if cat.Total != 2 {
		t.Fatalf("expected 2 questions in category, got %d", cat.Total)
	}
	// Mastered flashcards contribute to the score but not to per-category hits.
	if cat.Correct != 1 {
		t.Fatalf("expected 1 correct in category, got %d", cat.Correct)
	}
}

func TestElapsedTimePerQuestion(t *testing.T) {
	engine, clock := newTestEngine(qcmPool(2))
	engine.Initialize(context.Background(), domain.SessionConfig{NumQuestions: 2})

	engine.StartQuestion()
	clock.Advance(1500 * time.Millisecond)
	if _, err := engine.SubmitQCM(1); err != nil {
		t.Fatalf("submit: %v", err)
	}
	engine.Next()

	engine.StartQuestion()
	clock.Advance(500 * time.Millisecond)
	if _, err := engine.SubmitQCM(1); err != nil {
		t.Fatalf("submit: %v", err)
	}
	engine.Next()

	results := engine.Results()
	if results.Answers[0].TimeSpent != 1500 || results.Answers[1].TimeSpent != 500 {
		t.Fatalf("unexpected per-question times %d/%d", results.Answers[0].TimeSpent, results.Answers[1].TimeSpent)
	}
	if results.Time.Average != 1000 {
		t.Fatalf("expected 1000ms average, got %d", results.Time.Average)
	}
	if results.Time.Total != 2000 {
		t.Fatalf("expected 2000ms total, got %d", results.Time.Total)
	}
}

func TestStartQuestionIdempotent(t *testing.T) {
	engine, clock := newTestEngine(qcmPool(1))
	engine.Initialize(context.Background(), domain.SessionConfig{NumQuestions: 1})

	engine.StartQuestion()
	clock.Advance(2 * time.Second)
	engine.StartQuestion()
	clock.Advance(1 * time.Second)
	if _, err := engine.SubmitQCM(1); err != nil {
		t.Fatalf("submit: %v", err)
	}

	results := engine.Results()
	if results.Answers[0].TimeSpent != 3000 {
		t.Fatalf("expected clock anchored at first StartQuestion, got %dms", results.Answers[0].TimeSpent)
	}
}

func TestResultsIdempotent(t *testing.T) {
	engine, _ := newTestEngine(qcmPool(3))
	engine.Initialize(context.Background(), domain.SessionConfig{NumQuestions: 3})
	for !engine.IsComplete() {
		if _, err := engine.SubmitQCM(1); err != nil {
			t.Fatalf("submit: %v", err)
		}
		engine.Next()
	}

	first := engine.Results()
	second := engine.Results()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results changed between calls:\n%+v\n%+v", first, second)
	}
}

func TestRecentTrackerPrefersFreshQuestions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	tracker := NewRecentTracker(store)

	// Mark half the pool as recently seen.
	if err := tracker.Record(ctx, []string{"q0", "q1", "q2", "q3", "q4"}); err != nil {
		t.Fatalf("record: %v", err)
	}

	engine, _ := newTestEngine(qcmPool(10))
	engine.UseRecentTracker(NewRecentTracker(store))
	engine.Initialize(ctx, domain.SessionConfig{NumQuestions: 5})

	recent := map[string]bool{"q0": true, "q1": true, "q2": true, "q3": true, "q4": true}
	for !engine.IsComplete() {
		q, _ := engine.Current()
		if recent[q.ID] {
			t.Fatalf("question %s was recently seen but fresh ones were available", q.ID)
		}
		engine.Next()
	}
}

func TestRecentTrackerRecordsServedSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	engine, _ := newTestEngine(qcmPool(5))
	engine.UseRecentTracker(NewRecentTracker(store))
	engine.Initialize(ctx, domain.SessionConfig{NumQuestions: 5})

	seen := NewRecentTracker(store).Recent(ctx)
	if len(seen) != 5 {
		t.Fatalf("expected 5 recorded ids, got %d", len(seen))
	}
}

func TestSnapshot(t *testing.T) {
	engine, _ := newTestEngine(qcmPool(3))
	engine.Initialize(context.Background(), domain.SessionConfig{NumQuestions: 3})
	if _, err := engine.SubmitQCM(1); err != nil {
		t.Fatalf("submit: %v", err)
	}
	engine.Next()

	snap := engine.Snapshot()
	if len(snap.QuestionIDs) != 3 || snap.Cursor != 1 || len(snap.Answers) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}
