package app

import (
	"context"
	"math"
	"math/rand"
	"time"

	"quantum-quiz-service/internal/domain"
)

// Engine owns one quiz attempt: a filtered, shuffled slice of the question
// pool, a cursor, and the append-only answer sequence. It is not safe for
// concurrent use; a session belongs to a single caller.
type Engine struct {
	pool   []domain.Question
	recent *RecentTracker

	cfg       domain.SessionConfig
	session   []domain.Question
	cursor    int
	answers   []domain.AnswerRecord
	startedAt time.Time

	questionStart   time.Time
	questionStarted bool

	now func() time.Time
	rnd *rand.Rand
}

// NewEngine builds an engine over an immutable question pool.
func NewEngine(pool []domain.Question) *Engine {
	return NewEngineWithClock(pool, time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewEngineWithClock allows deterministic timestamps and shuffles in tests.
func NewEngineWithClock(pool []domain.Question, now func() time.Time, rnd *rand.Rand) *Engine {
	return &Engine{pool: pool, now: now, rnd: rnd}
}

// UseRecentTracker makes Initialize prefer questions not seen in recent
// sessions. Optional; without it selection is a plain shuffle.
func (e *Engine) UseRecentTracker(t *RecentTracker) {
	e.recent = t
}

// Initialize merges cfg over the engine defaults, selects and shuffles the
// session questions, and resets all per-attempt state. Any in-progress session
// is discarded. Returns the session length, which is min(NumQuestions, pool
// matches) — a short pool yields a short session, not an error.
func (e *Engine) Initialize(ctx context.Context, cfg domain.SessionConfig) int {
	e.cfg = mergeConfig(cfg)

	filtered := e.filterPool()

	if e.recent != nil {
		seen := e.recent.Recent(ctx)
		fresh := make([]domain.Question, 0, len(filtered))
		stale := make([]domain.Question, 0)
		for _, q := range filtered {
			if _, ok := seen[q.ID]; ok {
				stale = append(stale, q)
			} else {
				fresh = append(fresh, q)
			}
		}
		e.shuffle(fresh)
		e.shuffle(stale)
		filtered = append(fresh, stale...)
	} else {
		e.shuffle(filtered)
	}

	if len(filtered) > e.cfg.NumQuestions {
		filtered = filtered[:e.cfg.NumQuestions]
	}

	e.session = filtered
	e.cursor = 0
	e.answers = nil
	e.startedAt = e.now()
	e.questionStarted = false

	if e.recent != nil && len(e.session) > 0 {
		ids := make([]string, 0, len(e.session))
		for _, q := range e.session {
			ids = append(ids, q.ID)
		}
		// Best-effort: losing the recency list only weakens variety.
		_ = e.recent.Record(ctx, ids)
	}

	return len(e.session)
}

func mergeConfig(cfg domain.SessionConfig) domain.SessionConfig {
	merged := domain.DefaultSessionConfig()
	if cfg.NumQuestions > 0 {
		merged.NumQuestions = cfg.NumQuestions
	}
	if cfg.Mode != "" {
		merged.Mode = cfg.Mode
	}
	if len(cfg.Categories) > 0 {
		merged.Categories = cfg.Categories
	}
	if len(cfg.Difficulties) > 0 {
		merged.Difficulties = cfg.Difficulties
	}
	merged.EnableTimer = cfg.EnableTimer
	merged.EnableSounds = cfg.EnableSounds
	return merged
}

// filterPool applies the category, difficulty, and mode filters, deduplicating
// by question ID.
func (e *Engine) filterPool() []domain.Question {
	wildcard := false
	categories := make(map[string]struct{}, len(e.cfg.Categories))
	for _, c := range e.cfg.Categories {
		if c == domain.CategoryAll {
			wildcard = true
		}
		categories[c] = struct{}{}
	}
	difficulties := make(map[domain.Difficulty]struct{}, len(e.cfg.Difficulties))
	for _, d := range e.cfg.Difficulties {
		difficulties[d] = struct{}{}
	}

	seen := make(map[string]struct{})
	selected := make([]domain.Question, 0, len(e.pool))
	for _, q := range e.pool {
		if !wildcard {
			if _, ok := categories[q.Category]; !ok {
				continue
			}
		}
		if _, ok := difficulties[q.Difficulty]; !ok {
			continue
		}
		switch e.cfg.Mode {
		case domain.ModeQCM:
			if q.Type != domain.TypeQCM {
				continue
			}
		case domain.ModeFlashcard:
			if q.Type != domain.TypeFlashcard {
				continue
			}
		}
		if q.ID != "" {
			if _, dup := seen[q.ID]; dup {
				continue
			}
			seen[q.ID] = struct{}{}
		}
		selected = append(selected, q)
	}
	return selected
}

// shuffle applies a Fisher-Yates permutation in place.
func (e *Engine) shuffle(qs []domain.Question) {
	for i := len(qs) - 1; i > 0; i-- {
		j := e.rnd.Intn(i + 1)
		qs[i], qs[j] = qs[j], qs[i]
	}
}

// Current returns the question at the cursor without side effects, or false
// when the session is exhausted.
func (e *Engine) Current() (domain.Question, bool) {
	if e.cursor >= len(e.session) {
		return domain.Question{}, false
	}
	return e.session[e.cursor], true
}

// StartQuestion records the moment the current question was presented, used as
// the elapsed-time base for the next submission. Idempotent within a cursor
// position so repeated renders do not reset the clock.
func (e *Engine) StartQuestion() {
	if e.cursor >= len(e.session) || e.questionStarted {
		return
	}
	e.questionStart = e.now()
	e.questionStarted = true
}

// SubmitQCM scores a multiple-choice submission against the current question.
func (e *Engine) SubmitQCM(selectedIndex int) (domain.QCMFeedback, error) {
	q, err := e.submittable()
	if err != nil {
		return domain.QCMFeedback{}, err
	}
	if !q.IsQCMLike() {
		return domain.QCMFeedback{}, domain.ErrQuestionType
	}

	correct := selectedIndex == q.CorrectIndex
	e.appendAnswer(domain.AnswerRecord{
		QuestionID:    q.ID,
		Type:          q.Type,
		SelectedIndex: selectedIndex,
		Correct:       correct,
		TimeSpent:     e.elapsedMs(),
		Category:      q.Category,
		Difficulty:    q.Difficulty,
	})

	return domain.QCMFeedback{
		Correct:      correct,
		CorrectIndex: q.CorrectIndex,
		Explanation:  q.Explanation,
		Formula:      q.Formula,
	}, nil
}

// SubmitFlashcard records a self-reported mastery flag for the current card.
func (e *Engine) SubmitFlashcard(mastered bool) error {
	q, err := e.submittable()
	if err != nil {
		return err
	}
	if q.Type != domain.TypeFlashcard {
		return domain.ErrQuestionType
	}

	e.appendAnswer(domain.AnswerRecord{
		QuestionID: q.ID,
		Type:       domain.TypeFlashcard,
		Mastered:   mastered,
		TimeSpent:  e.elapsedMs(),
		Category:   q.Category,
		Difficulty: q.Difficulty,
	})
	return nil
}

func (e *Engine) submittable() (domain.Question, error) {
	if e.session == nil {
		return domain.Question{}, domain.ErrNotInitialized
	}
	if e.cursor >= len(e.session) {
		return domain.Question{}, domain.ErrSessionExhausted
	}
	if len(e.answers) > e.cursor {
		return domain.Question{}, domain.ErrAlreadyAnswered
	}
	return e.session[e.cursor], nil
}

func (e *Engine) appendAnswer(rec domain.AnswerRecord) {
	e.answers = append(e.answers, rec)
	e.questionStarted = false
}

func (e *Engine) elapsedMs() int64 {
	if !e.questionStarted {
		return 0
	}
	ms := e.now().Sub(e.questionStart).Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return ms
}

// Next advances the cursor and returns the new current question. It does not
// require the prior question to have been answered.
func (e *Engine) Next() (domain.Question, bool) {
	if e.cursor < len(e.session) {
		e.cursor++
	}
	e.questionStarted = false
	return e.Current()
}

// Cursor returns the current position in [0, length].
func (e *Engine) Cursor() int {
	return e.cursor
}

// IsComplete reports whether the cursor has passed the last question.
func (e *Engine) IsComplete() bool {
	return e.cursor >= len(e.session)
}

// Progress returns cursor position as a percentage in [0,100]. A zero-length
// session reports 0.
func (e *Engine) Progress() float64 {
	if len(e.session) == 0 {
		return 0
	}
	return float64(e.cursor) / float64(len(e.session)) * 100
}

// Results aggregates whatever answers exist so far. Meaningful once
// IsComplete, but callable mid-session for abandon flows. A correct QCM answer
// is worth 1 point, a mastered flashcard 0.5.
func (e *Engine) Results() domain.Result {
	total := len(e.session)

	var qcm domain.QCMStats
	var cards domain.FlashcardStats
	var timeSum int64
	for _, a := range e.answers {
		timeSum += a.TimeSpent
		if a.Type == domain.TypeFlashcard {
			cards.Total++
			if a.Mastered {
				cards.Mastered++
			}
		} else {
			qcm.Total++
			if a.Correct {
				qcm.Correct++
			}
		}
	}
	qcm.Incorrect = qcm.Total - qcm.Correct
	cards.ToReview = cards.Total - cards.Mastered

	points := float64(qcm.Correct) + float64(cards.Mastered)/2
	score := 0
	if total > 0 {
		score = int(math.Round(points / float64(total) * 100))
	}
	correct := int(math.Round(points))

	var avg int64
	if len(e.answers) > 0 {
		avg = timeSum / int64(len(e.answers))
	}

	categories := make(map[string]domain.CategoryStats)
	difficulties := make(map[domain.Difficulty]domain.CategoryStats)
	for _, q := range e.session {
		cat := categories[q.Category]
		cat.Total++
		categories[q.Category] = cat

		diff := difficulties[q.Difficulty]
		diff.Total++
		difficulties[q.Difficulty] = diff
	}
	// Flashcard mastery does not feed per-category correctness, only QCM hits.
	for _, a := range e.answers {
		if a.Type == domain.TypeFlashcard || !a.Correct {
			continue
		}
		cat := categories[a.Category]
		cat.Correct++
		categories[a.Category] = cat

		diff := difficulties[a.Difficulty]
		diff.Correct++
		difficulties[a.Difficulty] = diff
	}

	answers := make([]domain.AnswerRecord, len(e.answers))
	copy(answers, e.answers)

	return domain.Result{
		Score:            score,
		TotalQuestions:   total,
		CorrectAnswers:   correct,
		IncorrectAnswers: total - correct,
		QCM:              qcm,
		Flashcards:       cards,
		Time: domain.TimeStats{
			Total:   e.now().Sub(e.startedAt).Milliseconds(),
			Average: avg,
		},
		Categories:   categories,
		Difficulties: difficulties,
		Answers:      answers,
		Chapter:      e.chapter(),
		Mode:         e.cfg.Mode,
		CompletedAt:  e.now(),
	}
}

// Snapshot captures the attempt for the save-current-quiz flow. The engine
// itself never persists; the caller hands this to the aggregator.
func (e *Engine) Snapshot() SessionSnapshot {
	ids := make([]string, 0, len(e.session))
	for _, q := range e.session {
		ids = append(ids, q.ID)
	}
	answers := make([]domain.AnswerRecord, len(e.answers))
	copy(answers, e.answers)
	return SessionSnapshot{
		Config:      e.cfg,
		QuestionIDs: ids,
		Cursor:      e.cursor,
		Answers:     answers,
	}
}

// chapter reduces the category filter to a single label for stats rollups.
func (e *Engine) chapter() string {
	if len(e.cfg.Categories) == 1 && e.cfg.Categories[0] != domain.CategoryAll {
		return e.cfg.Categories[0]
	}
	return domain.CategoryAll
}
