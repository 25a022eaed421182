package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"quantum-quiz-service/internal/domain"
	"github.com/google/uuid"
)

const historyLimit = 50

// Aggregator maintains the durable user profile, quiz history, and settings.
// All persistence goes through the injected Store; reads of corrupt or missing
// blobs re-initialize with defaults.
type Aggregator struct {
	store Store
	now   func() time.Time
}

func NewAggregator(store Store) *Aggregator {
	return NewAggregatorWithClock(store, time.Now)
}

// NewAggregatorWithClock is a test hook for deterministic timestamps.
func NewAggregatorWithClock(store Store, now func() time.Time) *Aggregator {
	return &Aggregator{store: store, now: now}
}

// Profile loads the stored profile, creating and persisting a fresh zeroed one
// on first use.
func (a *Aggregator) Profile(ctx context.Context) (domain.Profile, error) {
	var p domain.Profile
	ok, err := a.store.Get(ctx, KeyProfile, &p)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	if ok {
		a.ensureMaps(&p)
		return p, nil
	}

	p = a.newProfile()
	if err := a.store.Set(ctx, KeyProfile, p); err != nil {
		return domain.Profile{}, fmt.Errorf("init profile: %w", err)
	}
	return p, nil
}

func (a *Aggregator) newProfile() domain.Profile {
	now := a.now()
	return domain.Profile{
		Username:     "student-" + uuid.NewString()[:8],
		Level:        1,
		Achievements: []string{},
		ByChapter:    make(map[string]domain.ChapterStats),
		ByDifficulty: make(map[domain.Difficulty]int),
		CreatedAt:    now,
		LastActivity: now,
	}
}

func (a *Aggregator) ensureMaps(p *domain.Profile) {
	if p.ByChapter == nil {
		p.ByChapter = make(map[string]domain.ChapterStats)
	}
	if p.ByDifficulty == nil {
		p.ByDifficulty = make(map[domain.Difficulty]int)
	}
	if p.Achievements == nil {
		p.Achievements = []string{}
	}
}

// SaveProfile persists a profile mutated elsewhere (achievement unlocks,
// challenge counters).
func (a *Aggregator) SaveProfile(ctx context.Context, p domain.Profile) error {
	return a.store.Set(ctx, KeyProfile, p)
}

// Rename changes the display name while keeping all accumulated progress.
func (a *Aggregator) Rename(ctx context.Context, username string) (domain.Profile, error) {
	p, err := a.Profile(ctx)
	if err != nil {
		return domain.Profile{}, err
	}
	p.Username = username
	if err := a.store.Set(ctx, KeyProfile, p); err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}

// UpdateStats folds a completed quiz result into the profile: cumulative
// counters, rounded average, running best, XP and level, and the per-chapter
// and per-difficulty rollups. Counters never decrease. A result with zero
// questions still counts the quiz but leaves the averages untouched.
func (a *Aggregator) UpdateStats(ctx context.Context, result domain.Result) (domain.Profile, error) {
	p, err := a.Profile(ctx)
	if err != nil {
		return domain.Profile{}, err
	}

	p.QuizzesCompleted++
	p.TotalQuestions += result.TotalQuestions
	p.CorrectAnswers += result.CorrectAnswers
	p.TotalScore += result.Score
	p.TimeSpent += result.Time.Total
	if p.TotalQuestions > 0 {
		p.AverageScore = roundPercent(p.CorrectAnswers, p.TotalQuestions)
	}
	if result.Score > p.BestScore {
		p.BestScore = result.Score
	}

	p.XP += result.Score * 10
	p.Level = levelForXP(p.XP)

	chapter := result.Chapter
	if chapter == "" {
		chapter = domain.CategoryAll
	}
	ch := p.ByChapter[chapter]
	ch.Quizzes++
	ch.Questions += result.TotalQuestions
	ch.Correct += result.CorrectAnswers
	if ch.Questions > 0 {
		ch.Score = roundPercent(ch.Correct, ch.Questions)
	}
	p.ByChapter[chapter] = ch

	for diff, stats := range result.Difficulties {
		p.ByDifficulty[diff] += stats.Total
	}

	p.LastActivity = a.now()

	if err := a.store.Set(ctx, KeyProfile, p); err != nil {
		return domain.Profile{}, fmt.Errorf("persist profile: %w", err)
	}
	return p, nil
}

func roundPercent(part, whole int) int {
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// levelForXP derives the gamification tier. Monotonic: XP only grows, so the
// level never drops.
func levelForXP(xp int) int {
	return int(math.Floor(1 + math.Sqrt(float64(xp)/100)))
}

// HistoryEntry is one archived quiz result.
type HistoryEntry struct {
	ID     string        `json:"id"`
	Date   time.Time     `json:"date"`
	Result domain.Result `json:"result"`
}

// AddToHistory prepends the result to the quiz history, keeping the newest 50.
func (a *Aggregator) AddToHistory(ctx context.Context, result domain.Result) (HistoryEntry, error) {
	var history []HistoryEntry
	_, _ = a.store.Get(ctx, KeyHistory, &history)

	entry := HistoryEntry{
		ID:     uuid.NewString(),
		Date:   a.now(),
		Result: result,
	}
	history = append([]HistoryEntry{entry}, history...)
	if len(history) > historyLimit {
		history = history[:historyLimit]
	}

	if err := a.store.Set(ctx, KeyHistory, history); err != nil {
		return HistoryEntry{}, fmt.Errorf("persist history: %w", err)
	}
	return entry, nil
}

// History returns the archived results, newest first.
func (a *Aggregator) History(ctx context.Context) ([]HistoryEntry, error) {
	var history []HistoryEntry
	if _, err := a.store.Get(ctx, KeyHistory, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// Settings returns the stored preferences, falling back to defaults.
func (a *Aggregator) Settings(ctx context.Context) (domain.Settings, error) {
	s := domain.DefaultSettings()
	if _, err := a.store.Get(ctx, KeySettings, &s); err != nil {
		return domain.DefaultSettings(), err
	}
	return s, nil
}

// UpdateSettings persists the full preferences blob.
func (a *Aggregator) UpdateSettings(ctx context.Context, s domain.Settings) error {
	return a.store.Set(ctx, KeySettings, s)
}

// SessionSnapshot is an in-progress attempt saved for a later resume prompt.
type SessionSnapshot struct {
	Config      domain.SessionConfig  `json:"config"`
	QuestionIDs []string              `json:"questionIds"`
	Cursor      int                   `json:"cursor"`
	Answers     []domain.AnswerRecord `json:"answers"`
	SavedAt     time.Time             `json:"savedAt"`
}

// SaveSession stores the snapshot of an abandoned-but-resumable attempt.
func (a *Aggregator) SaveSession(ctx context.Context, snap SessionSnapshot) error {
	snap.SavedAt = a.now()
	return a.store.Set(ctx, KeyCurrentQuiz, snap)
}

// LoadSession returns the stored snapshot, if any.
func (a *Aggregator) LoadSession(ctx context.Context) (SessionSnapshot, bool, error) {
	var snap SessionSnapshot
	ok, err := a.store.Get(ctx, KeyCurrentQuiz, &snap)
	return snap, ok, err
}

// ClearSession discards the stored snapshot.
func (a *Aggregator) ClearSession(ctx context.Context) error {
	return a.store.Remove(ctx, KeyCurrentQuiz)
}
