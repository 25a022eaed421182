package app

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"quantum-quiz-service/internal/domain"
	"github.com/google/uuid"
)

const (
	leaderboardLimit = 100
	challengeTTL     = 7 * 24 * time.Hour
)

// Arena keeps the ranked score list and the asynchronous challenge records,
// both layered on the same Store.
type Arena struct {
	store Store
	now   func() time.Time
}

func NewArena(store Store) *Arena {
	return NewArenaWithClock(store, time.Now)
}

// NewArenaWithClock is a test hook for deterministic timestamps.
func NewArenaWithClock(store Store, now func() time.Time) *Arena {
	return &Arena{store: store, now: now}
}

// Add inserts a leaderboard entry, re-sorts descending by score, and truncates
// to the top 100. Equal scores keep insertion order (stable sort).
func (a *Arena) Add(ctx context.Context, entry domain.LeaderboardEntry) ([]domain.LeaderboardEntry, error) {
	board, err := a.Leaderboard(ctx)
	if err != nil {
		return nil, err
	}

	if entry.Date.IsZero() {
		entry.Date = a.now()
	}
	board = append(board, entry)

	sort.SliceStable(board, func(i, j int) bool {
		return board[i].Score > board[j].Score
	})
	if len(board) > leaderboardLimit {
		board = board[:leaderboardLimit]
	}

	if err := a.store.Set(ctx, KeyLeaderboard, board); err != nil {
		return nil, fmt.Errorf("persist leaderboard: %w", err)
	}
	return board, nil
}

// Leaderboard returns the full ranked list, best first.
func (a *Arena) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	var board []domain.LeaderboardEntry
	if _, err := a.store.Get(ctx, KeyLeaderboard, &board); err != nil {
		return nil, err
	}
	return board, nil
}

// TopScores returns up to limit entries after applying the optional filters,
// preserving score-descending order.
func (a *Arena) TopScores(ctx context.Context, limit int, filters domain.LeaderboardFilters) ([]domain.LeaderboardEntry, error) {
	board, err := a.Leaderboard(ctx)
	if err != nil {
		return nil, err
	}

	filtered := board[:0:0]
	for _, entry := range board {
		if filters.Chapter != "" && entry.Chapter != filters.Chapter {
			continue
		}
		if filters.Mode != "" && entry.Mode != filters.Mode {
			continue
		}
		filtered = append(filtered, entry)
	}
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

// UserRank returns the 1-based position of the user's highest entry. The
// second return is false when the user has no entry at all.
func (a *Arena) UserRank(ctx context.Context, username string) (int, bool, error) {
	board, err := a.Leaderboard(ctx)
	if err != nil {
		return 0, false, err
	}
	for i, entry := range board {
		if entry.Username == username {
			return i + 1, true, nil
		}
	}
	return 0, false, nil
}

// CompareWith contrasts the given profile with another user's leaderboard
// footprint. The second return is false when the other user has no entries.
func (a *Arena) CompareWith(ctx context.Context, mine domain.Profile, otherUsername string) (domain.ProfileComparison, bool, error) {
	board, err := a.Leaderboard(ctx)
	if err != nil {
		return domain.ProfileComparison{}, false, err
	}

	var sum, best, count int
	for _, entry := range board {
		if entry.Username != otherUsername {
			continue
		}
		count++
		sum += entry.Score
		if entry.Score > best {
			best = entry.Score
		}
	}
	if count == 0 {
		return domain.ProfileComparison{}, false, nil
	}

	avg := int(math.Round(float64(sum) / float64(count)))
	return domain.ProfileComparison{
		Mine:           mine,
		OtherUsername:  otherUsername,
		OtherQuizzes:   count,
		OtherAverage:   avg,
		OtherBest:      best,
		QuizzesDelta:   mine.QuizzesCompleted - count,
		AverageDelta:   mine.AverageScore - avg,
		BestScoreDelta: mine.BestScore - best,
	}, true, nil
}

// CreateChallenge opens a contest with a 7-day expiry. The creator's own score
// is recorded as the first participant.
func (a *Arena) CreateChallenge(ctx context.Context, creator string, creatorScore int, cfg domain.ChallengeConfig) (domain.Challenge, error) {
	now := a.now()
	challenge := domain.Challenge{
		ID:              "challenge-" + uuid.NewString(),
		CreatorUsername: creator,
		Config:          cfg,
		CreatedAt:       now,
		ExpiresAt:       now.Add(challengeTTL),
		Participants: []domain.Participant{
			{Username: creator, Score: creatorScore, CompletedAt: now},
		},
		Status: domain.ChallengeOpen,
	}

	raw, err := a.rawChallenges(ctx)
	if err != nil {
		return domain.Challenge{}, err
	}
	raw = append(raw, challenge)
	if err := a.store.Set(ctx, KeyChallenges, raw); err != nil {
		return domain.Challenge{}, fmt.Errorf("persist challenges: %w", err)
	}
	return challenge, nil
}

// Challenges returns the non-expired records. Expired ones stay in raw storage
// until ClearExpired.
func (a *Arena) Challenges(ctx context.Context) ([]domain.Challenge, error) {
	raw, err := a.rawChallenges(ctx)
	if err != nil {
		return nil, err
	}
	now := a.now()
	visible := raw[:0:0]
	for _, c := range raw {
		if c.ExpiresAt.After(now) {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

// Challenge looks up a single visible challenge by ID.
func (a *Arena) Challenge(ctx context.Context, id string) (domain.Challenge, error) {
	visible, err := a.Challenges(ctx)
	if err != nil {
		return domain.Challenge{}, err
	}
	for _, c := range visible {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Challenge{}, domain.ErrChallengeNotFound
}

// PendingChallenge is the accepted challenge config waiting for the next
// session start.
type PendingChallenge struct {
	ChallengeID string               `json:"challengeId"`
	Config      domain.SessionConfig `json:"config"`
}

// AcceptChallenge copies the challenge's quiz configuration into the pending
// slot so the next session runs with the contest settings. The challenge
// record itself is unchanged.
func (a *Arena) AcceptChallenge(ctx context.Context, id string) (domain.Challenge, error) {
	challenge, err := a.Challenge(ctx, id)
	if err != nil {
		return domain.Challenge{}, err
	}

	categories := []string{domain.CategoryAll}
	if challenge.Config.Chapter != "" && challenge.Config.Chapter != domain.CategoryAll {
		categories = []string{challenge.Config.Chapter}
	}
	pending := PendingChallenge{
		ChallengeID: challenge.ID,
		Config: domain.SessionConfig{
			NumQuestions: challenge.Config.QuestionCount,
			Mode:         challenge.Config.Mode,
			Categories:   categories,
			Difficulties: challenge.Config.Difficulties,
		},
	}
	if err := a.store.Set(ctx, KeyPendingChallenge, pending); err != nil {
		return domain.Challenge{}, fmt.Errorf("persist pending challenge: %w", err)
	}
	return challenge, nil
}

// Pending returns the accepted-but-not-yet-played challenge config, if any.
func (a *Arena) Pending(ctx context.Context) (PendingChallenge, bool, error) {
	var pending PendingChallenge
	ok, err := a.store.Get(ctx, KeyPendingChallenge, &pending)
	return pending, ok, err
}

// ClearPending discards the pending challenge slot.
func (a *Arena) ClearPending(ctx context.Context) error {
	return a.store.Remove(ctx, KeyPendingChallenge)
}

// CompleteChallenge appends the participant's score, marks the challenge
// completed, and names the winner: highest score, first occurrence on ties.
func (a *Arena) CompleteChallenge(ctx context.Context, id, username string, score int) (domain.ChallengeOutcome, error) {
	raw, err := a.rawChallenges(ctx)
	if err != nil {
		return domain.ChallengeOutcome{}, err
	}

	now := a.now()
	idx := -1
	for i, c := range raw {
		if c.ID == id && c.ExpiresAt.After(now) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.ChallengeOutcome{}, domain.ErrChallengeNotFound
	}

	raw[idx].Participants = append(raw[idx].Participants, domain.Participant{
		Username:    username,
		Score:       score,
		CompletedAt: now,
	})
	raw[idx].Status = domain.ChallengeCompleted

	if err := a.store.Set(ctx, KeyChallenges, raw); err != nil {
		return domain.ChallengeOutcome{}, fmt.Errorf("persist challenges: %w", err)
	}

	winner := raw[idx].Participants[0]
	for _, p := range raw[idx].Participants[1:] {
		if p.Score > winner.Score {
			winner = p
		}
	}

	return domain.ChallengeOutcome{
		Challenge:    raw[idx],
		Winner:       winner,
		IsUserWinner: winner.Username == username,
	}, nil
}

// ClearExpired drops expired challenge records from raw storage and reports
// how many were removed.
func (a *Arena) ClearExpired(ctx context.Context) (int, error) {
	raw, err := a.rawChallenges(ctx)
	if err != nil {
		return 0, err
	}
	now := a.now()
	kept := raw[:0:0]
	for _, c := range raw {
		if c.ExpiresAt.After(now) {
			kept = append(kept, c)
		}
	}
	removed := len(raw) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := a.store.Set(ctx, KeyChallenges, kept); err != nil {
		return 0, fmt.Errorf("persist challenges: %w", err)
	}
	return removed, nil
}

func (a *Arena) rawChallenges(ctx context.Context) ([]domain.Challenge, error) {
	var raw []domain.Challenge
	if _, err := a.store.Get(ctx, KeyChallenges, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
