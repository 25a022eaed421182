package app

import "context"

// Store abstracts the persistent key-value store shared by the aggregator and
// the arena. Values are JSON-serialized by the implementation; a corrupt or
// missing value surfaces as absent, never as a decode error leaking into the
// core.
type Store interface {
	// Get decodes the value under key into dest and reports whether it existed.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set persists value under key, replacing any previous value.
	Set(ctx context.Context, key string, value any) error
	// Remove deletes the value under key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// Namespaced storage keys. Every durable blob the service owns lives under one
// of these.
const (
	KeyProfile          = "profile"
	KeyHistory          = "history"
	KeyLeaderboard      = "leaderboard"
	KeyChallenges       = "challenges"
	KeySettings         = "settings"
	KeyCurrentQuiz      = "current_quiz"
	KeyRecentQuestions  = "recent_questions"
	KeyPendingChallenge = "pending_challenge"
)
