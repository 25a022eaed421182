package app

import "context"

const (
	recentKeepLimit   = 100
	recentWindowLimit = 60
)

// RecentTracker persists the IDs of recently served questions so consecutive
// sessions lean toward unseen material. Roughly the last five sessions are
// kept; the last three are consulted.
type RecentTracker struct {
	store Store
}

func NewRecentTracker(store Store) *RecentTracker {
	return &RecentTracker{store: store}
}

// Recent returns the set of question IDs considered recently seen. Storage
// failures degrade to an empty set.
func (t *RecentTracker) Recent(ctx context.Context) map[string]struct{} {
	var ids []string
	if ok, err := t.store.Get(ctx, KeyRecentQuestions, &ids); err != nil || !ok {
		return nil
	}
	if len(ids) > recentWindowLimit {
		ids = ids[:recentWindowLimit]
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return seen
}

// Record prepends the served IDs to the recency list, trimming to the keep
// limit.
func (t *RecentTracker) Record(ctx context.Context, ids []string) error {
	var prior []string
	_, _ = t.store.Get(ctx, KeyRecentQuestions, &prior)

	updated := append(append([]string{}, ids...), prior...)
	if len(updated) > recentKeepLimit {
		updated = updated[:recentKeepLimit]
	}
	return t.store.Set(ctx, KeyRecentQuestions, updated)
}
