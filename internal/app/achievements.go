package app

import "quantum-quiz-service/internal/domain"

type achievementRule struct {
	domain.Achievement
	// unlocked evaluates against the profile and, when a quiz just finished,
	// its result. Rules must be pure.
	unlocked func(p domain.Profile, r *domain.Result) bool
}

// achievementRules is the fixed, ordered unlock list. Order only matters for
// display; the already-unlocked short-circuit makes evaluation monotonic.
var achievementRules = []achievementRule{
	{
		Achievement: domain.Achievement{ID: "first_quiz", Name: "First Steps", Description: "Complete your first quiz", Icon: "🎯"},
		unlocked:    func(p domain.Profile, _ *domain.Result) bool { return p.QuizzesCompleted >= 1 },
	},
	{
		Achievement: domain.Achievement{ID: "perfect_score", Name: "Perfection", Description: "Score 100% on a quiz", Icon: "⭐"},
		unlocked:    func(_ domain.Profile, r *domain.Result) bool { return r != nil && r.Score == 100 },
	},
	{
		Achievement: domain.Achievement{ID: "marathon", Name: "Marathon", Description: "Complete 10 quizzes", Icon: "🏃"},
		unlocked:    func(p domain.Profile, _ *domain.Result) bool { return p.QuizzesCompleted >= 10 },
	},
	{
		Achievement: domain.Achievement{ID: "master", Name: "Quantum Master", Description: "Hold an 80%+ average over 5 quizzes", Icon: "🎓"},
		unlocked:    func(p domain.Profile, _ *domain.Result) bool { return p.AverageScore >= 80 && p.QuizzesCompleted >= 5 },
	},
	{
		Achievement: domain.Achievement{ID: "speed", Name: "Lightning", Description: "Finish a quiz in under 5 minutes", Icon: "⚡"},
		unlocked:    func(_ domain.Profile, r *domain.Result) bool { return r != nil && r.Time.Total < 5*60*1000 },
	},
	{
		Achievement: domain.Achievement{ID: "challenger", Name: "Challenger", Description: "Create your first challenge", Icon: "🎲"},
		unlocked:    func(p domain.Profile, _ *domain.Result) bool { return p.ChallengesCreated >= 1 },
	},
	{
		Achievement: domain.Achievement{ID: "champion", Name: "Champion", Description: "Win 3 challenges", Icon: "🏆"},
		unlocked:    func(p domain.Profile, _ *domain.Result) bool { return p.ChallengesWon >= 3 },
	},
	{
		Achievement: domain.Achievement{ID: "level_10", Name: "Level 10", Description: "Reach level 10", Icon: "💯"},
		unlocked:    func(p domain.Profile, _ *domain.Result) bool { return p.Level >= 10 },
	},
}

// CheckAchievements evaluates the rule list against the profile and the latest
// result (nil outside a quiz-completion flow), appends newly satisfied IDs to
// the profile, and returns their definitions. An achievement already on the
// profile is never re-evaluated or removed.
func CheckAchievements(p *domain.Profile, r *domain.Result) []domain.Achievement {
	owned := make(map[string]struct{}, len(p.Achievements))
	for _, id := range p.Achievements {
		owned[id] = struct{}{}
	}

	var unlocked []domain.Achievement
	for _, rule := range achievementRules {
		if _, ok := owned[rule.ID]; ok {
			continue
		}
		if rule.unlocked(*p, r) {
			p.Achievements = append(p.Achievements, rule.ID)
			unlocked = append(unlocked, rule.Achievement)
		}
	}
	return unlocked
}

// AchievementStatus pairs a definition with its unlock state for display.
type AchievementStatus struct {
	domain.Achievement
	Unlocked bool `json:"unlocked"`
}

// AllAchievements lists every achievement with the profile's unlock state.
func AllAchievements(p domain.Profile) []AchievementStatus {
	owned := make(map[string]struct{}, len(p.Achievements))
	for _, id := range p.Achievements {
		owned[id] = struct{}{}
	}
	out := make([]AchievementStatus, 0, len(achievementRules))
	for _, rule := range achievementRules {
		_, ok := owned[rule.ID]
		out = append(out, AchievementStatus{Achievement: rule.Achievement, Unlocked: ok})
	}
	return out
}
