package app

import (
	"testing"

	"quantum-quiz-service/internal/domain"
)

func achievementIDs(list []domain.Achievement) []string {
	ids := make([]string, 0, len(list))
	for _, a := range list {
		ids = append(ids, a.ID)
	}
	return ids
}

func TestFirstQuizAndSpeedUnlock(t *testing.T) {
	profile := domain.Profile{QuizzesCompleted: 1}
	result := domain.Result{Score: 60, Time: domain.TimeStats{Total: 3 * 60 * 1000}}

	unlocked := CheckAchievements(&profile, &result)

	got := map[string]bool{}
	for _, id := range achievementIDs(unlocked) {
		got[id] = true
	}
	if !got["first_quiz"] || !got["speed"] {
		t.Fatalf("expected first_quiz and speed, got %v", achievementIDs(unlocked))
	}
	if got["perfect_score"] {
		t.Fatal("perfect_score should need a 100% result")
	}
	if len(profile.Achievements) != len(unlocked) {
		t.Fatalf("profile not updated: %v", profile.Achievements)
	}
}

func TestPerfectScoreNeedsResult(t *testing.T) {
	profile := domain.Profile{ChallengesCreated: 1}

	unlocked := CheckAchievements(&profile, nil)
	for _, a := range unlocked {
		if a.ID == "perfect_score" || a.ID == "speed" {
			t.Fatalf("result-gated achievement %s unlocked without a result", a.ID)
		}
	}

	found := false
	for _, a := range unlocked {
		if a.ID == "challenger" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected challenger unlock, got %v", achievementIDs(unlocked))
	}
}

func TestAchievementsMonotonic(t *testing.T) {
	profile := domain.Profile{QuizzesCompleted: 1}
	result := domain.Result{Score: 100, TotalQuestions: 5, Time: domain.TimeStats{Total: 60 * 1000}}

	first := CheckAchievements(&profile, &result)
	if len(first) == 0 {
		t.Fatal("expected unlocks on first pass")
	}
	second := CheckAchievements(&profile, &result)
	if len(second) != 0 {
		t.Fatalf("expected no re-unlocks, got %v", achievementIDs(second))
	}
}

func TestProgressAchievements(t *testing.T) {
	profile := domain.Profile{
		QuizzesCompleted: 10,
		AverageScore:     85,
		ChallengesWon:    3,
		Level:            10,
	}

	unlocked := CheckAchievements(&profile, nil)
	got := map[string]bool{}
	for _, id := range achievementIDs(unlocked) {
		got[id] = true
	}
	for _, want := range []string{"first_quiz", "marathon", "master", "champion", "level_10"} {
		if !got[want] {
			t.Fatalf("expected %s unlocked, got %v", want, achievementIDs(unlocked))
		}
	}
}

func TestAllAchievementsStatuses(t *testing.T) {
	profile := domain.Profile{Achievements: []string{"first_quiz"}}

	statuses := AllAchievements(profile)
	if len(statuses) != len(achievementRules) {
		t.Fatalf("expected %d statuses, got %d", len(achievementRules), len(statuses))
	}
	for _, s := range statuses {
		want := s.ID == "first_quiz"
		if s.Unlocked != want {
			t.Fatalf("achievement %s: unexpected unlock state %v", s.ID, s.Unlocked)
		}
	}
}
