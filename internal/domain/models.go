package domain

import "time"

// QuestionType tags the interaction style of a question. The tag is set at
// authoring time; see Normalize for the legacy structural fallback.
type QuestionType string

const (
	TypeQCM       QuestionType = "qcm"
	TypeFlashcard QuestionType = "flashcard"
	TypeHotspot   QuestionType = "hotspot"
	TypeDragDrop  QuestionType = "drag_drop"
)

// Difficulty levels form a small fixed enumeration.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Mode selects which question types a session admits.
type Mode string

const (
	ModeMixed     Mode = "mixed"
	ModeQCM       Mode = "qcm"
	ModeFlashcard Mode = "flashcard"
)

// CategoryAll is the wildcard admitting every category.
const CategoryAll = "all"

// Hotspot is a clickable zone on a diagram question.
type Hotspot struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// Question is an immutable record from the question bank. The engine never
// mutates questions; sessions reference them by value.
type Question struct {
	ID           string       `json:"id"`
	Category     string       `json:"category"`
	Difficulty   Difficulty   `json:"difficulty"`
	Type         QuestionType `json:"type"`
	Prompt       string       `json:"prompt"`
	Options      []string     `json:"options,omitempty"`
	CorrectIndex int          `json:"correct_index"`
	Explanation  string       `json:"explanation,omitempty"`
	Formula      string       `json:"formula,omitempty"`

	// Flashcard faces.
	Front string `json:"front,omitempty"`
	Back  string `json:"back,omitempty"`

	// Legacy structural fields, consulted only by Normalize.
	Hotspots       []Hotspot `json:"hotspots,omitempty"`
	CorrectHotspot string    `json:"correct_hotspot,omitempty"`
	Draggables     []string  `json:"draggables,omitempty"`
}

// Bank is a finite, pre-loaded question pool.
type Bank struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// SessionConfig is supplied by the caller at session start and is read-only
// for the engine's lifetime.
type SessionConfig struct {
	NumQuestions int          `json:"numQuestions"`
	Mode         Mode         `json:"mode"`
	Categories   []string     `json:"categories"`
	Difficulties []Difficulty `json:"difficulties"`
	EnableTimer  bool         `json:"enableTimer"`
	EnableSounds bool         `json:"enableSounds"`
}

// DefaultSessionConfig returns the engine defaults a caller config is merged over.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		NumQuestions: 30,
		Mode:         ModeMixed,
		Categories:   []string{CategoryAll},
		Difficulties: []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard},
		EnableTimer:  false,
		EnableSounds: true,
	}
}

// AnswerRecord captures one submission. Immutable once appended.
type AnswerRecord struct {
	QuestionID    string       `json:"questionId"`
	Type          QuestionType `json:"type"`
	SelectedIndex int          `json:"selectedIndex"`
	Correct       bool         `json:"correct"`
	Mastered      bool         `json:"mastered"`
	TimeSpent     int64        `json:"timeSpentMs"`
	Category      string       `json:"category"`
	Difficulty    Difficulty   `json:"difficulty"`
}

// QCMFeedback is returned to the caller after a multiple-choice submission.
type QCMFeedback struct {
	Correct      bool   `json:"correct"`
	CorrectIndex int    `json:"correctIndex"`
	Explanation  string `json:"explanation,omitempty"`
	Formula      string `json:"formula,omitempty"`
}

// CategoryStats is a per-category tally inside a result.
type CategoryStats struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
}

// QCMStats summarizes the multiple-choice share of a session.
type QCMStats struct {
	Total     int `json:"total"`
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
}

// FlashcardStats summarizes the flashcard share of a session.
type FlashcardStats struct {
	Total    int `json:"total"`
	Mastered int `json:"mastered"`
	ToReview int `json:"toReview"`
}

// TimeStats carries aggregate and mean elapsed time, in milliseconds.
type TimeStats struct {
	Total   int64 `json:"totalMs"`
	Average int64 `json:"averageMs"`
}

// Result is derived once from the answer sequence and never mutated afterward.
type Result struct {
	Score            int                          `json:"score"`
	TotalQuestions   int                          `json:"totalQuestions"`
	CorrectAnswers   int                          `json:"correctAnswers"`
	IncorrectAnswers int                          `json:"incorrectAnswers"`
	QCM              QCMStats                     `json:"qcmStats"`
	Flashcards       FlashcardStats               `json:"flashcardStats"`
	Time             TimeStats                    `json:"timeStats"`
	Categories       map[string]CategoryStats     `json:"categories"`
	Difficulties     map[Difficulty]CategoryStats `json:"difficulties"`
	Answers          []AnswerRecord               `json:"answers"`
	Chapter          string                       `json:"chapter"`
	Mode             Mode                         `json:"mode"`
	CompletedAt      time.Time                    `json:"completedAt"`
}

// ChapterStats is the durable per-chapter rollup inside a profile.
type ChapterStats struct {
	Quizzes   int `json:"quizzes"`
	Questions int `json:"questions"`
	Correct   int `json:"correct"`
	Score     int `json:"score"`
}

// Profile is the durable per-store user record. Counters only ever grow.
type Profile struct {
	Username          string                  `json:"username"`
	QuizzesCompleted  int                     `json:"quizzesCompleted"`
	TotalQuestions    int                     `json:"totalQuestions"`
	CorrectAnswers    int                     `json:"correctAnswers"`
	TotalScore        int                     `json:"totalScore"`
	AverageScore      int                     `json:"averageScore"`
	BestScore         int                     `json:"bestScore"`
	XP                int                     `json:"xp"`
	Level             int                     `json:"level"`
	TimeSpent         int64                   `json:"timeSpentMs"`
	Achievements      []string                `json:"achievements"`
	ByChapter         map[string]ChapterStats `json:"byChapter"`
	ByDifficulty      map[Difficulty]int      `json:"byDifficulty"`
	ChallengesCreated int                     `json:"challengesCreated"`
	ChallengesWon     int                     `json:"challengesWon"`
	CreatedAt         time.Time               `json:"createdAt"`
	LastActivity      time.Time               `json:"lastActivity"`
}

// LeaderboardEntry is one ranked result.
type LeaderboardEntry struct {
	Username      string    `json:"username"`
	Score         int       `json:"score"`
	Chapter       string    `json:"chapter"`
	QuestionCount int       `json:"questionCount"`
	TimeSpent     int64     `json:"timeSpentMs"`
	Mode          Mode      `json:"mode"`
	Date          time.Time `json:"date"`
}

// LeaderboardFilters narrows TopScores by equality on chapter and mode.
type LeaderboardFilters struct {
	Chapter string
	Mode    Mode
}

// ChallengeStatus is open until a participant completes the challenge.
type ChallengeStatus string

const (
	ChallengeOpen      ChallengeStatus = "open"
	ChallengeCompleted ChallengeStatus = "completed"
)

// Participant is one completed run inside a challenge.
type Participant struct {
	Username    string    `json:"username"`
	Score       int       `json:"score"`
	CompletedAt time.Time `json:"completedAt"`
}

// ChallengeConfig is the fixed quiz configuration shared by all participants.
type ChallengeConfig struct {
	Chapter       string       `json:"chapter"`
	QuestionCount int          `json:"questionCount"`
	Difficulties  []Difficulty `json:"difficulties"`
	Mode          Mode         `json:"mode"`
}

// Challenge is an asynchronous score-comparison contest.
type Challenge struct {
	ID              string          `json:"id"`
	CreatorUsername string          `json:"creatorUsername"`
	Config          ChallengeConfig `json:"config"`
	CreatedAt       time.Time       `json:"createdAt"`
	ExpiresAt       time.Time       `json:"expiresAt"`
	Participants    []Participant   `json:"participants"`
	Status          ChallengeStatus `json:"status"`
}

// ChallengeOutcome reports the winner after completion.
type ChallengeOutcome struct {
	Challenge    Challenge   `json:"challenge"`
	Winner       Participant `json:"winner"`
	IsUserWinner bool        `json:"isUserWinner"`
}

// Achievement is display metadata for an unlockable badge.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Settings is the persisted UI preferences blob.
type Settings struct {
	Theme        string `json:"theme"`
	SoundEnabled bool   `json:"soundEnabled"`
	ShowTimer    bool   `json:"showTimer"`
	ShowHints    bool   `json:"showHints"`
}

// DefaultSettings returns the preferences used before the user changes anything.
func DefaultSettings() Settings {
	return Settings{Theme: "dark", SoundEnabled: true, ShowTimer: true, ShowHints: true}
}

// ProfileComparison contrasts the local profile with another user's leaderboard
// footprint.
type ProfileComparison struct {
	Mine           Profile `json:"mine"`
	OtherUsername  string  `json:"otherUsername"`
	OtherQuizzes   int     `json:"otherQuizzes"`
	OtherAverage   int     `json:"otherAverage"`
	OtherBest      int     `json:"otherBest"`
	QuizzesDelta   int     `json:"quizzesDelta"`
	AverageDelta   int     `json:"averageDelta"`
	BestScoreDelta int     `json:"bestScoreDelta"`
}
