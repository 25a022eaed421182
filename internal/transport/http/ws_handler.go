package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"quantum-quiz-service/internal/app"
	"quantum-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

// StoreProvider yields the namespaced Store holding one user's durable state.
type StoreProvider func(userID string) app.Store

// WSHandler drives a quiz session over a websocket: one engine per
// connection, with the post-quiz orchestration (stats, leaderboard,
// achievements, challenge completion) running when the session finishes.
type WSHandler struct {
	banks    app.BankRepository
	stores   StoreProvider
	bankID   string
	upgrader websocket.Upgrader
}

func NewWSHandler(banks app.BankRepository, stores StoreProvider, bankID string) *WSHandler {
	return &WSHandler{
		banks:  banks,
		stores: stores,
		bankID: bankID,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type startPayload struct {
	Config domain.SessionConfig `json:"config"`
}

type answerPayload struct {
	SelectedIndex int `json:"selectedIndex"`
}

type flashcardPayload struct {
	Mastered bool `json:"mastered"`
}

type challengePayload struct {
	ChallengeID string `json:"challengeId"`
}

type createChallengePayload struct {
	Config domain.ChallengeConfig `json:"config"`
}

type sessionPayload struct {
	Length   int     `json:"length"`
	Progress float64 `json:"progress"`
}

// questionView is the client-facing question shape. The correct index and
// explanation stay server-side until feedback.
type questionView struct {
	ID         string              `json:"id"`
	Index      int                 `json:"index"`
	Total      int                 `json:"total"`
	Type       domain.QuestionType `json:"type"`
	Category   string              `json:"category"`
	Difficulty domain.Difficulty   `json:"difficulty"`
	Prompt     string              `json:"prompt,omitempty"`
	Options    []string            `json:"options,omitempty"`
	Front      string              `json:"front,omitempty"`
	Back       string              `json:"back,omitempty"`
	Progress   float64             `json:"progress"`
}

type finishPayload struct {
	Results  domain.Result        `json:"results"`
	Profile  domain.Profile       `json:"profile"`
	Unlocked []domain.Achievement `json:"unlocked,omitempty"`
	Rank     int                  `json:"rank,omitempty"`
}

// session bundles the per-connection state.
type session struct {
	engine      *app.Engine
	aggregator  *app.Aggregator
	arena       *app.Arena
	length      int
	challengeID string
}

// ServeWS upgrades the request and drives the session protocol.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	store := h.stores(userID)
	sess := &session{
		aggregator: app.NewAggregator(store),
		arena:      app.NewArena(store),
	}

	bank, err := h.banks.GetBank(ctx, h.bankID)
	if err != nil {
		writeError(conn, err)
		return
	}
	sess.engine = app.NewEngine(bank.Questions)
	sess.engine.UseRecentTracker(app.NewRecentTracker(store))

	profile, err := sess.aggregator.Profile(ctx)
	if err != nil {
		writeError(conn, err)
		return
	}
	writeMessage(conn, "profile", profile)

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if err := h.dispatch(ctx, conn, sess, msg); err != nil {
			writeError(conn, err)
		}
	}
}

func (h *WSHandler) dispatch(ctx context.Context, conn *websocket.Conn, sess *session, msg inboundMessage) error {
	switch msg.Type {
	case "start":
		var p startPayload
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				return err
			}
		}
		return h.start(ctx, conn, sess, p.Config)

	case "answer":
		var p answerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		feedback, err := sess.engine.SubmitQCM(p.SelectedIndex)
		if err != nil {
			return err
		}
		writeMessage(conn, "feedback", feedback)
		return nil

	case "flashcard":
		var p flashcardPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		if err := sess.engine.SubmitFlashcard(p.Mastered); err != nil {
			return err
		}
		writeMessage(conn, "feedback", p)
		return nil

	case "next":
		if _, ok := sess.engine.Next(); !ok {
			return h.finish(ctx, conn, sess)
		}
		h.sendQuestion(conn, sess)
		return nil

	case "finish":
		return h.finish(ctx, conn, sess)

	case "save":
		return sess.aggregator.SaveSession(ctx, sess.engine.Snapshot())

	case "leaderboard":
		board, err := sess.arena.TopScores(ctx, 10, domain.LeaderboardFilters{})
		if err != nil {
			return err
		}
		writeMessage(conn, "leaderboard", board)
		return nil

	case "achievements":
		profile, err := sess.aggregator.Profile(ctx)
		if err != nil {
			return err
		}
		writeMessage(conn, "achievements", app.AllAchievements(profile))
		return nil

	case "challenges":
		challenges, err := sess.arena.Challenges(ctx)
		if err != nil {
			return err
		}
		writeMessage(conn, "challenges", challenges)
		return nil

	case "createChallenge":
		var p createChallengePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		return h.createChallenge(ctx, conn, sess, p.Config)

	case "acceptChallenge":
		var p challengePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		challenge, err := sess.arena.AcceptChallenge(ctx, p.ChallengeID)
		if err != nil {
			return err
		}
		writeMessage(conn, "challengeAccepted", challenge)
		return nil

	default:
		return errors.New("unknown message type: " + msg.Type)
	}
}

// start initializes a session. An accepted challenge takes precedence over the
// supplied config so every participant plays the same quiz shape.
func (h *WSHandler) start(ctx context.Context, conn *websocket.Conn, sess *session, cfg domain.SessionConfig) error {
	sess.challengeID = ""
	if pending, ok, err := sess.arena.Pending(ctx); err == nil && ok {
		cfg = pending.Config
		sess.challengeID = pending.ChallengeID
		_ = sess.arena.ClearPending(ctx)
	}

	sess.length = sess.engine.Initialize(ctx, cfg)
	writeMessage(conn, "session", sessionPayload{Length: sess.length, Progress: sess.engine.Progress()})
	if sess.length > 0 {
		h.sendQuestion(conn, sess)
	}
	return nil
}

func (h *WSHandler) sendQuestion(conn *websocket.Conn, sess *session) {
	q, ok := sess.engine.Current()
	if !ok {
		return
	}
	sess.engine.StartQuestion()
	writeMessage(conn, "question", questionView{
		ID:         q.ID,
		Index:      sess.engine.Cursor() + 1,
		Total:      sess.length,
		Type:       q.Type,
		Category:   q.Category,
		Difficulty: q.Difficulty,
		Prompt:     q.Prompt,
		Options:    q.Options,
		Front:      q.Front,
		Back:       q.Back,
		Progress:   sess.engine.Progress(),
	})
}

// finish runs the post-quiz orchestration: fold the result into the profile,
// rank it, settle a pending challenge, evaluate achievements, archive history.
func (h *WSHandler) finish(ctx context.Context, conn *websocket.Conn, sess *session) error {
	results := sess.engine.Results()

	profile, err := sess.aggregator.UpdateStats(ctx, results)
	if err != nil {
		return err
	}

	if _, err := sess.arena.Add(ctx, domain.LeaderboardEntry{
		Username:      profile.Username,
		Score:         results.Score,
		Chapter:       results.Chapter,
		QuestionCount: results.TotalQuestions,
		TimeSpent:     results.Time.Total,
		Mode:          results.Mode,
	}); err != nil {
		return err
	}

	if sess.challengeID != "" {
		outcome, err := sess.arena.CompleteChallenge(ctx, sess.challengeID, profile.Username, results.Score)
		if err == nil {
			if outcome.IsUserWinner {
				profile.ChallengesWon++
			}
			writeMessage(conn, "challengeResult", outcome)
		} else if !errors.Is(err, domain.ErrChallengeNotFound) {
			return err
		}
		sess.challengeID = ""
	}

	unlocked := app.CheckAchievements(&profile, &results)
	if err := sess.aggregator.SaveProfile(ctx, profile); err != nil {
		return err
	}
	if _, err := sess.aggregator.AddToHistory(ctx, results); err != nil {
		return err
	}
	_ = sess.aggregator.ClearSession(ctx)

	rank, _, err := sess.arena.UserRank(ctx, profile.Username)
	if err != nil {
		return err
	}

	writeMessage(conn, "results", finishPayload{
		Results:  results,
		Profile:  profile,
		Unlocked: unlocked,
		Rank:     rank,
	})
	return nil
}

func (h *WSHandler) createChallenge(ctx context.Context, conn *websocket.Conn, sess *session, cfg domain.ChallengeConfig) error {
	profile, err := sess.aggregator.Profile(ctx)
	if err != nil {
		return err
	}
	challenge, err := sess.arena.CreateChallenge(ctx, profile.Username, profile.BestScore, cfg)
	if err != nil {
		return err
	}

	profile.ChallengesCreated++
	unlocked := app.CheckAchievements(&profile, nil)
	if err := sess.aggregator.SaveProfile(ctx, profile); err != nil {
		return err
	}

	writeMessage(conn, "challengeCreated", challenge)
	if len(unlocked) > 0 {
		writeMessage(conn, "unlocked", unlocked)
	}
	return nil
}

func writeMessage[T any](conn *websocket.Conn, typ string, payload T) {
	if err := conn.WriteJSON(outboundMessage[T]{Type: typ, Payload: payload}); err != nil {
		log.Printf("ws write error: %v", err)
	}
}

func writeError(conn *websocket.Conn, err error) {
	writeMessage(conn, "error", errorPayload{Message: err.Error()})
}
