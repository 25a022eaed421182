package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quantum-quiz-service/internal/app"
	"quantum-quiz-service/internal/config"
	"quantum-quiz-service/internal/domain"
	"quantum-quiz-service/internal/infra/memory"
	pgloader "quantum-quiz-service/internal/infra/postgres"
	redisinfra "quantum-quiz-service/internal/infra/redis"
	transport "quantum-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	bankTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var banks app.BankRepository
	switch {
	case pool != nil && redisClient != nil:
		banks = redisinfra.NewBankRepository(redisClient, pgloader.NewBankLoader(pool), bankTTL)
	case pool != nil:
		banks = memory.NewBankRepository(pgloader.NewBankLoader(pool), bankTTL)
	default:
		banks = memory.NewBankRepository(memory.NewStaticBankLoader(sampleBanks()), bankTTL)
	}

	bankID := cfg.Quiz.BankID
	if bankID == "" {
		bankID = "quantum-physics"
	}

	var stores transport.StoreProvider
	if redisClient != nil {
		prefix := cfg.Redis.Prefix
		if prefix == "" {
			prefix = "quiz"
		}
		root := redisinfra.NewStore(redisClient, prefix)
		stores = func(userID string) app.Store {
			return root.Namespace("user:" + userID)
		}
	} else {
		root := memory.NewStore()
		stores = func(userID string) app.Store {
			return root.Namespace("user:" + userID)
		}
	}

	wsHandler := transport.NewWSHandler(banks, stores, bankID)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleBanks provides a minimal bank for running without Postgres.
func sampleBanks() map[string]domain.Bank {
	return map[string]domain.Bank{
		"quantum-physics": {
			ID: "quantum-physics",
			Questions: []domain.Question{
				{
					ID:           "qp-1",
					Type:         domain.TypeQCM,
					Category:     "wave-mechanics",
					Difficulty:   domain.DifficultyEasy,
					Prompt:       "What does the square of the wave function's magnitude represent?",
					Options:      []string{"Energy density", "Probability density", "Momentum", "Phase velocity"},
					CorrectIndex: 1,
					Explanation:  "The Born rule: |psi|^2 gives the probability density of finding the particle.",
				},
				{
					ID:           "qp-2",
					Type:         domain.TypeQCM,
					Category:     "quantum-states",
					Difficulty:   domain.DifficultyMedium,
					Prompt:       "Two fermions cannot occupy the same quantum state. Which principle states this?",
					Options:      []string{"Heisenberg uncertainty", "Pauli exclusion", "Correspondence", "Complementarity"},
					CorrectIndex: 1,
				},
				{
					ID:           "qp-3",
					Type:         domain.TypeQCM,
					Category:     "measurement",
					Difficulty:   domain.DifficultyHard,
					Prompt:       "Immediately after measuring an observable, the system's state is:",
					Options:      []string{"Unchanged", "A superposition of all eigenstates", "The eigenstate of the measured eigenvalue", "Undefined"},
					CorrectIndex: 2,
					Formula:      "P(a) = |<a|psi>|^2",
				},
				{
					ID:         "qp-4",
					Type:       domain.TypeFlashcard,
					Category:   "wave-mechanics",
					Difficulty: domain.DifficultyEasy,
					Front:      "de Broglie wavelength",
					Back:       "lambda = h / p",
				},
				{
					ID:         "qp-5",
					Type:       domain.TypeFlashcard,
					Category:   "quantum-states",
					Difficulty: domain.DifficultyMedium,
					Front:      "Commutator of position and momentum",
					Back:       "[x, p] = i*hbar",
				},
			},
		},
	}
}
