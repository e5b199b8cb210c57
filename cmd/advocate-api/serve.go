package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PabloGalante/advocate/internal/adapters/congress"
	httpadapter "github.com/PabloGalante/advocate/internal/adapters/http"
	"github.com/PabloGalante/advocate/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/advocate/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/advocate/internal/adapters/storage/memory"
	sqlitestore "github.com/PabloGalante/advocate/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/advocate/internal/adapters/verification"
	"github.com/PabloGalante/advocate/internal/app/advocacy"
	"github.com/PabloGalante/advocate/internal/app/history"
	"github.com/PabloGalante/advocate/internal/app/wizard"
	"github.com/PabloGalante/advocate/internal/config"
	"github.com/PabloGalante/advocate/internal/domain"
	"github.com/PabloGalante/advocate/internal/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	observability.SetLogger(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()

	// Bills and members: Congress.gov or the built-in directory
	var (
		bills   domain.BillLookup
		members domain.MemberDirectory
	)
	if cfg.UseMockCongress {
		logger.Info("using mock congress directory")
		mock := congress.NewMock()
		bills, members = mock, mock
	} else {
		logger.Info("using congress.gov", zap.String("base_url", cfg.CongressAPIURL), zap.Int("congress", cfg.CurrentCongress))
		client := congress.NewClient(cfg.CongressAPIURL, cfg.CongressAPIKey, cfg.CurrentCongress, cfg.HTTPTimeout)
		bills, members = client, client
	}

	// Choose between mock and Vertex
	var generator domain.MessageGenerator
	if cfg.UseMockLLM {
		logger.Info("using mock message generator")
		generator = llm.NewMockGenerator()
	} else {
		logger.Info("using vertex message generator", zap.String("model", cfg.ModelName))
		vertex, err := llm.NewVertexGenerator(ctx, cfg.GCPProjectID, cfg.GCPLocation, cfg.ModelName)
		if err != nil {
			return fmt.Errorf("initializing Vertex generator: %w", err)
		}
		generator = vertex
	}
	generator = llm.NewRateLimited(generator, cfg.GenerationRPS, cfg.GenerationBurst)

	// Storage: Firestore, SQLite or Memory
	var activities domain.ActivityStore
	switch cfg.StorageBackend {
	case "firestore":
		logger.Info("using firestore storage", zap.String("project", cfg.GCPProjectID))
		fs, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			return fmt.Errorf("initializing Firestore store: %w", err)
		}
		defer fs.Close()
		activities = fs
	case "sqlite":
		logger.Info("using sqlite storage", zap.String("path", cfg.SQLitePath))
		db, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("initializing SQLite store: %w", err)
		}
		defer db.Close()
		activities = db
	default:
		logger.Info("using in-memory storage")
		activities = memstore.NewActivityStore()
	}

	accounts := memstore.NewAccountStore()
	if cfg.Mode == config.ModeLocal {
		if err := seedDemoAccount(ctx, accounts, logger); err != nil {
			return err
		}
	}

	sessions := memstore.NewSessionStore(cfg.SessionTTL)
	go sessions.Janitor(ctx, time.Minute, func(removed int) {
		metrics.ActiveSessions.Set(float64(sessions.CountSessions()))
		if removed > 0 {
			logger.Debug("expired wizard sessions", zap.Int("removed", removed))
		}
	})

	svc := advocacy.NewService(advocacy.Dependencies{
		Bills:      bills,
		Members:    members,
		Verifier:   verification.NewMock(),
		Generator:  generator,
		Activities: activities,
		Accounts:   accounts,
		Sessions:   sessions,
		Metrics:    metrics,
	}, advocacy.Options{
		Disclosure: wizard.DisclosurePolicy{
			DefaultOn:       cfg.DisclosureDefaultOn,
			RequireFullName: cfg.RequireFullName,
		},
		AnimationDelay: cfg.SendAnimationDelay,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpadapter.NewServer(svc, history.NewService(activities, metrics), accounts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("advocate API listening", zap.String("addr", srv.Addr), zap.String("mode", string(cfg.Mode)))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// seedDemoAccount creates a signed-in profile for trying the authenticated
// flow locally.
func seedDemoAccount(ctx context.Context, accounts *memstore.AccountStore, logger *zap.Logger) error {
	acct, err := accounts.CreateAccount(ctx, "demo@example.com", "demo-password")
	if err != nil {
		return fmt.Errorf("seed demo account: %w", err)
	}
	p := acct.Profile
	p.FullName = "Dana Demo"
	p.Address = "100 Congress Ave"
	p.City = "Austin"
	p.State = "TX"
	p.ZipCode = "78701"
	p.BirthYear = 1985
	p.Profession = "Nurse"
	if err := accounts.UpdateProfile(ctx, p); err != nil {
		return fmt.Errorf("seed demo profile: %w", err)
	}
	logger.Info("demo account ready", zap.String("email", p.Email), zap.String("token", acct.Token))
	return nil
}
