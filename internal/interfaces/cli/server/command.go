package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/quotagate/quotagate/internal/infrastructure/config"
	"github.com/quotagate/quotagate/internal/infrastructure/migration"
	"github.com/quotagate/quotagate/internal/infrastructure/registryfile"
	"github.com/quotagate/quotagate/internal/infrastructure/storage"
	httpRouter "github.com/quotagate/quotagate/internal/interfaces/http"
	"github.com/quotagate/quotagate/internal/interfaces/cli/cliutil"
	"github.com/quotagate/quotagate/internal/shared/constants"
	"github.com/quotagate/quotagate/internal/shared/goroutine"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

var (
	flags       cliutil.Flags
	autoMigrate bool
	seedFile    string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the quotagate HTTP server with the configured storage backend.`,
		RunE:  run,
	}

	flags.Bind(cmd)
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Migrate the sql backend on startup (always on in development)")
	cmd.Flags().StringVar(&seedFile, "seed", "", "Registry document applied on startup (overrides registry.seed_file)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	env := flags.Environment()
	cfg, log, err := flags.Init()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg.Server.Mode = mapEnvToGinMode(env)
	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard

	log.Infow("starting server",
		"environment", env,
		"storage_backend", cfg.Storage.Backend,
		"ledger", cfg.Storage.Ledger,
		"quota_scope", cfg.Access.QuotaScope)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := storage.Open(ctx, cfg, storage.Options{}, log)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := stores.Close(context.Background()); err != nil {
			log.Errorw("failed to close storage", "error", err)
		}
	}()

	if err := handleMigrations(env, cfg, stores, log); err != nil {
		return err
	}

	container, err := httpRouter.NewContainer(ctx, cfg, stores, log)
	if err != nil {
		return fmt.Errorf("failed to wire services: %w", err)
	}

	if err := applySeed(ctx, cfg, container, log); err != nil {
		return err
	}

	metricsAddr := cfg.Server.GetMetricsAddr()
	router := httpRouter.NewRouter(cfg, container, log)
	router.SetupRoutes(metricsAddr == "")

	servers := []*http.Server{{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}}
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", container.Metrics.Handler())
		servers = append(servers, &http.Server{
			Addr:              metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(goroutine.Guard(log, "listener "+srv.Addr, func() error {
			log.Infow("listener starting", "address", srv.Addr, "mode", cfg.Server.Mode)
			if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listener %s failed: %w", srv.Addr, err)
			}
			return nil
		}))
	}
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(reload)
	g.Go(goroutine.Guard(log, "policy reload", func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-reload:
				if err := container.Enforcer.LoadPolicy(); err != nil {
					log.Errorw("failed to reload admin policies", "error", err)
				}
			}
		}
	}))
	g.Go(func() error {
		<-gctx.Done()
		log.Infow("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("failed to shut down %s: %w", srv.Addr, err))
			}
		}
		return stderrors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		log.Errorw("server stopped with error", "error", err)
		return err
	}

	log.Infow("server exited gracefully")
	return nil
}

func handleMigrations(env string, cfg *config.Config, stores *storage.Stores, log logger.Interface) error {
	if stores.DB == nil {
		return nil
	}
	if !autoMigrate && env != constants.EnvDevelopment {
		log.Infow("skipping migrations, run `quotagate migrate up` to update the schema")
		return nil
	}
	if env == constants.EnvProduction {
		log.Warnw("auto-migration is enabled in production environment - this is not recommended!")
	}

	manager := migration.NewManager(env, cfg.Database.Driver)
	log.Infow("running migrations", "strategy", manager.Strategy().Name())
	if err := manager.Migrate(stores.DB); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	return nil
}

func applySeed(ctx context.Context, cfg *config.Config, container *httpRouter.Container, log logger.Interface) error {
	path := seedFile
	if path == "" {
		path = cfg.Registry.SeedFile
	}
	if path == "" {
		return nil
	}

	doc, err := registryfile.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load registry seed %s: %w", path, err)
	}
	result, err := container.ApplyRegistry.Execute(ctx, doc.Command(constants.SystemActor))
	if err != nil {
		return fmt.Errorf("failed to apply registry seed %s: %w", path, err)
	}
	log.Infow("registry seed applied",
		"file", path,
		"permissions", result.Permissions,
		"plans", result.Plans,
		"users_created", result.UsersCreated)
	return nil
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return gin.ReleaseMode
	case "test", "testing":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
