package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"blog/pkg/config"
	"blog/pkg/logger"
	"blog/pkg/server"
	"blog/pkg/sessions"
	"blog/pkg/user"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:          "blog",
		Short:        "Blog API with users, posts and threaded comments",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file to read before the environment")

	loadConfig := func() (*config.Config, error) {
		return config.Load(envFile)
	}

	var seedOnStart bool
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serveAPI(cmd.Context(), cfg, seedOnStart)
		},
	}
	serve.Flags().BoolVar(&seedOnStart, "seed", false, "fill empty stores with generated content before serving")

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Create the users table and the Mongo indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := logger.Run(cfg.LogLevel)
			defer log.Sync()

			st, err := openStores(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}
			log.Info("migrations applied")
			return nil
		},
	}

	var postsCount int
	seed := &cobra.Command{
		Use:   "seed",
		Short: "Generate fake users, posts and comment threads",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := logger.Run(cfg.LogLevel)
			defer log.Sync()

			st, err := openStores(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}
			return newSeeder(st, cfg.DefaultAvatar).Run(cmd.Context(), postsCount)
		},
	}
	seed.Flags().IntVar(&postsCount, "posts", 6, "number of posts to generate")

	root.AddCommand(serve, migrate, seed)
	return root
}

func serveAPI(ctx context.Context, cfg *config.Config, seedOnStart bool) error {
	log := logger.Run(cfg.LogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return err
	}
	if seedOnStart {
		if err := newSeeder(st, cfg.DefaultAvatar).Run(ctx, 6); err != nil {
			return err
		}
	}

	if st.redisPool != nil {
		log.Infof("author summaries are cached in Redis at %s", cfg.RedisAddr)
	}
	router := server.NewRouter(server.Deps{
		Users:         st.users,
		Posts:         st.posts,
		Comments:      st.comments,
		Summaries:     user.NewSummaryCache(st.users, st.redisPool, cfg.SummaryCacheTTL),
		Sessions:      sessions.NewSessionManager(cfg.SecretKey, cfg.TokenTTL),
		Logger:        log,
		DefaultAvatar: cfg.DefaultAvatar,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("serving", "addr", cfg.HTTPAddr, "store", cfg.Store)
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

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
