package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"todolist/internal/config"
	"todolist/internal/handlers"
	"todolist/internal/service"
	"todolist/internal/store"
)

//go:embed templates/*
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.NewViper()

	root := &cobra.Command{
		Use:           "todolist",
		Short:         "A small task list server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), v)
		},
	}

	flags := root.PersistentFlags()
	flags.String("port", "8080", "HTTP port to listen on")
	flags.String("driver", store.DriverSQLite, "database driver: sqlite or postgres")
	flags.String("db-path", "./data/todos.db", "SQLite database file")
	flags.String("database-url", "", "PostgreSQL connection URL")
	flags.String("policy", string(store.PolicyHistory), "lifecycle policy: history (completed/deleted tables) or flag (completed column)")
	flags.Bool("debug", false, "enable debug logging")

	for key, flag := range map[string]string{
		config.KeyPort:        "port",
		config.KeyDriver:      "driver",
		config.KeyDBPath:      "db-path",
		config.KeyDatabaseURL: "database-url",
		config.KeyPolicy:      "policy",
		config.KeyDebug:       "debug",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), v)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(v)
		},
	})

	return root
}

func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg, err := config.Load(v)
	if err != nil {
		log.Errorf("Invalid configuration: %v", err)
		return nil, err
	}

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	return cfg, nil
}

func runMigrate(v *viper.Viper) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	// Opening a store applies pending migrations.
	s, err := store.Open(cfg.StoreOptions())
	if err != nil {
		log.Errorf("Failed to migrate store: %v", err)
		return err
	}
	defer s.Close()

	log.WithField("driver", cfg.Driver).Info("Migrations applied")
	return nil
}

func runServe(ctx context.Context, v *viper.Viper) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	// Initialize store
	s, err := store.Open(cfg.StoreOptions())
	if err != nil {
		log.Errorf("Failed to initialize store: %v", err)
		return err
	}
	defer s.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := service.NewMetrics(registry)
	if err != nil {
		log.Errorf("Failed to register metrics: %v", err)
		return err
	}

	svc := service.New(s,
		service.WithLogger(log.WithField("component", "tasks")),
		service.WithMetrics(metrics),
	)

	// Parse templates
	tmpl, err := parseTemplates()
	if err != nil {
		log.Errorf("Failed to parse templates: %v", err)
		return err
	}

	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return err
	}

	h := handlers.New(svc, tmpl, log.WithField("component", "http"))
	router := handlers.NewRouter(h, handlers.RouterOptions{
		Static:  staticSub,
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Logger:  log.StandardLogger(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(log.Fields{"policy": cfg.Policy, "driver": cfg.Driver}).
			Infof("Starting server on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Errorf("Server failed: %v", err)
		return err
	}
	return nil
}

func parseTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"timestamp": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format("2006-01-02 15:04")
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return tmpl, nil
}
