package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/stubd/pkg/admin"
	"github.com/getmockd/stubd/pkg/cli/internal/output"
	"github.com/getmockd/stubd/pkg/compiler"
	"github.com/getmockd/stubd/pkg/config"
	"github.com/getmockd/stubd/pkg/engine"
	"github.com/getmockd/stubd/pkg/logging"
	"github.com/getmockd/stubd/pkg/metrics"
	"github.com/getmockd/stubd/pkg/normalize"
	"github.com/getmockd/stubd/pkg/ratelimit"
	"github.com/getmockd/stubd/pkg/requestlog"
	"github.com/getmockd/stubd/pkg/seed"
	"github.com/getmockd/stubd/pkg/service"
	"github.com/getmockd/stubd/pkg/store"
	"github.com/getmockd/stubd/pkg/store/file"
)

// shutdownTimeout is the maximum time to wait for graceful shutdown.
const shutdownTimeout = 30 * time.Second

// serveFlags holds the values bound to serve's flags.
type serveFlags struct {
	configFile string
	host       string
	port       int
	adminPort  int
	store      string
	dataDir    string
	seed       string
	logLevel   string
	logFormat  string
	maxLog     int
	rateLimit  float64
}

func newServeCmd() *cobra.Command {
	f := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the mock server and admin API (foreground)",
		Long: `Start stubd in the foreground. Mock traffic is served on --port and the
admin API on --admin-port. Stored stubs are compiled at startup; stubs from a
seed file are created unless a stub with the same name already exists.`,
		Example: `  # Start with defaults (traffic on 4280, admin on 4290)
  stubd serve

  # Persist stubs on disk and load seed files
  stubd serve --store file --seed 'seeds/**/*.yaml'

  # Start with a config file and JSON logs
  stubd serve --config stubd.yaml --log-format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServeConfig(cmd, f)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.configFile, "config", "c", "", "Path to config file")
	flags.StringVar(&f.host, "host", config.DefaultHost, "Interface to listen on")
	flags.IntVarP(&f.port, "port", "p", config.DefaultPort, "Mock traffic port")
	flags.IntVarP(&f.adminPort, "admin-port", "a", config.DefaultAdminPort, "Admin API port")
	flags.StringVar(&f.store, "store", string(store.BackendMemory), "Stub storage backend (memory, file)")
	flags.StringVar(&f.dataDir, "data-dir", "", "Directory for the file backend (default: XDG data dir)")
	flags.StringVar(&f.seed, "seed", "", "Seed file or glob applied at startup")
	flags.StringVar(&f.logLevel, "log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	flags.StringVar(&f.logFormat, "log-format", config.DefaultLogFormat, "Log format (text, json)")
	flags.IntVar(&f.maxLog, "max-log-entries", config.DefaultJournalMaxEntries, "Maximum request journal entries")
	flags.Float64Var(&f.rateLimit, "admin-rate-limit", 0, "Admin API requests per second per client (0 disables)")
	return cmd
}

// loadServeConfig loads the config file and environment, then applies the
// flags the user set explicitly.
func loadServeConfig(cmd *cobra.Command, f *serveFlags) (*config.Config, error) {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("host") {
		cfg.Server.Host = f.host
	}
	if changed("port") {
		cfg.Server.Port = f.port
	}
	if changed("admin-port") {
		cfg.Admin.Port = f.adminPort
	}
	if changed("store") {
		cfg.Store.Backend = f.store
	}
	if changed("data-dir") {
		cfg.Store.DataDir = f.dataDir
	}
	if changed("seed") {
		cfg.Seed = f.seed
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if changed("max-log-entries") {
		cfg.Journal.MaxEntries = f.maxLog
	}
	if changed("admin-rate-limit") {
		cfg.Admin.RateLimit = f.rateLimit
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app is a fully wired stubd instance without listeners.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	store   store.StubStore
	engine  *engine.Engine
	service *service.StubService
	admin   *admin.API
	metrics *metrics.Set
	limiter *ratelimit.Limiter
	closers []io.Closer
}

// newApp wires storage, engine, compiler, service and admin API.
func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	switch store.Backend(cfg.Store.Backend) {
	case store.BackendFile:
		fs := file.New(store.Config{Backend: store.BackendFile, DataDir: cfg.Store.DataDir}, log)
		if err := fs.Open(ctx); err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		a.store = fs
		a.closers = append(a.closers, fs)
	default:
		a.store = store.NewInMemoryStore()
	}

	journal := requestlog.NewInMemoryStore(cfg.Journal.MaxEntries)

	// The engine journals through the metrics tee so mock traffic is counted
	// without the engine knowing about metrics.
	var sink requestlog.Logger = journal
	if cfg.MetricsEnabled() {
		a.metrics = metrics.NewSet(nil)
		sink = a.metrics.Journal(journal)
	}

	engineOpts := []engine.Option{
		engine.WithLogger(logging.Component(log, "engine")),
		engine.WithJournal(sink),
		engine.WithMaxRequestBodySize(cfg.Engine.MaxBodySize),
	}
	if cfg.Engine.NearMisses != nil {
		engineOpts = append(engineOpts, engine.WithNearMisses(*cfg.Engine.NearMisses))
	}
	a.engine = engine.New(engineOpts...)
	if a.metrics != nil {
		a.metrics.TrackRules(a.engine)
	}

	comp := compiler.New(a.engine, compiler.WithLogger(logging.Component(log, "compiler")))
	a.service = service.New(a.store, comp, a.engine,
		service.WithLogger(logging.Component(log, "service")),
		service.WithJournal(journal),
		service.WithNormalizer(normalize.New(logging.Component(log, "normalize"))),
	)

	adminOpts := []admin.Option{
		admin.WithLogger(logging.Component(log, "admin")),
		admin.WithVersion(buildVersion().Version),
	}
	if len(cfg.Admin.CORSOrigins) > 0 {
		adminOpts = append(adminOpts, admin.WithCORS(admin.CORSConfig{AllowedOrigins: cfg.Admin.CORSOrigins}))
	}
	if a.metrics != nil {
		adminOpts = append(adminOpts, admin.WithMetrics(a.metrics))
	}
	if cfg.Admin.RateLimit > 0 {
		a.limiter = ratelimit.New(ratelimit.Config{Rate: cfg.Admin.RateLimit, Burst: cfg.Admin.RateBurst})
		adminOpts = append(adminOpts, admin.WithRateLimit(a.limiter))
	}
	a.admin = admin.New(a.service, adminOpts...)

	return a, nil
}

// load compiles stored stubs and applies the seed file. Failures of single
// stubs are logged and do not stop startup.
func (a *app) load(ctx context.Context) error {
	installed, err := a.service.Sync(ctx)
	if err != nil {
		a.log.Warn("some stored stubs were not compiled", "error", err)
	}
	a.log.Debug("stored stubs compiled", "installed", installed)

	if a.cfg.Seed == "" {
		return nil
	}
	entries, err := seed.Load(a.cfg.Seed)
	if err != nil {
		return fmt.Errorf("load seed: %w", err)
	}
	if _, err := seed.Apply(ctx, a.service, entries, logging.Component(a.log, "seed")); err != nil {
		a.log.Warn("some seed stubs failed", "error", err)
	}
	return nil
}

func (a *app) Close() error {
	if a.limiter != nil {
		a.limiter.Close()
	}
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// runServe runs stubd until ctx is canceled.
func runServe(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	log := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: stderr,
	})

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			output.Warn(stderr, "store close error: %v", err)
		}
	}()

	if err := a.load(ctx); err != nil {
		return err
	}

	traffic := engine.NewServer("mock", cfg.ServerAddr(), a.engine, log)
	adminSrv := engine.NewServer("admin", cfg.AdminAddr(), a.admin.Handler(), log)

	if err := traffic.Start(); err != nil {
		return err
	}
	if err := adminSrv.Start(); err != nil {
		_ = traffic.Stop(context.Background())
		return err
	}

	fmt.Fprintf(stdout, "stubd %s\n", buildVersion().Version)
	fmt.Fprintf(stdout, "  Mock server: http://%s\n", traffic.Addr())
	fmt.Fprintf(stdout, "  Admin API:   http://%s\n", adminSrv.Addr())
	fmt.Fprintf(stdout, "  Store:       %s\n", cfg.Store.Backend)

	// Wait for shutdown signal
	<-ctx.Done()
	fmt.Fprintln(stdout, "\nShutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Stop admin API first so no new stubs arrive while traffic drains
	if err := adminSrv.Stop(shutdownCtx); err != nil {
		output.Warn(stderr, "admin API shutdown error: %v", err)
	}
	if err := traffic.Stop(shutdownCtx); err != nil {
		output.Warn(stderr, "server shutdown error: %v", err)
	}
	return nil
}
