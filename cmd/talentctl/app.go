package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	talent "github.com/goliatone/go-talent-session"
	"github.com/goliatone/go-talent-session/activitymap"
	"github.com/goliatone/go-talent-session/apiclient"
	"github.com/goliatone/go-talent-session/config"
	"github.com/goliatone/go-talent-session/credentials"
	"github.com/goliatone/go-talent-session/logging"
	"github.com/goliatone/go-talent-session/metrics"
	"github.com/goliatone/go-talent-session/middleware/credentialware"
	"github.com/goliatone/go-talent-session/middleware/ratelimitware"
	"github.com/goliatone/go-talent-session/middleware/unauthorizedware"
	"github.com/goliatone/go-talent-session/notify"
	"github.com/goliatone/go-talent-session/repository"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// app wires the session components for one command invocation.
type app struct {
	cfg       *config.Config
	logger    *logging.Adapter
	out       io.Writer
	errOut    io.Writer
	store     talent.CredentialStore
	fileStore *credentials.FileStore
	creds     *credentialware.Credentials
	client    *apiclient.Client
	queue     *notify.Queue
	navigator *consoleNavigator
	registry  *prometheus.Registry
	metrics   *metrics.Collector
	ctrl      *talent.Controller
	profiles  *talent.ProfileStore
	desk      *talent.RecruiterDesk
	guard     *talent.Guard
	closers   []func() error
}

func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, codeError(3, "loading config: %s", err)
	}

	if flags.baseURL != "" {
		cfg.API.BaseURL = flags.baseURL
	}
	if flags.store != "" {
		cfg.Storage.Driver = flags.store
	}
	if flags.storePath != "" {
		cfg.Storage.Path = flags.storePath
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, codeError(3, "invalid config: %s", err)
	}
	return cfg, nil
}

func newApp(ctx context.Context, flags *rootFlags, out, errOut io.Writer) (*app, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		return nil, codeError(3, "building logger: %s", err)
	}

	a := &app{
		cfg:       cfg,
		logger:    logger,
		out:       out,
		errOut:    errOut,
		creds:     credentialware.NewCredentials(),
		navigator: &consoleNavigator{out: errOut},
		registry:  prometheus.NewRegistry(),
	}
	a.closers = append(a.closers, func() error {
		_ = logger.Sync()
		return nil
	})

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.metrics = metrics.NewCollector(a.registry)
	a.queue = notify.NewQueue(notify.WithDefaultTimeout(cfg.GetNotificationTimeout()))
	a.closers = append(a.closers, func() error {
		a.queue.Close()
		return nil
	})

	// the controller is created before the pipeline so the 401 hook can
	// reach it; its API is bound right after.
	var ctrl *talent.Controller
	middlewares := []apiclient.Middleware{
		a.metrics.Middleware(),
		unauthorizedware.New(unauthorizedware.Config{
			Store:     a.store,
			Navigator: a.navigator,
			LoginPath: cfg.GetLoginPath(),
			OnUnauthorized: []unauthorizedware.Hook{
				func(ctx context.Context, _ *http.Request) {
					ctrl.Invalidate(ctx)
				},
			},
			ErrorHandler: func(err error) {
				logger.Error("%v", err)
			},
		}),
		credentialware.New(credentialware.Config{
			Store:       a.store,
			Credentials: a.creds,
			Header:      cfg.GetTokenHeader(),
		}),
	}
	if cfg.API.RateLimit > 0 {
		middlewares = append(middlewares, ratelimitware.New(ratelimitware.Config{
			Limit: rate.Limit(cfg.API.RateLimit),
			Burst: cfg.API.Burst,
		}))
	}

	a.client = apiclient.New(cfg,
		apiclient.WithMiddleware(middlewares...),
		apiclient.WithLogger(logger.Named("api")),
	)

	notifier := &consoleNotifier{queue: a.queue, out: errOut}

	ctrl = talent.NewController(a.client, a.store, cfg).
		WithLogger(logger.Named("session")).
		WithAttacher(a.creds).
		WithNotifier(notifier).
		WithNavigator(a.navigator).
		WithActivitySink(talent.MultiActivitySink(
			a.metrics.ActivitySink(),
			activitymap.NewLogSink(logger.Named("audit").Zap(), activitymap.WithChannel("cli")),
		))
	a.ctrl = ctrl

	a.profiles = talent.NewProfileStore(a.client).WithLogger(logger.Named("profile"))
	a.desk = talent.NewRecruiterDesk(a.client).
		WithNotifier(notifier).
		WithLogger(logger.Named("recruiter"))

	ctrl.OnLogout(func(context.Context) {
		a.profiles.Clear()
		a.desk.Clear()
	})

	a.guard = talent.NewGuard(ctrl, cfg)

	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.Storage.Driver {
	case config.StorageFile:
		fs := credentials.NewFileStore(a.cfg.Storage.Path, a.cfg.Storage.Key)
		a.fileStore = fs
		a.store = fs
	case config.StorageSQLite:
		db, err := repository.Open(a.cfg.Storage.Path)
		if err != nil {
			return codeError(3, "opening credential database: %s", err)
		}
		a.closers = append(a.closers, db.Close)
		repo := repository.NewCredentialRepository(db, a.cfg.Storage.Key)
		if err := repo.CreateTable(ctx); err != nil {
			return codeError(3, "preparing credential database: %s", err)
		}
		a.store = repo
	default:
		a.logger.Warn("memory credential store does not persist between commands")
		a.store = credentials.NewMemoryStore()
	}
	return nil
}

// Close releases resources in reverse order
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close: %v", err)
		}
	}
	a.closers = nil
}

// consoleNavigator prints redirects; the CLI has no views to switch.
type consoleNavigator struct {
	out  io.Writer
	mu   sync.Mutex
	last string
}

func (n *consoleNavigator) Navigate(path string) {
	n.mu.Lock()
	n.last = path
	n.mu.Unlock()
	fmt.Fprintf(n.out, "-> %s\n", path)
}

func (n *consoleNavigator) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}

// consoleNotifier queues the notification and echoes it.
type consoleNotifier struct {
	queue *notify.Queue
	out   io.Writer
}

func (n *consoleNotifier) Push(message string, severity notify.Severity, timeout time.Duration) string {
	id := n.queue.Push(message, severity, timeout)
	fmt.Fprintf(n.out, "[%s] %s\n", severity, message)
	return id
}
