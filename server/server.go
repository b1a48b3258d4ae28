package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	auth "github.com/goliatone/go-blog-auth"
	"github.com/goliatone/go-blog-auth/blog"
	"github.com/goliatone/go-blog-auth/middleware/jwtware"
	"github.com/goliatone/go-router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
)

// Options are the collaborators the HTTP server is built from
type Options struct {
	DB       *bun.DB
	Auth     auth.Config
	Registry *prometheus.Registry
	Logger   auth.Logger
	Clock    auth.Clock
	Debug    bool
}

// Server holds the router, the fiber app it wraps, and the services behind it
type Server struct {
	HTTP    router.Server[*fiber.App]
	App     *fiber.App
	Auther  *auth.Auther
	Users   auth.Users
	Blog    *blog.Store
	Metrics auth.MetricsRecorder
}

// New wires the gate, guards, error handler, controllers, and metrics
func New(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = auth.NewLogger("server")
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	var metrics auth.MetricsRecorder = auth.NoopMetrics{}
	if opts.Registry != nil {
		metrics = auth.NewCollector(opts.Registry)
	}

	tokens, err := auth.NewTokenServiceFromConfig(opts.Auth, logger)
	if err != nil {
		return nil, err
	}

	users := auth.NewUsersRepository(opts.DB)
	auther := auth.NewAuthenticator(users, tokens).
		WithLogger(logger).
		WithMetrics(metrics).
		WithClock(clock)

	// handler errors surface through fiber's error handler
	srv := router.NewFiberAdapter(func(_ *fiber.App) *fiber.App {
		return fiber.New(fiber.Config{
			AppName:               "blog-auth",
			DisableStartupMessage: true,
			ErrorHandler: auth.ErrorHandler(auth.ErrorHandlerConfig{
				Logger:  logger,
				Metrics: metrics,
				Clock:   clock,
			}),
		})
	})
	app := srv.WrappedRouter()

	if opts.Registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(auth.MetricsHandler(opts.Registry)))
	}

	r := srv.Router()
	r.WithLogger(logger)

	gateCfg := jwtware.FromConfig(opts.Auth, tokens)
	gateCfg.Clock = clock
	gateCfg.Logger = logger
	r.Use(jwtware.New(gateCfg))

	auth.NewAuthController(auther,
		auth.WithControllerLogger(logger),
		auth.WithControllerDebug(opts.Debug),
		auth.WithControllerHashidUserIDs(opts.Auth.GetHashidUserIDs()),
	).RegisterRoutes(r)

	store := blog.NewStore(opts.DB)
	guard := jwtware.NewGuard(opts.Auth.GetContextKey(), metrics)
	blog.NewController(store, guard, logger).RegisterRoutes(r)

	return &Server{
		HTTP:    srv,
		App:     app,
		Auther:  auther,
		Users:   users,
		Blog:    store,
		Metrics: metrics,
	}, nil
}
