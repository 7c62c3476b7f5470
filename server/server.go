package server

import (
	"context"
	"encoding/json"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	devconnect "github.com/goliatone/devconnect"
	"github.com/goliatone/devconnect/middleware/authware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RepoFetcher retrieves a user's public repositories from the upstream
// code host. The body passes through to the client untouched.
type RepoFetcher interface {
	ReposForUser(ctx context.Context, username string) (json.RawMessage, error)
}

// Authenticator is what the credential routes need: login and claims
// extraction, plus the token service so registration can mint a first
// token for the new account.
type Authenticator interface {
	devconnect.Authenticator
	TokenService() devconnect.TokenService
}

// validatorFunc adapts a claims-extraction func to the token gate.
type validatorFunc func(string) (devconnect.AuthClaims, error)

func (f validatorFunc) Validate(token string) (devconnect.AuthClaims, error) {
	return f(token)
}

// Server wires the devconnect API surface onto a fiber app.
type Server struct {
	app     *fiber.App
	cfg     devconnect.Config
	repo    devconnect.RepositoryManager
	auth    Authenticator
	github  RepoFetcher
	metrics *Metrics
	limiter *clientLimiter
	logger  devconnect.Logger

	tokenHeader string
}

type Option func(*Server)

func WithLogger(logger devconnect.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(s *Server) {
		s.metrics = metrics
	}
}

func WithRepoFetcher(fetcher RepoFetcher) Option {
	return func(s *Server) {
		s.github = fetcher
	}
}

func WithLoginRate(perMin int) Option {
	return func(s *Server) {
		s.limiter = newClientLimiter(perMin)
	}
}

// New builds the API server. cfg, repo, and auth are required.
func New(cfg devconnect.Config, repo devconnect.RepositoryManager, auth Authenticator, opts ...Option) *Server {
	s := &Server{
		cfg:         cfg,
		repo:        repo,
		auth:        auth,
		logger:      devconnect.DefaultLogger(),
		limiter:     newClientLimiter(0),
		tokenHeader: cfg.GetTokenHeader(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.tokenHeader == "" {
		s.tokenHeader = authware.DefaultTokenHeader
	}

	s.app = fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(MsgResponse{Msg: fe.Message})
			}
			s.logger.Error("unhandled route error", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(MsgResponse{Msg: msgServerError})
		},
	})

	s.routes()

	return s
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving the API on addr.
func (s *Server) Listen(addr string) error {
	s.logger.Info("api listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithContext(context.Background())
}

func (s *Server) routes() {
	guard := authware.New(authware.Config{
		TokenHeader: s.tokenHeader,
		Validator:   validatorFunc(s.auth.ClaimsFromToken),
		Logger:      s.logger,
		OnRejected:  s.metrics.authRejection,
	})

	throttle := s.limiter.middleware(s.metrics)

	if s.metrics != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	api := s.app.Group("/api")

	api.Post("/users", throttle, s.registerUser)

	api.Post("/auth", throttle, s.login)
	api.Get("/auth", guard, s.currentUser)

	profile := api.Group("/profile")
	profile.Get("/me", guard, s.myProfile)
	profile.Post("/", guard, s.upsertProfile)
	profile.Get("/", s.listProfiles)
	profile.Get("/user/:user_id", s.profileByUser)
	profile.Delete("/", guard, s.deleteAccount)
	profile.Put("/experience", guard, s.addExperience)
	profile.Delete("/experience/:exp_id", guard, s.removeExperience)
	profile.Put("/education", guard, s.addEducation)
	profile.Delete("/education/:edu_id", guard, s.removeEducation)
	profile.Get("/github/:username", s.githubRepos)

	posts := api.Group("/posts", guard)
	posts.Post("/", s.createPost)
	posts.Get("/", s.listPosts)
	posts.Get("/:id", s.getPost)
	posts.Delete("/:id", s.deletePost)
	posts.Put("/like/:id", s.likePost)
	posts.Put("/unlike/:id", s.unlikePost)
	posts.Post("/comment/:id", s.addComment)
	posts.Delete("/comment/:id/:comment_id", s.removeComment)
}
