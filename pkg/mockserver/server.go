package mockserver

import (
	"log/slog"
	"net"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/gongwen/pkg/logger"
)

// Server is the scripted mock backend.
type Server struct {
	config Config
	logger *slog.Logger
	app    *fiber.App
	store  *store
}

// New creates a mock server with its fixtures.
func New(config Config) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             16 * 1024 * 1024,
	})

	l := config.Logger
	if l == nil {
		l = logger.Nop()
	}

	s := &Server{
		config: config,
		logger: l,
		app:    app,
		store:  newStore(),
	}

	app.Get("/ping", s.handlePing)

	api := app.Group("/api", s.requireToken)
	api.Post("/generate", s.handleGenerate)

	api.Get("/conversations", s.handleListConversations)
	api.Get("/conversations/:id", s.handleGetConversation)
	api.Delete("/conversations/:id", s.handleDeleteConversation)

	api.Get("/templates", s.handleListTemplates)
	api.Post("/templates", s.handleUploadTemplate)
	api.Delete("/templates/:id", s.handleDeleteTemplate)

	api.Get("/documents", s.handleListDocuments)
	api.Get("/documents/:id/download", s.handleDownloadDocument)

	api.Get("/model-configs", s.handleListModelConfigs)
	api.Post("/model-configs", s.handleSaveModelConfig)
	api.Put("/model-configs/:id", s.handleSaveModelConfig)
	api.Delete("/model-configs/:id", s.handleDeleteModelConfig)
	api.Post("/model-configs/:id/activate", s.handleActivateModelConfig)

	return s
}

// App exposes the fiber app, e.g. for adaptor.FiberApp in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting mock backend", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener starts the server using the provided listener.
func (s *Server) RunWithListener(listener net.Listener) error {
	s.logger.Info("starting mock backend", "listen", listener.Addr().String())
	return s.app.Listener(listener)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) requireToken(c *fiber.Ctx) error {
	if s.config.Token == "" {
		return c.Next()
	}
	if c.Get(fiber.HeaderAuthorization) != "Bearer "+s.config.Token {
		return detail(c, fiber.StatusUnauthorized, "未登录或登录已过期")
	}
	return c.Next()
}

// errorResponse mirrors the backend's {"detail": ...} error body.
type errorResponse struct {
	Detail string `json:"detail"`
}

func detail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(errorResponse{Detail: msg})
}
