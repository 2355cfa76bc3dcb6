// Package web provides the operational HTTP surface: session and tool
// endpoints, the UI sync websocket, and observability routes.
package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/altafuddin/FormFiller/internal/log"
	"github.com/altafuddin/FormFiller/pkg/dispatch"
	"github.com/altafuddin/FormFiller/pkg/forms"
	"github.com/altafuddin/FormFiller/pkg/perf"
	"github.com/altafuddin/FormFiller/pkg/uisync"
)

// Options wires the server's collaborators.
type Options struct {
	Port       string
	Registry   *forms.Registry
	Manager    *forms.Manager
	Dispatcher *dispatch.Dispatcher
	Tracker    *perf.Tracker
	Hub        *uisync.Hub
	ExportDir  string

	// Gatherer serves /metrics. Usually the same registry the tracker
	// observes into.
	Gatherer prometheus.Gatherer
}

// Server is the FormFiller operational server.
type Server struct {
	app  *fiber.App
	port string

	registry   *forms.Registry
	manager    *forms.Manager
	dispatcher *dispatch.Dispatcher
	tracker    *perf.Tracker
	hub        *uisync.Hub
	exportDir  string
}

// NewServer builds the fiber app and registers all routes.
func NewServer(opts Options) *Server {
	s := &Server{
		port:       opts.Port,
		registry:   opts.Registry,
		manager:    opts.Manager,
		dispatcher: opts.Dispatcher,
		tracker:    opts.Tracker,
		hub:        opts.Hub,
		exportDir:  opts.ExportDir,
	}

	app := fiber.New(fiber.Config{
		AppName:               "formfiller",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/health", s.handleHealth)
	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/forms", s.handleListForms)
	api.Get("/forms/:type", s.handleGetForm)
	api.Post("/sessions", s.handleCreateSession)
	api.Get("/sessions/:id", s.handleGetSession)
	api.Delete("/sessions/:id", s.handleDeleteSession)
	api.Get("/tools", s.handleListTools)
	api.Post("/sessions/:id/tools/:name", s.handleTriggerTool)
	api.Get("/perf", s.handlePerf)
	api.Post("/perf/export", s.handleExport)
	api.Get("/perf/:label", s.handlePerfLabel)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/ui", websocket.New(s.handleUIWS))

	s.app = app
	return s
}

// Start runs the hub loop and listens. Blocks.
func (s *Server) Start() error {
	go s.hub.Run()
	log.Info("formfiller listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("server stopped", "err", err)
		}
	}()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
