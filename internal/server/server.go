package server

import (
	"errors"
	"strings"

	"github.com/dgraph-io/ristretto"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog"

	"github.com/Alias1177/TokenTrend/internal/query"
)

// Server exposes the trend widget over HTTP.
type Server struct {
	app     *fiber.App
	queries *query.Client
	renders *ristretto.Cache
	logger  zerolog.Logger
}

// NewRenderCache builds the cache for rendered widget fragments, bounded by maxMB.
func NewRenderCache(maxMB int64) (*ristretto.Cache, error) {
	if maxMB <= 0 {
		maxMB = 16
	}
	return ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     maxMB << 20,
		BufferItems: 64,
	})
}

// New wires the routes. renders may be nil, in which case every request renders afresh.
func New(queries *query.Client, renders *ristretto.Cache, logger zerolog.Logger) *Server {
	s := &Server{
		queries: queries,
		renders: renders,
		logger:  logger.With().Str("component", "server").Logger(),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "tokentrend",
		DisableStartupMessage: true,
		// pair params become long-lived cache keys; fasthttp reuses request buffers
		Immutable: true,
		ErrorHandler:          s.errHandler,
	})
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET",
	}))

	s.app.Get("/healthz", s.getHealth)
	s.app.Get("/widget/:pair", s.getWidget)
	s.app.Get("/api/trend/:pair", s.getTrend)

	return s
}

// App returns the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("Serving trend widget")
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) getHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"entries": s.queries.Len(),
	})
}

func (s *Server) errHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func pairParam(c *fiber.Ctx) (string, error) {
	pair := strings.TrimSpace(c.Params("pair"))
	if pair == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "pair is required")
	}
	return pair, nil
}
