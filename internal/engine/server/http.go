// Package server exposes an engine.Engine over HTTP and websocket.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/park285/chessfront/internal/board"
	"github.com/park285/chessfront/internal/engine"
	"github.com/park285/chessfront/internal/engine/rules"
	"github.com/park285/chessfront/internal/moves"
	"github.com/park285/chessfront/internal/obslog"
	"github.com/park285/chessfront/pkg/chessdto"
)

type Server struct {
	eng     engine.Engine
	logger  *zap.Logger
	timeout time.Duration
}

type Option func(*Server)

func WithLogger(l *zap.Logger) Option { return func(s *Server) { s.logger = l } }

// WithTimeout bounds each engine call made on behalf of a request.
func WithTimeout(d time.Duration) Option { return func(s *Server) { s.timeout = d } }

func New(eng engine.Engine, opts ...Option) *Server {
	s := &Server{eng: eng, timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = obslog.OrNop(s.logger)
	return s
}

// App builds the HTTP routes: POST /v1/initial, POST /v1/advance and GET /health.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          errorHandler,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          35 * time.Second,
		IdleTimeout:           60 * time.Second,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy", "time": time.Now().Unix()})
	})

	v1 := app.Group("/v1")
	v1.Use(contentTypeValidator)
	v1.Post("/initial", s.initial)
	v1.Post("/advance", s.advance)
	return app
}

func (s *Server) initial(c *fiber.Ctx) error {
	ctx, cancel := s.bound(c.UserContext())
	defer cancel()
	st, err := s.eng.InitialState(ctx)
	if err != nil {
		return s.fail(c, "initial", err)
	}
	return c.JSON(st)
}

func (s *Server) advance(c *fiber.Ctx) error {
	var req chessdto.AdvanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(chessdto.DomainError{
			Code:    chessdto.CodeInvalidRequest,
			Message: "invalid request body: " + err.Error(),
		})
	}
	if derr := validateRequest(&req); derr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(derr)
	}

	ctx, cancel := s.bound(c.UserContext())
	defer cancel()
	st, err := s.eng.Advance(ctx, req.Encoding, req.History)
	if err != nil {
		return s.fail(c, "advance", err)
	}
	return c.JSON(st)
}

func (s *Server) fail(c *fiber.Ctx, op string, err error) error {
	status, derr := toDomainError(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Warn("engine_request_failed", zap.String("op", op), zap.Error(err))
	}
	return c.Status(status).JSON(derr)
}

func (s *Server) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// toDomainError maps engine failures to a status and wire error.
func toDomainError(err error) (int, chessdto.DomainError) {
	switch {
	case errors.Is(err, board.ErrMalformedEncoding):
		return fiber.StatusBadRequest, chessdto.DomainError{Code: chessdto.CodeMalformedEncoding, Message: err.Error()}
	case errors.Is(err, moves.ErrMalformedMoveNotation):
		return fiber.StatusBadRequest, chessdto.DomainError{Code: chessdto.CodeMalformedNotation, Message: err.Error()}
	case errors.Is(err, rules.ErrInvalidPosition):
		return fiber.StatusUnprocessableEntity, chessdto.DomainError{Code: chessdto.CodeInvalidPosition, Message: err.Error()}
	default:
		return fiber.StatusServiceUnavailable, chessdto.DomainError{
			Code:      chessdto.CodeEngineUnavailable,
			Message:   "engine unavailable",
			Retryable: true,
		}
	}
}

// contentTypeValidator ensures POST requests carry JSON
func contentTypeValidator(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		ct := c.Get(fiber.HeaderContentType)
		if ct != "" && ct != fiber.MIMEApplicationJSON && ct != fiber.MIMEApplicationJSONCharsetUTF8 {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(chessdto.DomainError{
				Code:    chessdto.CodeInvalidRequest,
				Message: "Content-Type must be application/json",
			})
		}
	}
	return c.Next()
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	resp := chessdto.DomainError{Code: "internal_error", Message: "internal server error"}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		resp.Message = fe.Message
		if code < fiber.StatusInternalServerError {
			resp.Code = chessdto.CodeInvalidRequest
		}
	}
	return c.Status(code).JSON(resp)
}
