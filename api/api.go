package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/prof-ratings/utils/response"
	"go.uber.org/zap"
)

type APIServer struct {
	app           *fiber.App
	listenAddress string
	logger        *zap.Logger
}

func NewAPIServer(listenAddress string, logger *zap.Logger) *APIServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIServer{
		app: fiber.New(fiber.Config{
			AppName:      "prof-ratings",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			ErrorHandler: errorHandler(logger),
		}),
		listenAddress: listenAddress,
		logger:        logger,
	}
}

// errorHandler renders errors that escape a handler, such as unmatched
// routes, in the standard envelope
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}
		switch code {
		case fiber.StatusNotFound:
			return response.NotFound(c, "Route not found")
		case fiber.StatusMethodNotAllowed:
			return response.Error(c, code, "Method not allowed", "METHOD_NOT_ALLOWED")
		case fiber.StatusInternalServerError:
			logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
			return response.InternalServerError(c, "")
		}
		return response.Error(c, code, err.Error(), "REQUEST_FAILED")
	}
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

func (s *APIServer) Run() error {
	s.logger.Info("starting API server", zap.String("address", s.listenAddress))
	return s.app.Listen(s.listenAddress)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.app.ShutdownWithContext(ctx)
}
