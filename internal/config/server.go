package config

import (
	"TakaDetect/database/postgres"
	"TakaDetect/internal/api/detection"
	detectionHandler "TakaDetect/internal/api/detection/handler"
	detectionRepository "TakaDetect/internal/api/detection/repository"
	detectionService "TakaDetect/internal/api/detection/service"
	"TakaDetect/internal/middleware"
	"TakaDetect/pkg/redis"
	"TakaDetect/pkg/utils"
	"TakaDetect/pkg/yolo"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"os"
)

const apiVersion = "1.0.0"

type ServerOption func(*Server) error

type Server struct {
	engine      *fiber.App
	db          *sqlx.DB
	log         *logrus.Logger
	middleware  middleware.Middleware
	validator   *validator.Validate
	utils       utils.IUtils
	handlers    []handler
	model       yolo.IEngine
	redisServer redis.IRedis
	detection   detectionService.IDetectionService
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.model == nil {
		return nil, fmt.Errorf("detection engine is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithEngine(engine yolo.IEngine) ServerOption {
	return func(s *Server) error {
		s.model = engine
		return nil
	}
}

// WithDatabase connects to postgres for prediction history. Absence of a
// reachable database degrades history, it never blocks startup.
func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Warnf("Prediction history disabled, database unavailable: %v", err)
			}
			return nil
		}
		s.db = db
		return nil
	}
}

func WithRedisServer() ServerOption {
	return func(s *Server) error {
		if os.Getenv("REDIS_ADDRESS") == "" {
			if s.log != nil {
				s.log.Info("Prediction cache disabled, REDIS_ADDRESS not set")
			}
			return nil
		}
		s.redisServer = redis.New()
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	s.engine.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "*",
	}))
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(middleware.LoggerConfig())
	s.engine.Use(s.middleware.NewRateLimiter)

	var repo detectionRepository.Repository
	if s.db != nil {
		repo = detectionRepository.New(s.db, s.log)
	}

	labels := detection.LabelsFromEnv()

	detectionServices := detectionService.NewDetectionService(s.log, s.validator, s.model, labels, repo, s.redisServer, s.utils)
	detectionHandlers := detectionHandler.New(s.log, s.middleware, detectionServices, s.utils)

	s.detection = detectionServices

	s.setupInfoRoutes()
	s.handlers = append(s.handlers, detectionHandlers)

	for _, h := range s.handlers {
		h.Start(s.engine)
	}
}

func (s *Server) Run() error {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

func (s *Server) Shutdown() error {
	return s.engine.Shutdown()
}

func (s *Server) setupInfoRoutes() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(detection.APIInfoResponse{
			Message: "Bangladeshi Taka Note Detection API",
			Version: apiVersion,
			Task:    "Bank note detection",
			Endpoints: map[string]string{
				"/predict":     "POST - Upload an image for detection",
				"/predict/ws":  "GET - Stream frames for detection over WebSocket",
				"/predictions": "GET - Recent prediction history",
				"/health":      "GET - Check API health status",
			},
		})
	})

	s.engine.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.JSON(detection.HealthResponse{
			Status:      "healthy",
			ModelStatus: s.detection.ModelStatus(),
		})
	})
}
