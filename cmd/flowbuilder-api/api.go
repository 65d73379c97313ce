package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dukex/flowbuilder/pkg/eventbus"
	"github.com/dukex/flowbuilder/pkg/graph"
	"github.com/dukex/flowbuilder/pkg/idgen"
	"github.com/dukex/flowbuilder/pkg/persistence"
	"github.com/dukex/flowbuilder/pkg/registry"
	"github.com/dukex/flowbuilder/pkg/serializer"
	"github.com/dukex/flowbuilder/pkg/services"
	"github.com/dukex/flowbuilder/pkg/validation"
	"github.com/dukex/flowbuilder/pkg/web"
	"github.com/dukex/flowbuilder/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	tracer      trace.Tracer
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	tracer trace.Tracer,
) *API {
	return &API{
		persistence: persistence,
		logger:      logger,
		registry:    registry,
		eventBus:    eventBus,
		tracer:      tracer,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	builder := graph.NewBuilder(a.registry, idgen.UUID)
	graphValidator := validation.NewValidator(a.registry)

	workflowService := services.NewWorkflow(
		builder,
		graphValidator,
		workflow.NewRepository(a.persistence, serializer.NewSerializer(builder)),
		workflow.NewExecutor(a.registry, graphValidator, a.eventBus, a.tracer, a.logger),
		a.eventBus,
		a.logger,
	)

	handlers := web.NewAPIHandlers(workflowService, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowbuilder API")
	})

	app.Get("/health", handlers.HealthCheck)
	app.Get("/steps", handlers.GetSteps)

	w := app.Group("/workflows")
	w.Post("/", handlers.CreateWorkflow)
	w.Post("/load/:key", handlers.LoadWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Get("/:id/validation", handlers.ValidateWorkflow)
	w.Post("/:id/save", handlers.SaveWorkflow)
	w.Post("/:id/execute", handlers.ExecuteWorkflow)

	// Node endpoints:
	w.Post("/:id/nodes", handlers.CreateWorkflowNode)
	w.Patch("/:id/nodes/:nodeId", handlers.UpdateWorkflowNode)
	w.Delete("/:id/nodes/:nodeId", handlers.DeleteWorkflowNode)

	// Connection endpoints:
	w.Post("/:id/connections", handlers.CreateConnection)
	w.Delete("/:id/connections/:connectionId", handlers.DeleteConnection)

	return app
}

// Start serves the API until ctx is cancelled.
func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	go func() {
		<-ctx.Done()

		a.logger.Info("Shutting down flowbuilder API")

		if err := app.Shutdown(); err != nil {
			a.logger.Error("Failed to shutdown API", "error", err)
		}
	}()

	return app.Listen(":" + strconv.Itoa(port))
}
