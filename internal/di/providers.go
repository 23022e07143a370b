package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/RedDeadth/Typeimp-Repository/internal/config"
	"github.com/RedDeadth/Typeimp-Repository/internal/domain"
	"github.com/RedDeadth/Typeimp-Repository/internal/events"
	"github.com/RedDeadth/Typeimp-Repository/internal/handlers"
	"github.com/RedDeadth/Typeimp-Repository/internal/identity"
	"github.com/RedDeadth/Typeimp-Repository/internal/middleware"
	"github.com/RedDeadth/Typeimp-Repository/internal/observability"
	"github.com/RedDeadth/Typeimp-Repository/internal/router"
	"github.com/RedDeadth/Typeimp-Repository/internal/service/category"
	"github.com/RedDeadth/Typeimp-Repository/internal/service/note"
	"github.com/RedDeadth/Typeimp-Repository/internal/store"
	"github.com/RedDeadth/Typeimp-Repository/pkg/auth"
)

const (
	metricsNamespace = "notes"
	devJWTSecret     = "development-secret-change-in-production"
)

// ProvideLogLevel creates the runtime-adjustable log level.
func ProvideLogLevel(cfg *config.Config) zap.AtomicLevel {
	return zap.NewAtomicLevelAt(observability.ParseLevel(cfg.LogLevel))
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	return observability.NewLogger(cfg.Environment, level)
}

// ProvideMetrics creates the Prometheus collectors.
func ProvideMetrics() *observability.Metrics {
	return observability.NewMetrics(metricsNamespace)
}

// ProvideAWSConfig loads the AWS configuration, instrumenting it for X-Ray
// when enabled.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load SDK config: %w", err)
	}
	if cfg.EnableXRay {
		awsv2.AWSV2Instrumentor(&awsCfg.APIOptions)
	}
	return awsCfg, nil
}

// ProvideDynamoDBClient creates the DynamoDB client, guarded by a circuit
// breaker and observed by metrics and tracing.
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) store.DynamoDBAPI {
	client := awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})

	guarded := store.NewBreakerClient(client, store.BreakerSettings{
		Name:             "dynamodb",
		MaxRequests:      cfg.Breaker.MaxRequests,
		Interval:         cfg.Breaker.Interval,
		Timeout:          cfg.Breaker.Timeout,
		FailureThreshold: cfg.Breaker.FailureThreshold,
		MinRequests:      cfg.Breaker.MinRequests,
	}, logger, metrics)

	return store.NewObservedClient(guarded, metrics, otel.Tracer("github.com/RedDeadth/Typeimp-Repository/internal/store"))
}

// NotesSchema describes the notes table.
func NotesSchema(cfg *config.Config) store.Schema {
	return store.Schema{
		TableName:    cfg.NotesTable,
		PartitionKey: domain.AttrUserID,
		SortKey:      domain.AttrNoteID,
		Indexes:      map[string]string{cfg.CategoryIndex: domain.AttrCategoryID},
	}
}

// CategoriesSchema describes the categories table.
func CategoriesSchema(cfg *config.Config) store.Schema {
	return store.Schema{
		TableName:    cfg.CategoriesTable,
		PartitionKey: domain.AttrUserID,
		SortKey:      domain.AttrCategoryID,
	}
}

// ProvideNotesTable selects the notes table backend.
func ProvideNotesTable(client store.DynamoDBAPI, cfg *config.Config, logger *zap.Logger) store.Table[domain.Note] {
	if cfg.StoreDriver == "memory" {
		return store.NewMemoryTable[domain.Note](NotesSchema(cfg))
	}
	return store.NewDynamoTable[domain.Note](client, NotesSchema(cfg), logger)
}

// ProvideCategoriesTable selects the categories table backend.
func ProvideCategoriesTable(client store.DynamoDBAPI, cfg *config.Config, logger *zap.Logger) store.Table[domain.Category] {
	if cfg.StoreDriver == "memory" {
		return store.NewMemoryTable[domain.Category](CategoriesSchema(cfg))
	}
	return store.NewDynamoTable[domain.Category](client, CategoriesSchema(cfg), logger)
}

// ProvidePublisher publishes to EventBridge when a bus is configured and to
// the log otherwise.
func ProvidePublisher(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) events.Publisher {
	if cfg.EventBusName == "" {
		return events.NewLogPublisher(logger)
	}
	return events.NewEventBridgePublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
}

// ProvideNoteService creates the note service.
func ProvideNoteService(notes store.Table[domain.Note], cfg *config.Config, publisher events.Publisher, logger *zap.Logger) note.Service {
	return note.NewService(notes, cfg.CategoryIndex, publisher, logger)
}

// ProvideCategoryService creates the category service.
func ProvideCategoryService(
	categories store.Table[domain.Category],
	notes store.Table[domain.Note],
	cfg *config.Config,
	publisher events.Publisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) category.Service {
	return category.NewService(category.Config{
		Categories:    categories,
		Notes:         notes,
		CategoryIndex: cfg.CategoryIndex,
		Concurrency:   cfg.CascadeConcurrency,
		Publisher:     publisher,
		Metrics:       metrics,
		Logger:        logger,
	})
}

// ProvideResolver returns the identity resolution chain.
func ProvideResolver() identity.Resolver {
	return identity.Default()
}

// ProvideErrorWriter hides diagnostic details in production.
func ProvideErrorWriter(cfg *config.Config, logger *zap.Logger) handlers.ErrorWriter {
	return handlers.ErrorWriter{Logger: logger, ExposeDetails: !cfg.IsProduction()}
}

// ProvideRouterOptions configures the router for Lambda or for the
// standalone server. Standalone requests authenticate with bearer tokens.
func ProvideRouterOptions(cfg *config.Config, logger *zap.Logger) (router.Options, error) {
	opts := router.Options{EnableCORS: cfg.EnableCORS}
	if config.IsLambda() {
		return opts, nil
	}

	secret := cfg.JWTSecret
	if secret == "" {
		if cfg.IsProduction() {
			return router.Options{}, fmt.Errorf("JWT_SECRET is required outside Lambda in production")
		}
		logger.Warn("JWT_SECRET not set, using the development secret")
		secret = devJWTSecret
	}
	validator, err := auth.NewJWTValidator(secret, cfg.JWTIssuer)
	if err != nil {
		return router.Options{}, err
	}

	opts.ExposeMetrics = true
	opts.Authenticate = middleware.BearerAuth(validator, logger)
	return opts, nil
}

// ProvideHTTPHandler builds the chi router.
func ProvideHTTPHandler(rt *router.Router) *chi.Mux {
	return rt.Setup()
}
