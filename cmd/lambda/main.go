package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"go.uber.org/zap"

	"github.com/RedDeadth/Typeimp-Repository/internal/config"
	"github.com/RedDeadth/Typeimp-Repository/internal/di"
	"github.com/RedDeadth/Typeimp-Repository/internal/observability"
)

var chiLambda *chiadapter.ChiLambda

func init() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	if cfg.EnableTracing && cfg.OTelEndpoint != "" {
		// Lambda freezes the process between invocations; the batcher flushes
		// on the next one.
		if _, err := observability.InitTracing(ctx, "notes-lambda", cfg.Environment, cfg.OTelEndpoint); err != nil {
			container.Logger.Warn("Tracing disabled", zap.Error(err))
		}
	}

	chiLambda = chiadapter.New(container.Router)

	container.Logger.Info("Service initialized",
		zap.String("environment", cfg.Environment),
		zap.String("notes_table", cfg.NotesTable),
		zap.String("categories_table", cfg.CategoriesTable))
}

// Handler proxies API Gateway REST events to the chi router.
func Handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return chiLambda.ProxyWithContext(ctx, req)
}

func main() {
	lambda.Start(Handler)
}
