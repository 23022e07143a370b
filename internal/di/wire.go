//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/RedDeadth/Typeimp-Repository/internal/config"
	"github.com/RedDeadth/Typeimp-Repository/internal/handlers"
	"github.com/RedDeadth/Typeimp-Repository/internal/router"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogLevel,
	ProvideLogger,
	ProvideMetrics,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideNotesTable,
	ProvideCategoriesTable,
	ProvidePublisher,
	ProvideNoteService,
	ProvideCategoryService,
	ProvideResolver,
	ProvideErrorWriter,
	handlers.NewNoteHandler,
	handlers.NewCategoryHandler,
	ProvideRouterOptions,
	router.NewRouter,
	ProvideHTTPHandler,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil
}
