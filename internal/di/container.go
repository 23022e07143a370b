// Package di wires the application's dependency graph with google/wire.
package di

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/RedDeadth/Typeimp-Repository/internal/config"
	"github.com/RedDeadth/Typeimp-Repository/internal/observability"
	"github.com/RedDeadth/Typeimp-Repository/internal/service/category"
	"github.com/RedDeadth/Typeimp-Repository/internal/service/note"
)

// Container holds all application dependencies
type Container struct {
	Config          *config.Config
	Logger          *zap.Logger
	LogLevel        zap.AtomicLevel
	Metrics         *observability.Metrics
	NoteService     note.Service
	CategoryService category.Service
	Router          *chi.Mux
}
