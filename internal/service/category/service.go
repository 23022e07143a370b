// Package category provides business logic for categories, including the
// cascading delete that removes a category together with its notes.
package category

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/RedDeadth/Typeimp-Repository/internal/domain"
	"github.com/RedDeadth/Typeimp-Repository/internal/events"
	"github.com/RedDeadth/Typeimp-Repository/internal/observability"
	"github.com/RedDeadth/Typeimp-Repository/internal/service"
	"github.com/RedDeadth/Typeimp-Repository/internal/store"
	appErrors "github.com/RedDeadth/Typeimp-Repository/pkg/errors"
)

// User-facing messages.
const (
	MsgNameRequired    = "Name is required."
	MsgNothingToUpdate = "No fields to update provided."
	MsgNotFound        = "Category not found."
	MsgUpdateNotFound  = "Category not found or you do not have permission to update it."
)

// CreateInput is the body of a create request.
type CreateInput struct {
	Name string `json:"name" validate:"required"`
}

// NoteFailure records a note the cascade could not delete.
type NoteFailure struct {
	NoteID string `json:"noteId"`
	Error  string `json:"error"`
}

// CascadeResult summarises a cascading delete.
type CascadeResult struct {
	CategoryID   string        `json:"categoryId"`
	NotesMatched int           `json:"notesMatched"`
	NotesDeleted int           `json:"notesDeleted"`
	Failures     []NoteFailure `json:"failures,omitempty"`
}

// FailedNoteIDs lists the ids of notes that were not deleted.
func (r CascadeResult) FailedNoteIDs() []string {
	ids := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		ids[i] = f.NoteID
	}
	return ids
}

// Service defines the category operations. Every call is scoped to owner.
type Service interface {
	List(ctx context.Context, owner string) ([]domain.Category, error)
	Get(ctx context.Context, owner, categoryID string) (*domain.Category, error)
	Create(ctx context.Context, owner string, in CreateInput) (*domain.Category, error)
	Update(ctx context.Context, owner, categoryID string, patch domain.CategoryPatch) (*domain.Category, error)

	// DeleteCascade deletes the category and every note of owner that
	// references it. Note deletions are best effort: failures are reported in
	// the result and do not prevent the category from being deleted.
	DeleteCascade(ctx context.Context, owner, categoryID string) (*CascadeResult, error)
}

// Config holds the service dependencies.
type Config struct {
	Categories    store.Table[domain.Category]
	Notes         store.Table[domain.Note]
	CategoryIndex string
	// Concurrency bounds the note deletions a cascade runs at once.
	Concurrency int
	Publisher   events.Publisher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Now         func() time.Time
	NewID       func() string
}

type categoryService struct {
	categories    store.Table[domain.Category]
	notes         store.Table[domain.Note]
	categoryIndex string
	concurrency   int
	publisher     events.Publisher
	metrics       *observability.Metrics
	logger        *zap.Logger
	tracer        trace.Tracer
	now           func() time.Time
	newID         func() string
}

// NewService creates a category service.
func NewService(cfg Config) Service {
	s := &categoryService{
		categories:    cfg.Categories,
		notes:         cfg.Notes,
		categoryIndex: cfg.CategoryIndex,
		concurrency:   cfg.Concurrency,
		publisher:     cfg.Publisher,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
		tracer:        otel.Tracer("github.com/RedDeadth/Typeimp-Repository/internal/service/category"),
		now:           cfg.Now,
		newID:         cfg.NewID,
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	if s.publisher == nil {
		s.publisher = events.NewLogPublisher(cfg.Logger)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}
	return s
}

func (s *categoryService) List(ctx context.Context, owner string) ([]domain.Category, error) {
	if err := service.RequireOwner(owner); err != nil {
		return nil, err
	}

	categories, err := s.categories.QueryByPartition(ctx, owner)
	if err != nil {
		return nil, service.StoreError(err, "retrieve categories", MsgNotFound)
	}
	return categories, nil
}

func (s *categoryService) Get(ctx context.Context, owner, categoryID string) (*domain.Category, error) {
	if err := service.RequireOwner(owner); err != nil {
		return nil, err
	}

	category, err := s.categories.Get(ctx, store.Key{Partition: owner, Sort: categoryID})
	if err != nil {
		return nil, service.StoreError(err, "retrieve category", MsgNotFound)
	}
	if category == nil {
		return nil, appErrors.NewNotFound(MsgNotFound)
	}
	return category, nil
}

func (s *categoryService) Create(ctx context.Context, owner string, in CreateInput) (*domain.Category, error) {
	if err := service.RequireOwner(owner); err != nil {
		return nil, err
	}
	if err := service.Validator().StructCtx(ctx, in); err != nil {
		return nil, appErrors.NewValidation(MsgNameRequired)
	}

	ts := domain.Timestamp(s.now())
	category := domain.Category{
		UserID:     owner,
		CategoryID: s.newID(),
		Name:       in.Name,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}

	if err := s.categories.Put(ctx, category, store.MustNotExist); err != nil {
		return nil, service.StoreError(err, "create category", MsgNotFound)
	}

	s.logger.Info("Category created",
		zap.String("user_id", owner),
		zap.String("category_id", category.CategoryID))
	s.publisher.Publish(ctx, events.Event{Type: events.CategoryCreated, UserID: owner, EntityID: category.CategoryID, Detail: category})
	return &category, nil
}

func (s *categoryService) Update(ctx context.Context, owner, categoryID string, patch domain.CategoryPatch) (*domain.Category, error) {
	if err := service.RequireOwner(owner); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, appErrors.NewValidation(MsgNothingToUpdate)
	}

	set := store.Assignments{domain.AttrUpdatedAt: domain.Timestamp(s.now())}
	for attr, value := range patch.Fields() {
		set[attr] = value
	}

	category, err := s.categories.Update(ctx, store.Key{Partition: owner, Sort: categoryID}, set, store.MustExist)
	if err != nil {
		return nil, service.StoreError(err, "update category", MsgUpdateNotFound)
	}

	s.logger.Info("Category updated", zap.String("user_id", owner), zap.String("category_id", categoryID))
	s.publisher.Publish(ctx, events.Event{Type: events.CategoryUpdated, UserID: owner, EntityID: categoryID, Detail: patch.Fields()})
	return category, nil
}

func (s *categoryService) DeleteCascade(ctx context.Context, owner, categoryID string) (*CascadeResult, error) {
	if err := service.RequireOwner(owner); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "category.DeleteCascade",
		trace.WithAttributes(attribute.String("category.id", categoryID)))
	defer span.End()

	if _, err := s.Get(ctx, owner, categoryID); err != nil {
		return nil, err
	}

	// The userId filter keeps the index from leaking other tenants' notes
	// that happen to carry the same category id.
	notes, err := s.notes.QueryByIndex(ctx, s.categoryIndex, categoryID, store.Equals(domain.AttrUserID, owner))
	if err != nil {
		return nil, service.StoreError(err, "retrieve notes for category", MsgNotFound)
	}

	result := &CascadeResult{CategoryID: categoryID, NotesMatched: len(notes)}
	outcomes := make([]error, len(notes))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, n := range notes {
		i, noteID := i, n.NoteID
		g.Go(func() error {
			outcomes[i] = s.deleteNote(ctx, owner, noteID)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range outcomes {
		if err == nil {
			result.NotesDeleted++
			s.countNote("deleted")
			continue
		}
		s.countNote("failed")
		result.Failures = append(result.Failures, NoteFailure{NoteID: notes[i].NoteID, Error: err.Error()})
		s.logger.Warn("Cascade could not delete note",
			zap.String("user_id", owner),
			zap.String("category_id", categoryID),
			zap.String("note_id", notes[i].NoteID),
			zap.Error(err))
	}
	span.SetAttributes(
		attribute.Int("cascade.notes_matched", result.NotesMatched),
		attribute.Int("cascade.notes_deleted", result.NotesDeleted))

	// Existence was confirmed above; notes already deleted are not restored
	// if this fails.
	if err := s.categories.Delete(ctx, store.Key{Partition: owner, Sort: categoryID}, store.None); err != nil {
		span.RecordError(err)
		return nil, service.StoreError(err, "delete category", MsgNotFound)
	}

	s.logger.Info("Category deleted",
		zap.String("user_id", owner),
		zap.String("category_id", categoryID),
		zap.Int("notes_matched", result.NotesMatched),
		zap.Int("notes_deleted", result.NotesDeleted),
		zap.Int("notes_failed", len(result.Failures)))
	s.publisher.Publish(ctx, events.Event{Type: events.CategoryDeleted, UserID: owner, EntityID: categoryID, Detail: result})
	return result, nil
}

// deleteNote removes one note referenced by a cascade. It is safe to retry:
// a note that is already gone counts as deleted.
func (s *categoryService) deleteNote(ctx context.Context, owner, noteID string) error {
	err := s.notes.Delete(ctx, store.Key{Partition: owner, Sort: noteID}, store.MustExist)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

func (s *categoryService) countNote(outcome string) {
	if s.metrics != nil {
		s.metrics.CascadeNotes.WithLabelValues(outcome).Inc()
	}
}
