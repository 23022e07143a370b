// Package note provides business logic for managing a user's notes.
package note

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RedDeadth/Typeimp-Repository/internal/domain"
	"github.com/RedDeadth/Typeimp-Repository/internal/events"
	"github.com/RedDeadth/Typeimp-Repository/internal/service"
	"github.com/RedDeadth/Typeimp-Repository/internal/store"
	appErrors "github.com/RedDeadth/Typeimp-Repository/pkg/errors"
)

// User-facing messages.
const (
	MsgRequired        = "Title and content are required."
	MsgNothingToUpdate = "No fields to update provided."
	MsgNotFound        = "Note not found."
	MsgUpdateNotFound  = "Note not found or you do not have permission to update it."
	MsgDeleteNotFound  = "Note not found or you do not have permission to delete it."
)

// CreateInput is the body of a create request.
type CreateInput struct {
	Title      string `json:"title" validate:"required"`
	Content    string `json:"content" validate:"required"`
	CategoryID string `json:"categoryId"`
}

// Service defines the note operations. Every call is scoped to owner.
type Service interface {
	// List returns all notes of owner.
	List(ctx context.Context, owner string) ([]domain.Note, error)

	// ListByCategory returns the notes of owner filed under categoryID.
	ListByCategory(ctx context.Context, owner, categoryID string) ([]domain.Note, error)

	Get(ctx context.Context, owner, noteID string) (*domain.Note, error)
	Create(ctx context.Context, owner string, in CreateInput) (*domain.Note, error)

	// Update applies the fields present in patch and refreshes updatedAt.
	Update(ctx context.Context, owner, noteID string, patch domain.NotePatch) (*domain.Note, error)

	Delete(ctx context.Context, owner, noteID string) error
}

// Option customises a service.
type Option func(*noteService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *noteService) { s.now = now }
}

// WithIDGenerator overrides note id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *noteService) { s.newID = newID }
}

type noteService struct {
	notes         store.Table[domain.Note]
	categoryIndex string
	publisher     events.Publisher
	logger        *zap.Logger
	now           func() time.Time
	newID         func() string
}

// NewService creates a note service over the notes table. categoryIndex
// names the secondary index keyed by categoryId.
func NewService(notes store.Table[domain.Note], categoryIndex string, publisher events.Publisher, logger *zap.Logger, opts ...Option) Service {
	s := &noteService{
		notes:         notes,
		categoryIndex: categoryIndex,
		publisher:     publisher,
		logger:        logger,
		now:           time.Now,
		newID:         func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *noteService) List(ctx context.Context, owner string) ([]domain.Note, error) {
	if err := service.RequireOwner(owner); err != nil {
		return nil, err
	}

	notes, err := s.notes.QueryByPartition(ctx, owner)
	if err != nil {
		return nil, service.StoreError(err, "retrieve notes", MsgNotFound)
	}
	return notes, nil
}

func (s *noteService) ListByCategory(ctx context.Context, owner, categoryID string) ([]domain.Note, error) {
	if err := service.RequireOwner(owner); err != nil {
		return nil, err
	}
	if categoryID == "" {
		return nil, appErrors.NewValidation("Category ID is required.")
	}

	notes, err := s.notes.QueryByIndex(ctx, s.categoryIndex, categoryID, store.Equals(domain.AttrUserID, owner))
	if err != nil {
		return nil, service.StoreError(err, "retrieve notes", MsgNotFound)
	}
	return notes, nil
}

func (s *noteService) Get(ctx context.Context, owner, noteID string) (*domain.Note, error) {
	if err := service.RequireOwner(owner); err != nil {
		return nil, err
	}

	note, err := s.notes.Get(ctx, store.Key{Partition: owner, Sort: noteID})
	if err != nil {
		return nil, service.StoreError(err, "retrieve note", MsgNotFound)
	}
	if note == nil {
		return nil, appErrors.NewNotFound(MsgNotFound)
	}
	return note, nil
}

func (s *noteService) Create(ctx context.Context, owner string, in CreateInput) (*domain.Note, error) {
	if err := service.RequireOwner(owner); err != nil {
		return nil, err
	}
	if err := service.Validator().StructCtx(ctx, in); err != nil {
		return nil, appErrors.NewValidation(MsgRequired)
	}

	categoryID := in.CategoryID
	if categoryID == "" {
		categoryID = domain.UncategorizedID
	}
	ts := domain.Timestamp(s.now())
	note := domain.Note{
		UserID:     owner,
		NoteID:     s.newID(),
		Title:      in.Title,
		Content:    in.Content,
		CategoryID: categoryID,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}

	// Generated ids are collision-free, so the put is unconditional.
	if err := s.notes.Put(ctx, note, store.None); err != nil {
		return nil, service.StoreError(err, "create note", MsgNotFound)
	}

	s.logger.Info("Note created",
		zap.String("user_id", owner),
		zap.String("note_id", note.NoteID),
		zap.String("category_id", categoryID))
	s.publisher.Publish(ctx, events.Event{Type: events.NoteCreated, UserID: owner, EntityID: note.NoteID, Detail: note})
	return &note, nil
}

func (s *noteService) Update(ctx context.Context, owner, noteID string, patch domain.NotePatch) (*domain.Note, error) {
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

	note, err := s.notes.Update(ctx, store.Key{Partition: owner, Sort: noteID}, set, store.MustExist)
	if err != nil {
		return nil, service.StoreError(err, "update note", MsgUpdateNotFound)
	}

	s.logger.Info("Note updated", zap.String("user_id", owner), zap.String("note_id", noteID))
	s.publisher.Publish(ctx, events.Event{Type: events.NoteUpdated, UserID: owner, EntityID: noteID, Detail: patch.Fields()})
	return note, nil
}

func (s *noteService) Delete(ctx context.Context, owner, noteID string) error {
	if err := service.RequireOwner(owner); err != nil {
		return err
	}

	if err := s.notes.Delete(ctx, store.Key{Partition: owner, Sort: noteID}, store.MustExist); err != nil {
		return service.StoreError(err, "delete note", MsgDeleteNotFound)
	}

	s.logger.Info("Note deleted", zap.String("user_id", owner), zap.String("note_id", noteID))
	s.publisher.Publish(ctx, events.Event{Type: events.NoteDeleted, UserID: owner, EntityID: noteID})
	return nil
}
