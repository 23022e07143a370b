package domain

import "time"

// Attribute names shared by both tables.
const (
	AttrUserID     = "userId"
	AttrNoteID     = "noteId"
	AttrCategoryID = "categoryId"
	AttrTitle      = "title"
	AttrContent    = "content"
	AttrName       = "name"
	AttrCreatedAt  = "createdAt"
	AttrUpdatedAt  = "updatedAt"
)

// UncategorizedID is stored on notes created without a category.
const UncategorizedID = "Uncategorized"

// TimestampLayout renders UTC instants with millisecond precision and a Z suffix.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp formats t for storage.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Note is a user's note. UserID and NoteID form the primary key.
type Note struct {
	UserID     string `json:"userId" dynamodbav:"userId"`
	NoteID     string `json:"noteId" dynamodbav:"noteId"`
	Title      string `json:"title" dynamodbav:"title"`
	Content    string `json:"content" dynamodbav:"content"`
	CategoryID string `json:"categoryId" dynamodbav:"categoryId"`
	CreatedAt  string `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt  string `json:"updatedAt" dynamodbav:"updatedAt"`
}

// NotePatch carries the fields of a partial note update. Nil or empty fields
// are left untouched.
type NotePatch struct {
	Title      *string `json:"title,omitempty"`
	Content    *string `json:"content,omitempty"`
	CategoryID *string `json:"categoryId,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p NotePatch) IsEmpty() bool {
	return !present(p.Title) && !present(p.Content) && !present(p.CategoryID)
}

// Fields returns the attribute assignments the patch asks for.
func (p NotePatch) Fields() map[string]string {
	fields := make(map[string]string, 3)
	if present(p.Title) {
		fields[AttrTitle] = *p.Title
	}
	if present(p.Content) {
		fields[AttrContent] = *p.Content
	}
	if present(p.CategoryID) {
		fields[AttrCategoryID] = *p.CategoryID
	}
	return fields
}

func present(s *string) bool {
	return s != nil && *s != ""
}
