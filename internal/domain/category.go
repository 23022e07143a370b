package domain

// Category groups notes. UserID and CategoryID form the primary key.
type Category struct {
	UserID     string `json:"userId" dynamodbav:"userId"`
	CategoryID string `json:"categoryId" dynamodbav:"categoryId"`
	Name       string `json:"name" dynamodbav:"name"`
	CreatedAt  string `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt  string `json:"updatedAt" dynamodbav:"updatedAt"`
}

// CategoryPatch carries the fields of a partial category update.
type CategoryPatch struct {
	Name *string `json:"name,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p CategoryPatch) IsEmpty() bool {
	return !present(p.Name)
}

// Fields returns the attribute assignments the patch asks for.
func (p CategoryPatch) Fields() map[string]string {
	fields := make(map[string]string, 1)
	if present(p.Name) {
		fields[AttrName] = *p.Name
	}
	return fields
}
