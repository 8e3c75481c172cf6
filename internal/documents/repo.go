package documents

import "context"

// Repo persists document records. Implementations report a duplicate
// (owner, case-insensitive name) as ErrConflict and a missing id as ErrNotFound.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, id string) (Document, error)
	FindByOwnerAndName(ctx context.Context, ownerID, name string) (Document, error)
	// ListByOwner returns documents newest first.
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Document, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	UpdateContent(ctx context.Context, id string, content Content) (Document, error)
	UpdateFields(ctx context.Context, id string, upd FieldsUpdate) (Document, error)
	Delete(ctx context.Context, id string) error
	// DeleteByOwner removes every document of ownerID and returns how many went.
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}

// Owners maintains the owner side of the document relation.
type Owners interface {
	Exists(ctx context.Context, userID string) (bool, error)
	LinkDocument(ctx context.Context, userID, documentID string) error
	UnlinkDocument(ctx context.Context, userID, documentID string) error
	ClearDocuments(ctx context.Context, userID string) error
}
