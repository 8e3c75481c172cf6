package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Document // id -> document
	now  func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Document),
		now:  time.Now,
	}
}

// Create stores doc, enforcing the per-owner name uniqueness a database index would.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[doc.ID]; ok {
		return ErrConflict
	}
	if r.nameTakenLocked(doc.UserID, doc.DocumentName, "") {
		return ErrConflict
	}
	now := r.now().UTC()
	// Keep insertion order stable for documents created within the same clock tick.
	for _, existing := range r.data {
		if existing.UserID == doc.UserID && !now.After(existing.CreatedAt) {
			now = existing.CreatedAt.Add(time.Nanosecond)
		}
	}
	doc.CreatedAt = now
	doc.UpdatedAt = now
	r.data[doc.ID] = doc
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (r *MemoryRepo) FindByOwnerAndName(ctx context.Context, ownerID, name string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := nameKey(name)
	for _, doc := range r.data {
		if doc.UserID == ownerID && nameKey(doc.DocumentName) == key {
			return doc, nil
		}
	}
	return Document{}, ErrNotFound
}

// ListByOwner returns documents for an owner, newest first, honoring limit/offset.
func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	docs := make([]Document, 0)
	for _, doc := range r.data {
		if doc.UserID == ownerID {
			docs = append(docs, doc)
		}
	}
	r.mu.RUnlock()

	if offset >= len(docs) {
		return []Document{}, nil
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})

	end := len(docs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return docs[offset:end], nil
}

func (r *MemoryRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, doc := range r.data {
		if doc.UserID == ownerID {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) UpdateContent(ctx context.Context, id string, content Content) (Document, error) {
	return r.mutate(ctx, id, func(doc *Document) error {
		doc.OriginalText = content.OriginalText
		doc.TranslatedText = content.TranslatedText
		doc.ExtractionOK = content.ExtractionOK
		doc.TranslationOK = content.TranslationOK
		return nil
	})
}

func (r *MemoryRepo) UpdateFields(ctx context.Context, id string, upd FieldsUpdate) (Document, error) {
	return r.mutate(ctx, id, func(doc *Document) error {
		if upd.DocumentName != nil {
			if r.nameTakenLocked(doc.UserID, *upd.DocumentName, doc.ID) {
				return ErrConflict
			}
			doc.DocumentName = *upd.DocumentName
		}
		if upd.TranslatedText != nil {
			doc.TranslatedText = *upd.TranslatedText
		}
		return nil
	})
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

func (r *MemoryRepo) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, doc := range r.data {
		if doc.UserID == ownerID {
			delete(r.data, id)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) mutate(ctx context.Context, id string, fn func(*Document) error) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	if err := fn(&doc); err != nil {
		return Document{}, err
	}
	doc.UpdatedAt = r.now().UTC()
	r.data[id] = doc
	return doc, nil
}

func (r *MemoryRepo) nameTakenLocked(ownerID, name, exceptID string) bool {
	key := nameKey(name)
	for id, doc := range r.data {
		if id != exceptID && doc.UserID == ownerID && nameKey(doc.DocumentName) == key {
			return true
		}
	}
	return false
}

var _ Repo = (*MemoryRepo)(nil)
