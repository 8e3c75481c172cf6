package documents

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"doculingua-backend/internal/shared/storage/object"
	"doculingua-backend/internal/translate"
)

var errBoom = errors.New("boom")

type fakeBlobs struct {
	mu        sync.Mutex
	objects   map[string][]byte
	puts      int
	deleted   []string
	putErr    error
	deleteErr error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}}
}

func (b *fakeBlobs) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (object.Blob, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.puts++
	if b.putErr != nil {
		return object.Blob{}, b.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return object.Blob{}, err
	}
	b.objects[key] = data
	return object.Blob{Key: key, URL: "https://blobs.test/" + key, SizeBytes: int64(len(data)), ContentType: contentType}, nil
}

func (b *fakeBlobs) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, object.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *fakeBlobs) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, key)
	if b.deleteErr != nil {
		return b.deleteErr
	}
	delete(b.objects, key)
	return nil
}

func (b *fakeBlobs) URL(ctx context.Context, key string) (string, error) {
	return "https://blobs.test/" + key, nil
}

func (b *fakeBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

// fakeExtractor reads the blob back like the real extractor and returns its bytes as text.
type fakeExtractor struct {
	err   error
	calls int
}

func (e *fakeExtractor) ExtractObject(ctx context.Context, store object.BlobStore, key, fileName string) (string, error) {
	e.calls++
	if e.err != nil {
		return "", e.err
	}
	rc, err := store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	return string(raw), err
}

type fakeTranslator struct {
	err   error
	calls []string
}

func (t *fakeTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	t.calls = append(t.calls, source+">"+target+":"+text)
	if t.err != nil {
		return "", t.err
	}
	return "[" + target + "] " + text, nil
}

type fakeOwners struct {
	mu      sync.Mutex
	known   map[string]bool
	docs    map[string][]string
	cleared []string
	linkErr error
}

func newFakeOwners(ids ...string) *fakeOwners {
	o := &fakeOwners{known: map[string]bool{}, docs: map[string][]string{}}
	for _, id := range ids {
		o.known[id] = true
	}
	return o
}

func (o *fakeOwners) Exists(ctx context.Context, userID string) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.known[userID], nil
}

func (o *fakeOwners) LinkDocument(ctx context.Context, userID, documentID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.linkErr != nil {
		return o.linkErr
	}
	o.docs[userID] = append(o.docs[userID], documentID)
	return nil
}

func (o *fakeOwners) UnlinkDocument(ctx context.Context, userID, documentID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	kept := []string{}
	for _, id := range o.docs[userID] {
		if id != documentID {
			kept = append(kept, id)
		}
	}
	o.docs[userID] = kept
	return nil
}

func (o *fakeOwners) ClearDocuments(ctx context.Context, userID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cleared = append(o.cleared, userID)
	o.docs[userID] = nil
	return nil
}

func (o *fakeOwners) linked(userID string) []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.docs[userID]...)
}

// racingRepo hides existing names from the pre-check so Create hits the unique constraint.
type racingRepo struct {
	*MemoryRepo
}

func (r racingRepo) FindByOwnerAndName(ctx context.Context, ownerID, name string) (Document, error) {
	return Document{}, ErrNotFound
}

type testEnv struct {
	svc        *Service
	repo       *MemoryRepo
	blobs      *fakeBlobs
	extractor  *fakeExtractor
	translator *fakeTranslator
	owners     *fakeOwners
}

func newTestEnv() *testEnv {
	env := &testEnv{
		repo:       NewMemoryRepo(),
		blobs:      newFakeBlobs(),
		extractor:  &fakeExtractor{},
		translator: &fakeTranslator{},
		owners:     newFakeOwners("alice", "bob"),
	}
	env.svc = NewService(env.repo, env.owners, env.blobs, env.extractor, env.translator)
	return env
}

func upload(owner, name, fileName, contentType, body string) IngestInput {
	return IngestInput{
		OwnerID:        owner,
		DocumentName:   name,
		TargetLanguage: "es",
		FileName:       fileName,
		ContentType:    contentType,
		Data:           []byte(body),
	}
}

var _ translate.Translator = (*fakeTranslator)(nil)
