package users

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"doculingua-backend/internal/mail"
	"doculingua-backend/internal/shared/storage/object"
)

type fakeTokens struct{}

func (fakeTokens) Sign(sub, email, name string) (string, error) {
	return "token-" + sub, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) last() mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return mail.Message{}
	}
	return m.sent[len(m.sent)-1]
}

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	putErr  error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}}
}

func (b *fakeBlobs) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (object.Blob, error) {
	if b.putErr != nil {
		return object.Blob{}, b.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return object.Blob{}, err
	}
	b.mu.Lock()
	b.objects[key] = data
	b.mu.Unlock()
	return object.Blob{Key: key, URL: "https://cdn.test/" + key, SizeBytes: int64(len(data)), ContentType: contentType}, nil
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
	delete(b.objects, key)
	b.deleted = append(b.deleted, key)
	return nil
}

func (b *fakeBlobs) URL(ctx context.Context, key string) (string, error) {
	return "https://cdn.test/" + key + "?signed=1", nil
}

func (b *fakeBlobs) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

type fakePurger struct {
	calls []string
	err   error
}

func (p *fakePurger) PurgeOwner(ctx context.Context, userID string) (int64, error) {
	p.calls = append(p.calls, userID)
	if p.err != nil {
		return 0, p.err
	}
	return 2, nil
}

type fakeRevoker struct {
	revoked map[string]time.Time
	err     error
}

func (r *fakeRevoker) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if r.err != nil {
		return r.err
	}
	if r.revoked == nil {
		r.revoked = map[string]time.Time{}
	}
	r.revoked[tokenID] = until
	return nil
}

func (r *fakeRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	_, ok := r.revoked[tokenID]
	return ok, nil
}

type testEnv struct {
	svc    *Service
	repo   *MemoryRepo
	mailer *fakeMailer
	blobs  *fakeBlobs
	docs   *fakePurger
	now    time.Time
}

func newTestEnv() *testEnv {
	env := &testEnv{
		repo:   NewMemoryRepo(),
		mailer: &fakeMailer{},
		blobs:  newFakeBlobs(),
		docs:   &fakePurger{},
		now:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	env.svc = NewService(env.repo, fakeTokens{}, env.mailer, env.blobs)
	env.svc.Docs = env.docs
	env.svc.HashCost = bcrypt.MinCost
	env.svc.now = func() time.Time { return env.now }
	return env
}

var errBoom = errors.New("boom")
