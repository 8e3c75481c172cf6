package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"testing"
	"time"

	minioLib "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doculingua-backend/internal/shared/storage/object"
)

// fakeMinio implements minioAPI without a network.
type fakeMinio struct {
	bucketExists    bool
	bucketExistsErr error
	makeBucketErr   error
	madeBucket      bool

	putInfo minioLib.UploadInfo
	putErr  error
	putKey  string
	putType string

	getRC  io.ReadCloser
	getErr error

	removeErr error

	statErr error

	presignErr error
}

func (f *fakeMinio) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.bucketExists, f.bucketExistsErr
}
func (f *fakeMinio) MakeBucket(_ context.Context, _ string, _ minioLib.MakeBucketOptions) error {
	f.madeBucket = true
	return f.makeBucketErr
}
func (f *fakeMinio) PutObject(_ context.Context, _ string, key string, _ io.Reader, _ int64, opts minioLib.PutObjectOptions) (minioLib.UploadInfo, error) {
	f.putKey = key
	f.putType = opts.ContentType
	return f.putInfo, f.putErr
}
func (f *fakeMinio) GetObject(_ context.Context, _ string, _ string, _ minioLib.GetObjectOptions) (io.ReadCloser, error) {
	return f.getRC, f.getErr
}
func (f *fakeMinio) RemoveObject(_ context.Context, _ string, _ string, _ minioLib.RemoveObjectOptions) error {
	return f.removeErr
}
func (f *fakeMinio) StatObject(_ context.Context, _ string, _ string, _ minioLib.StatObjectOptions) (minioLib.ObjectInfo, error) {
	return minioLib.ObjectInfo{}, f.statErr
}
func (f *fakeMinio) PresignedGetObject(_ context.Context, bucket, key string, _ time.Duration, _ url.Values) (*url.URL, error) {
	if f.presignErr != nil {
		return nil, f.presignErr
	}
	return &url.URL{Scheme: "http", Host: "minio:9000", Path: "/" + bucket + "/" + key}, nil
}

func noSuchKey() error {
	return minioLib.ErrorResponse{Code: "NoSuchKey", Message: "missing"}
}

func TestNewWithAPI_CreatesMissingBucket(t *testing.T) {
	api := &fakeMinio{bucketExists: false}
	s, err := newWithAPI(context.Background(), api, "docs")
	require.NoError(t, err)
	assert.Equal(t, "docs", s.bucket)
	assert.True(t, api.madeBucket)
}

func TestNewWithAPI_BucketErrors(t *testing.T) {
	_, err := newWithAPI(context.Background(), &fakeMinio{bucketExistsErr: errors.New("boom")}, "docs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ensure bucket exists")

	_, err = newWithAPI(context.Background(), &fakeMinio{makeBucketErr: errors.New("fail")}, "docs")
	require.Error(t, err)
}

func TestStore_Put(t *testing.T) {
	api := &fakeMinio{bucketExists: true, putInfo: minioLib.UploadInfo{Size: 4}}
	s, err := newWithAPI(context.Background(), api, "docs")
	require.NoError(t, err)

	blob, err := s.Put(context.Background(), "uploads/a.pdf", "application/pdf", bytes.NewReader([]byte("data")), 4)
	require.NoError(t, err)
	assert.Equal(t, "uploads/a.pdf", blob.Key)
	assert.Equal(t, int64(4), blob.SizeBytes)
	assert.Equal(t, "http://minio:9000/docs/uploads/a.pdf", blob.URL)
	assert.Equal(t, "application/pdf", api.putType)

	api.putErr = errors.New("put-fail")
	_, err = s.Put(context.Background(), "k", "text/plain", bytes.NewReader(nil), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload object")
}

func TestStore_Get(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		api := &fakeMinio{getRC: io.NopCloser(bytes.NewReader([]byte("abc")))}
		s := &Store{api: api, bucket: "docs"}
		rc, err := s.Get(context.Background(), "k")
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "abc", string(data))
	})

	t.Run("missing", func(t *testing.T) {
		s := &Store{api: &fakeMinio{statErr: noSuchKey()}, bucket: "docs"}
		_, err := s.Get(context.Background(), "k")
		assert.ErrorIs(t, err, object.ErrNotFound)
	})

	t.Run("stat failure", func(t *testing.T) {
		s := &Store{api: &fakeMinio{statErr: errors.New("down")}, bucket: "docs"}
		_, err := s.Get(context.Background(), "k")
		require.Error(t, err)
		assert.NotErrorIs(t, err, object.ErrNotFound)
	})
}

func TestStore_Delete(t *testing.T) {
	s := &Store{api: &fakeMinio{}, bucket: "docs"}
	assert.NoError(t, s.Delete(context.Background(), "k"))

	s = &Store{api: &fakeMinio{removeErr: noSuchKey()}, bucket: "docs"}
	assert.NoError(t, s.Delete(context.Background(), "k"))

	s = &Store{api: &fakeMinio{removeErr: errors.New("rm")}, bucket: "docs"}
	err := s.Delete(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete object")
}

func TestStore_URLError(t *testing.T) {
	s := &Store{api: &fakeMinio{presignErr: errors.New("sign")}, bucket: "docs"}
	_, err := s.URL(context.Background(), "k")
	assert.Error(t, err)
}
