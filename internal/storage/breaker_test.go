package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockObjectStore implements ObjectStore for testing
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error) {
	args := m.Called(ctx, key, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	args := m.Called(ctx, prefix)
	keys, _ := args.Get(0).([]string)
	return keys, args.Error(1)
}

func (m *MockObjectStore) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockObjectStore) DeleteFile(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func testBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "test",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      3,
	}
}

func TestBreaker_PassesThrough(t *testing.T) {
	inner := &MockObjectStore{}
	inner.On("ListKeys", mock.Anything, "data/").Return([]string{"data/antenna1.s2p"}, nil)
	inner.On("DownloadFile", mock.Anything, "data/antenna1.s2p").Return([]byte("# GHz S RI"), nil)
	inner.On("DeleteFile", mock.Anything, "data/antenna1.s2p").Return(nil)
	inner.On("GenerateUploadURL", mock.Anything, "data/new.s2p", "text/plain").Return("http://upload", nil)

	store := WithBreaker(inner, testBreakerConfig())
	ctx := context.Background()

	keys, err := store.ListKeys(ctx, "data/")
	require.NoError(t, err)
	assert.Equal(t, []string{"data/antenna1.s2p"}, keys)

	data, err := store.DownloadFile(ctx, "data/antenna1.s2p")
	require.NoError(t, err)
	assert.Equal(t, "# GHz S RI", string(data))

	require.NoError(t, store.DeleteFile(ctx, "data/antenna1.s2p"))

	url, err := store.GenerateUploadURL(ctx, "data/new.s2p", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "http://upload", url)

	inner.AssertExpectations(t)
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	inner := &MockObjectStore{}
	boom := errors.New("connection refused")
	inner.On("DownloadFile", mock.Anything, mock.Anything).Return(nil, boom).Times(3)

	store := WithBreaker(inner, testBreakerConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.DownloadFile(ctx, "k.s2p")
		assert.ErrorIs(t, err, boom)
	}

	_, err := store.DownloadFile(ctx, "k.s2p")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	inner.AssertNumberOfCalls(t, "DownloadFile", 3)
}

func TestBreaker_IgnoresCancellation(t *testing.T) {
	inner := &MockObjectStore{}
	inner.On("ListKeys", mock.Anything, "").Return(nil, context.Canceled)

	store := WithBreaker(inner, testBreakerConfig())
	for i := 0; i < 5; i++ {
		_, err := store.ListKeys(context.Background(), "")
		assert.ErrorIs(t, err, context.Canceled)
	}
	inner.AssertNumberOfCalls(t, "ListKeys", 5)
}

func TestEnsureBucket_NonMinio(t *testing.T) {
	store := WithBreaker(&MockObjectStore{}, testBreakerConfig())
	assert.NoError(t, EnsureBucket(context.Background(), store))
}

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name        string
		key         string
		contentType string
		wantErr     string
	}{
		{"plain text", "uploads/antenna4.s2p", "text/plain", ""},
		{"binary", "antenna4.S2P", "application/octet-stream", ""},
		{"audio", "antenna4.s2p", "audio/wav", "invalid content type"},
		{"wrong extension", "antenna4.s3p", "text/plain", "invalid file name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.key, tt.contentType)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
