package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demand-forecast/internal/config"
)

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		endpoint   string
		useSSL     bool
		wantHost   string
		wantSecure bool
	}{
		{"https://s3.example.com", false, "s3.example.com", true},
		{"http://localhost:9000", true, "localhost:9000", false},
		{"localhost:9000", false, "localhost:9000", false},
		{"//bucket.host", true, "bucket.host", true},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			host, secure := splitEndpoint(tt.endpoint, tt.useSSL)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantSecure, secure)
		})
	}
}

func TestNewMinioClientValidatesConfig(t *testing.T) {
	_, err := NewMinioClient(config.StorageConfig{})
	assert.ErrorContains(t, err, "endpoint")

	_, err = NewMinioClient(config.StorageConfig{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "credentials")

	_, err = NewMinioClient(config.StorageConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.ErrorContains(t, err, "bucket")

	c, err := NewMinioClient(config.StorageConfig{
		Endpoint: "http://localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "reports",
	})
	require.NoError(t, err)
	assert.Equal(t, "reports", c.bucket)
}

func TestNewReturnsNoopWhenDisabled(t *testing.T) {
	s, err := New(config.StorageConfig{Enabled: false})
	require.NoError(t, err)
	assert.IsType(t, Noop{}, s)

	assert.NoError(t, s.UploadObject(context.Background(), "k", []byte("{}")))
	_, err = s.GetObject(context.Background(), "k")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
