package minio

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	appconfig "github.com/GoArmGo/CampusEvents/internal/config"
	"github.com/GoArmGo/CampusEvents/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectURL(t *testing.T) {
	tests := []struct {
		name, base, bucket, key, want string
	}{
		{"plain", "http://localhost:9000", "events", "events/abc/1.png", "http://localhost:9000/events/events/abc/1.png"},
		{"trailing slash", "https://cdn.example.com/", "events", "a.jpg", "https://cdn.example.com/events/a.jpg"},
		{"escaped", "http://minio:9000", "events", "events/x/my file.png", "http://minio:9000/events/events/x/my%20file.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ObjectURL(tt.base, tt.bucket, tt.key))
		})
	}
}

func TestNewMinioClientRequiresCredentials(t *testing.T) {
	_, err := NewMinioClient(context.Background(), &appconfig.Config{MinioEndpoint: "minio:9000"}, logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MINIO_ACCESS_KEY_ID")
}

func TestPublicReadPolicy(t *testing.T) {
	raw, err := publicReadPolicy("campus")
	require.NoError(t, err)

	var p bucketPolicy
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	require.Len(t, p.Statement, 1)
	st := p.Statement[0]
	assert.Equal(t, "Allow", st.Effect)
	assert.Equal(t, []string{"*"}, st.Principal["AWS"])
	assert.Equal(t, []string{"s3:GetObject"}, st.Action)
	assert.Equal(t, []string{"arn:aws:s3:::campus/events/*"}, st.Resource)
}

func TestNewMinioClientAppliesReadPolicy(t *testing.T) {
	var (
		mu     sync.Mutex
		policy string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead && r.URL.Path == "/campus":
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPut && r.URL.Path == "/campus" && r.URL.Query().Has("policy"):
			body, _ := io.ReadAll(r.Body)
			mu.Lock()
			policy = string(body)
			mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotImplemented)
		}
	}))
	defer srv.Close()

	cfg := &appconfig.Config{
		MinioEndpoint:        strings.TrimPrefix(srv.URL, "http://"),
		MinioAccessKeyID:     "key",
		MinioSecretAccessKey: "secret",
		MinioBucketName:      "campus",
		MinioRegion:          "us-east-1",
	}
	_, err := NewMinioClient(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, policy, "s3:GetObject")
	assert.Contains(t, policy, "arn:aws:s3:::campus/events/*")
}
