package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ACCESS_TOKEN_SECRET", "s3cret")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Duration(0), cfg.TokenTTL)
	assert.Equal(t, "campus-events", cfg.TokenIssuer)
	assert.Equal(t, "image_cleanup_queue", cfg.RabbitMQ.RabbitMQQueueName)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, int64(10<<20), cfg.MaxImageBytes)
	assert.False(t, cfg.ImagesEnabled())
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ACCESS_TOKEN_SECRET", "")
	t.Setenv("STORAGE_DRIVER", "memory")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigPostgresNeedsDSN(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ACCESS_TOKEN_SECRET", "s3cret")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ACCESS_TOKEN_SECRET", "s3cret")
	t.Setenv("STORAGE_DRIVER", "gorm")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/events?sslmode=disable")
	t.Setenv("SERVER_PORT", "5000")
	t.Setenv("TOKEN_TTL", "24h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,https://events.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.ServerPort)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"http://localhost:3000", "https://events.example.com"}, cfg.CORSAllowedOrigins)
}

func TestValidateUnknownDriver(t *testing.T) {
	cfg := &Config{StorageDriver: "mongo", AccessTokenSecret: "s"}
	assert.Error(t, cfg.Validate())
}

func TestPublicImageBaseURL(t *testing.T) {
	cfg := &Config{MinioEndpoint: "minio:9000"}
	assert.Equal(t, "http://minio:9000", cfg.PublicImageBaseURL())

	cfg.MinioUseSSL = true
	assert.Equal(t, "https://minio:9000", cfg.PublicImageBaseURL())

	cfg.MinioPublicURL = "https://cdn.example.com/"
	assert.Equal(t, "https://cdn.example.com", cfg.PublicImageBaseURL())
}

func TestValidateMinioCredentials(t *testing.T) {
	cfg := &Config{StorageDriver: StorageDriverMemory, AccessTokenSecret: "s", MinioEndpoint: "minio:9000"}
	assert.Error(t, cfg.Validate())

	cfg.MinioAccessKeyID = "key"
	cfg.MinioSecretAccessKey = "secret"
	assert.NoError(t, cfg.Validate())
}

func TestTrustedProxyCIDRs(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ACCESS_TOKEN_SECRET", "s3cret")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("TRUSTED_PROXY_CIDRS", "10.0.0.0/8, 192.168.1.0/24")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	nets := cfg.TrustedProxies()
	require.Len(t, nets, 2)
	assert.Equal(t, "10.0.0.0/8", nets[0].String())
	assert.Equal(t, "192.168.1.0/24", nets[1].String())

	assert.Empty(t, (&Config{}).TrustedProxies())
}

func TestValidateRejectsBadProxyCIDR(t *testing.T) {
	cfg := &Config{StorageDriver: StorageDriverMemory, AccessTokenSecret: "s", TrustedProxyCIDRs: []string{"10.0.0.1"}}
	assert.Error(t, cfg.Validate())
}
