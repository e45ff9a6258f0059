package imagesource

import (
	"context"
	"encoding/base64"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/GoArmGo/CampusEvents/internal/config"
	"github.com/GoArmGo/CampusEvents/internal/domain"
	"github.com/GoArmGo/CampusEvents/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader достаточно для определения типа по содержимому.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

// testLoader разрешает loopback, чтобы ходить в httptest-сервер.
func testLoader(maxBytes int64) *Loader {
	return newLoader(maxBytes, logger.Discard(), true)
}

func dataURI(mime string, b []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(b)
}

func TestLoadDataURI(t *testing.T) {
	l := testLoader(1 << 20)

	img, err := l.Load(context.Background(), dataURI("image/png", pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, ".png", img.Ext)
	assert.Equal(t, pngHeader, img.Data)
}

func TestLoadRejects(t *testing.T) {
	l := testLoader(64)

	tests := []struct {
		name string
		ref  string
		msg  string
	}{
		{"not an image", dataURI("image/png", []byte("hello, plain text")), msgNotImage},
		{"too large", dataURI("image/png", append(append([]byte{}, pngHeader...), make([]byte, 128)...)), msgTooLarge},
		{"not base64", "data:image/png,rawbytes", msgUnsupportedRef},
		{"bad scheme", "ftp://example.com/a.png", msgUnsupportedRef},
		{"garbage", "definitely not a reference", msgUnsupportedRef},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Load(context.Background(), tt.ref)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation))
			msg, ok := domain.PublicMessage(err)
			require.True(t, ok)
			assert.Equal(t, tt.msg, msg)
		})
	}
}

func TestLoadRemoteURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			_, _ = w.Write(pngHeader)
		case "/page.html":
			_, _ = w.Write([]byte("<html><body>hi</body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := testLoader(1 << 20)

	img, err := l.Load(context.Background(), srv.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)

	_, err = l.Load(context.Background(), srv.URL+"/page.html")
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = l.Load(context.Background(), srv.URL+"/missing.png")
	require.Error(t, err)
	msg, _ := domain.PublicMessage(err)
	assert.Equal(t, msgFetchFailed, msg)
}

func TestLoadRemoteURL_DoesNotFollowRedirects(t *testing.T) {
	var hits atomic.Int32
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(pngHeader)
	}))
	defer target.Close()

	redirector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL+"/secret.png", http.StatusFound)
	}))
	defer redirector.Close()

	_, err := testLoader(1<<20).Load(context.Background(), redirector.URL+"/image.png")
	require.Error(t, err)
	msg, _ := domain.PublicMessage(err)
	assert.Equal(t, msgFetchFailed, msg)
	assert.Zero(t, hits.Load())
}

func TestLoadRemoteURL_RejectsInternalAddresses(t *testing.T) {
	var hits atomic.Int32
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(pngHeader)
	}))
	defer internal.Close()

	l := NewLoader(&config.Config{MaxImageBytes: 1 << 20}, logger.Discard())

	for _, ref := range []string{
		internal.URL + "/internal.png",
		"http://localhost:" + strconv.Itoa(internal.Listener.Addr().(*net.TCPAddr).Port) + "/internal.png",
		"http://0.0.0.0:1/x.png",
		"http://[::1]:1/x.png",
	} {
		_, err := l.Load(context.Background(), ref)
		require.Error(t, err, ref)
		assert.True(t, errors.Is(err, domain.ErrValidation), ref)
		msg, _ := domain.PublicMessage(err)
		assert.Equal(t, msgFetchFailed, msg, ref)
	}
	assert.Zero(t, hits.Load())
}

func TestIsPublicIP(t *testing.T) {
	tests := map[string]bool{
		"8.8.8.8":          true,
		"93.184.216.34":    true,
		"2606:4700::1111":  true,
		"127.0.0.1":        false,
		"10.1.2.3":         false,
		"172.16.0.1":       false,
		"192.168.1.10":     false,
		"169.254.169.254":  false,
		"100.64.0.1":       false,
		"0.0.0.0":          false,
		"::1":              false,
		"fe80::1":          false,
		"fd00::1":          false,
		"::ffff:127.0.0.1": false,
	}
	for in, want := range tests {
		assert.Equal(t, want, isPublicIP(net.ParseIP(in)), in)
	}
	assert.False(t, isPublicIP(nil))
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".jpg", extensionFor("image/jpeg"))
	assert.Equal(t, ".img", extensionFor("image/x-unknown-thing"))
}
