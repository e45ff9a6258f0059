package imagesource

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/GoArmGo/CampusEvents/internal/config"
	"github.com/GoArmGo/CampusEvents/internal/domain"
)

// Сообщения об ошибках, которые видит клиент.
const (
	msgUnsupportedRef = "formData must be a data URI or an http(s) URL"
	msgNotImage       = "formData must be an image"
	msgTooLarge       = "image is too large"
	msgFetchFailed    = "unable to fetch image"
)

var extensions = map[string]string{
	"image/jpeg":   ".jpg",
	"image/png":    ".png",
	"image/gif":    ".gif",
	"image/webp":   ".webp",
	"image/bmp":    ".bmp",
	"image/x-icon": ".ico",
}

// Loader получает изображения из data URI или по http(s) ссылке.
type Loader struct {
	httpClient *http.Client
	maxBytes   int64
	logger     *slog.Logger
}

// NewLoader создает новый экземпляр Loader.
// Ссылки на внутренние адреса (loopback, частные сети, link-local) не загружаются.
func NewLoader(cfg *config.Config, logger *slog.Logger) *Loader {
	return newLoader(cfg.MaxImageBytes, logger, false)
}

func newLoader(maxBytes int64, logger *slog.Logger, allowInternal bool) *Loader {
	return &Loader{
		httpClient: newHTTPClient(allowInternal),
		maxBytes:   maxBytes,
		logger:     logger,
	}
}

// errBlockedAddress возвращается при попытке соединиться с внутренним адресом.
var errBlockedAddress = errors.New("imagesource: destination address is not allowed")

// newHTTPClient не следует редиректам и проверяет адрес уже после DNS-разрешения,
// поэтому подмена DNS-ответа не обходит проверку.
func newHTTPClient(allowInternal bool) *http.Client {
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	if !allowInternal {
		dialer.Control = func(network, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return errBlockedAddress
			}
			if !isPublicIP(net.ParseIP(host)) {
				return errBlockedAddress
			}
			return nil
		}
	}

	return &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			Proxy:                 nil,
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   5 * time.Second,
			ResponseHeaderTimeout: 5 * time.Second,
			MaxIdleConns:          10,
			IdleConnTimeout:       30 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// isPublicIP сообщает, можно ли загружать изображение с этого адреса.
func isPublicIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() || ip.IsMulticast() {
		return false
	}
	if ip4 := ip.To4(); ip4 != nil {
		// 100.64.0.0/10 (CGNAT) и 0.0.0.0/8
		if (ip4[0] == 100 && ip4[1]&0xc0 == 64) || ip4[0] == 0 {
			return false
		}
	}
	return true
}

// Load возвращает изображение по ссылке из запроса.
func (l *Loader) Load(ctx context.Context, ref string) (*domain.Image, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case strings.HasPrefix(ref, "data:"):
		return l.fromDataURI(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return l.fromURL(ctx, ref)
	default:
		return nil, domain.Validation(msgUnsupportedRef)
	}
}

func (l *Loader) fromDataURI(ref string) (*domain.Image, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, domain.Validation(msgUnsupportedRef)
	}

	if int64(base64.StdEncoding.DecodedLen(len(payload))) > l.maxBytes+2 {
		return nil, domain.Validation(msgTooLarge)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, domain.Wrap(domain.ErrValidation, msgNotImage, err)
		}
	}
	return l.build(data)
}

func (l *Loader) fromURL(ctx context.Context, ref string) (*domain.Image, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, domain.Wrap(domain.ErrValidation, msgUnsupportedRef, err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, errBlockedAddress) {
			l.logger.Warn("remote image points to an internal address", "url", ref)
			return nil, domain.Wrap(domain.ErrValidation, msgFetchFailed, err)
		}
		l.logger.Warn("failed to fetch remote image", "url", ref, "error", err)
		return nil, domain.Wrap(domain.ErrValidation, msgFetchFailed, err)
	}
	defer resp.Body.Close()

	// редиректы не выполняются и приходят сюда как 3xx
	if resp.StatusCode != http.StatusOK {
		l.logger.Warn("remote image returned unexpected status", "url", ref, "status", resp.StatusCode)
		return nil, domain.Wrap(domain.ErrValidation, msgFetchFailed, fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.ContentLength > l.maxBytes {
		return nil, domain.Validation(msgTooLarge)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(resp.Body, l.maxBytes+1)); err != nil {
		return nil, domain.Wrap(domain.ErrValidation, msgFetchFailed, err)
	}

	l.logger.Info("remote image fetched",
		"url", ref,
		"bytes", buf.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return l.build(buf.Bytes())
}

// build проверяет размер и тип по содержимому, а не по заявленному MIME.
func (l *Loader) build(data []byte) (*domain.Image, error) {
	if int64(len(data)) > l.maxBytes {
		return nil, domain.Validation(msgTooLarge)
	}
	if len(data) == 0 {
		return nil, domain.Validation(msgNotImage)
	}

	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return nil, domain.Validation(msgNotImage)
	}
	return &domain.Image{Data: data, ContentType: ct, Ext: extensionFor(ct)}, nil
}

func extensionFor(contentType string) string {
	if ext, ok := extensions[contentType]; ok {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	return ".img"
}
