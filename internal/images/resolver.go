package images

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/matespatagonico/storefront/pkg/backend"
	"github.com/matespatagonico/storefront/pkg/logger"
)

const (
	defaultPlaceholderHost = "https://placehold.co"
	placeholderBackground  = "e0f2f1"
	placeholderForeground  = "004d40"
	defaultName            = "Producto"
)

// Size is a placeholder rendering size in pixels.
type Size struct {
	Width  int
	Height int
}

var (
	SizeThumbnail = Size{Width: 100, Height: 100}
	SizeCard      = Size{Width: 400, Height: 300}
)

// ParseSize maps the view names used by the gateway to a Size.
func ParseSize(name string) Size {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "card":
		return SizeCard
	default:
		return SizeThumbnail
	}
}

// Image is what a view should display.
type Image struct {
	URL         string `json:"url"`
	MIME        string `json:"mime,omitempty"`
	Placeholder bool   `json:"placeholder"`
}

type imageFetcher interface {
	Image(ctx context.Context, ref string) (backend.ImageEnvelope, error)
}

type imageCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	ImageKey(ref string) string
}

// Resolver turns opaque image references into displayable URLs. It is best
// effort: every failure degrades to a deterministic placeholder.
type Resolver struct {
	fetcher         imageFetcher
	cache           imageCache
	cacheTTL        time.Duration
	placeholderHost string
	logg            *logger.Logger
}

type ResolverParams struct {
	Fetcher         imageFetcher
	Cache           imageCache
	CacheTTL        time.Duration
	PlaceholderHost string
	Logger          *logger.Logger
}

func NewResolver(params ResolverParams) (*Resolver, error) {
	if params.Fetcher == nil {
		return nil, fmt.Errorf("image fetcher required")
	}
	host := strings.TrimRight(strings.TrimSpace(params.PlaceholderHost), "/")
	if host == "" {
		host = defaultPlaceholderHost
	}
	return &Resolver{
		fetcher:         params.Fetcher,
		cache:           params.Cache,
		cacheTTL:        params.CacheTTL,
		placeholderHost: host,
		logg:            params.Logger,
	}, nil
}

// Resolve returns a data URL for ref or a placeholder keyed by name.
func (r *Resolver) Resolve(ctx context.Context, ref, name string, size Size) Image {
	placeholder := Image{URL: Placeholder(r.placeholderHost, name, size), Placeholder: true}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return placeholder
	}

	if cached, ok := r.fromCache(ctx, ref); ok {
		return cached
	}

	envelope, err := r.fetcher.Image(ctx, ref)
	if err != nil {
		r.logg.Warn(r.logg.WithFields(ctx, map[string]any{"image_ref": ref, "error": err.Error()}), "image fetch failed, using placeholder")
		return placeholder
	}

	img, ok := dataURL(envelope.File)
	if !ok {
		r.logg.Warn(r.logg.WithField(ctx, "image_ref", ref), "image envelope malformed or not an image, using placeholder")
		return placeholder
	}

	r.toCache(ctx, ref, img.URL)
	return img
}

func (r *Resolver) fromCache(ctx context.Context, ref string) (Image, bool) {
	if r.cache == nil {
		return Image{}, false
	}
	value, err := r.cache.Get(ctx, r.cache.ImageKey(ref))
	if err != nil || !strings.HasPrefix(value, "data:") {
		return Image{}, false
	}
	mime := mimeOfDataURL(value)
	if !strings.HasPrefix(mime, "image/") {
		return Image{}, false
	}
	return Image{URL: value, MIME: mime}, true
}

func (r *Resolver) toCache(ctx context.Context, ref, value string) {
	if r.cache == nil || r.cacheTTL <= 0 {
		return
	}
	if err := r.cache.Set(ctx, r.cache.ImageKey(ref), value, r.cacheTTL); err != nil {
		r.logg.Debug(r.logg.WithField(ctx, "error", err.Error()), "image cache write failed")
	}
}

// Placeholder builds the deterministic placeholder URL for a display name.
func Placeholder(host, name string, size Size) string {
	if strings.TrimSpace(host) == "" {
		host = defaultPlaceholderHost
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultName
	}
	text := strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
	return fmt.Sprintf("%s/%dx%d/%s/%s?text=%s",
		strings.TrimRight(host, "/"), size.Width, size.Height, placeholderBackground, placeholderForeground, text)
}

// dataURL validates the base64 payload and sniffs its MIME type. Payloads that
// do not sniff as an image are refused so they never reach an <img> as a
// mislabeled data URL.
func dataURL(file string) (Image, bool) {
	file = strings.TrimSpace(file)
	if file == "" {
		return Image{}, false
	}
	raw, err := base64.StdEncoding.DecodeString(file)
	if err != nil || len(raw) == 0 {
		return Image{}, false
	}
	mime := mimetype.Detect(raw).String()
	if !strings.HasPrefix(mime, "image/") {
		return Image{}, false
	}
	return Image{URL: fmt.Sprintf("data:%s;base64,%s", mime, file), MIME: mime}, true
}

func mimeOfDataURL(value string) string {
	rest := strings.TrimPrefix(value, "data:")
	if idx := strings.Index(rest, ";"); idx > 0 {
		return rest[:idx]
	}
	return ""
}
