package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
)

// Image fetches the JSON envelope behind an image reference. Relative
// references are resolved against the image base URL, not the API base.
// Absolute references must point at the image or API origin; anything else
// is rejected before a request is made.
func (c *Client) Image(ctx context.Context, ref string) (ImageEnvelope, error) {
	var envelope ImageEnvelope
	if c == nil {
		return envelope, pkgerrors.New(pkgerrors.CodeDependency, "storefront backend client not configured")
	}
	target := c.ImageURL(ref)
	if target == "" {
		return envelope, pkgerrors.New(pkgerrors.CodeValidation, "image reference is required")
	}
	if !c.trustedOrigin(target) {
		return envelope, pkgerrors.New(pkgerrors.CodeValidation, "image reference points outside the storefront backend").
			WithDetails(map[string]any{"ref": ref})
	}
	err := c.do(ctx, request{op: "images.get", method: http.MethodGet, path: target}, &envelope)
	return envelope, err
}

// ImageURL returns the absolute URL for a reference, or "" for a blank one.
func (c *Client) ImageURL(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if isAbsoluteURL(ref) {
		return ref
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(c.imageBaseURL, "/"), strings.TrimLeft(ref, "/"))
}

// trustedOrigin reports whether target shares scheme and host with the image
// or API base URL.
func (c *Client) trustedOrigin(target string) bool {
	parsed, err := url.Parse(target)
	if err != nil || parsed.User != nil || parsed.Host == "" {
		return false
	}
	for _, base := range []string{c.imageBaseURL, c.baseURL} {
		allowed, err := url.Parse(strings.TrimSpace(base))
		if err != nil || allowed.Host == "" {
			continue
		}
		if strings.EqualFold(parsed.Scheme, allowed.Scheme) && strings.EqualFold(parsed.Host, allowed.Host) {
			return true
		}
	}
	return false
}
