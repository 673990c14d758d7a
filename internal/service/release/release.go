package release

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/oshokin/ublock-chrome/internal/config"
	"github.com/oshokin/ublock-chrome/internal/version"
)

const (
	// assetNameMarker must appear (case-insensitively) in a qualifying asset name.
	assetNameMarker = "chromium"

	// assetNameSuffix is the archive extension a qualifying asset must carry.
	assetNameSuffix = ".zip"

	// releasePageURL is where users can look for assets manually.
	releasePageURL = "https://github.com/gorhill/uBlock/releases/tag/"

	// unknownTag is reported when the release descriptor lacks a tag name.
	unknownTag = "unknown"
)

var (
	// ErrAssetNotFound is returned when no asset matches the selection predicate.
	ErrAssetNotFound = errors.New("no Chromium .zip asset in the latest release")
	// errBadHTTPStatus is returned when the release endpoint responds with a non-OK status.
	errBadHTTPStatus = errors.New("unexpected http status")
)

// Release is the remote descriptor of a published uBlock Origin version.
type Release struct {
	// TagName is the release tag, e.g. "1.58.0".
	TagName string `json:"tag_name"`
	// Assets are downloadable files attached to the release.
	Assets []Asset `json:"assets"`
}

// Asset is a single downloadable file attached to a release.
type Asset struct {
	// Name is the asset filename.
	Name string `json:"name"`
	// BrowserDownloadURL is the direct download location.
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Resolver queries the release index and selects the Chromium build asset.
type Resolver struct {
	cfg *config.Config
}

// NewResolver returns a resolver bound to the configured release endpoint.
func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve fetches the latest release descriptor and returns the download URL
// of the first asset whose name contains "chromium" (case-insensitive) and
// ends with ".zip", together with the release tag.
func (r *Resolver) Resolve(ctx context.Context) (downloadURL, tag string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.ReleaseURL, http.NoBody)
	if err != nil {
		return "", "", err
	}

	req.Header.Set("User-Agent", "ublock-chrome-installer/"+version.Short())

	response, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", "", err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("%s, %s: %w", r.cfg.ReleaseURL, response.Status, errBadHTTPStatus)
	}

	var rel Release
	if err = json.NewDecoder(response.Body).Decode(&rel); err != nil {
		return "", "", fmt.Errorf("decode release descriptor: %w", err)
	}

	tag = rel.TagName
	if tag == "" {
		tag = unknownTag
	}

	if asset, ok := selectAsset(rel.Assets); ok {
		return asset.BrowserDownloadURL, tag, nil
	}

	return "", tag, fmt.Errorf("check %s%s: %w", releasePageURL, tag, ErrAssetNotFound)
}

// selectAsset returns the first asset matching the fixed name predicate.
func selectAsset(assets []Asset) (Asset, bool) {
	for _, asset := range assets {
		name := strings.ToLower(asset.Name)
		if strings.Contains(name, assetNameMarker) && strings.HasSuffix(name, assetNameSuffix) {
			return asset, true
		}
	}

	return Asset{}, false
}
