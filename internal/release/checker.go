// Package release looks up the latest published payload on GitHub so the
// installed version can be recorded and compared.
package release

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://api.github.com"

// Source identifies a release asset on GitHub.
type Source struct {
	Owner string
	Repo  string
	Asset string
}

// SourceFromURL extracts the repository and asset name from a GitHub
// release download URL such as
// https://github.com/owner/repo/releases/latest/download/asset.zip.
func SourceFromURL(raw string) (Source, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host != "github.com" {
		return Source{}, false
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	// owner/repo/releases/latest/download/asset
	// owner/repo/releases/download/<tag>/asset
	if len(parts) != 6 || parts[2] != "releases" {
		return Source{}, false
	}
	if !(parts[3] == "latest" && parts[4] == "download") && parts[3] != "download" {
		return Source{}, false
	}
	return Source{Owner: parts[0], Repo: parts[1], Asset: parts[5]}, true
}

// Release is the subset of a GitHub release the installer uses.
type Release struct {
	Tag         string    `json:"tag" yaml:"tag"`
	Name        string    `json:"name" yaml:"name"`
	URL         string    `json:"url" yaml:"url"`
	AssetURL    string    `json:"asset_url,omitempty" yaml:"asset_url,omitempty"`
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`
}

// Version returns the normalized tag.
func (r *Release) Version() string {
	return Normalize(r.Tag)
}

type githubRelease struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	HTMLURL     string    `json:"html_url"`
	PublishedAt time.Time `json:"published_at"`
	Assets      []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// Checker queries the GitHub releases API.
type Checker struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewChecker creates a checker with a 30 second request timeout.
func NewChecker() *Checker {
	return &Checker{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: defaultBaseURL,
	}
}

// WithToken sets an optional GitHub token for authentication
func (c *Checker) WithToken(token string) *Checker {
	c.token = token
	return c
}

// WithBaseURL points the checker at another API host.
func (c *Checker) WithBaseURL(base string) *Checker {
	c.baseURL = strings.TrimSuffix(base, "/")
	return c
}

// Latest returns the latest release of src. AssetURL is empty when the
// release does not carry src.Asset.
func (c *Checker) Latest(ctx context.Context, src Source) (*Release, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, src.Owner, src.Repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var gr githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	rel := &Release{
		Tag:         gr.TagName,
		Name:        gr.Name,
		URL:         gr.HTMLURL,
		PublishedAt: gr.PublishedAt,
	}
	for _, a := range gr.Assets {
		if a.Name == src.Asset {
			rel.AssetURL = a.BrowserDownloadURL
			break
		}
	}
	if rel.AssetURL == "" {
		log.Debugf("release %s has no asset %s", gr.TagName, src.Asset)
	}
	return rel, nil
}

// Status compares an installed version with the latest release.
type Status struct {
	Installed       string `json:"installed,omitempty" yaml:"installed,omitempty"`
	Latest          string `json:"latest" yaml:"latest"`
	UpdateAvailable bool   `json:"update_available" yaml:"update_available"`
}

// Compare reports whether latest is newer than installed. An empty or
// unparsable installed version always reports an update.
func Compare(installed string, latest *Release) Status {
	st := Status{Installed: Normalize(installed), Latest: latest.Version()}

	lv, err := ParseVersion(latest.Tag)
	if err != nil {
		st.UpdateAvailable = st.Installed != st.Latest
		return st
	}
	iv, err := ParseVersion(installed)
	if err != nil {
		st.UpdateAvailable = true
		return st
	}
	st.UpdateAvailable = lv.GreaterThan(iv)
	return st
}
