package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/go-github/v57/github"
)

// Release repository coordinates.
const (
	repoOwner = "dan0dev"
	repoName  = "ScreenPrompt"
)

// installerSuffix identifies the installer among a release's assets.
const installerSuffix = "-setup.exe"

// Sentinel errors for update operations.
var (
	// ErrNoInstallerAsset indicates the latest release carries no
	// installer asset.
	ErrNoInstallerAsset = errors.New("release has no installer asset")

	// ErrNotDownloaded indicates Launch was called before a successful
	// Download.
	ErrNotDownloaded = errors.New("no downloaded installer")
)

// Release describes the latest published build.
type Release struct {
	// Version is the release tag without its "v" prefix.
	Version string

	// Notes is the release body in Markdown.
	Notes string

	// AssetURL is the installer's download URL.
	AssetURL string
}

// Checker talks to the GitHub releases API and manages the downloaded
// installer. It is not safe for concurrent use.
type Checker struct {
	client  *github.Client
	httpc   *http.Client
	current string

	downloaded string
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithGitHubClient replaces the GitHub API client, for tests or
// enterprise endpoints.
func WithGitHubClient(client *github.Client) CheckerOption {
	return func(c *Checker) {
		if client != nil {
			c.client = client
		}
	}
}

// WithHTTPClient replaces the client used for asset downloads.
func WithHTTPClient(httpc *http.Client) CheckerOption {
	return func(c *Checker) {
		if httpc != nil {
			c.httpc = httpc
		}
	}
}

// NewChecker creates a release checker comparing against the given
// running version.
func NewChecker(current string, opts ...CheckerOption) *Checker {
	c := &Checker{
		client:  github.NewClient(nil),
		httpc:   http.DefaultClient,
		current: current,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check fetches the latest release and reports whether it is newer than
// the running version. The release details are returned either way so a
// caller can surface "already up to date" with the version attached.
func (c *Checker) Check(ctx context.Context) (*Release, bool, error) {
	rel, _, err := c.client.Repositories.GetLatestRelease(ctx, repoOwner, repoName)
	if err != nil {
		return nil, false, fmt.Errorf("fetching latest release: %w", err)
	}

	version := strings.TrimPrefix(rel.GetTagName(), "v")
	release := &Release{
		Version:  version,
		Notes:    rel.GetBody(),
		AssetURL: pickInstallerAsset(rel.Assets),
	}
	return release, IsNewer(version, c.current), nil
}

// pickInstallerAsset returns the download URL of the first asset whose
// name ends in the installer suffix, or "".
func pickInstallerAsset(assets []*github.ReleaseAsset) string {
	for _, a := range assets {
		if strings.HasSuffix(strings.ToLower(a.GetName()), installerSuffix) {
			return a.GetBrowserDownloadURL()
		}
	}
	return ""
}

// Download fetches the release's installer into a fresh temp directory.
// progress, when non-nil, is called with values in [0, 1]; it is skipped
// when the server does not report a length.
func (c *Checker) Download(ctx context.Context, rel *Release, progress func(float64)) (string, error) {
	if rel == nil || rel.AssetURL == "" {
		return "", ErrNoInstallerAsset
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rel.AssetURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading installer: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading installer: unexpected status %s", resp.Status)
	}

	dir, err := os.MkdirTemp("", "screenprompt_update_")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("ScreenPrompt-%s-Setup.exe", rel.Version))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	src := io.Reader(resp.Body)
	if progress != nil && resp.ContentLength > 0 {
		src = &progressReader{r: resp.Body, total: resp.ContentLength, report: progress}
	}
	if _, err := io.Copy(f, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("writing installer: %w", err)
	}

	c.downloaded = path
	return path, nil
}

// Launch starts the downloaded installer without waiting for it; the
// caller is expected to shut the application down so the installer can
// replace it.
func (c *Checker) Launch() error {
	if c.downloaded == "" {
		return ErrNotDownloaded
	}
	if _, err := os.Stat(c.downloaded); err != nil {
		return fmt.Errorf("%w: %v", ErrNotDownloaded, err)
	}
	cmd := exec.Command(c.downloaded)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launching installer: %w", err)
	}
	// The installer outlives us; releasing the process handle is enough.
	return cmd.Process.Release()
}

// progressReader reports cumulative read progress as a fraction of total.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	report func(float64)
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.read += int64(n)
		p.report(float64(p.read) / float64(p.total))
	}
	return n, err
}
