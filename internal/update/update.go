// Package update checks the publication site for newer data files and
// application releases. Data files are compared by MD5 digest and staged
// into a temporary directory; release versions are compared with semver.
package update

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // MD5 matches the digests published by the update site.
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"
)

// versionFileName is the file on the update site naming the latest release.
const versionFileName = "version.txt"

const defaultTimeout = 5 * time.Second

// DataFileUpdate describes one newer data file staged for installation.
type DataFileUpdate struct {
	// Name is the data file name, e.g. "huts.txt".
	Name string
	// StagedPath is where the downloaded file waits under the temp dir.
	StagedPath string
}

// Checker talks to the update site.
type Checker struct {
	httpClient *http.Client
	updatesURL string
	log        zerolog.Logger
}

// NewChecker builds a checker for the given updates URL.
func NewChecker(updatesURL string, log zerolog.Logger) *Checker {
	return &Checker{
		httpClient: &http.Client{Timeout: defaultTimeout},
		updatesURL: updatesURL,
		log:        log,
	}
}

// CheckDataFiles downloads each named data file from the update site
// and stages those whose MD5 differs from the local copy into tempDir.
// Files that fail to download are skipped with a log entry; the check
// is best-effort.
func (c *Checker) CheckDataFiles(ctx context.Context, dataDir, tempDir string, files []string) ([]DataFileUpdate, error) {
	var updates []DataFileUpdate
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return updates, err
		}

		localSum, err := fileMD5(filepath.Join(dataDir, name))
		if err != nil && !os.IsNotExist(err) {
			c.log.Warn().Str("file", name).Err(err).Msg("cannot read local data file")
			continue
		}

		content, err := c.download(ctx, c.updatesURL+name)
		if err != nil {
			c.log.Warn().Str("file", name).Err(err).Msg("data file download failed")
			continue
		}

		remoteSum := md5.Sum(content) //nolint:gosec // Digest comparison only.
		if localSum != nil && bytes.Equal(localSum, remoteSum[:]) {
			continue
		}

		stagedPath := filepath.Join(tempDir, name)
		if err := os.WriteFile(stagedPath, content, 0o600); err != nil {
			return updates, fmt.Errorf("staging update for %s: %w", name, err)
		}
		updates = append(updates, DataFileUpdate{Name: name, StagedPath: stagedPath})
		c.log.Info().Str("file", name).Msg("newer data file staged")
	}
	return updates, nil
}

// LatestVersion fetches the most recent published release version.
func (c *Checker) LatestVersion(ctx context.Context) (*semver.Version, error) {
	content, err := c.download(ctx, c.updatesURL+versionFileName)
	if err != nil {
		return nil, err
	}
	v, err := semver.NewVersion(strings.TrimSpace(string(content)))
	if err != nil {
		return nil, fmt.Errorf("parsing published version: %w", err)
	}
	return v, nil
}

// IsNewer reports whether latest is a strictly newer release than
// current. A current version that does not parse counts as outdated.
func IsNewer(current string, latest *semver.Version) bool {
	cur, err := semver.NewVersion(strings.TrimPrefix(current, "v"))
	if err != nil {
		return true
	}
	return latest.GreaterThan(cur)
}

func (c *Checker) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}
	return io.ReadAll(resp.Body)
}

func fileMD5(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h := md5.New() //nolint:gosec // Digest comparison only.
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
