// Package version checks for newer releases of the application.
package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/anisan-cli/finplay/constant"
	"github.com/anisan-cli/finplay/filesystem"
	"github.com/anisan-cli/finplay/network"
	"github.com/anisan-cli/finplay/util"
	"github.com/anisan-cli/finplay/where"
	"github.com/metafates/gache"
)

// ReleasesURL lists the published releases.
const ReleasesURL = "https://github.com/anisan-cli/" + constant.Finplay + "/releases"

var latestURL = "https://api.github.com/repos/anisan-cli/" + constant.Finplay + "/releases/latest"

var versionCacher = gache.New[string](&gache.Options{
	Path:       filepath.Join(where.Cache(), "version.json"),
	Lifetime:   time.Hour * 24 * 2,
	FileSystem: &filesystem.GacheFs{},
})

// Latest returns the newest released version, cached for two days.
func Latest(ctx context.Context) (string, error) {
	ver, expired, err := versionCacher.Get()
	if err != nil {
		return "", err
	}

	if !expired && ver != "" {
		return ver, nil
	}

	ver, err = fetchLatest(ctx, latestURL)
	if err != nil {
		return "", err
	}

	_ = versionCacher.Set(ver)
	return ver, nil
}

func fetchLatest(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", constant.UserAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := network.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer util.Ignore(resp.Body.Close)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release lookup: %s", resp.Status)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}

	if release.TagName == "" {
		return "", errors.New("empty tag name")
	}

	return strings.TrimPrefix(release.TagName, "v"), nil
}
