package catalog

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"

	getter "github.com/hashicorp/go-getter"
)

// Fetch makes source available as a local file and returns its path. Existing
// local files are used in place; anything else is handed to go-getter (http,
// git::, s3::, gcs:: ...) and downloaded beneath cacheDir.
func Fetch(ctx context.Context, source, cacheDir string) (string, error) {
	if source == "" {
		return "", fmt.Errorf("catalog source is empty")
	}
	if info, err := os.Stat(source); err == nil && !info.IsDir() {
		return source, nil
	}
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "neonhorizon-catalogs")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create catalog cache: %w", err)
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(source))
	dst := filepath.Join(cacheDir, fmt.Sprintf("catalog-%016x.yaml", h.Sum64()))

	if err := getter.GetFile(dst, source, getter.WithContext(ctx)); err != nil {
		return "", fmt.Errorf("fetch catalog %s: %w", source, err)
	}
	return dst, nil
}

// LoadSource fetches source (when needed) and loads the catalog it names.
func LoadSource(ctx context.Context, source, cacheDir string) (*Catalog, error) {
	path, err := Fetch(ctx, source, cacheDir)
	if err != nil {
		return nil, err
	}
	return Load(path)
}
