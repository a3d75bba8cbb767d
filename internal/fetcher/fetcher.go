// Package fetcher downloads remote reference data (PIN files, guidance
// workbooks and zipped boundary shapefiles) to local paths.
package fetcher

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultMaxBytes caps each download and each extracted file. The largest
// source seen in practice is a state-wide PIN boundary shapefile set.
const DefaultMaxBytes int64 = 512 << 20

// Fetcher downloads a URL to a local file.
type Fetcher interface {
	// DownloadToFile fetches the URL and writes it to path. Returns bytes written.
	DownloadToFile(ctx context.Context, rawURL, path string) (int64, error)
}

// Source resolves dataset locations. Local paths pass through unchanged;
// http(s) and ftp URLs are downloaded into Dir. MaxBytes caps extracted
// archive entries (zero means DefaultMaxBytes).
type Source struct {
	HTTP     Fetcher
	FTP      Fetcher
	Dir      string
	MaxBytes int64
}

// NewSource creates a Source with default fetchers downloading into dir.
func NewSource(dir string) *Source {
	return &Source{
		HTTP:     NewHTTPFetcher(HTTPOptions{}),
		FTP:      NewFTPFetcher(FTPOptions{}),
		Dir:      dir,
		MaxBytes: DefaultMaxBytes,
	}
}

// IsRemote reports whether loc is a URL this package can download.
func IsRemote(loc string) bool {
	u, err := url.Parse(loc)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ftp":
		return u.Host != ""
	default:
		return false
	}
}

// Local returns a local path for loc, downloading it first when it is a
// URL. Zip archives are unpacked: the entry matching the earliest of exts is
// returned (a shapefile together with its sidecars); with no exts the
// archive must hold exactly one file.
func (s *Source) Local(ctx context.Context, loc string, exts ...string) (string, error) {
	if !IsRemote(loc) {
		return loc, nil
	}

	u, _ := url.Parse(loc)
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "", eris.Errorf("fetcher: cannot name download for %s", loc)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", eris.Wrap(err, "fetcher: create download dir")
	}
	dest := filepath.Join(s.Dir, name)

	f := s.HTTP
	if strings.EqualFold(u.Scheme, "ftp") {
		f = s.FTP
	}
	if f == nil {
		return "", eris.Errorf("fetcher: no fetcher for scheme %q", u.Scheme)
	}

	n, err := f.DownloadToFile(ctx, loc, dest)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: download %s", loc)
	}
	zap.L().Info("fetcher: downloaded", zap.String("url", loc), zap.String("path", dest), zap.Int64("bytes", n))

	if !strings.EqualFold(filepath.Ext(dest), ".zip") {
		return dest, nil
	}

	maxBytes := s.MaxBytes
	if maxBytes == 0 {
		maxBytes = DefaultMaxBytes
	}
	return unpack(dest, strings.TrimSuffix(dest, filepath.Ext(dest)), exts, maxBytes)
}
