package fetcher

import (
	"context"
	"net"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/propval/internal/resilience"
)

// FTPOptions configures the FTP fetcher.
type FTPOptions struct {
	Timeout  time.Duration
	MaxBytes int64
	Retry    resilience.Policy
}

// FTPFetcher retrieves dataset files from FTP servers such as state
// land-records mirrors. Credentials come from the URL, else anonymous.
type FTPFetcher struct {
	opts FTPOptions
}

// NewFTPFetcher creates an FTPFetcher, filling unset options.
func NewFTPFetcher(opts FTPOptions) *FTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBytes == 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Retry.Attempts == 0 {
		opts.Retry = resilience.DefaultPolicy()
	}
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.LogRetries("ftp", "download")
	}
	return &FTPFetcher{opts: opts}
}

// ftpTarget is a parsed ftp:// dataset location.
type ftpTarget struct {
	addr     string
	path     string
	user     string
	password string
}

func parseFTPTarget(rawURL string) (ftpTarget, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ftpTarget{}, eris.Wrap(err, "fetcher: parse ftp url")
	}
	if u.Scheme != "ftp" {
		return ftpTarget{}, eris.Errorf("fetcher: %q is not an ftp url", rawURL)
	}
	if u.Path == "" || u.Path == "/" {
		return ftpTarget{}, eris.Errorf("fetcher: ftp url %s names no file", u.Redacted())
	}

	t := ftpTarget{addr: u.Host, path: u.Path, user: "anonymous", password: "anonymous@"}
	if _, _, err := net.SplitHostPort(t.addr); err != nil {
		t.addr = net.JoinHostPort(u.Hostname(), "21")
	}
	if u.User != nil && u.User.Username() != "" {
		t.user = u.User.Username()
		t.password, _ = u.User.Password()
	}
	return t, nil
}

// DownloadToFile retrieves the file at rawURL into path. Connection failures
// are retried; a file the server reports as larger than MaxBytes is refused
// before the transfer.
func (f *FTPFetcher) DownloadToFile(ctx context.Context, rawURL, path string) (int64, error) {
	t, err := parseFTPTarget(rawURL)
	if err != nil {
		return 0, err
	}
	return resilience.Retry(ctx, f.opts.Retry, func(ctx context.Context) (int64, error) {
		return f.retrieve(ctx, t, path)
	})
}

func (f *FTPFetcher) retrieve(ctx context.Context, t ftpTarget, dest string) (int64, error) {
	conn, err := ftp.Dial(t.addr, ftp.DialWithTimeout(f.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return 0, resilience.Transient(eris.Wrapf(err, "fetcher: ftp dial %s", t.addr))
	}
	defer func() { _ = conn.Quit() }()

	if err := conn.Login(t.user, t.password); err != nil {
		return 0, eris.Wrapf(err, "fetcher: ftp login as %s", t.user)
	}

	if size, err := conn.FileSize(t.path); err == nil && size > f.opts.MaxBytes {
		return 0, eris.Errorf("fetcher: %s is %d bytes, over the %d byte limit", t.path, size, f.opts.MaxBytes)
	}

	resp, err := conn.Retr(t.path)
	if err != nil {
		return 0, eris.Wrapf(err, "fetcher: ftp retrieve %s", t.path)
	}
	defer resp.Close() //nolint:errcheck

	zap.L().Debug("fetcher: ftp transfer", zap.String("addr", t.addr), zap.String("path", t.path))
	return writeFile(dest, resp, f.opts.MaxBytes)
}
