// Package remote navigates the managed-file-transfer server that hosts the
// contract folders and downloads candidate annex files. The extractor never
// touches the network; everything remote lives here.
package remote

import (
	"context"
	"io"
	"net"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options configures the remote client.
type Options struct {
	Host     string
	Port     int
	Username string
	Password string

	// Timeout applies to dialing and to each server operation.
	Timeout time.Duration
	// MaxRetries is how many times an operation is re-attempted after a
	// reconnect. Default 3.
	MaxRetries int
	// OpsPerSecond throttles server operations; the MFT appliance drops
	// sessions that list too aggressively. Default 10.
	OpsPerSecond float64
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.OpsPerSecond <= 0 {
		o.OpsPerSecond = 10
	}
	if o.Port == 0 {
		o.Port = 21
	}
	return o
}

// Item is one directory entry on the server.
type Item struct {
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Client is a reconnecting FTP client. It is not safe for concurrent use;
// callers serialize access to the single session.
type Client struct {
	opts       Options
	conn       *ftp.ServerConn
	limiter    *rate.Limiter
	reconnects int

	// cwd mirrors the server-side working directory so a fresh session
	// can be put back where the old one was. A new FTP session always
	// starts at the root.
	cwd string
}

// Dial connects to the server, retrying with backoff on transient failures.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	c := &Client{
		opts:    opts.withDefaults(),
		limiter: rate.NewLimiter(rate.Limit(opts.withDefaults().OpsPerSecond), 1),
		cwd:     "/",
	}
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) addr() string {
	return net.JoinHostPort(c.opts.Host, strconv.Itoa(c.opts.Port))
}

func (c *Client) connect(ctx context.Context) error {
	var lastErr error
	backoff := 500 * time.Millisecond

	for attempt := 0; attempt < c.opts.MaxRetries; attempt++ {
		conn, err := ftp.Dial(c.addr(), ftp.DialWithTimeout(c.opts.Timeout), ftp.DialWithContext(ctx))
		if err == nil {
			if err = conn.Login(c.opts.Username, c.opts.Password); err == nil {
				// Relative paths issued after a reconnect must resolve
				// against the directory the old session was in, not the
				// root the new session starts at.
				if c.cwd != "" && c.cwd != "/" {
					if err = conn.ChangeDir(c.cwd); err != nil {
						conn.Quit() //nolint:errcheck
						return eris.Wrapf(err, "remote: restore cwd %s", c.cwd)
					}
				}
				c.conn = conn
				return nil
			}
			conn.Quit() //nolint:errcheck
			// Bad credentials never become good on retry.
			return eris.Wrap(err, "remote: login")
		}
		lastErr = err

		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "remote: dial cancelled")
		}

		zap.L().Warn("remote: dial failed, retrying",
			zap.Int("attempt", attempt+1), zap.Error(err))

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return eris.Wrap(ctx.Err(), "remote: dial cancelled")
		case <-timer.C:
		}
		backoff *= 2
	}

	return eris.Wrapf(lastErr, "remote: dial %s after %d attempts", c.addr(), c.opts.MaxRetries)
}

// Reconnect drops the current session and dials again.
func (c *Client) Reconnect(ctx context.Context) error {
	c.close()
	c.reconnects++
	zap.L().Info("remote: reconnecting", zap.Int("reconnects", c.reconnects))
	return c.connect(ctx)
}

// Reconnects reports how many times the session was re-established.
func (c *Client) Reconnects() int { return c.reconnects }

func (c *Client) close() {
	if c.conn != nil {
		c.conn.Quit() //nolint:errcheck
		c.conn = nil
	}
}

// Close terminates the session.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Quit()
	c.conn = nil
	if err != nil {
		return eris.Wrap(err, "remote: quit")
	}
	return nil
}

// do runs one server operation with rate limiting and a single
// reconnect-and-retry on failure.
func (c *Client) do(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 0; attempt < c.opts.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "remote: rate limit wait")
		}
		if c.conn == nil {
			if err := c.connect(ctx); err != nil {
				return err
			}
		}
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "remote: cancelled")
		}
		if err := c.Reconnect(ctx); err != nil {
			return err
		}
	}
	return eris.Wrap(lastErr, "remote: operation failed after retries")
}

// List returns the entries of path, directories first.
func (c *Client) List(ctx context.Context, path string) ([]Item, error) {
	var entries []*ftp.Entry
	err := c.do(ctx, func() error {
		var opErr error
		entries, opErr = c.conn.List(path)
		return opErr
	})
	if err != nil {
		return nil, eris.Wrapf(err, "remote: list %s", path)
	}

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		items = append(items, Item{
			Name:    e.Name,
			Size:    int64(e.Size),
			ModTime: e.Time,
			IsDir:   e.Type == ftp.EntryTypeFolder,
		})
	}
	return items, nil
}

// ChangeDir moves the session to dir and remembers the resulting working
// directory for session restoration.
func (c *Client) ChangeDir(ctx context.Context, dir string) error {
	err := c.do(ctx, func() error { return c.conn.ChangeDir(dir) })
	if err != nil {
		return eris.Wrapf(err, "remote: cd %s", dir)
	}
	c.cwd = resolveDir(c.cwd, dir)
	return nil
}

// resolveDir computes the working directory after changing from cwd to dir.
func resolveDir(cwd, dir string) string {
	if path.IsAbs(dir) {
		return path.Clean(dir)
	}
	return path.Join(cwd, dir)
}

// DownloadTo retrieves remotePath into localPath. Returns bytes written.
func (c *Client) DownloadTo(ctx context.Context, remotePath, localPath string) (int64, error) {
	var written int64
	err := c.do(ctx, func() error {
		resp, opErr := c.conn.Retr(remotePath)
		if opErr != nil {
			return opErr
		}
		defer resp.Close() //nolint:errcheck

		out, opErr := os.Create(localPath)
		if opErr != nil {
			return opErr
		}
		defer out.Close() //nolint:errcheck

		written, opErr = io.Copy(out, resp)
		return opErr
	})
	if err != nil {
		return 0, eris.Wrapf(err, "remote: download %s", remotePath)
	}
	return written, nil
}
