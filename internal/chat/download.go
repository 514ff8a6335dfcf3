package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/matheus3301/chatterm/internal/domain"
	"github.com/matheus3301/chatterm/internal/media"
)

// AttachmentURL returns the download URL of a message's attachment. Images
// use the bare stored path, other files carry their original name.
func (c *Controller) AttachmentURL(msgID int64) (string, error) {
	m, ok := c.view.Message(msgID)
	if !ok {
		return "", ErrUnknownMsg
	}
	if !m.HasAttachment() || m.Deleted {
		return "", ErrNoAttachment
	}
	name := m.AttachmentName
	byName := name
	if byName == "" {
		byName = filepath.Base(m.AttachmentPath)
	}
	if media.Resolve(m.AttachmentType, byName) == domain.CategoryImages {
		name = ""
	}
	return c.api.DownloadURL(m.AttachmentPath, name), nil
}

// Download saves a message's attachment into the download directory and
// returns the written path. Existing files are never overwritten.
func (c *Controller) Download(ctx context.Context, msgID int64) (string, error) {
	m, ok := c.view.Message(msgID)
	if !ok {
		return "", c.fail("Cannot download", ErrUnknownMsg)
	}
	if !m.HasAttachment() || m.Deleted {
		return "", c.fail("Cannot download", ErrNoAttachment)
	}
	name := m.AttachmentName
	if name == "" {
		name = filepath.Base(m.AttachmentPath)
	}

	dir := c.downloadDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", c.fail("Failed to download", err)
	}
	f, path, err := createUnique(dir, safeName(name))
	if err != nil {
		return "", c.fail("Failed to download", err)
	}

	n, err := c.api.Download(ctx, m.AttachmentPath, name, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", c.fail("Failed to download", err)
	}
	c.logger.Info("attachment saved", zap.String("path", path), zap.Int64("bytes", n))
	c.info("Saved " + path)
	return path, nil
}

// safeName keeps only the final path element of a server-provided name.
func safeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		return "download"
	}
	return name
}

// createUnique creates dir/name, or dir/"base (n).ext" when it exists.
func createUnique(dir, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 0; i < 1000; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", base, i, ext)
		}
		path := filepath.Join(dir, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("no free file name for %s in %s", name, dir)
}
