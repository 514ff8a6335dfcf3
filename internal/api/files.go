package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/matheus3301/chatterm/internal/domain"
)

// Upload streams r to the upload endpoint as multipart field "file" and
// returns the server's descriptor of the stored file.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (*domain.FileDescriptor, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(name))
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/api/files/upload", pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp struct {
		File *domain.FileDescriptor `json:"file"`
	}
	if err := c.do(req, &resp); err != nil {
		pr.CloseWithError(err)
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}
	if resp.File == nil || resp.File.Filename == "" {
		return nil, fmt.Errorf("upload %s: response without file", name)
	}
	return resp.File, nil
}

// UploadFile opens path and uploads it.
func (c *Client) UploadFile(ctx context.Context, path string) (*domain.FileDescriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return c.Upload(ctx, filepath.Base(path), f)
}

// DownloadPath returns the download path for a stored file. With a name the
// server sends it as the attachment filename; images use the bare path.
func DownloadPath(storedPath, name string) string {
	p := "/api/files/download/" + strings.TrimPrefix(storedPath, "/")
	if name != "" {
		p += "/" + url.PathEscape(name)
	}
	return p
}

// DownloadURL is DownloadPath resolved against the server URL.
func (c *Client) DownloadURL(storedPath, name string) string {
	return c.URL(DownloadPath(storedPath, name))
}

// Download copies a stored file into w and returns the number of bytes written.
func (c *Client) Download(ctx context.Context, storedPath, name string, w io.Writer) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, DownloadPath(storedPath, name), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "*/*")
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", storedPath, err)
	}
	defer resp.Body.Close()

	if err := checkAuth(resp); err != nil {
		return 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, decodeEnvelope(resp.StatusCode, data, nil)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download %s: %w", storedPath, err)
	}
	return n, nil
}
