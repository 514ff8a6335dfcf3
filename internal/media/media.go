// Package media classifies attachments into coarse categories and formats
// their metadata for display.
package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/h2non/filetype"

	"github.com/matheus3301/chatterm/internal/domain"
)

// MaxUploadSize is the client-side attachment cap (50 MiB).
const MaxUploadSize int64 = 50 << 20

// ErrTooLarge is returned for files above MaxUploadSize.
var ErrTooLarge = errors.New("file exceeds the 50 MiB limit")

var archiveMIMEs = map[string]bool{
	"application/zip":              true,
	"application/x-tar":            true,
	"application/gzip":             true,
	"application/x-bzip2":          true,
	"application/x-7z-compressed":  true,
	"application/vnd.rar":          true,
	"application/x-rar-compressed": true,
	"application/x-xz":             true,
	"application/zstd":             true,
}

var documentExts = map[string]bool{
	"pdf": true, "doc": true, "docx": true, "xls": true, "xlsx": true,
	"ppt": true, "pptx": true, "odt": true, "ods": true, "odp": true,
	"txt": true, "rtf": true, "csv": true, "md": true,
}

// Info is the local description of a file chosen for upload.
type Info struct {
	Path     string
	Name     string
	Size     int64
	MIME     string
	Category domain.Category
}

// Inspect stats and sniffs a local file. Oversized files are rejected with
// ErrTooLarge before their content is read.
func Inspect(path string) (*Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if st.Size() > MaxUploadSize {
		return nil, fmt.Errorf("%s (%s): %w", filepath.Base(path), HumanSize(st.Size()), ErrTooLarge)
	}

	info := &Info{
		Path: path,
		Name: filepath.Base(path),
		Size: st.Size(),
	}
	kind, err := filetype.MatchFile(path)
	if err == nil && kind != filetype.Unknown {
		info.MIME = kind.MIME.Value
		info.Category = FromMIME(kind.MIME.Value)
	} else {
		info.Category = FromName(info.Name)
	}
	return info, nil
}

// FromMIME maps a MIME type onto a coarse category.
func FromMIME(mime string) domain.Category {
	mime = strings.ToLower(strings.TrimSpace(mime))
	switch {
	case mime == "":
		return domain.CategoryOther
	case strings.HasPrefix(mime, "image/"):
		return domain.CategoryImages
	case strings.HasPrefix(mime, "audio/"):
		return domain.CategoryAudio
	case strings.HasPrefix(mime, "video/"):
		return domain.CategoryVideo
	case archiveMIMEs[mime]:
		return domain.CategoryArchives
	case strings.HasPrefix(mime, "text/"),
		mime == "application/pdf",
		mime == "application/rtf",
		strings.Contains(mime, "officedocument"),
		strings.Contains(mime, "opendocument"),
		mime == "application/msword",
		mime == "application/vnd.ms-excel",
		mime == "application/vnd.ms-powerpoint":
		return domain.CategoryDocuments
	}
	return domain.CategoryOther
}

// FromName guesses the category from a file name's extension.
func FromName(name string) domain.Category {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return domain.CategoryOther
	}
	if documentExts[ext] {
		return domain.CategoryDocuments
	}
	if t := filetype.GetType(ext); t != filetype.Unknown {
		return FromMIME(t.MIME.Value)
	}
	return domain.CategoryOther
}

// Resolve returns the category reported by the backend, falling back to the
// stored name when the backend omitted it (history payloads do).
func Resolve(c domain.Category, name string) domain.Category {
	switch c {
	case domain.CategoryImages, domain.CategoryDocuments, domain.CategoryAudio,
		domain.CategoryVideo, domain.CategoryArchives, domain.CategoryOther:
		return c
	}
	return FromName(name)
}

// Icon returns the glyph shown next to a non-image attachment.
func Icon(c domain.Category) string {
	switch c {
	case domain.CategoryImages:
		return "🖼"
	case domain.CategoryDocuments:
		return "📄"
	case domain.CategoryAudio:
		return "🎵"
	case domain.CategoryVideo:
		return "🎬"
	case domain.CategoryArchives:
		return "🗜"
	default:
		return "📎"
	}
}

// HumanSize formats a byte count with binary units.
func HumanSize(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(n))
}
