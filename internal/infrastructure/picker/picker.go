// Package picker supplies user-chosen files to the chat session. The
// terminal client has no file dialog, so selection is a path handed in
// by the caller; an empty path means the user changed their mind.
package picker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/medreport/companion/internal/core/domain"
	"github.com/medreport/companion/internal/core/ports"
)

var mimeByExtension = map[string]string{
	".txt":  "text/plain",
	".pdf":  "application/pdf",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
}

// Filesystem turns a staged path into a DocumentRef. Stage is called by
// the input loop before the session asks for a pick.
type Filesystem struct {
	mu     sync.Mutex
	staged string
}

var _ ports.DocumentSource = (*Filesystem)(nil)

func NewFilesystem() *Filesystem {
	return &Filesystem{}
}

// Stage records the path the user typed for the next pick.
func (f *Filesystem) Stage(path string) {
	f.mu.Lock()
	f.staged = strings.TrimSpace(path)
	f.mu.Unlock()
}

func (f *Filesystem) PickDocument(_ context.Context) (domain.DocumentRef, bool, error) {
	return f.pick(nil)
}

func (f *Filesystem) PickImage(_ context.Context) (domain.DocumentRef, bool, error) {
	return f.pick(imageExtensions)
}

func (f *Filesystem) pick(allowed map[string]struct{}) (domain.DocumentRef, bool, error) {
	f.mu.Lock()
	path := f.staged
	f.staged = ""
	f.mu.Unlock()

	if path == "" {
		return domain.DocumentRef{}, false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return domain.DocumentRef{}, false, fmt.Errorf("stat picked file: %w", err)
	}
	if info.IsDir() {
		return domain.DocumentRef{}, false, fmt.Errorf("picked path %s is a directory", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if allowed != nil {
		if _, ok := allowed[ext]; !ok {
			return domain.DocumentRef{}, false, fmt.Errorf("picked file %s is not an image", path)
		}
	}

	contentKind := mimeByExtension[ext]
	if contentKind == "" {
		contentKind = "application/octet-stream"
	}
	return domain.DocumentRef{
		Location:    path,
		Name:        filepath.Base(path),
		ContentKind: contentKind,
	}, true, nil
}
