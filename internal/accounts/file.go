package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// errUnreadable marks a file that exists but could not be read.
var errUnreadable = errors.New("accounts: unreadable document")

// FileName returns the document file used for ns: credentials.json for
// admins and users.json for users.
func FileName(ns Namespace) string {
	switch ns {
	case Admin:
		return "credentials.json"
	case User:
		return "users.json"
	default:
		return string(ns) + ".json"
	}
}

// FileDocument keeps a namespace in one indented JSON file.
type FileDocument struct {
	Path string
}

// NewFileDocument returns the document for ns inside dir.
func NewFileDocument(dir string, ns Namespace) *FileDocument {
	return &FileDocument{Path: filepath.Join(dir, FileName(ns))}
}

func (d *FileDocument) Load(_ context.Context) (map[string]Entry, error) {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]Entry{}, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", errUnreadable, d.Path, err)
	}

	entries := make(map[string]Entry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, d.Path, err)
	}
	return entries, nil
}

// Save writes to a temp file in the same directory and renames it over the
// document, so concurrent readers see either the old or the new map.
func (d *FileDocument) Save(_ context.Context, entries map[string]Entry) error {
	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return fmt.Errorf("FileDocument.Save: encode: %w", err)
	}

	dir := filepath.Dir(d.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("FileDocument.Save: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(d.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("FileDocument.Save: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("FileDocument.Save: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("FileDocument.Save: close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("FileDocument.Save: chmod: %w", err)
	}

	if err := os.Rename(tmp.Name(), d.Path); err != nil {
		return fmt.Errorf("FileDocument.Save: rename: %w", err)
	}
	return nil
}
