package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"apiprobe/pkg/apperr"

	"github.com/google/uuid"
)

// Data is anything the storage can persist
type Data interface {
	json.Marshaler
	json.Unmarshaler
}

// ownerNamespace derives directory names from owner identifiers
var ownerNamespace = uuid.MustParse("5f0d6b1e-7c2a-4e39-9a51-3b8e2f6c4d17")

// FileStorage keeps one indented JSON file per record, grouped in one
// directory per owner under basePath. Records of one owner are never visible
// through another.
type FileStorage[T Data] struct {
	basePath string
}

// NewFileStorage creates basePath if needed
func NewFileStorage[T Data](basePath string) (*FileStorage[T], error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &FileStorage[T]{basePath: basePath}, nil
}

// Save writes data under owner and id, replacing any previous record
func (fs *FileStorage[T]) Save(owner, id string, data T) error {
	path, err := fs.path(owner, id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create owner directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode record %s: %w", id, err)
	}
	return nil
}

// Load reads the record owner stored under id into out
func (fs *FileStorage[T]) Load(owner, id string, out T) error {
	path, err := fs.path(owner, id)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.New(apperr.CodeNotFound, fmt.Sprintf("record %s not found", id))
		}
		return fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(out); err != nil {
		return fmt.Errorf("failed to decode record %s: %w", id, err)
	}
	return nil
}

// Entry contains metadata about a stored record
type Entry struct {
	ID         string    `json:"id"`
	ModifiedAt time.Time `json:"modified_at"`
	FileSizeKB int64     `json:"file_size_kb"`
}

// List returns the records stored by owner, newest first
func (fs *FileStorage[T]) List(owner string) ([]Entry, error) {
	entries, err := os.ReadDir(fs.ownerDir(owner))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read storage directory: %w", err)
	}

	records := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue // Skip files we can't stat
		}

		records = append(records, Entry{
			ID:         strings.TrimSuffix(entry.Name(), ".json"),
			ModifiedAt: info.ModTime(),
			FileSizeKB: info.Size() / 1024,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ModifiedAt.After(records[j].ModifiedAt)
	})
	return records, nil
}

// path resolves id to a file in the owner's directory. Only uuids are
// accepted so an id can never escape it.
func (fs *FileStorage[T]) path(owner, id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", apperr.New(apperr.CodeNotFound, fmt.Sprintf("record %s not found", id))
	}
	return filepath.Join(fs.ownerDir(owner), parsed.String()+".json"), nil
}

func (fs *FileStorage[T]) ownerDir(owner string) string {
	return filepath.Join(fs.basePath, uuid.NewSHA1(ownerNamespace, []byte(owner)).String())
}
