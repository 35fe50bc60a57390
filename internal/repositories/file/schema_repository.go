package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/asakaida/mdschema/internal/entities"
	"github.com/asakaida/mdschema/internal/repositories"
)

// Extension is the file extension of stored documents
const Extension = ".yaml"

// FileSchemaRepository implements SchemaRepository over YAML files.
// A file keeps only its current content, so every name has at most one
// version: the content hash.
type FileSchemaRepository struct {
	mu   sync.Mutex
	dir  string // Documents are stored as <dir>/<name>.yaml
	path string // Single document mode: the only file served
	name string // Single document mode: the name the file is served under
}

// NewFileSchemaRepository serves every <name>.yaml in dir
func NewFileSchemaRepository(dir string) repositories.SchemaRepository {
	return &FileSchemaRepository{dir: dir}
}

// NewSingleFileSchemaRepository serves the document at path under the given
// name. An empty name defaults to the file name without extension.
func NewSingleFileSchemaRepository(path, name string) repositories.SchemaRepository {
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &FileSchemaRepository{path: path, name: name}
}

// Version returns the version identifier of a document's content
func Version(document string) string {
	sum := sha256.Sum256([]byte(document))
	return hex.EncodeToString(sum[:8])
}

// Create replaces the document content and returns the new version
func (r *FileSchemaRepository) Create(ctx context.Context, name string, document string) (string, error) {
	path, err := r.pathFor(name)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create schema directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+name+"-*"+Extension)
	if err != nil {
		return "", fmt.Errorf("failed to create schema: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(document); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write schema: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write schema: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to create schema: %w", err)
	}
	return Version(document), nil
}

// GetLatestVersion reads the current content of a document
func (r *FileSchemaRepository) GetLatestVersion(ctx context.Context, name string) (*entities.Schema, error) {
	path, err := r.pathFor(name)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		return nil, r.readError(name, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, r.readError(name, err)
	}

	document := string(data)
	return &entities.Schema{
		Name:      name,
		Version:   Version(document),
		Document:  document,
		CreatedAt: info.ModTime(),
		UpdatedAt: info.ModTime(),
	}, nil
}

// GetByVersion succeeds only when version matches the current content
func (r *FileSchemaRepository) GetByVersion(ctx context.Context, name string, version string) (*entities.Schema, error) {
	schema, err := r.GetLatestVersion(ctx, name)
	if err != nil {
		return nil, err
	}
	if schema.Version != version {
		return nil, fmt.Errorf("%w: %s version %s (current is %s)", repositories.ErrSchemaNotFound, name, version, schema.Version)
	}
	return schema, nil
}

// ListVersions returns the single current version
func (r *FileSchemaRepository) ListVersions(ctx context.Context, name string) ([]*entities.SchemaVersion, error) {
	schema, err := r.GetLatestVersion(ctx, name)
	if err != nil {
		return nil, err
	}
	return []*entities.SchemaVersion{{Version: schema.Version, CreatedAt: schema.CreatedAt}}, nil
}

// Delete removes the document file
func (r *FileSchemaRepository) Delete(ctx context.Context, name string) error {
	path, err := r.pathFor(name)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(path); err != nil {
		return r.readError(name, err)
	}
	return nil
}

// pathFor maps a document name to its file
func (r *FileSchemaRepository) pathFor(name string) (string, error) {
	if r.path != "" {
		if name != r.name {
			return "", fmt.Errorf("%w: %s (this store only serves %s)", repositories.ErrSchemaNotFound, name, r.name)
		}
		return r.path, nil
	}
	if entities.ValidateSchemaName(name) != nil || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid schema name: %q", name)
	}
	return filepath.Join(r.dir, name+Extension), nil
}

func (r *FileSchemaRepository) readError(name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", repositories.ErrSchemaNotFound, name)
	}
	return fmt.Errorf("failed to read schema %s: %w", name, err)
}
