package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned when no object exists at a key
var ErrNotFound = errors.New("storage: object not found")

// Metadata describes an archived source file
type Metadata struct {
	ContentType  string            `json:"contentType,omitempty"`
	OriginalName string            `json:"originalName,omitempty"`
	ProviderCode string            `json:"providerCode,omitempty"`
	BatchID      string            `json:"batchId,omitempty"`
	SourceURL    string            `json:"sourceUrl,omitempty"`
	Checksum     string            `json:"checksum,omitempty"`
	StoredAt     time.Time         `json:"storedAt,omitempty"`
	Custom       map[string]string `json:"custom,omitempty"`
}

// FileInfo contains information about a stored file
type FileInfo struct {
	Key         string    `json:"key"`
	Size        int64     `json:"size"`
	Checksum    string    `json:"checksum"`
	ContentType string    `json:"contentType,omitempty"`
	ModifiedAt  time.Time `json:"modifiedAt"`
	Metadata    *Metadata `json:"metadata,omitempty"`
}

// Storage defines the interface for file storage operations.
// Implementations are the local filesystem and S3-compatible object stores.
type Storage interface {
	// Put stores content at the given key with optional metadata
	Put(ctx context.Context, key string, content []byte, metadata *Metadata) error

	// Get retrieves content from the given key
	Get(ctx context.Context, key string) ([]byte, error)

	// GetInfo retrieves file information without content
	GetInfo(ctx context.Context, key string) (*FileInfo, error)

	// Exists checks if a file exists at the given key
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes a file at the given key
	Delete(ctx context.Context, key string) error

	// List returns all keys matching the given prefix
	List(ctx context.Context, prefix string) ([]string, error)
}

// StorageType represents the type of storage backend
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// Config selects and configures a storage backend
type Config struct {
	Type     StorageType `mapstructure:"type"`
	BasePath string      `mapstructure:"base_path"`
	S3       S3Config    `mapstructure:"s3"`
}

// New builds the storage backend named by cfg.Type
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal, "":
		return NewLocalStorage(cfg.BasePath)
	case StorageTypeS3:
		return NewS3Storage(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// BuildBatchPrefix returns the key prefix under which a batch's files live
func BuildBatchPrefix(batchID string) string {
	return fmt.Sprintf("batches/%s/", batchID)
}

// BuildBatchKey builds the storage key for a batch's source file
func BuildBatchKey(batchID, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "source"
	}
	return BuildBatchPrefix(batchID) + name
}
