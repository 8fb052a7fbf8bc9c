package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	key := BuildBatchKey("batch-1", "lista.csv")
	content := []byte("Cod. com,Descrip.\nA1,Balata\n")

	require.NoError(t, store.Put(ctx, key, content, &Metadata{
		ContentType:  "text/csv",
		OriginalName: "lista.csv",
		ProviderCode: "motos_y_equipos",
		BatchID:      "batch-1",
	}))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	info, err := store.GetInfo(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), info.Size)
	assert.Equal(t, ComputeChecksum(content), info.Checksum)
	assert.Equal(t, "text/csv", info.ContentType)
	require.NotNil(t, info.Metadata)
	assert.Equal(t, "motos_y_equipos", info.Metadata.ProviderCode)

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	keys, err := store.List(ctx, "batches/")
	require.NoError(t, err)
	assert.Equal(t, []string{"batches/batch-1/lista.csv"}, keys)

	require.NoError(t, store.Delete(ctx, key))
	exists, err = store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorageNotFound(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(ctx, "batches/missing/file.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetInfo(ctx, "batches/missing/file.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, store.Delete(ctx, "batches/missing/file.csv"))
}

func TestLocalStorageChecksumWithoutMetadata(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "a.bin", []byte("abc"), nil))

	info, err := store.GetInfo(ctx, "a.bin")
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", info.Checksum)
	assert.Nil(t, info.Metadata)
}

func TestLocalStorageKeysStayInsideBase(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), "../../escape.txt", []byte("x"), nil))

	_, err = os.Stat(filepath.Join(base, "escape.txt"))
	assert.NoError(t, err)
}

func TestNewLocalStorageRequiresPath(t *testing.T) {
	_, err := NewLocalStorage("")
	assert.Error(t, err)
}

func TestNewUnknownType(t *testing.T) {
	_, err := New(context.Background(), Config{Type: "ftp"})
	assert.Error(t, err)

	store, err := New(context.Background(), Config{Type: StorageTypeLocal, BasePath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, store)
}

func TestBuildBatchKey(t *testing.T) {
	tests := []struct {
		batchID  string
		filename string
		want     string
	}{
		{"b1", "lista.csv", "batches/b1/lista.csv"},
		{"b1", "uploads/2024/precios.xlsx", "batches/b1/precios.xlsx"},
		{"b1", `C:\tmp\precios.xlsx`, "batches/b1/precios.xlsx"},
		{"b1", "", "batches/b1/source"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildBatchKey(tt.batchID, tt.filename))
		})
	}
}

func TestS3KeyPrefixing(t *testing.T) {
	s := NewS3StorageWithClient(nil, "imports", "/archive/")
	assert.Equal(t, "archive/batches/b1/a.csv", s.objectKey("batches/b1/a.csv"))
	assert.Equal(t, "batches/b1/a.csv", s.storageKey("archive/batches/b1/a.csv"))

	bare := NewS3StorageWithClient(nil, "imports", "")
	assert.Equal(t, "batches/b1/a.csv", bare.objectKey("/batches/b1/a.csv"))
}

func TestS3MetadataRoundTrip(t *testing.T) {
	stored := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	meta := Metadata{
		OriginalName: "precios.xlsx",
		ProviderCode: "mrm",
		BatchID:      "b1",
		Checksum:     "abc",
		StoredAt:     stored,
		Custom:       map[string]string{"Uploader": "ops"},
	}

	got := fromObjectMetadata(toObjectMetadata(meta))
	assert.Equal(t, "precios.xlsx", got.OriginalName)
	assert.Equal(t, "mrm", got.ProviderCode)
	assert.Equal(t, "b1", got.BatchID)
	assert.Equal(t, "abc", got.Checksum)
	assert.True(t, stored.Equal(got.StoredAt))
	assert.Equal(t, map[string]string{"uploader": "ops"}, got.Custom)
}

func TestS3NotFoundMapping(t *testing.T) {
	s := NewS3StorageWithClient(nil, "imports", "")

	err := s.wrapErr("get", "k", fmt.Errorf("op: %w", &s3types.NoSuchKey{}))
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.wrapErr("head", "k", &s3types.NotFound{})
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.wrapErr("get", "k", errors.New("access denied"))
	assert.NotErrorIs(t, err, ErrNotFound)
}
