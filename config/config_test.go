package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motorefacciones/import-service/internal/storage"
	"github.com/motorefacciones/import-service/internal/types"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 400, cfg.Import.StageChunkSize)
	assert.Equal(t, 100, cfg.Import.CommitChunkSize)
	assert.Equal(t, 1, cfg.Import.CommitConcurrency)
	assert.InDelta(t, 0.4, cfg.Import.FuzzyThreshold, 1e-9)
	assert.Equal(t, "import", cfg.Import.MediaSource)
	assert.Equal(t, storage.StorageTypeLocal, cfg.Storage.Type)
	assert.Equal(t, 3, cfg.RateLimit.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Telemetry.ExportInterval)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 30*time.Minute, cfg.Maintenance.CommitClaimTTL)
	assert.False(t, cfg.Maintenance.Retention.Enabled)
	assert.Equal(t, []types.BatchStatus{types.BatchStatusFailed, types.BatchStatusUploaded}, cfg.Maintenance.Retention.Statuses)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
  read_timeout: 45s
import:
  commit_concurrency: 4
storage:
  type: s3
  s3:
    bucket: imports
    use_path_style: true
logging:
  format: console
`), 0o644))

	t.Setenv("IMPORT_SERVICE_IMPORT_STAGE_CHUNK_SIZE", "250")
	t.Setenv("INTERNAL_API_KEY", "s3cret")
	t.Setenv("DATABASE_URL", "postgres://localhost/imports")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 4, cfg.Import.CommitConcurrency)
	assert.Equal(t, 250, cfg.Import.StageChunkSize)
	assert.Equal(t, storage.StorageTypeS3, cfg.Storage.Type)
	assert.Equal(t, "imports", cfg.Storage.S3.Bucket)
	assert.True(t, cfg.Storage.S3.UsePathStyle)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "s3cret", cfg.InternalAPIKey)
	assert.Equal(t, "postgres://localhost/imports", cfg.Database.URL)
	assert.Equal(t, "postgres://localhost/imports", GetDatabaseURL())
}
