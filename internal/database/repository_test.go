package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/motorefacciones/import-service/internal/types"
)

// setupTestDB starts PostgreSQL in a container and applies the embedded migrations
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("imports"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start postgres container")

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, connStr, 5, 1, time.Hour, time.Minute)
	require.NoError(t, err, "Failed to create connection pool")

	applied, err := Migrate(ctx, pool)
	require.NoError(t, err, "Failed to run migrations")
	require.NotEmpty(t, applied)

	cleanup := func() {
		pool.Close()
		testcontainers.TerminateContainer(container)
	}
	return pool, cleanup
}

func newBatch() *types.ImportBatch {
	return &types.ImportBatch{
		ID:           uuid.NewString(),
		ProviderCode: types.ProviderMotosYEquipos,
		Status:       types.BatchStatusUploaded,
		SourceURL:    "https://cdn.example.com/lista.csv",
	}
}

func newItem(batchID string, row int, sku string, stage types.ItemStage) types.ImportItem {
	return types.ImportItem{
		ID:          uuid.NewString(),
		BatchID:     batchID,
		RowIndex:    row,
		ProviderSku: sku,
		StagedJSON:  []byte(fmt.Sprintf(`{"providerSku":%q,"name":"Item %d","currency":"MXN"}`, sku, row)),
		Stage:       stage,
		RowHash:     fmt.Sprintf("%064d", row),
	}
}

func TestRepository(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewRepository(pool)

	t.Run("MigrateIsIdempotent", func(t *testing.T) {
		applied, err := Migrate(ctx, pool)
		require.NoError(t, err)
		assert.Empty(t, applied)
	})

	t.Run("CheckSchema", func(t *testing.T) {
		status, err := repo.CheckSchema(ctx)
		require.NoError(t, err)
		assert.Empty(t, status.Pending)
		assert.Equal(t, "0001_import_pipeline.sql", status.Current)
		require.NoError(t, repo.Ping(ctx))
	})

	t.Run("BatchLifecycle", func(t *testing.T) {
		batch := newBatch()
		require.NoError(t, repo.CreateBatch(ctx, batch))

		got, err := repo.GetBatch(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, types.BatchStatusUploaded, got.Status)
		assert.Equal(t, types.ProviderMotosYEquipos, got.ProviderCode)
		assert.Nil(t, got.FileType)

		fileType := types.FileTypeCSV
		require.NoError(t, repo.UpdateBatch(ctx, batch.ID, types.BatchUpdate{
			Status:         types.BatchStatusStaged,
			SourceFilename: types.StringPtr("lista.csv"),
			FileType:       &fileType,
			TotalRows:      types.IntPtr(2),
			ValidRows:      types.IntPtr(1),
			FailedRows:     types.IntPtr(1),
		}))

		got, err = repo.GetBatch(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, types.BatchStatusStaged, got.Status)
		require.NotNil(t, got.FileType)
		assert.Equal(t, types.FileTypeCSV, *got.FileType)
		assert.Equal(t, 2, got.TotalRows)
		assert.Equal(t, "lista.csv", types.Deref(got.SourceFilename))

		_, err = repo.GetBatch(ctx, uuid.NewString())
		assert.ErrorIs(t, err, types.ErrNotFound)

		err = repo.UpdateBatch(ctx, uuid.NewString(), types.BatchUpdate{Status: types.BatchStatusFailed})
		assert.ErrorIs(t, err, types.ErrNotFound)

		batches, err := repo.ListBatches(ctx, 10, 0)
		require.NoError(t, err)
		assert.NotEmpty(t, batches)
	})

	t.Run("CommitClaim", func(t *testing.T) {
		batch := newBatch()
		require.NoError(t, repo.CreateBatch(ctx, batch))

		ok, err := repo.ClaimCommit(ctx, batch.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.ClaimCommit(ctx, batch.ID)
		require.NoError(t, err)
		assert.False(t, ok, "second claim must lose")

		require.NoError(t, repo.ReleaseCommit(ctx, batch.ID))
		ok, err = repo.ClaimCommit(ctx, batch.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, repo.MarkCommitted(ctx, batch.ID))
		require.NoError(t, repo.ReleaseCommit(ctx, batch.ID))
		ok, err = repo.ClaimCommit(ctx, batch.ID)
		require.NoError(t, err)
		assert.False(t, ok, "committed batch cannot be claimed")

		got, err := repo.GetBatch(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, types.BatchStatusCommitted, got.Status)
		assert.NotNil(t, got.CommittedAt)
	})

	t.Run("ReleaseInterruptedCommits", func(t *testing.T) {
		batch := newBatch()
		require.NoError(t, repo.CreateBatch(ctx, batch))
		ok, err := repo.ClaimCommit(ctx, batch.ID)
		require.NoError(t, err)
		require.True(t, ok)

		ids, err := repo.ReleaseInterruptedCommits(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, batch.ID)

		ok, err = repo.ClaimCommit(ctx, batch.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, repo.ReleaseCommit(ctx, batch.ID))
	})

	t.Run("ReleaseStaleCommits", func(t *testing.T) {
		batch := newBatch()
		require.NoError(t, repo.CreateBatch(ctx, batch))
		ok, err := repo.ClaimCommit(ctx, batch.ID)
		require.NoError(t, err)
		require.True(t, ok)

		ids, err := repo.ReleaseStaleCommits(ctx, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.NotContains(t, ids, batch.ID, "fresh claim must survive")

		ids, err = repo.ReleaseStaleCommits(ctx, time.Now().Add(time.Minute))
		require.NoError(t, err)
		assert.Contains(t, ids, batch.ID)

		got, err := repo.GetBatch(ctx, batch.ID)
		require.NoError(t, err)
		assert.Nil(t, got.CommitStartedAt)
		assert.NotNil(t, got.ErrorText)
	})

	t.Run("DeleteBatchesBefore", func(t *testing.T) {
		failed := newBatch()
		require.NoError(t, repo.CreateBatch(ctx, failed))
		require.NoError(t, repo.UpdateBatch(ctx, failed.ID, types.BatchUpdate{Status: types.BatchStatusFailed}))
		require.NoError(t, repo.InsertItems(ctx, []types.ImportItem{newItem(failed.ID, 0, "X0", types.ItemStageFailed)}))

		staged := newBatch()
		require.NoError(t, repo.CreateBatch(ctx, staged))
		require.NoError(t, repo.UpdateBatch(ctx, staged.ID, types.BatchUpdate{Status: types.BatchStatusStaged}))

		ids, err := repo.DeleteBatchesBefore(ctx, []types.BatchStatus{types.BatchStatusFailed}, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.NotContains(t, ids, failed.ID, "recent batches are kept")

		ids, err = repo.DeleteBatchesBefore(ctx, []types.BatchStatus{types.BatchStatusFailed}, time.Now().Add(time.Minute))
		require.NoError(t, err)
		assert.Contains(t, ids, failed.ID)
		assert.NotContains(t, ids, staged.ID)

		_, err = repo.GetBatch(ctx, failed.ID)
		assert.ErrorIs(t, err, types.ErrNotFound)
		counts, err := repo.CountItems(ctx, failed.ID)
		require.NoError(t, err)
		assert.Zero(t, counts.Total())

		ids, err = repo.DeleteBatchesBefore(ctx, nil, time.Now())
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("Items", func(t *testing.T) {
		batch := newBatch()
		require.NoError(t, repo.CreateBatch(ctx, batch))

		items := []types.ImportItem{
			newItem(batch.ID, 2, "B2", types.ItemStageStaged),
			newItem(batch.ID, 0, "A0", types.ItemStageStaged),
			newItem(batch.ID, 1, "F1", types.ItemStageFailed),
		}
		items[2].ErrorText = types.StringPtr("Name is required")
		require.NoError(t, repo.InsertItems(ctx, items))

		counts, err := repo.CountItems(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, types.ItemCounts{Staged: 2, Failed: 1}, counts)

		staged, err := repo.ListItems(ctx, batch.ID, types.ItemStageStaged, 0, 0)
		require.NoError(t, err)
		require.Len(t, staged, 2)
		assert.Equal(t, "A0", staged[0].ProviderSku)
		assert.JSONEq(t, string(items[1].StagedJSON), string(staged[0].StagedJSON))

		page, err := repo.ListItems(ctx, batch.ID, types.ItemStageStaged, 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "B2", page[0].ProviderSku)

		require.NoError(t, repo.SetItemStage(ctx, staged[0].ID, types.ItemStageCommitted, nil))
		committed, err := repo.FindCommittedItem(ctx, batch.ID, "A0")
		require.NoError(t, err)
		assert.Equal(t, staged[0].ID, committed.ID)

		_, err = repo.FindCommittedItem(ctx, batch.ID, "B2")
		assert.ErrorIs(t, err, types.ErrNotFound)

		failed, err := repo.ListItems(ctx, batch.ID, types.ItemStageFailed, 0, 0)
		require.NoError(t, err)
		require.Len(t, failed, 1)
		assert.Equal(t, "Name is required", types.Deref(failed[0].ErrorText))
	})

	t.Run("InsertItemsRollsBackChunk", func(t *testing.T) {
		batch := newBatch()
		require.NoError(t, repo.CreateBatch(ctx, batch))

		dup := newItem(batch.ID, 0, "A0", types.ItemStageStaged)
		err := repo.InsertItems(ctx, []types.ImportItem{dup, newItem(batch.ID, 1, "A1", types.ItemStageStaged), dup})
		require.Error(t, err)

		counts, err := repo.CountItems(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, counts.Total())
	})

	t.Run("ImageMappings", func(t *testing.T) {
		batch := newBatch()
		require.NoError(t, repo.CreateBatch(ctx, batch))

		require.NoError(t, repo.InsertImageMappings(ctx, []types.ImageMapping{
			{ID: uuid.NewString(), BatchID: batch.ID, FileName: types.StringPtr("a.jpg"), URL: "https://img/a.jpg", Sort: 1},
			{ID: uuid.NewString(), BatchID: batch.ID, FileName: types.StringPtr("b.jpg"), URL: "https://img/b.jpg", Sort: 1},
		}))

		unmapped, err := repo.ListImageMappings(ctx, batch.ID, false)
		require.NoError(t, err)
		assert.Len(t, unmapped, 2)

		save := func(url string) {
			require.NoError(t, repo.ReplaceImageMappings(ctx, batch.ID, []types.ImageMapping{
				{ID: uuid.NewString(), BatchID: batch.ID, ProviderSku: "SKU1", URL: url, IsPrimary: true, Sort: 1},
			}))
		}
		save("https://img/a.jpg")
		save("https://img/b.jpg")

		mapped, err := repo.ListImageMappings(ctx, batch.ID, true)
		require.NoError(t, err)
		require.Len(t, mapped, 1)
		assert.Equal(t, "https://img/b.jpg", mapped[0].URL)
		assert.True(t, mapped[0].IsPrimary)

		unmapped, err = repo.ListImageMappings(ctx, batch.ID, false)
		require.NoError(t, err)
		assert.Len(t, unmapped, 2)
	})

	t.Run("Catalog", func(t *testing.T) {
		product := &types.Product{
			ID:     uuid.NewString(),
			Sku:    "X1-balata",
			Slug:   "balata",
			Name:   "Balata",
			Price:  120.5,
			Status: types.ProductStatusActive,
		}
		require.NoError(t, repo.InsertProduct(ctx, product))

		got, err := repo.FindProductBySku(ctx, "X1-balata")
		require.NoError(t, err)
		assert.Equal(t, product.ID, got.ID)
		assert.InDelta(t, 120.5, got.Price, 0.001)
		assert.Nil(t, got.CompareAtPrice)

		got.Price = 99.99
		got.CompareAtPrice = types.Float64Ptr(110)
		got.ImportRowHash = types.StringPtr("abc")
		require.NoError(t, repo.UpdateProduct(ctx, got))

		got, err = repo.FindProductBySku(ctx, "X1-balata")
		require.NoError(t, err)
		assert.InDelta(t, 99.99, got.Price, 0.001)
		require.NotNil(t, got.CompareAtPrice)
		assert.Equal(t, "abc", types.Deref(got.ImportRowHash))

		_, err = repo.FindProductBySku(ctx, "missing")
		assert.ErrorIs(t, err, types.ErrNotFound)

		variant := &types.ProductVariant{
			ID:         uuid.NewString(),
			ProductID:  product.ID,
			VariantSku: "X1-balata-VAR",
			Price:      types.Float64Ptr(99.99),
			Stock:      types.IntPtr(4),
			Attrs:      map[string]any{"warehouse": "CDMX"},
		}
		require.NoError(t, repo.UpsertVariant(ctx, variant))
		firstID := variant.ID

		variant.ID = uuid.NewString()
		variant.Stock = types.IntPtr(7)
		require.NoError(t, repo.UpsertVariant(ctx, variant))
		assert.Equal(t, firstID, variant.ID, "upsert keeps the existing row")

		v, err := repo.FindVariantBySku(ctx, "X1-balata-VAR")
		require.NoError(t, err)
		assert.Equal(t, 7, *v.Stock)
		assert.Equal(t, "CDMX", v.Attrs["warehouse"])

		maxSort, err := repo.MaxMediaSort(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, maxSort)

		media := &types.Media{ID: uuid.NewString(), ProductID: product.ID, URL: "https://img/a.jpg",
			Sha256: "hash-a", IsPrimary: true, Sort: 1, Source: "import"}
		inserted, err := repo.InsertMedia(ctx, media)
		require.NoError(t, err)
		assert.True(t, inserted)

		media.ID = uuid.NewString()
		inserted, err = repo.InsertMedia(ctx, media)
		require.NoError(t, err)
		assert.False(t, inserted)

		exists, err := repo.MediaExists(ctx, "hash-a")
		require.NoError(t, err)
		assert.True(t, exists)

		maxSort, err = repo.MaxMediaSort(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, maxSort)

		list, err := repo.ListMedia(ctx, product.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}
