package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/javierleyes/vidro-android/internal/domain/catalog"
	"github.com/javierleyes/vidro-android/internal/domain/schedule"
	"github.com/javierleyes/vidro-android/internal/domain/shared"
	"github.com/javierleyes/vidro-android/internal/domain/shared/valueobject"
	"github.com/javierleyes/vidro-android/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestDB(t *testing.T) *Database {
	db, err := NewDatabase(config.DevServerConfig{DSN: ":memory:", LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewDatabase(t *testing.T) {
	db := setupTestDB(t)

	assert.NoError(t, db.Ping())
	assert.True(t, db.DB.Migrator().HasTable(&GlassModel{}))
	assert.True(t, db.DB.Migrator().HasTable(&VisitModel{}))
}

func TestGlassRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormGlassRepository(db.DB)
	ctx := context.Background()

	t.Run("creates and lists glasses", func(t *testing.T) {
		first := catalog.Glass{Name: "Templado", PriceTransparent: valueobject.MustPrice(150)}
		second := catalog.Glass{Name: "Laminado", PriceTransparent: valueobject.MustPrice(200), PriceColor: valueobject.MustPrice(240.5)}
		require.NoError(t, repo.Create(ctx, &first))
		require.NoError(t, repo.Create(ctx, &second))
		assert.Equal(t, "1", first.ID)
		assert.Equal(t, "2", second.ID)

		glasses, err := repo.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, glasses, 2)
		assert.Equal(t, "Templado", glasses[0].Name)
		assert.Equal(t, "$150.00", glasses[0].PriceTransparent.Display())
		assert.False(t, glasses[0].PriceColor.IsSet(), "no color price stays absent")
		assert.Equal(t, "$240.50", glasses[1].PriceColor.Display())

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("updates prices", func(t *testing.T) {
		u, err := catalog.NewPriceUpdate(valueobject.MustPrice(175))
		require.NoError(t, err)

		updated, err := repo.UpdatePrices(ctx, "2", u)
		require.NoError(t, err)
		assert.Equal(t, "$175.00", updated.PriceTransparent.Display())
		assert.Equal(t, "$240.50", updated.PriceColor.Display())

		stored, err := repo.FindByID(ctx, "2")
		require.NoError(t, err)
		assert.True(t, stored.PriceTransparent.Equals(valueobject.MustPrice(175)))
		assert.True(t, stored.PriceColor.Equals(valueobject.MustPrice(240.5)))

		u, err = catalog.NewPriceUpdate(valueobject.MustPrice(160), valueobject.MustPrice(190))
		require.NoError(t, err)
		_, err = repo.UpdatePrices(ctx, "1", u)
		require.NoError(t, err)
		stored, err = repo.FindByID(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "$190.00", stored.PriceColor.Display())
	})

	t.Run("unknown ids", func(t *testing.T) {
		for _, id := range []string{"99", "abc", "0", ""} {
			_, err := repo.FindByID(ctx, id)
			assert.ErrorIs(t, err, shared.ErrNotFound, id)
		}
		u, _ := catalog.NewPriceUpdate(valueobject.MustPrice(1))
		_, err := repo.UpdatePrices(ctx, "99", u)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestVisitRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormVisitRepository(db.DB)
	ctx := context.Background()
	when := time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC)

	created, err := repo.Create(ctx, schedule.CreateVisitRequest{Date: when, Name: " Ana ", Address: "Calle 1", Phone: "555"})
	require.NoError(t, err)
	assert.Equal(t, "1", created.ID)
	assert.Equal(t, "Ana", created.Name)
	assert.Equal(t, schedule.StatusPending, created.Status)

	other, err := repo.Create(ctx, schedule.CreateVisitRequest{Date: when.Add(time.Hour), Name: "Beto", Address: "Calle 2", Phone: "556"})
	require.NoError(t, err)

	t.Run("filters by status", func(t *testing.T) {
		completed, err := repo.SetStatus(ctx, other.ID, schedule.StatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, schedule.StatusCompleted, completed.Status)

		all, err := repo.FindAll(ctx, schedule.StatusUnknown)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		pending, err := repo.FindAll(ctx, schedule.StatusPending)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, created.ID, pending[0].ID)
		assert.True(t, when.Equal(pending[0].Date))

		done, err := repo.FindAll(ctx, schedule.StatusCompleted)
		require.NoError(t, err)
		require.Len(t, done, 1)
		assert.Equal(t, other.ID, done[0].ID)
	})

	t.Run("updates fields", func(t *testing.T) {
		phone := "1155550000"
		later := when.Add(24 * time.Hour)
		updated, err := repo.Update(ctx, created.ID, schedule.VisitPatch{Phone: &phone, Date: &later})
		require.NoError(t, err)
		assert.Equal(t, phone, updated.Phone)
		assert.Equal(t, "Ana", updated.Name)

		stored, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, phone, stored.Phone)
		assert.True(t, later.Equal(stored.Date))
	})

	t.Run("deletes", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, other.ID))
		assert.ErrorIs(t, repo.Delete(ctx, other.ID), shared.ErrNotFound)
		_, err := repo.FindByID(ctx, other.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func TestSeeder(t *testing.T) {
	db := setupTestDB(t)
	glasses := NewGormGlassRepository(db.DB)
	visits := NewGormVisitRepository(db.DB)
	ctx := context.Background()

	seeder := NewSeeder(glasses, visits, 42, zap.NewNop())
	require.NoError(t, seeder.Seed(ctx, 6))

	all, err := glasses.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(defaultGlasses))
	assert.Equal(t, "Vidrio Templado", all[0].Name)
	assert.Equal(t, "$150.00", all[0].PriceTransparent.Display())
	assert.False(t, all[2].PriceColor.IsSet())

	completed, err := visits.FindAll(ctx, schedule.StatusCompleted)
	require.NoError(t, err)
	assert.Len(t, completed, 2)
	pending, err := visits.FindAll(ctx, schedule.StatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 4)
	for _, v := range pending {
		assert.NoError(t, schedule.CreateVisitRequest{Date: v.Date, Name: v.Name, Address: v.Address, Phone: v.Phone}.Validate())
	}

	// A second run leaves populated tables alone
	require.NoError(t, seeder.Seed(ctx, 6))
	n, err := visits.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
}
