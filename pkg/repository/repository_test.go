package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/adpricing/pkg/db/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type widget struct {
	ID     string `gorm:"primaryKey"`
	Group  string
	Weight int
}

func setupStore(t *testing.T) Repository[widget] {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&widget{}))
	return ProvideStore[widget](conn)
}

func TestStoreFindOneMissingReturnsNil(t *testing.T) {
	store := setupStore(t)
	got, err := store.FindOne(context.Background(), &widget{ID: "missing"})
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreFindWithOptions(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.BatchCreate(ctx, []*widget{
		{ID: "a", Group: "g", Weight: 1},
		{ID: "b", Group: "g", Weight: 3},
		{ID: "c", Group: "g", Weight: 2},
		{ID: "d", Group: "h", Weight: 9},
	}))

	items, err := store.Find(ctx, &widget{Group: "g"}, option.ApplyOrder("weight", option.DESC), option.ApplyLimit(2))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID)
	assert.Equal(t, "c", items[1].ID)

	count, err := store.Count(ctx, &widget{Group: "g"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestStoreWithTrxRollsBack(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&widget{}))
	store := ProvideStore[widget](conn)
	ctx := context.Background()

	err = conn.Transaction(func(tx *gorm.DB) error {
		if err := store.WithTrx(tx).Create(ctx, &widget{ID: "x", Group: "g"}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	got, err := store.FindOne(ctx, &widget{ID: "x"})
	require.NoError(t, err)
	assert.Nil(t, got)
}
