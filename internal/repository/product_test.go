package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRepository_Snapshots(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE id IN ($1,$2)`)).
		WithArgs("prod-1", "prod-2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "name", "live_release"}).
			AddRow("prod-1", "p1", "zine", false).
			AddRow("prod-2", "p2", "stream", true))

	// Newest price row per product
	mock.ExpectQuery(`SELECT DISTINCT ON \(product_id\) product_id, price`).
		WithArgs("prod-1", "prod-2").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "price"}).
			AddRow("prod-1", 800).
			AddRow("prod-2", 999))

	mock.ExpectQuery(`SELECT product_id, AVG\(value\) AS avg, COUNT\(\*\) AS cnt`).
		WithArgs("prod-1", "prod-2").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "avg", "cnt"}).
			AddRow("prod-1", 4.0, 3))

	snapshots, err := repo.Snapshots(ctx, []string{"prod-1", "prod-2"})
	require.NoError(t, err)
	require.Len(t, snapshots, 2)

	priced := snapshots["prod-1"]
	require.NotNil(t, priced.CurrentPrice)
	assert.Equal(t, 800, *priced.CurrentPrice)
	require.NotNil(t, priced.AverageRating)
	assert.Equal(t, 4.0, *priced.AverageRating)
	assert.Equal(t, 3, priced.RatingCount)

	// Live releases never carry a price even when stray history rows exist,
	// and missing ratings stay nil rather than zero.
	live := snapshots["prod-2"]
	assert.True(t, live.LiveRelease)
	assert.Nil(t, live.CurrentPrice)
	assert.Nil(t, live.AverageRating)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Snapshots_EmptyInput(t *testing.T) {
	db, _ := setupMockDB(t)
	repo := NewProductRepository(db)

	snapshots, err := repo.Snapshots(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, snapshots)
}

func TestProductRepository_UpsertRating(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO product_ratings`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertRating(ctx, "prod-1", "u1", 4)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_SalesByDate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT purchases\.date_key AS date_key, SUM\(purchases\.purchase_price\) AS total`).
		WithArgs("seller-1").
		WillReturnRows(sqlmock.NewRows([]string{"date_key", "total"}).
			AddRow("2026-8-30", 4500))

	sales, err := repo.SalesByDate(ctx, "seller-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"2026-8-30": 4500}, sales)
	assert.NoError(t, mock.ExpectationsWereMet())
}
