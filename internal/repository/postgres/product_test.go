package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/productreview/internal/domain"
	"github.com/utafrali/productreview/internal/repository"
	"github.com/utafrali/productreview/pkg/database"
	apperrors "github.com/utafrali/productreview/pkg/errors"
	"github.com/utafrali/productreview/pkg/pagination"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func strPtr(s string) *string        { return &s }
func intPtr(n int) *int              { return &n }
func floatPtr(f float64) *float64    { return &f }
func timePtr(t time.Time) *time.Time { return &t }

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

var productCols = []string{
	"id", "name", "description", "category", "price", "image_urls",
	"average_rating", "review_count", "created_at", "updated_at",
}

func sampleProduct() domain.Product {
	return domain.Product{
		ID:            7,
		Name:          "Wireless Headphones",
		Description:   "Over-ear, noise cancelling",
		Category:      "Electronics",
		Price:         129.99,
		ImageURLs:     []string{"https://img.example/1.jpg"},
		AverageRating: 4.3,
		ReviewCount:   12,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func productRow(p domain.Product) []any {
	return []any{
		p.ID, p.Name, p.Description, p.Category, p.Price, p.ImageURLs,
		p.AverageRating, p.ReviewCount, p.CreatedAt, p.UpdatedAt,
	}
}

func TestProductRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	p := &domain.Product{Name: "Desk Lamp", Category: "Home", Price: 25, AverageRating: 3, ReviewCount: 9}

	mock.ExpectQuery("INSERT INTO products").
		WithArgs("Desk Lamp", "", "Home", 25.0, []string{}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(1), now, now))

	require.NoError(t, repo.Create(context.Background(), p))
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, now, p.CreatedAt)
	assert.Zero(t, p.AverageRating)
	assert.Zero(t, p.ReviewCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	want := sampleProduct()

	mock.ExpectQuery("SELECT .+ FROM products WHERE id = \\$1$").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(productCols).AddRow(productRow(want)...))

	got, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, want, *got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM products WHERE id").
		WithArgs(int64(99)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetForUpdate(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM products WHERE id = \\$1 FOR UPDATE").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(productCols).AddRow(productRow(sampleProduct())...))

	got, err := repo.GetForUpdate(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_Defaults(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	row := append(productRow(sampleProduct()), 1)

	mock.ExpectQuery("SELECT .+ FROM products\\s+ORDER BY review_count DESC, average_rating DESC, id ASC").
		WithArgs(10, 0).
		WillReturnRows(pgxmock.NewRows(append(productCols, "total_count")).AddRow(row...))

	products, total, err := repo.List(context.Background(), repository.ProductFilter{
		Sort: pagination.Sort{Field: domain.ProductSortReviewCount, Desc: true},
		Page: 1, PerPage: 10,
	})
	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_WithFilters(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	// category=$1, two search terms $2 $3, rating $4, prices $5 $6, LIMIT $7 OFFSET $8
	mock.ExpectQuery("WHERE category = \\$1 AND \\(name ILIKE \\$2 OR description ILIKE \\$2\\) AND \\(name ILIKE \\$3 OR description ILIKE \\$3\\) AND average_rating >= \\$4 AND price >= \\$5 AND price <= \\$6").
		WithArgs("Electronics", "%wireless%", "%100\\%%", 4, 10.0, 200.0, 5, 10).
		WillReturnRows(pgxmock.NewRows(append(productCols, "total_count")))

	products, total, err := repo.List(context.Background(), repository.ProductFilter{
		Category:    strPtr("Electronics"),
		SearchTerms: []string{"wireless", "100%"},
		MinRating:   intPtr(4),
		MinPrice:    floatPtr(10),
		MaxPrice:    floatPtr(200),
		Page:        3,
		PerPage:     5,
	})
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_QueryError(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM products").
		WithArgs(10, 0).
		WillReturnError(errors.New("connection reset"))

	_, _, err := repo.List(context.Background(), repository.ProductFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list products")
}

func TestProductOrderBy(t *testing.T) {
	tests := []struct {
		sort pagination.Sort
		want string
	}{
		{pagination.Sort{Field: domain.ProductSortAverageRating, Desc: true}, "(review_count > 0) DESC, average_rating DESC, id ASC"},
		{pagination.Sort{Field: domain.ProductSortAverageRating}, "(review_count > 0) DESC, average_rating ASC, id ASC"},
		{pagination.Sort{Field: domain.ProductSortReviewCount}, "review_count ASC, average_rating DESC, id ASC"},
		{pagination.Sort{Field: domain.ProductSortPrice}, "price ASC, id ASC"},
		{pagination.Sort{Field: domain.ProductSortName, Desc: true}, "name DESC, id ASC"},
		{pagination.Sort{Field: domain.ProductSortNewest, Desc: true}, "created_at DESC, id DESC"},
		{pagination.Sort{}, "review_count ASC, average_rating DESC, id ASC"},
	}
	for _, tt := range tests {
		t.Run(tt.sort.Field, func(t *testing.T) {
			assert.Equal(t, tt.want, productOrderBy(tt.sort))
		})
	}
}

func TestProductRepository_Update(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	later := now.Add(time.Hour)

	p := &domain.Product{ID: 7, Name: "Headphones", Category: "Electronics", Price: 99.5, ImageURLs: []string{"a"}}

	mock.ExpectQuery("UPDATE products").
		WithArgs("Headphones", "", "Electronics", 99.5, []string{"a"}, int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"average_rating", "review_count", "created_at", "updated_at"}).
			AddRow(4.3, int64(12), now, later))

	require.NoError(t, repo.Update(context.Background(), p))
	assert.Equal(t, 4.3, p.AverageRating)
	assert.Equal(t, int64(12), p.ReviewCount)
	assert.Equal(t, later, p.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Update_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("UPDATE products").
		WithArgs("x", "", "", 1.0, []string{}, int64(3)).
		WillReturnError(pgx.ErrNoRows)

	err := repo.Update(context.Background(), &domain.Product{ID: 3, Name: "x", Price: 1})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestProductRepository_UpdateAggregates(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectExec("UPDATE products SET average_rating = \\$1, review_count = \\$2 WHERE id = \\$3").
		WithArgs(4.5, int64(2), int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE products SET average_rating").
		WithArgs(0.0, int64(0), int64(8)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ctx := context.Background()
	require.NoError(t, repo.UpdateAggregates(ctx, domain.RatingAggregate{ProductID: 7, AverageRating: 4.5, ReviewCount: 2}))

	err := repo.UpdateAggregates(ctx, domain.RatingAggregate{ProductID: 8})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Delete(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectExec("DELETE FROM products").
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM products").
		WithArgs(int64(8)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	ctx := context.Background()
	require.NoError(t, repo.Delete(ctx, 7))
	assert.True(t, errors.Is(repo.Delete(ctx, 8), apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
