package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/productreview/internal/domain"
	"github.com/utafrali/productreview/internal/repository"
	"github.com/utafrali/productreview/pkg/database"
	apperrors "github.com/utafrali/productreview/pkg/errors"
	"github.com/utafrali/productreview/pkg/pagination"
)

const productColumns = `id, name, description, category, price, image_urls, average_rating, review_count, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a product repository on a pool or a transaction.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a new product. Aggregates always start at zero.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	query := `
		INSERT INTO products (name, description, category, price, image_urls, average_rating, review_count)
		VALUES ($1, $2, $3, $4, $5, 0, 0)
		RETURNING id, created_at, updated_at`

	ctx, end := database.TraceQuery(ctx, "CreateProduct", query)
	defer func() { end(err) }()

	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}
	p.AverageRating, p.ReviewCount = 0, 0

	if err = r.db.QueryRow(ctx, query,
		p.Name,
		p.Description,
		p.Category,
		p.Price,
		p.ImageURLs,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	return r.get(ctx, "GetProduct", `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetForUpdate retrieves a product and locks its row. Review mutations take
// this lock so aggregate recalculations for one product run one at a time.
func (r *ProductRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	return r.get(ctx, "LockProduct", `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (r *ProductRepository) get(ctx context.Context, op, query string, id int64) (p *domain.Product, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	var product domain.Product
	if err = scanProduct(r.db.QueryRow(ctx, query, id), &product); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &product, nil
}

// List returns products matching the given filter with the total count.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) (products []domain.Product, total int, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, *filter.Category)
		argIndex++
	}

	for _, term := range filter.SearchTerms {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+likeEscaper.Replace(term)+"%")
		argIndex++
	}

	if filter.MinRating != nil {
		conditions = append(conditions, fmt.Sprintf("average_rating >= $%d", argIndex))
		args = append(args, *filter.MinRating)
		argIndex++
	}

	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price >= $%d", argIndex))
		args = append(args, *filter.MinPrice)
		argIndex++
	}

	if filter.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price <= $%d", argIndex))
		args = append(args, *filter.MaxPrice)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM products
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		productColumns, whereClause, productOrderBy(filter.Sort), argIndex, argIndex+1,
	)

	limit, offset := limitOffset(filter.Page, filter.PerPage)
	args = append(args, limit, offset)

	ctx, end := database.TraceQuery(ctx, "ListProducts", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products = []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err = scanProduct(rows, &p, &total); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, total, nil
}

// productOrderBy maps a validated sort to an ORDER BY clause. Products
// without reviews sort last by rating; equal review counts fall back to the
// higher rating; id keeps pages stable.
func productOrderBy(s pagination.Sort) string {
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	switch s.Field {
	case domain.ProductSortAverageRating:
		return "(review_count > 0) DESC, average_rating " + dir + ", id ASC"
	case domain.ProductSortPrice:
		return "price " + dir + ", id ASC"
	case domain.ProductSortName:
		return "name " + dir + ", id ASC"
	case domain.ProductSortNewest:
		return "created_at " + dir + ", id " + dir
	default:
		return "review_count " + dir + ", average_rating DESC, id ASC"
	}
}

// Update modifies the catalogue fields of a product.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (err error) {
	query := `
		UPDATE products
		SET name = $1, description = $2, category = $3, price = $4, image_urls = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING average_rating, review_count, created_at, updated_at`

	ctx, end := database.TraceQuery(ctx, "UpdateProduct", query)
	defer func() { end(err) }()

	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}

	err = r.db.QueryRow(ctx, query,
		p.Name,
		p.Description,
		p.Category,
		p.Price,
		p.ImageURLs,
		p.ID,
	).Scan(&p.AverageRating, &p.ReviewCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("product", p.ID)
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// UpdateAggregates stores a recalculated average rating and review count.
func (r *ProductRepository) UpdateAggregates(ctx context.Context, agg domain.RatingAggregate) (err error) {
	query := `UPDATE products SET average_rating = $1, review_count = $2 WHERE id = $3`

	ctx, end := database.TraceQuery(ctx, "UpdateProductAggregates", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, agg.AverageRating, agg.ReviewCount, agg.ProductID)
	if err != nil {
		return fmt.Errorf("update product aggregates: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", agg.ProductID)
	}
	return nil
}

// Delete removes a product from the database by its ID.
func (r *ProductRepository) Delete(ctx context.Context, id int64) (err error) {
	query := `DELETE FROM products WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteProduct", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

func scanProduct(row pgx.Row, p *domain.Product, extra ...any) error {
	dest := append([]any{
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Category,
		&p.Price,
		&p.ImageURLs,
		&p.AverageRating,
		&p.ReviewCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	}, extra...)
	return row.Scan(dest...)
}

func limitOffset(page, perPage int) (int, int) {
	limit := perPage
	if limit <= 0 {
		limit = pagination.DefaultPerPage
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}
	return limit, offset
}
