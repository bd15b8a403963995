package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/utafrali/productreview/internal/domain"
	"github.com/utafrali/productreview/internal/repository"
	apperrors "github.com/utafrali/productreview/pkg/errors"
	"github.com/utafrali/productreview/pkg/textnorm"
)

// ProductInput holds the catalogue fields of a product, used for both
// creation and full updates.
type ProductInput struct {
	Name        string
	Description string
	Category    string
	Price       float64
	ImageURLs   []string
}

// ProductService implements the business logic for the product catalogue.
type ProductService struct {
	products repository.ProductRepository
	reviews  repository.ReviewRepository
	logger   *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(products repository.ProductRepository, reviews repository.ReviewRepository, logger *slog.Logger) *ProductService {
	return &ProductService{
		products: products,
		reviews:  reviews,
		logger:   logger,
	}
}

// CreateProduct validates and stores a new product. Its aggregates start at
// zero and only change through review mutations.
func (s *ProductService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	product, err := productFromInput(input)
	if err != nil {
		return nil, err
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.Int64("product_id", product.ID),
		slog.String("name", product.Name),
		slog.String("category", product.Category),
	)
	return product, nil
}

// GetProductDetail returns a product with all its reviews, newest first, and
// the per-star rating distribution.
func (s *ProductService) GetProductDetail(ctx context.Context, id int64) (*domain.ProductDetail, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	reviews, err := s.reviews.ListAllByProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product reviews: %w", err)
	}

	dist, err := s.reviews.RatingDistribution(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get rating distribution: %w", err)
	}

	return &domain.ProductDetail{
		Product:            *product,
		Reviews:            reviews,
		RatingDistribution: dist,
	}, nil
}

// ListProducts returns products matching the filter with the total count.
func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, 0, apperrors.InvalidInput("min_price must not exceed max_price")
	}
	if filter.MinRating != nil && (*filter.MinRating < 0 || *filter.MinRating > domain.MaxRating) {
		return nil, 0, apperrors.InvalidInput("min_rating must be between 0 and 5")
	}
	if filter.Sort.Field == "" {
		filter.Sort.Field = domain.ProductSortReviewCount
		filter.Sort.Desc = true
	}
	if !domain.IsValidProductSort(filter.Sort.Field) {
		return nil, 0, apperrors.InvalidInput("sort_by must be one of: " + strings.Join(domain.ProductSortFields(), ", "))
	}

	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// UpdateProduct replaces the catalogue fields of a product. Aggregates are
// left as they are.
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, input ProductInput) (*domain.Product, error) {
	product, err := productFromInput(input)
	if err != nil {
		return nil, err
	}
	product.ID = id

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.Int64("product_id", product.ID),
	)
	return product, nil
}

// DeleteProduct removes a product together with its reviews.
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.logger.InfoContext(ctx, "product deleted",
		slog.Int64("product_id", id),
	)
	return nil
}

// SearchTerms splits a search query into the terms a product must all match.
func SearchTerms(query string) []string {
	return strings.Fields(query)
}

func productFromInput(input ProductInput) (*domain.Product, error) {
	name := textnorm.ProductName(input.Name)
	if name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.Price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}

	images := make([]string, 0, len(input.ImageURLs))
	for _, u := range input.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			images = append(images, u)
		}
	}

	return &domain.Product{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		Price:       input.Price,
		ImageURLs:   images,
	}, nil
}
