package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/herbhaven/herbhaven-backend/pkg/db/models"
	"github.com/herbhaven/herbhaven-backend/pkg/enums"
	pkgerrors "github.com/herbhaven/herbhaven-backend/pkg/errors"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
	featuredLimit    = 8
)

// Service exposes the read-side catalog operations.
type Service interface {
	ListProducts(ctx context.Context, filters ListFilters) ([]ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ListByCategory(ctx context.Context, category enums.ProductCategory) ([]ProductDTO, error)
	ListFeatured(ctx context.Context) ([]ProductDTO, error)
	Search(ctx context.Context, query string) ([]ProductDTO, error)
	Categories(ctx context.Context) ([]enums.ProductCategory, error)
}

type repository interface {
	List(ctx context.Context, filters ListFilters) ([]models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Categories(ctx context.Context) ([]enums.ProductCategory, error)
}

type service struct {
	repo repository
}

// NewService constructs a catalog service with the provided repository.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListProducts(ctx context.Context, filters ListFilters) ([]ProductDTO, error) {
	if filters.Category != nil && !filters.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	if filters.Limit <= 0 || filters.Limit > maxListLimit {
		filters.Limit = defaultListLimit
	}

	products, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return fromModels(products), nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return FromModel(product), nil
}

func (s *service) ListByCategory(ctx context.Context, category enums.ProductCategory) ([]ProductDTO, error) {
	return s.ListProducts(ctx, ListFilters{Category: &category})
}

func (s *service) ListFeatured(ctx context.Context) ([]ProductDTO, error) {
	featured := true
	return s.ListProducts(ctx, ListFilters{Featured: &featured, Limit: featuredLimit})
}

func (s *service) Search(ctx context.Context, query string) ([]ProductDTO, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return []ProductDTO{}, nil
	}
	return s.ListProducts(ctx, ListFilters{Query: trimmed})
}

func (s *service) Categories(ctx context.Context) ([]enums.ProductCategory, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	return categories, nil
}
