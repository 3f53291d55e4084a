package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/herbhaven/herbhaven-backend/pkg/db/models"
	"github.com/herbhaven/herbhaven-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL,
  price_cents INTEGER NOT NULL,
  category TEXT NOT NULL,
  thc_percent REAL,
  cbd_percent REAL,
  images TEXT,
  effects TEXT,
  stock_quantity INTEGER NOT NULL DEFAULT 0,
  featured INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(products).Error)

	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, category enums.ProductCategory, featured bool) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:            uuid.New(),
		Name:          name,
		Description:   name + " description",
		PriceCents:    25_00,
		Category:      category,
		Images:        []string{"https://cdn.example.com/" + name + ".jpg"},
		Effects:       []string{"relaxed"},
		StockQuantity: 10,
		Featured:      featured,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestRepositoryListFiltersByCategory(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	seedProduct(t, db, "Sunset Kush", enums.ProductCategoryFlower, false)
	seedProduct(t, db, "Citrus Gummies", enums.ProductCategoryEdible, false)

	category := enums.ProductCategoryFlower
	listed, err := repo.List(context.Background(), ListFilters{Category: &category})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Sunset Kush", listed[0].Name)
}

func TestRepositoryListFiltersByFeatured(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	seedProduct(t, db, "Sunset Kush", enums.ProductCategoryFlower, true)
	seedProduct(t, db, "Citrus Gummies", enums.ProductCategoryEdible, false)

	featured := true
	listed, err := repo.List(context.Background(), ListFilters{Featured: &featured})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].Featured)
}

func TestRepositoryListSearchesNameAndDescription(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	seedProduct(t, db, "Sunset Kush", enums.ProductCategoryFlower, false)
	seedProduct(t, db, "Citrus Gummies", enums.ProductCategoryEdible, false)

	listed, err := repo.List(context.Background(), ListFilters{Query: "kush"})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Sunset Kush", listed[0].Name)
}

func TestRepositoryFindByID(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	seeded := seedProduct(t, db, "Sunset Kush", enums.ProductCategoryFlower, false)

	found, err := repo.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)
	assert.Equal(t, []string{"https://cdn.example.com/Sunset Kush.jpg"}, []string(found.Images))

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryCategories(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	seedProduct(t, db, "Sunset Kush", enums.ProductCategoryFlower, false)
	seedProduct(t, db, "Dawn Haze", enums.ProductCategoryFlower, false)
	seedProduct(t, db, "Citrus Gummies", enums.ProductCategoryEdible, false)

	categories, err := repo.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []enums.ProductCategory{enums.ProductCategoryEdible, enums.ProductCategoryFlower}, categories)
}
