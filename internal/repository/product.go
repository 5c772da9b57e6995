package repository

import (
	"context"

	"minato/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository defines the interface for product, price history, and
// rating data operations.
type ProductRepository interface {
	List(ctx context.Context) ([]*models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Snapshots(ctx context.Context, productIDs []string) (map[string]*models.ProductSnapshot, error)
	AppendPrice(ctx context.Context, productID string, price int) (*models.PriceHistory, error)
	UpsertRating(ctx context.Context, productID, userID string, value int) error
	Trending(ctx context.Context, limit int) ([]*models.Product, error)
	SalesByDate(ctx context.Context, sellerID string) (map[string]int, error)
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) List(ctx context.Context) ([]*models.Product, error) {
	var products []*models.Product
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

type priceHead struct {
	ProductID string
	Price     int
}

type ratingAgg struct {
	ProductID string
	Avg       float64
	Cnt       int
}

// Snapshots derives the current price and mean rating for every product on a
// page in two batched queries, never per item. Products with no price rows
// keep a nil CurrentPrice; products with no ratings keep a nil AverageRating.
func (r *productRepository) Snapshots(ctx context.Context, productIDs []string) (map[string]*models.ProductSnapshot, error) {
	snapshots := make(map[string]*models.ProductSnapshot, len(productIDs))
	if len(productIDs) == 0 {
		return snapshots, nil
	}

	var products []*models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", productIDs).Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		snapshots[p.ID] = &models.ProductSnapshot{
			ID:            p.ID,
			Name:          p.Name,
			ThumbnailLink: p.ThumbnailLink,
			LiveRelease:   p.LiveRelease,
		}
	}

	var heads []priceHead
	err := r.db.WithContext(ctx).Raw(
		`SELECT DISTINCT ON (product_id) product_id, price
		 FROM price_histories
		 WHERE product_id IN ?
		 ORDER BY product_id, created_at DESC`,
		productIDs,
	).Scan(&heads).Error
	if err != nil {
		return nil, err
	}
	for _, h := range heads {
		if snap, ok := snapshots[h.ProductID]; ok && !snap.LiveRelease {
			price := h.Price
			snap.CurrentPrice = &price
		}
	}

	var aggs []ratingAgg
	err = r.db.WithContext(ctx).Raw(
		`SELECT product_id, AVG(value) AS avg, COUNT(*) AS cnt
		 FROM product_ratings
		 WHERE product_id IN ?
		 GROUP BY product_id`,
		productIDs,
	).Scan(&aggs).Error
	if err != nil {
		return nil, err
	}
	for _, a := range aggs {
		if snap, ok := snapshots[a.ProductID]; ok {
			avg := a.Avg
			snap.AverageRating = &avg
			snap.RatingCount = a.Cnt
		}
	}

	return snapshots, nil
}

// AppendPrice adds a new price history row. History is append-only; older
// rows are never touched.
func (r *productRepository) AppendPrice(ctx context.Context, productID string, price int) (*models.PriceHistory, error) {
	entry := &models.PriceHistory{ProductID: productID, Price: price}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// UpsertRating writes a user's rating atomically; a re-rating replaces the
// previous value rather than adding a row.
func (r *productRepository) UpsertRating(ctx context.Context, productID, userID string, value int) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO product_ratings (id, product_id, user_id, value, created_at, updated_at)
		 VALUES (?, ?, ?, ?, NOW(), NOW())
		 ON CONFLICT (product_id, user_id) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		uuid.NewString(), productID, userID, value,
	).Error
}

// Trending returns the products with the most purchases.
func (r *productRepository) Trending(ctx context.Context, limit int) ([]*models.Product, error) {
	var products []*models.Product
	err := r.db.WithContext(ctx).
		Select("products.*").
		Joins("LEFT JOIN purchases ON purchases.product_id = products.id").
		Group("products.id").
		Order("COUNT(purchases.id) DESC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

type dateSum struct {
	DateKey string
	Total   int
}

// SalesByDate sums purchase prices per date key across every product the
// seller's posts own.
func (r *productRepository) SalesByDate(ctx context.Context, sellerID string) (map[string]int, error) {
	var sums []dateSum
	err := r.db.WithContext(ctx).Raw(
		`SELECT purchases.date_key AS date_key, SUM(purchases.purchase_price) AS total
		 FROM purchases
		 JOIN products ON products.id = purchases.product_id
		 JOIN posts ON posts.id = products.post_id
		 WHERE posts.user_id = ?
		 GROUP BY purchases.date_key`,
		sellerID,
	).Scan(&sums).Error
	if err != nil {
		return nil, err
	}

	sales := make(map[string]int, len(sums))
	for _, s := range sums {
		sales[s.DateKey] = s.Total
	}
	return sales, nil
}
