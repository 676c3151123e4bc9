package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/viveo-rs/viveo-backend/internal/domain"
)

var ErrNotFound = errors.New("not found")

// ErrVariantHasOrders blocks deletion of a variant that merch orders still
// reference.
var ErrVariantHasOrders = errors.New("variant has existing orders")

// Slugify turns a display name into a URL slug: lowercase, alphanumeric
// runs joined by single dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// uniqueSlug appends a random suffix when the base slug is taken.
func (r *Repository) uniqueSlug(ctx context.Context, table, slug string) (string, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE slug = $1)`, table), slug,
	).Scan(&exists)
	if err != nil {
		return "", err
	}
	if !exists {
		return slug, nil
	}
	return slug + "-" + uuid.NewString()[:8], nil
}

// ProductListing is a product row for browse pages, with the aggregate
// variant figures the storefront shows.
type ProductListing struct {
	domain.Product
	CelebrityName string `json:"celebrity_name"`
	CelebritySlug string `json:"celebrity_slug"`
	VariantCount  int    `json:"variant_count"`
	TotalStock    int    `json:"total_stock"`
}

const productListingQuery = `
	SELECT p.id, p.celebrity_id, p.name, p.slug, p.description, p.price, p.is_active, p.created_at,
		c.name, c.slug,
		COUNT(pv.id), COALESCE(SUM(pv.stock), 0)
	FROM products p
	JOIN celebrities c ON c.id = p.celebrity_id
	LEFT JOIN product_variants pv ON pv.product_id = p.id`

const productListingGroup = ` GROUP BY p.id, c.name, c.slug ORDER BY p.created_at DESC`

func (r *Repository) listProducts(ctx context.Context, where string, args ...any) ([]ProductListing, error) {
	rows, err := r.db.QueryContext(ctx, productListingQuery+where+productListingGroup, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []ProductListing{}
	for rows.Next() {
		var p ProductListing
		if err := rows.Scan(&p.ID, &p.CelebrityID, &p.Name, &p.Slug, &p.Description, &p.Price,
			&p.IsActive, &p.CreatedAt, &p.CelebrityName, &p.CelebritySlug,
			&p.VariantCount, &p.TotalStock); err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

type ProductFilter struct {
	Search        string
	CelebritySlug string
}

// ListProducts returns active products for the public storefront.
func (r *Repository) ListProducts(ctx context.Context, filter ProductFilter) ([]ProductListing, error) {
	where := ` WHERE p.is_active`
	var args []any

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND p.name ILIKE $%d", len(args))
	}
	if filter.CelebritySlug != "" {
		args = append(args, filter.CelebritySlug)
		where += fmt.Sprintf(" AND c.slug = $%d", len(args))
	}

	return r.listProducts(ctx, where, args...)
}

// ListProductsForCelebrity returns every product a seller owns, active or
// not, for the dashboard.
func (r *Repository) ListProductsForCelebrity(ctx context.Context, celebrityID string) ([]ProductListing, error) {
	return r.listProducts(ctx, ` WHERE p.celebrity_id = $1`, celebrityID)
}

// ProductDetail is a single product with its full variant list.
type ProductDetail struct {
	domain.Product
	CelebrityName string                  `json:"celebrity_name"`
	CelebritySlug string                  `json:"celebrity_slug"`
	Variants      []domain.ProductVariant `json:"variants"`
}

func (r *Repository) productDetail(ctx context.Context, where string, args ...any) (*ProductDetail, error) {
	p := &ProductDetail{}
	err := r.db.QueryRowContext(ctx, `
		SELECT p.id, p.celebrity_id, p.name, p.slug, p.description, p.price, p.is_active, p.created_at,
			c.name, c.slug
		FROM products p
		JOIN celebrities c ON c.id = p.celebrity_id
		`+where, args...,
	).Scan(&p.ID, &p.CelebrityID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.IsActive,
		&p.CreatedAt, &p.CelebrityName, &p.CelebritySlug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, name, price_override, stock
		FROM product_variants
		WHERE product_id = $1
		ORDER BY name
	`, p.ID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	p.Variants = []domain.ProductVariant{}
	for rows.Next() {
		var v domain.ProductVariant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.PriceOverride, &v.Stock); err != nil {
			return nil, err
		}
		p.Variants = append(p.Variants, v)
	}

	return p, rows.Err()
}

// ProductBySlug resolves an active product for the public detail page, or
// nil.
func (r *Repository) ProductBySlug(ctx context.Context, slug string) (*ProductDetail, error) {
	return r.productDetail(ctx, `WHERE p.slug = $1 AND p.is_active`, slug)
}

// ProductForCelebrity resolves a product owned by the seller, or nil.
func (r *Repository) ProductForCelebrity(ctx context.Context, id, celebrityID string) (*ProductDetail, error) {
	return r.productDetail(ctx, `WHERE p.id = $1 AND p.celebrity_id = $2`, id, celebrityID)
}

func (r *Repository) CreateProduct(ctx context.Context, p *domain.Product) error {
	slug, err := r.uniqueSlug(ctx, "products", Slugify(p.Name))
	if err != nil {
		return err
	}

	p.ID = uuid.New().String()
	p.Slug = slug
	p.IsActive = true
	p.CreatedAt = time.Now().UTC()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO products (id, celebrity_id, name, slug, description, price, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.CelebrityID, p.Name, p.Slug, p.Description, p.Price, p.IsActive, p.CreatedAt)
	return err
}

// ProductUpdate carries the optional fields of a product edit; nil fields
// are left untouched.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *int64
	IsActive    *bool
}

func (r *Repository) UpdateProduct(ctx context.Context, id, celebrityID string, u ProductUpdate) error {
	sets := []string{}
	args := []any{}

	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.Price != nil {
		add("price", *u.Price)
	}
	if u.IsActive != nil {
		add("is_active", *u.IsActive)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id, celebrityID)
	query := fmt.Sprintf("UPDATE products SET %s WHERE id = $%d AND celebrity_id = $%d",
		strings.Join(sets, ", "), len(args)-1, len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) AddVariant(ctx context.Context, v *domain.ProductVariant) error {
	v.ID = uuid.New().String()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO product_variants (id, product_id, name, price_override, stock)
		VALUES ($1, $2, $3, $4, $5)
	`, v.ID, v.ProductID, v.Name, v.PriceOverride, v.Stock)
	return err
}

// VariantUpdate carries the optional fields of a variant edit. Stock set
// here is the administrative counter write; order flow only moves it
// through the inventory ledger.
type VariantUpdate struct {
	Name          *string
	PriceOverride *int64
	Stock         *int
}

func (r *Repository) UpdateVariant(ctx context.Context, id, productID string, u VariantUpdate) (*domain.ProductVariant, error) {
	sets := []string{}
	args := []any{}

	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.PriceOverride != nil {
		add("price_override", *u.PriceOverride)
	}
	if u.Stock != nil {
		add("stock", *u.Stock)
	}

	if len(sets) > 0 {
		args = append(args, id, productID)
		query := fmt.Sprintf("UPDATE product_variants SET %s WHERE id = $%d AND product_id = $%d",
			strings.Join(sets, ", "), len(args)-1, len(args))
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return nil, err
		}
	}

	return r.Variant(ctx, id, productID)
}

func (r *Repository) DeleteVariant(ctx context.Context, id, productID string) error {
	var orderCount int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM merch_orders WHERE product_variant_id = $1
	`, id).Scan(&orderCount)
	if err != nil {
		return err
	}
	if orderCount > 0 {
		return fmt.Errorf("%w: %d orders reference it", ErrVariantHasOrders, orderCount)
	}

	result, err := r.db.ExecContext(ctx, `
		DELETE FROM product_variants WHERE id = $1 AND product_id = $2
	`, id, productID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DigitalProductListing is a digital product row with its star, for the
// public store.
type DigitalProductListing struct {
	domain.DigitalProduct
	CelebrityName string `json:"celebrity_name"`
	CelebritySlug string `json:"celebrity_slug"`
}

const digitalProductColumns = `dp.id, dp.celebrity_id, dp.name, dp.slug, dp.description, dp.price,
	dp.is_active, dp.file_path, dp.file_name, dp.file_type, dp.file_size, dp.download_count, dp.created_at`

func scanDigitalListing(s interface{ Scan(...any) error }) (DigitalProductListing, error) {
	var p DigitalProductListing
	err := s.Scan(&p.ID, &p.CelebrityID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.IsActive,
		&p.FilePath, &p.FileName, &p.FileType, &p.FileSize, &p.DownloadCount, &p.CreatedAt,
		&p.CelebrityName, &p.CelebritySlug)
	return p, err
}

// ListDigitalProducts returns active digital products that have a file
// attached; a product with nothing to download is not sellable yet.
func (r *Repository) ListDigitalProducts(ctx context.Context, filter ProductFilter) ([]DigitalProductListing, error) {
	query := `
		SELECT ` + digitalProductColumns + `, c.name, c.slug
		FROM digital_products dp
		JOIN celebrities c ON c.id = dp.celebrity_id
		WHERE dp.is_active AND dp.file_path <> ''`
	var args []any

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND dp.name ILIKE $%d", len(args))
	}
	if filter.CelebritySlug != "" {
		args = append(args, filter.CelebritySlug)
		query += fmt.Sprintf(" AND c.slug = $%d", len(args))
	}
	query += " ORDER BY dp.created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []DigitalProductListing{}
	for rows.Next() {
		p, err := scanDigitalListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

func (r *Repository) DigitalProductBySlug(ctx context.Context, slug string) (*DigitalProductListing, error) {
	p, err := scanDigitalListing(r.db.QueryRowContext(ctx, `
		SELECT `+digitalProductColumns+`, c.name, c.slug
		FROM digital_products dp
		JOIN celebrities c ON c.id = dp.celebrity_id
		WHERE dp.slug = $1 AND dp.is_active AND dp.file_path <> ''
	`, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) ListDigitalProductsForCelebrity(ctx context.Context, celebrityID string) ([]domain.DigitalProduct, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+digitalProductColumns+`
		FROM digital_products dp
		WHERE dp.celebrity_id = $1
		ORDER BY dp.created_at DESC
	`, celebrityID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []domain.DigitalProduct{}
	for rows.Next() {
		var p domain.DigitalProduct
		if err := rows.Scan(&p.ID, &p.CelebrityID, &p.Name, &p.Slug, &p.Description, &p.Price,
			&p.IsActive, &p.FilePath, &p.FileName, &p.FileType, &p.FileSize, &p.DownloadCount,
			&p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

func (r *Repository) DigitalProductForCelebrity(ctx context.Context, id, celebrityID string) (*domain.DigitalProduct, error) {
	p := &domain.DigitalProduct{}
	err := r.db.QueryRowContext(ctx, `
		SELECT `+digitalProductColumns+`
		FROM digital_products dp
		WHERE dp.id = $1 AND dp.celebrity_id = $2
	`, id, celebrityID).Scan(&p.ID, &p.CelebrityID, &p.Name, &p.Slug, &p.Description, &p.Price,
		&p.IsActive, &p.FilePath, &p.FileName, &p.FileType, &p.FileSize, &p.DownloadCount, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// CreateDigitalProduct inserts the product without a file; it stays off
// the public store until one is uploaded.
func (r *Repository) CreateDigitalProduct(ctx context.Context, p *domain.DigitalProduct) error {
	slug, err := r.uniqueSlug(ctx, "digital_products", Slugify(p.Name))
	if err != nil {
		return err
	}

	p.ID = uuid.New().String()
	p.Slug = slug
	p.IsActive = true
	p.CreatedAt = time.Now().UTC()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO digital_products (id, celebrity_id, name, slug, description, price, is_active,
			file_path, file_name, file_type, file_size, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, '', '', '', 0, $8)
	`, p.ID, p.CelebrityID, p.Name, p.Slug, p.Description, p.Price, p.IsActive, p.CreatedAt)
	return err
}

// DigitalFile describes an uploaded deliverable.
type DigitalFile struct {
	Path string
	Name string
	Type string
	Size int64
}

func (r *Repository) SetDigitalFile(ctx context.Context, id, celebrityID string, f DigitalFile) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE digital_products
		SET file_path = $1, file_name = $2, file_type = $3, file_size = $4
		WHERE id = $5 AND celebrity_id = $6
	`, f.Path, f.Name, f.Type, f.Size, id, celebrityID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
