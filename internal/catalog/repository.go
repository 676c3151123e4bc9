// Package catalog reads and maintains the seller-side entities: celebrity
// profiles, video types, merch products with their variants and digital
// products.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/viveo-rs/viveo-backend/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const celebrityColumns = `id, profile_id, name, slug, category, bio, image, price,
	response_time_hours, accepting_requests, rating, review_count, created_at`

func scanCelebrity(s interface{ Scan(...any) error }) (domain.Celebrity, error) {
	var c domain.Celebrity
	err := s.Scan(&c.ID, &c.ProfileID, &c.Name, &c.Slug, &c.Category, &c.Bio, &c.Image,
		&c.Price, &c.ResponseTimeHours, &c.AcceptingRequests, &c.Rating, &c.ReviewCount, &c.CreatedAt)
	return c, err
}

// CelebrityForProfile resolves the celebrity owned by a user account, or
// nil when the user has no seller profile.
func (r *Repository) CelebrityForProfile(ctx context.Context, profileID string) (*domain.Celebrity, error) {
	c, err := scanCelebrity(r.db.QueryRowContext(ctx, `
		SELECT `+celebrityColumns+` FROM celebrities WHERE profile_id = $1
	`, profileID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repository) CelebrityBySlug(ctx context.Context, slug string) (*domain.Celebrity, error) {
	c, err := scanCelebrity(r.db.QueryRowContext(ctx, `
		SELECT `+celebrityColumns+` FROM celebrities WHERE slug = $1
	`, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

type CelebrityFilter struct {
	Category string
	Search   string
}

func (r *Repository) ListCelebrities(ctx context.Context, filter CelebrityFilter) ([]domain.Celebrity, error) {
	query := `SELECT ` + celebrityColumns + ` FROM celebrities`
	var conds []string
	var args []any

	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY rating DESC, name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []domain.Celebrity{}
	for rows.Next() {
		c, err := scanCelebrity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	return out, rows.Err()
}

func (r *Repository) VideoTypesFor(ctx context.Context, celebrityID string) ([]domain.VideoType, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, celebrity_id, title, occasion
		FROM video_types
		WHERE celebrity_id = $1
		ORDER BY title
	`, celebrityID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []domain.VideoType{}
	for rows.Next() {
		var vt domain.VideoType
		if err := rows.Scan(&vt.ID, &vt.CelebrityID, &vt.Title, &vt.Occasion); err != nil {
			return nil, err
		}
		out = append(out, vt)
	}

	return out, rows.Err()
}

// VideoType looks up a video type and confirms it belongs to the given
// celebrity; nil when either fails.
func (r *Repository) VideoType(ctx context.Context, id, celebrityID string) (*domain.VideoType, error) {
	vt := &domain.VideoType{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, celebrity_id, title, occasion
		FROM video_types
		WHERE id = $1 AND celebrity_id = $2
	`, id, celebrityID).Scan(&vt.ID, &vt.CelebrityID, &vt.Title, &vt.Occasion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return vt, nil
}

// PurchaseProduct is a product joined with the data order creation needs:
// the star's display name and the seller account's email for the
// new-order notification.
type PurchaseProduct struct {
	domain.Product
	StarName    string
	SellerEmail string
}

func (r *Repository) ProductForPurchase(ctx context.Context, productID string) (*PurchaseProduct, error) {
	p := &PurchaseProduct{}
	err := r.db.QueryRowContext(ctx, `
		SELECT p.id, p.celebrity_id, p.name, p.slug, p.description, p.price, p.is_active, p.created_at,
			c.name, pr.email
		FROM products p
		JOIN celebrities c ON c.id = p.celebrity_id
		JOIN profiles pr ON pr.id = c.profile_id
		WHERE p.id = $1
	`, productID).Scan(&p.ID, &p.CelebrityID, &p.Name, &p.Slug, &p.Description, &p.Price,
		&p.IsActive, &p.CreatedAt, &p.StarName, &p.SellerEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// Variant looks up a variant and confirms it belongs to the product.
func (r *Repository) Variant(ctx context.Context, id, productID string) (*domain.ProductVariant, error) {
	v := &domain.ProductVariant{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, product_id, name, price_override, stock
		FROM product_variants
		WHERE id = $1 AND product_id = $2
	`, id, productID).Scan(&v.ID, &v.ProductID, &v.Name, &v.PriceOverride, &v.Stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

// PurchaseDigitalProduct mirrors PurchaseProduct for digital goods.
type PurchaseDigitalProduct struct {
	domain.DigitalProduct
	StarName    string
	SellerEmail string
}

func (r *Repository) DigitalProductForPurchase(ctx context.Context, productID string) (*PurchaseDigitalProduct, error) {
	p := &PurchaseDigitalProduct{}
	err := r.db.QueryRowContext(ctx, `
		SELECT dp.id, dp.celebrity_id, dp.name, dp.slug, dp.description, dp.price, dp.is_active,
			dp.file_path, dp.file_name, dp.file_type, dp.file_size, dp.download_count, dp.created_at,
			c.name, pr.email
		FROM digital_products dp
		JOIN celebrities c ON c.id = dp.celebrity_id
		JOIN profiles pr ON pr.id = c.profile_id
		WHERE dp.id = $1
	`, productID).Scan(&p.ID, &p.CelebrityID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.IsActive,
		&p.FilePath, &p.FileName, &p.FileType, &p.FileSize, &p.DownloadCount, &p.CreatedAt,
		&p.StarName, &p.SellerEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// VideoOrderCelebrity is the data a video order needs at creation time,
// including the seller's notification address.
type VideoOrderCelebrity struct {
	domain.Celebrity
	SellerEmail string
}

func (r *Repository) CelebrityForVideoOrder(ctx context.Context, slug string) (*VideoOrderCelebrity, error) {
	c := &VideoOrderCelebrity{}
	var inner domain.Celebrity
	err := r.db.QueryRowContext(ctx, `
		SELECT c.id, c.profile_id, c.name, c.slug, c.category, c.bio, c.image, c.price,
			c.response_time_hours, c.accepting_requests, c.rating, c.review_count, c.created_at,
			pr.email
		FROM celebrities c
		JOIN profiles pr ON pr.id = c.profile_id
		WHERE c.slug = $1
	`, slug).Scan(&inner.ID, &inner.ProfileID, &inner.Name, &inner.Slug, &inner.Category, &inner.Bio,
		&inner.Image, &inner.Price, &inner.ResponseTimeHours, &inner.AcceptingRequests,
		&inner.Rating, &inner.ReviewCount, &inner.CreatedAt, &c.SellerEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.Celebrity = inner
	return c, nil
}

// SellerContact returns the celebrity's display name and the owning
// account's email address, for seller-facing notifications.
func (r *Repository) SellerContact(ctx context.Context, celebrityID string) (name, email string, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT c.name, pr.email
		FROM celebrities c
		JOIN profiles pr ON pr.id = c.profile_id
		WHERE c.id = $1
	`, celebrityID).Scan(&name, &email)
	return name, email, err
}

// ProfileUpdate carries the optional fields of a dashboard profile edit;
// nil fields are left untouched.
type ProfileUpdate struct {
	Name              *string
	Bio               *string
	Price             *int64
	ResponseTimeHours *int
	AcceptingRequests *bool
}

func (r *Repository) UpdateProfile(ctx context.Context, celebrityID string, u ProfileUpdate) error {
	sets := []string{}
	args := []any{}

	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Bio != nil {
		add("bio", *u.Bio)
	}
	if u.Price != nil {
		add("price", *u.Price)
	}
	if u.ResponseTimeHours != nil {
		add("response_time_hours", *u.ResponseTimeHours)
	}
	if u.AcceptingRequests != nil {
		add("accepting_requests", *u.AcceptingRequests)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, celebrityID)
	query := fmt.Sprintf("UPDATE celebrities SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// Earnings aggregates completed revenue and order counts per kind for the
// dashboard.
type Earnings struct {
	Kind      string `json:"kind"`
	Total     int64  `json:"total"`
	Completed int    `json:"completed"`
	Pending   int    `json:"pending"`
}

func (r *Repository) EarningsFor(ctx context.Context, celebrityID string) ([]Earnings, error) {
	type kindQuery struct {
		kind, table  string
		priceCol     string
		doneStatuses []domain.Status
	}
	queries := []kindQuery{
		{"video", "orders", "price", []domain.Status{domain.StatusCompleted}},
		{"merch", "merch_orders", "total_price", []domain.Status{domain.StatusDelivered, domain.StatusShipped, domain.StatusConfirmed}},
		{"digital", "digital_orders", "price", []domain.Status{domain.StatusCompleted, domain.StatusConfirmed}},
	}

	out := make([]Earnings, 0, len(queries))
	for _, s := range queries {
		placeholders := make([]string, len(s.doneStatuses))
		args := []any{celebrityID}
		for i, st := range s.doneStatuses {
			args = append(args, st)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}

		query := fmt.Sprintf(`
			SELECT COALESCE(SUM(%s) FILTER (WHERE status IN (%s)), 0),
				COUNT(*) FILTER (WHERE status IN (%s)),
				COUNT(*) FILTER (WHERE status = 'pending')
			FROM %s WHERE celebrity_id = $1
		`, s.priceCol, strings.Join(placeholders, ", "), strings.Join(placeholders, ", "), s.table)

		e := Earnings{Kind: s.kind}
		if err := r.db.QueryRowContext(ctx, query, args...).Scan(&e.Total, &e.Completed, &e.Pending); err != nil {
			return nil, fmt.Errorf("earnings for %s: %w", s.kind, err)
		}
		out = append(out, e)
	}

	return out, nil
}
