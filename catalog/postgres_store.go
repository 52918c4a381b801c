package catalog

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/pricefy/repricing/schema"
)

// PostgresProductStore implements ProductStore backed by PostgreSQL.
type PostgresProductStore struct {
	db *sql.DB
}

// NewPostgresProductStore creates a new PostgreSQL-backed ProductStore.
func NewPostgresProductStore(db *sql.DB) *PostgresProductStore {
	return &PostgresProductStore{db: db}
}

const productColumns = `id, name, sku, price, cost, stock, margin, status,
	cheapest_color, brand_id, category_id, image_url, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*Product, error) {
	var p Product
	var brandID, categoryID, imageURL sql.NullString
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Price, &p.Cost, &p.Stock,
		&p.Margin, &p.Status, &p.CheapestColor, &brandID, &categoryID,
		&imageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.BrandID = brandID.String
	p.CategoryID = categoryID.String
	p.ImageURL = imageURL.String
	return &p, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Add inserts a new product.
func (s *PostgresProductStore) Add(p *Product) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.Exec(`
		INSERT INTO products (id, name, sku, price, cost, stock, margin, status,
			cheapest_color, brand_id, category_id, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, p.ID, p.Name, p.SKU, p.Price, p.Cost, p.Stock, p.Margin, p.Status,
		p.CheapestColor, nullable(p.BrandID), nullable(p.CategoryID),
		nullable(p.ImageURL), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// Get retrieves a product by ID.
func (s *PostgresProductStore) Get(id string) (*Product, error) {
	row := s.db.QueryRow(`
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, id)

	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %s %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// sortColumns maps query sort fields to columns. Only known fields are
// interpolated into SQL; everything else falls back to created_at.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
	"price":     "price",
	"stock":     "stock",
}

// List filters, sorts, and paginates products per the validated query.
func (s *PostgresProductStore) List(q schema.Query) ([]*Product, int, error) {
	var conds []string
	var args []any

	if q.Status != "" {
		args = append(args, q.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR sku ILIKE $%d)", len(args), len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM products "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = "created_at"
	}
	order := "DESC"
	if q.SortOrder == "asc" {
		order = "ASC"
	}

	args = append(args, q.Limit, (q.Page-1)*q.Limit)
	query := fmt.Sprintf(`
		SELECT %s FROM products %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, productColumns, where, column, order, len(args)-1, len(args))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}
	return products, total, nil
}

func updateClauses(u schema.ProductUpdate, args *[]any) []string {
	var set []string
	add := func(column string, value any) {
		*args = append(*args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(*args)))
	}
	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Price != nil {
		add("price", *u.Price)
	}
	if u.Cost != nil {
		add("cost", *u.Cost)
	}
	if u.Stock != nil {
		add("stock", *u.Stock)
	}
	if u.Margin != nil {
		add("margin", *u.Margin)
	}
	if u.Status != nil {
		add("status", *u.Status)
	}
	if u.CheapestColor != nil {
		add("cheapest_color", *u.CheapestColor)
	}
	add("updated_at", time.Now())
	return set
}

// Update applies a partial update to one product.
func (s *PostgresProductStore) Update(id string, u schema.ProductUpdate) (*Product, error) {
	var args []any
	set := updateClauses(u, &args)
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE products SET %s WHERE id = $%d
	`, strings.Join(set, ", "), len(args))

	result, err := s.db.Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("product %s %w", id, ErrNotFound)
	}

	return s.Get(id)
}

// BulkUpdate applies a partial update to every listed product and returns
// the number of rows changed.
func (s *PostgresProductStore) BulkUpdate(ids []string, u schema.ProductUpdate) (int, error) {
	var args []any
	set := updateClauses(u, &args)

	placeholders := make([]string, len(ids))
	for i, id := range ids {
		args = append(args, id)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}

	query := fmt.Sprintf(`
		UPDATE products SET %s WHERE id IN (%s)
	`, strings.Join(set, ", "), strings.Join(placeholders, ", "))

	result, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk update products: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}

// Delete removes a product.
func (s *PostgresProductStore) Delete(id string) error {
	result, err := s.db.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("product %s %w", id, ErrNotFound)
	}
	return nil
}
