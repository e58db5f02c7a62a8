package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/servicehub/internal/listing"
	"github.com/magabrotheeeer/servicehub/internal/models"
)

const listingColumns = `id, owner_uid, category, title, skill, description, location, attributes,
	price, rating, experience_years, phone, created_at, updated_at, hidden_at`

// orderColumns — белый список колонок сортировки.
var orderColumns = map[string]string{
	listing.FieldRating:     "rating",
	listing.FieldCreatedAt:  "created_at",
	listing.FieldPrice:      "price",
	listing.FieldExperience: "experience_years",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListingEngine выполняет поиск объявлений в PostgreSQL.
type ListingEngine struct {
	storage *Storage
	catalog *listing.Catalog
}

// NewListingEngine создаёт движок поиска поверх хранилища.
func NewListingEngine(storage *Storage, catalog *listing.Catalog) *ListingEngine {
	return &ListingEngine{storage: storage, catalog: catalog}
}

// Query реализует listing.Engine. Подсчёт и выборка страницы выполняются
// в одной транзакции только для чтения, чтобы total и страница были согласованы.
func (e *ListingEngine) Query(ctx context.Context, category models.Category, f listing.FilterState) (*models.ListingPage, error) {
	const op = "storage.ListingEngine.Query"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	cfg, err := e.catalog.Config(category)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	plan := listing.NewPlan(cfg, f)
	where, args := planWhere(plan)

	tx, err := e.storage.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	var total int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings WHERE `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	page, last, offset := plan.Window(total)

	query := fmt.Sprintf(`SELECT %s FROM listings WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		listingColumns, where, planOrder(plan), len(args)+1, len(args)+2)
	rows, err := tx.QueryContext(ctx, query, append(args, plan.PageSize, offset)...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	items, err := collectListings(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.ListingPage{
		Items:    items,
		Total:    total,
		Page:     page,
		LastPage: last,
	}, nil
}

// planWhere строит условие WHERE и аргументы по плану поиска.
func planWhere(plan listing.Plan) (string, []any) {
	conds := []string{"category = $1", "hidden_at IS NULL"}
	args := []any{plan.Category}
	if plan.Search != "" {
		args = append(args, "%"+likeEscaper.Replace(plan.Search)+"%")
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR skill ILIKE $%d)", len(args), len(args)))
	}
	if plan.Location != "" {
		args = append(args, "%"+likeEscaper.Replace(plan.Location)+"%")
		conds = append(conds, fmt.Sprintf("location ILIKE $%d", len(args)))
	}
	for _, ff := range plan.Facets {
		args = append(args, ff.Key, ff.Value)
		conds = append(conds, fmt.Sprintf("attributes->>$%d = $%d", len(args)-1, len(args)))
	}
	return strings.Join(conds, " AND "), args
}

// planOrder строит ORDER BY с устойчивым вторичным ключом «сначала новые».
func planOrder(plan listing.Plan) string {
	col, ok := orderColumns[plan.Order.Field]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if plan.Order.Desc {
		dir = "DESC"
	}
	if col == "created_at" {
		return "created_at " + dir + ", id " + dir
	}
	return col + " " + dir + ", created_at DESC, id DESC"
}

// CreateListing сохраняет объявление. ID задаёт вызывающий.
func (s *Storage) CreateListing(ctx context.Context, l *models.Listing) error {
	const op = "storage.CreateListing"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	attrs, err := marshalAttributes(l.Attributes)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	query := `INSERT INTO listings (id, owner_uid, category, title, skill, description, location,
			      attributes, price, rating, experience_years, phone)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, $10, $11, $12)
			  RETURNING created_at, updated_at`
	if err := s.DB.QueryRowContext(ctx, query,
		l.ID, l.OwnerUID, l.Category, l.Title, l.Skill, l.Description, l.Location,
		attrs, l.Price, l.Rating, l.ExperienceYears, l.Phone,
	).Scan(&l.CreatedAt, &l.UpdatedAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateListing изменяет видимое объявление владельца в категории.
func (s *Storage) UpdateListing(ctx context.Context, l *models.Listing) (*models.Listing, error) {
	const op = "storage.UpdateListing"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	attrs, err := marshalAttributes(l.Attributes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	query := `UPDATE listings SET
			      title = $4, skill = $5, description = $6, location = $7,
			      attributes = $8::jsonb, price = $9, experience_years = $10, phone = $11,
			      updated_at = NOW()
			  WHERE id = $1 AND owner_uid = $2 AND category = $3 AND hidden_at IS NULL
			  RETURNING ` + listingColumns
	updated, err := scanListing(s.DB.QueryRowContext(ctx, query,
		l.ID, l.OwnerUID, l.Category, l.Title, l.Skill, l.Description, l.Location,
		attrs, l.Price, l.ExperienceYears, l.Phone))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrListingNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// HideListing скрывает объявление владельца. Строка остаётся в таблице.
func (s *Storage) HideListing(ctx context.Context, ownerUID string, category models.Category, id string, now time.Time) error {
	const op = "storage.HideListing"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE listings SET hidden_at = $4, updated_at = $4
		 WHERE id = $1 AND owner_uid = $2 AND category = $3 AND hidden_at IS NULL`,
		id, ownerUID, category, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrListingNotFound)
	}
	return nil
}

// ListOwnListings возвращает видимые объявления владельца в категории, сначала новые.
func (s *Storage) ListOwnListings(ctx context.Context, ownerUID string, category models.Category) ([]*models.Listing, error) {
	const op = "storage.ListOwnListings"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings
		 WHERE owner_uid = $1 AND category = $2 AND hidden_at IS NULL
		 ORDER BY created_at DESC, id DESC`, ownerUID, category)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result, err := collectListings(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func marshalAttributes(attrs map[string]string) (string, error) {
	if attrs == nil {
		return "{}", nil
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func collectListings(rows *sql.Rows) ([]*models.Listing, error) {
	defer func() {
		_ = rows.Close()
	}()
	result := []*models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanListing(row scanner) (*models.Listing, error) {
	var l models.Listing
	var attrs []byte
	var hiddenAt sql.NullTime
	if err := row.Scan(&l.ID, &l.OwnerUID, &l.Category, &l.Title, &l.Skill, &l.Description,
		&l.Location, &attrs, &l.Price, &l.Rating, &l.ExperienceYears, &l.Phone,
		&l.CreatedAt, &l.UpdatedAt, &hiddenAt); err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &l.Attributes); err != nil {
			return nil, fmt.Errorf("decode attributes: %w", err)
		}
	}
	if hiddenAt.Valid {
		l.HiddenAt = &hiddenAt.Time
	}
	return &l, nil
}
