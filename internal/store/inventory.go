package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/noob2628/Inventory-App/types"
)

// InventoryRepository handles persistence for inventory records.
type InventoryRepository struct {
	db *sql.DB
}

func NewInventoryRepository(db *sql.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

const inventoryColumns = `id, delivery_date, delivery_no, supplier_name, delivery_details, stockman,
		item_description, item_code, color, storage, qty, counted_by, date_counted,
		recorded_by, edited_by, refill_status, date_of_refill, refill_by, created_at, updated_at`

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// sortColumns is the allow-list of ORDER BY columns.
var sortColumns = map[string]string{
	"delivery_date":    "delivery_date",
	"item_description": "item_description",
	"qty":              "qty",
	"date_counted":     "date_counted",
	"created_at":       "created_at",
}

// updatableColumns guards the dynamic SET clause built by Update.
var updatableColumns = map[string]struct{}{
	"delivery_date":    {},
	"delivery_no":      {},
	"supplier_name":    {},
	"delivery_details": {},
	"stockman":         {},
	"item_description": {},
	"item_code":        {},
	"color":            {},
	"storage":          {},
	"qty":              {},
	"counted_by":       {},
	"date_counted":     {},
	"edited_by":        {},
	"refill_status":    {},
	"date_of_refill":   {},
	"refill_by":        {},
	"updated_at":       {},
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (types.InventoryRecord, error) {
	var (
		record       types.InventoryRecord
		countedBy    sql.NullString
		refillStatus sql.NullString
		refillBy     sql.NullString
		editedBy     sql.NullInt64
	)
	if err := row.Scan(
		&record.ID,
		&record.DeliveryDate,
		&record.DeliveryNo,
		&record.SupplierName,
		&record.DeliveryDetails,
		&record.Stockman,
		&record.ItemDescription,
		&record.ItemCode,
		&record.Color,
		&record.Storage,
		&record.Qty,
		&countedBy,
		&record.DateCounted,
		&record.RecordedBy,
		&editedBy,
		&refillStatus,
		&record.DateOfRefill,
		&refillBy,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return types.InventoryRecord{}, err
	}

	record.CountedBy = countedBy.String
	record.RefillStatus = types.RefillStatus(refillStatus.String)
	record.RefillBy = refillBy.String
	if editedBy.Valid {
		id := int(editedBy.Int64)
		record.EditedBy = &id
	}
	return record, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

// buildListQuery renders the filtered, ordered, paginated select and its
// matching count query. Both share the same WHERE clause and arguments.
func buildListQuery(q types.InventoryQuery) (listQuery, countQuery string, args []any) {
	where := ""
	if search := strings.TrimSpace(q.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		where = "WHERE item_code ILIKE $1 OR delivery_no ILIKE $1"
	}

	column, ok := sortColumns[q.Sort]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if q.Ascending {
		direction = "ASC"
	}

	countQuery = strings.TrimSpace("SELECT COUNT(1) FROM inventory " + where)

	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	limit := q.Limit
	if limit < 1 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	listArgs := len(args)
	listQuery = fmt.Sprintf(
		"SELECT %s FROM inventory %s ORDER BY %s %s NULLS LAST, id %s OFFSET $%d LIMIT $%d",
		inventoryColumns, where, column, direction, direction, listArgs+1, listArgs+2,
	)
	args = append(args, offset, limit)
	return listQuery, countQuery, args
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

func (r *InventoryRepository) List(ctx context.Context, q types.InventoryQuery) ([]types.InventoryRecord, int, error) {
	listQuery, countQuery, args := buildListQuery(q)

	var total int
	countArgs := args[:len(args)-2]
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records := make([]types.InventoryRecord, 0, min(total, maxListLimit))
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// All returns every record ordered by id. It backs CSV exports.
func (r *InventoryRepository) All(ctx context.Context) ([]types.InventoryRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+inventoryColumns+` FROM inventory ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []types.InventoryRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *InventoryRepository) Get(ctx context.Context, id int) (types.InventoryRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+inventoryColumns+` FROM inventory WHERE id = $1`, id)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.InventoryRecord{}, ErrNotFound
		}
		return types.InventoryRecord{}, err
	}
	return record, nil
}

func (r *InventoryRepository) Create(ctx context.Context, record types.InventoryRecord) (types.InventoryRecord, error) {
	now := time.Now()
	record.CreatedAt = types.NewTimestamp(now)
	record.UpdatedAt = types.NewTimestamp(now)

	query := `
		INSERT INTO inventory (
			delivery_date, delivery_no, supplier_name, delivery_details, stockman,
			item_description, item_code, color, storage, qty, counted_by, date_counted,
			recorded_by, edited_by, refill_status, date_of_refill, refill_by, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING ` + inventoryColumns
	row := r.db.QueryRowContext(
		ctx,
		query,
		record.DeliveryDate,
		record.DeliveryNo,
		record.SupplierName,
		record.DeliveryDetails,
		record.Stockman,
		record.ItemDescription,
		record.ItemCode,
		record.Color,
		record.Storage,
		record.Qty,
		nullString(record.CountedBy),
		record.DateCounted,
		record.RecordedBy,
		record.EditedBy,
		string(record.RefillStatus),
		record.DateOfRefill,
		nullString(record.RefillBy),
		record.CreatedAt,
		record.UpdatedAt,
	)
	created, err := scanRecord(row)
	if err != nil {
		return types.InventoryRecord{}, translateError(err)
	}
	return created, nil
}

// Update applies fields to a single row atomically and returns the row as stored.
func (r *InventoryRepository) Update(ctx context.Context, id int, fields []types.FieldUpdate) (types.InventoryRecord, error) {
	if len(fields) == 0 {
		return r.Get(ctx, id)
	}

	assignments := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for _, field := range fields {
		if _, ok := updatableColumns[field.Column]; !ok {
			return types.InventoryRecord{}, fmt.Errorf("column %q is not updatable", field.Column)
		}
		args = append(args, field.Value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", field.Column, len(args)))
	}
	args = append(args, id)

	query := fmt.Sprintf(
		"UPDATE inventory SET %s WHERE id = $%d RETURNING %s",
		strings.Join(assignments, ", "), len(args), inventoryColumns,
	)
	record, err := scanRecord(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.InventoryRecord{}, ErrNotFound
		}
		return types.InventoryRecord{}, translateError(err)
	}
	return record, nil
}

func (r *InventoryRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM inventory WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *InventoryRepository) Summary(ctx context.Context) (types.InventorySummary, error) {
	const query = `
		SELECT refill_status, COUNT(1), SUM(qty)
		FROM inventory
		GROUP BY refill_status`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return types.InventorySummary{}, err
	}
	defer rows.Close()

	summary := types.InventorySummary{ByRefillStatus: make(map[string]int)}
	total := types.QuantityFromInt(0)
	for rows.Next() {
		var (
			status string
			count  int
			qty    types.Quantity
		)
		if err := rows.Scan(&status, &count, &qty); err != nil {
			return types.InventorySummary{}, err
		}
		summary.ByRefillStatus[status] = count
		summary.Total += count
		if qty.Valid {
			total = types.NewQuantity(total.Decimal.Add(qty.Decimal))
		}
	}
	if err := rows.Err(); err != nil {
		return types.InventorySummary{}, err
	}
	summary.TotalQty = total
	return summary, nil
}
