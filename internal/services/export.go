package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noob2628/Inventory-App/internal/auth"
	"github.com/noob2628/Inventory-App/types"
)

// CSVHeader is the column order of exports and snapshots.
var CSVHeader = []string{
	"id", "delivery_date", "delivery_no", "supplier_name", "delivery_details", "stockman",
	"item_description", "item_code", "color", "storage", "qty", "counted_by", "date_counted",
	"recorded_by", "edited_by", "refill_status", "date_of_refill", "refill_by",
	"created_at", "updated_at",
}

// ObjectWriter stores snapshot objects.
type ObjectWriter interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// ExportService renders the full record set as CSV.
type ExportService struct {
	repo    InventoryRepository
	objects ObjectWriter
	prefix  string
	logger  *zap.Logger
	now     func() time.Time
}

func NewExportService(repo InventoryRepository, objects ObjectWriter, prefix string, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		repo:    repo,
		objects: objects,
		prefix:  prefix,
		logger:  logger,
		now:     time.Now,
	}
}

// WriteCSV streams every record to w. Admin only.
func (s *ExportService) WriteCSV(ctx context.Context, caller auth.Claims, w io.Writer) error {
	if err := auth.RequireRole(caller, types.RoleAdmin); err != nil {
		return err
	}
	records, err := s.repo.All(ctx)
	if err != nil {
		return err
	}
	return encodeCSV(w, records)
}

// Snapshot uploads a CSV of every record and returns the object key.
func (s *ExportService) Snapshot(ctx context.Context) (string, error) {
	if s.objects == nil {
		return "", fmt.Errorf("snapshot storage is not configured")
	}
	records, err := s.repo.All(ctx)
	if err != nil {
		return "", fmt.Errorf("load records: %w", err)
	}

	var buf bytes.Buffer
	if err := encodeCSV(&buf, records); err != nil {
		return "", err
	}

	key := path.Join(s.prefix, "inventory-"+s.now().UTC().Format("20060102-150405")+".csv")
	if err := s.objects.Put(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "text/csv"); err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}
	s.logger.Info("inventory snapshot stored", zap.String("key", key), zap.Int("records", len(records)))
	return key, nil
}

func encodeCSV(w io.Writer, records []types.InventoryRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range records {
		editedBy := ""
		if r.EditedBy != nil {
			editedBy = strconv.Itoa(*r.EditedBy)
		}
		row := []string{
			strconv.Itoa(r.ID),
			r.DeliveryDate.String(),
			deref(r.DeliveryNo),
			deref(r.SupplierName),
			deref(r.DeliveryDetails),
			deref(r.Stockman),
			r.ItemDescription,
			deref(r.ItemCode),
			deref(r.Color),
			deref(r.Storage),
			r.Qty.String(),
			r.CountedBy,
			r.DateCounted.String(),
			strconv.Itoa(r.RecordedBy),
			editedBy,
			string(r.RefillStatus),
			r.DateOfRefill.String(),
			r.RefillBy,
			r.CreatedAt.String(),
			r.UpdatedAt.String(),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
