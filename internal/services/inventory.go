package services

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noob2628/Inventory-App/internal/auth"
	"github.com/noob2628/Inventory-App/types"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
	defaultSortKey  = "created_at"
)

var sortKeys = map[string]struct{}{
	"delivery_date":    {},
	"item_description": {},
	"qty":              {},
	"date_counted":     {},
	"created_at":       {},
}

var descriptionDisallowed = regexp.MustCompile(`[^a-zA-Z0-9\s-]`)

// InventoryRepository defines persistence operations for inventory records.
type InventoryRepository interface {
	List(ctx context.Context, q types.InventoryQuery) ([]types.InventoryRecord, int, error)
	All(ctx context.Context) ([]types.InventoryRecord, error)
	Get(ctx context.Context, id int) (types.InventoryRecord, error)
	Create(ctx context.Context, record types.InventoryRecord) (types.InventoryRecord, error)
	Update(ctx context.Context, id int, fields []types.FieldUpdate) (types.InventoryRecord, error)
	Delete(ctx context.Context, id int) error
	Summary(ctx context.Context) (types.InventorySummary, error)
}

// EventPublisher delivers serialized events to a broker channel.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// OperationObserver is notified of every inventory operation outcome.
type OperationObserver interface {
	ObserveOperation(operation string, err error)
}

// ListParams are the raw list inputs; List normalizes them.
type ListParams struct {
	Search string
	Sort   string
	Order  string
	Page   int
	Limit  int
}

// ListResult is one page of records plus the unpaginated match count.
type ListResult struct {
	Items []types.InventoryRecord
	Total int
	Page  int
	Limit int
}

// TotalPages is the number of pages of Limit records needed for Total.
func (r ListResult) TotalPages() int {
	if r.Limit < 1 {
		return 0
	}
	return (r.Total + r.Limit - 1) / r.Limit
}

// InventoryService applies the record lifecycle rules on top of the store.
// Every operation takes the caller explicitly; nothing is read from request state.
type InventoryService struct {
	repo     InventoryRepository
	events   EventPublisher
	channel  string
	observer OperationObserver
	logger   *zap.Logger
	now      func() time.Time
}

// InventoryServiceConfig holds the optional collaborators of InventoryService.
type InventoryServiceConfig struct {
	Events        EventPublisher
	EventsChannel string
	Observer      OperationObserver
	Logger        *zap.Logger
}

func NewInventoryService(repo InventoryRepository, cfg InventoryServiceConfig) *InventoryService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{
		repo:     repo,
		events:   cfg.Events,
		channel:  cfg.EventsChannel,
		observer: cfg.Observer,
		logger:   logger,
		now:      time.Now,
	}
}

// NormalizeListParams clamps pagination to [1, maxPageSize] and replaces unknown
// sort keys with created_at.
func NormalizeListParams(p ListParams) ListParams {
	p.Search = strings.TrimSpace(p.Search)
	if _, ok := sortKeys[p.Sort]; !ok {
		p.Sort = defaultSortKey
	}
	if strings.EqualFold(strings.TrimSpace(p.Order), "asc") {
		p.Order = "asc"
	} else {
		p.Order = "desc"
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	return p
}

func (s *InventoryService) List(ctx context.Context, caller auth.Claims, params ListParams) (ListResult, error) {
	if !caller.Authenticated() {
		return ListResult{}, auth.ErrUnauthorized
	}
	p := NormalizeListParams(params)

	items, total, err := s.repo.List(ctx, types.InventoryQuery{
		Search:    p.Search,
		Sort:      p.Sort,
		Ascending: p.Order == "asc",
		Offset:    (p.Page - 1) * p.Limit,
		Limit:     p.Limit,
	})
	s.observe("list", err)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total, Page: p.Page, Limit: p.Limit}, nil
}

func (s *InventoryService) Get(ctx context.Context, caller auth.Claims, id int) (types.InventoryRecord, error) {
	if !caller.Authenticated() {
		return types.InventoryRecord{}, auth.ErrUnauthorized
	}
	record, err := s.repo.Get(ctx, id)
	s.observe("get", err)
	return record, err
}

func (s *InventoryService) Summary(ctx context.Context, caller auth.Claims) (types.InventorySummary, error) {
	if !caller.Authenticated() {
		return types.InventorySummary{}, auth.ErrUnauthorized
	}
	summary, err := s.repo.Summary(ctx)
	s.observe("summary", err)
	return summary, err
}

// Create stores a new record owned by the caller. item_description and qty
// are required; qty is not range checked.
func (s *InventoryService) Create(ctx context.Context, caller auth.Claims, in types.InventoryPatch) (types.InventoryRecord, error) {
	if err := auth.RequireRole(caller, types.RoleAdmin); err != nil {
		return types.InventoryRecord{}, err
	}

	description := strings.TrimSpace(in.ItemDescription.Value)
	if !in.ItemDescription.Present() || description == "" {
		return types.InventoryRecord{}, invalid("item_description", "item_description is required")
	}
	if !in.Qty.Present() || !in.Qty.Value.Valid {
		return types.InventoryRecord{}, invalid("qty", "qty is required")
	}

	record := types.InventoryRecord{
		ItemDescription: description,
		Qty:             in.Qty.Value,
		DeliveryNo:      optionalText(in.DeliveryNo),
		SupplierName:    optionalText(in.SupplierName),
		DeliveryDetails: optionalText(in.DeliveryDetails),
		Stockman:        optionalText(in.Stockman),
		ItemCode:        optionalText(in.ItemCode),
		Color:           optionalText(in.Color),
		Storage:         optionalText(in.Storage),
		CountedBy:       in.CountedBy.Value,
		RefillBy:        in.RefillBy.Value,
		RecordedBy:      caller.UserID,
	}

	var err error
	if record.DeliveryDate, err = optionalDate("delivery_date", in.DeliveryDate); err != nil {
		return types.InventoryRecord{}, err
	}
	if record.DateCounted, err = optionalDate("date_counted", in.DateCounted); err != nil {
		return types.InventoryRecord{}, err
	}
	if record.DateOfRefill, err = optionalDate("date_of_refill", in.DateOfRefill); err != nil {
		return types.InventoryRecord{}, err
	}
	if raw := strings.TrimSpace(in.RefillStatus.Value); in.RefillStatus.Present() && raw != "" {
		status, ok := types.ParseRefillStatus(raw)
		if !ok {
			return types.InventoryRecord{}, invalid("refill_status", "invalid refill_status")
		}
		record.RefillStatus = status
	}

	created, err := s.repo.Create(ctx, record)
	s.observe("create", err)
	if err != nil {
		return types.InventoryRecord{}, err
	}
	s.publish(ctx, types.EventInventoryCreated, created.ID, caller.UserID)
	return created, nil
}

// Update applies a sparse patch. Only keys present in the payload are
// written; updated_at and edited_by are always rewritten, even for an
// empty patch.
func (s *InventoryService) Update(ctx context.Context, caller auth.Claims, id int, patch types.InventoryPatch) (types.InventoryRecord, error) {
	if err := auth.RequireRole(caller, types.RoleAdmin); err != nil {
		return types.InventoryRecord{}, err
	}

	fields, err := PatchFields(patch)
	if err != nil {
		return types.InventoryRecord{}, err
	}
	fields = append(fields, s.auditFields(caller)...)

	updated, err := s.repo.Update(ctx, id, fields)
	s.observe("update", err)
	if err != nil {
		return types.InventoryRecord{}, err
	}
	s.publish(ctx, types.EventInventoryUpdated, updated.ID, caller.UserID)
	return updated, nil
}

// PatchFields turns a patch into column assignments following the
// field-level rules:
//   - text fields are written as sent, so null or "" clears them;
//   - item_description is sanitized and may not end up empty;
//   - qty is written as sent, null or "" clears it;
//   - delivery_date is parsed, null or "" clears it;
//   - date_counted, date_of_refill and refill_status ignore null or "".
func PatchFields(p types.InventoryPatch) ([]types.FieldUpdate, error) {
	var fields []types.FieldUpdate

	if p.DeliveryDate.Set {
		if blank(p.DeliveryDate) {
			fields = append(fields, types.FieldUpdate{Column: "delivery_date"})
		} else {
			date, err := parseDate("delivery_date", p.DeliveryDate.Value)
			if err != nil {
				return nil, err
			}
			fields = append(fields, types.FieldUpdate{Column: "delivery_date", Value: date})
		}
	}

	if p.ItemDescription.Set {
		description := strings.TrimSpace(descriptionDisallowed.ReplaceAllString(p.ItemDescription.Value, ""))
		if p.ItemDescription.Null || description == "" {
			return nil, invalid("item_description", "item_description cannot be empty")
		}
		fields = append(fields, types.FieldUpdate{Column: "item_description", Value: description})
	}

	texts := []struct {
		column string
		value  types.Optional[string]
	}{
		{"delivery_no", p.DeliveryNo},
		{"supplier_name", p.SupplierName},
		{"delivery_details", p.DeliveryDetails},
		{"stockman", p.Stockman},
		{"item_code", p.ItemCode},
		{"color", p.Color},
		{"storage", p.Storage},
		{"counted_by", p.CountedBy},
		{"refill_by", p.RefillBy},
	}
	for _, text := range texts {
		if !text.value.Set {
			continue
		}
		var value any
		if !text.value.Null {
			value = text.value.Value
		}
		fields = append(fields, types.FieldUpdate{Column: text.column, Value: value})
	}

	if p.Qty.Set {
		fields = append(fields, types.FieldUpdate{Column: "qty", Value: p.Qty.Value})
	}

	for _, date := range []struct {
		column string
		value  types.Optional[string]
	}{
		{"date_counted", p.DateCounted},
		{"date_of_refill", p.DateOfRefill},
	} {
		if blank(date.value) {
			continue
		}
		parsed, err := parseDate(date.column, date.value.Value)
		if err != nil {
			return nil, err
		}
		fields = append(fields, types.FieldUpdate{Column: date.column, Value: parsed})
	}

	if !blank(p.RefillStatus) {
		status, ok := types.ParseRefillStatus(p.RefillStatus.Value)
		if !ok {
			return nil, invalid("refill_status", "invalid refill_status")
		}
		fields = append(fields, types.FieldUpdate{Column: "refill_status", Value: string(status)})
	}

	return fields, nil
}

// Duplicate re-counts an existing record as a new row. Only description,
// qty, color and storage are carried over; delivery and refill metadata
// are dropped.
func (s *InventoryService) Duplicate(ctx context.Context, caller auth.Claims, id int) (types.InventoryRecord, error) {
	if err := auth.RequireRole(caller, types.RoleAdmin); err != nil {
		return types.InventoryRecord{}, err
	}

	source, err := s.repo.Get(ctx, id)
	if err != nil {
		s.observe("duplicate", err)
		return types.InventoryRecord{}, err
	}

	editor := caller.UserID
	created, err := s.repo.Create(ctx, types.InventoryRecord{
		ItemDescription: source.ItemDescription,
		Qty:             source.Qty,
		Color:           source.Color,
		Storage:         source.Storage,
		CountedBy:       strconv.Itoa(caller.UserID),
		DateCounted:     types.NewDate(s.now()),
		RecordedBy:      caller.UserID,
		EditedBy:        &editor,
		RefillStatus:    types.RefillNone,
	})
	s.observe("duplicate", err)
	if err != nil {
		return types.InventoryRecord{}, err
	}
	s.publish(ctx, types.EventInventoryDuplicated, created.ID, caller.UserID)
	return created, nil
}

// SetRefillStatus records a refill disposition, stamping today's date and the caller.
func (s *InventoryService) SetRefillStatus(ctx context.Context, caller auth.Claims, id int, rawStatus string) (types.InventoryRecord, error) {
	if err := auth.RequireRole(caller, types.RoleAdmin); err != nil {
		return types.InventoryRecord{}, err
	}
	if strings.TrimSpace(rawStatus) == "" {
		return types.InventoryRecord{}, invalid("refill_status", "refill_status is required")
	}
	status, ok := types.ParseRefillStatus(rawStatus)
	if !ok {
		return types.InventoryRecord{}, invalid("refill_status", "invalid refill_status")
	}

	fields := []types.FieldUpdate{
		{Column: "refill_status", Value: string(status)},
		{Column: "date_of_refill", Value: types.DateOf(s.now())},
		{Column: "refill_by", Value: strconv.Itoa(caller.UserID)},
	}
	fields = append(fields, s.auditFields(caller)...)

	updated, err := s.repo.Update(ctx, id, fields)
	s.observe("refill", err)
	if err != nil {
		return types.InventoryRecord{}, err
	}
	s.publish(ctx, types.EventInventoryRefilled, updated.ID, caller.UserID)
	return updated, nil
}

func (s *InventoryService) Delete(ctx context.Context, caller auth.Claims, id int) error {
	if err := auth.RequireRole(caller, types.RoleAdmin); err != nil {
		return err
	}
	err := s.repo.Delete(ctx, id)
	s.observe("delete", err)
	if err != nil {
		return err
	}
	s.publish(ctx, types.EventInventoryDeleted, id, caller.UserID)
	return nil
}

func (s *InventoryService) auditFields(caller auth.Claims) []types.FieldUpdate {
	return []types.FieldUpdate{
		{Column: "updated_at", Value: s.now()},
		{Column: "edited_by", Value: caller.UserID},
	}
}

// publish is best effort: a broker failure is logged and never fails the operation.
func (s *InventoryService) publish(ctx context.Context, eventType string, recordID, actorID int) {
	if s.events == nil || s.channel == "" {
		return
	}
	event := types.InventoryEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		RecordID:   recordID,
		ActorID:    actorID,
		OccurredAt: s.now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("encode inventory event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if _, err := s.events.Publish(ctx, s.channel, data, map[string]string{"type": eventType}); err != nil {
		s.logger.Warn("publish inventory event",
			zap.String("type", eventType),
			zap.Int("record_id", recordID),
			zap.Error(err))
	}
}

func (s *InventoryService) observe(operation string, err error) {
	if s.observer != nil {
		s.observer.ObserveOperation(operation, err)
	}
}

func blank(value types.Optional[string]) bool {
	return !value.Present() || strings.TrimSpace(value.Value) == ""
}

func optionalText(value types.Optional[string]) *string {
	if !value.Present() {
		return nil
	}
	text := value.Value
	return &text
}

func optionalDate(field string, value types.Optional[string]) (types.Date, error) {
	if blank(value) {
		return types.Date{}, nil
	}
	parsed, err := parseDate(field, value.Value)
	if err != nil {
		return types.Date{}, err
	}
	return types.NewDate(parsed), nil
}

func parseDate(field, raw string) (time.Time, error) {
	parsed, err := types.ParseDate(raw)
	if err != nil {
		return time.Time{}, invalid(field, "invalid "+field)
	}
	return parsed, nil
}
