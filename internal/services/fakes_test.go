package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noob2628/Inventory-App/internal/store"
	"github.com/noob2628/Inventory-App/types"
)

type fakeInventoryRepo struct {
	mu        sync.Mutex
	records   map[int]types.InventoryRecord
	nextID    int
	lastQuery types.InventoryQuery
	updates   [][]types.FieldUpdate
	err       error
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{records: make(map[int]types.InventoryRecord), nextID: 1}
}

func (f *fakeInventoryRepo) seed(record types.InventoryRecord) types.InventoryRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	record.ID = f.nextID
	f.nextID++
	f.records[record.ID] = record
	return record
}

func (f *fakeInventoryRepo) List(_ context.Context, q types.InventoryQuery) ([]types.InventoryRecord, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	if f.err != nil {
		return nil, 0, f.err
	}
	var matched []types.InventoryRecord
	for _, r := range f.sorted() {
		if q.Search != "" && !containsFold(r.ItemCode, q.Search) && !containsFold(r.DeliveryNo, q.Search) {
			continue
		}
		matched = append(matched, r)
	}
	total := len(matched)
	if q.Offset >= total {
		return []types.InventoryRecord{}, total, nil
	}
	end := q.Offset + q.Limit
	if end > total {
		end = total
	}
	return matched[q.Offset:end], total, nil
}

func (f *fakeInventoryRepo) All(context.Context) ([]types.InventoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.sorted(), nil
}

func (f *fakeInventoryRepo) Get(_ context.Context, id int) (types.InventoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return types.InventoryRecord{}, store.ErrNotFound
	}
	return record, nil
}

func (f *fakeInventoryRepo) Create(_ context.Context, record types.InventoryRecord) (types.InventoryRecord, error) {
	if f.err != nil {
		return types.InventoryRecord{}, f.err
	}
	now := types.NewTimestamp(time.Now())
	record.CreatedAt = now
	record.UpdatedAt = now
	return f.seed(record), nil
}

func (f *fakeInventoryRepo) Update(_ context.Context, id int, fields []types.FieldUpdate) (types.InventoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, fields)
	record, ok := f.records[id]
	if !ok {
		return types.InventoryRecord{}, store.ErrNotFound
	}
	for _, field := range fields {
		if err := applyField(&record, field); err != nil {
			return types.InventoryRecord{}, err
		}
	}
	f.records[id] = record
	return record, nil
}

func (f *fakeInventoryRepo) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeInventoryRepo) Summary(context.Context) (types.InventorySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	summary := types.InventorySummary{ByRefillStatus: map[string]int{}, TotalQty: types.QuantityFromInt(0)}
	for _, r := range f.records {
		summary.Total++
		summary.ByRefillStatus[string(r.RefillStatus)]++
		if r.Qty.Valid {
			summary.TotalQty = types.NewQuantity(summary.TotalQty.Decimal.Add(r.Qty.Decimal))
		}
	}
	return summary, nil
}

func (f *fakeInventoryRepo) sorted() []types.InventoryRecord {
	out := make([]types.InventoryRecord, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func containsFold(value *string, needle string) bool {
	return value != nil && strings.Contains(strings.ToLower(*value), strings.ToLower(needle))
}

func textPtr(value any) *string {
	if value == nil {
		return nil
	}
	s := value.(string)
	return &s
}

func dateValue(value any) types.Date {
	if value == nil {
		return types.Date{}
	}
	return types.NewDate(value.(time.Time))
}

func applyField(r *types.InventoryRecord, field types.FieldUpdate) error {
	switch field.Column {
	case "delivery_date":
		r.DeliveryDate = dateValue(field.Value)
	case "date_counted":
		r.DateCounted = dateValue(field.Value)
	case "date_of_refill":
		r.DateOfRefill = dateValue(field.Value)
	case "delivery_no":
		r.DeliveryNo = textPtr(field.Value)
	case "supplier_name":
		r.SupplierName = textPtr(field.Value)
	case "delivery_details":
		r.DeliveryDetails = textPtr(field.Value)
	case "stockman":
		r.Stockman = textPtr(field.Value)
	case "item_code":
		r.ItemCode = textPtr(field.Value)
	case "color":
		r.Color = textPtr(field.Value)
	case "storage":
		r.Storage = textPtr(field.Value)
	case "item_description":
		r.ItemDescription = field.Value.(string)
	case "counted_by":
		r.CountedBy = ""
		if field.Value != nil {
			r.CountedBy = field.Value.(string)
		}
	case "refill_by":
		r.RefillBy = ""
		if field.Value != nil {
			r.RefillBy = field.Value.(string)
		}
	case "qty":
		r.Qty = field.Value.(types.Quantity)
	case "refill_status":
		r.RefillStatus = types.RefillStatus(field.Value.(string))
	case "edited_by":
		id := field.Value.(int)
		r.EditedBy = &id
	case "updated_at":
		r.UpdatedAt = types.NewTimestamp(field.Value.(time.Time))
	default:
		return fmt.Errorf("column %q is not updatable", field.Column)
	}
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	channels []string
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, channel string, data []byte, _ map[string]string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.channels = append(p.channels, channel)
	p.payloads = append(p.payloads, data)
	return fmt.Sprintf("msg-%d", len(p.payloads)), nil
}

type fakeObserver struct {
	operations []string
	failures   int
}

func (o *fakeObserver) ObserveOperation(operation string, err error) {
	o.operations = append(o.operations, operation)
	if err != nil {
		o.failures++
	}
}

type fakeObjects struct {
	key         string
	contentType string
	body        string
	err         error
}

func (o *fakeObjects) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if o.err != nil {
		return o.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	o.key = key
	o.contentType = contentType
	o.body = string(data)
	return nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int]types.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]types.User), nextID: 1}
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) UpdateRole(_ context.Context, email string, role types.Role) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, user := range f.users {
		if strings.EqualFold(user.Email, email) {
			user.Role = role
			f.users[id] = user
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

var errBroker = errors.New("broker unavailable")

// tickingClock returns a clock advancing one second per call.
func tickingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}
