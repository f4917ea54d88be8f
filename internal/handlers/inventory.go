package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/noob2628/Inventory-App/internal/auth"
	"github.com/noob2628/Inventory-App/internal/services"
	"github.com/noob2628/Inventory-App/types"
)

const recordResource = "record"

// InventoryHandler provides HTTP handlers for inventory records. Role checks
// happen in the services; handlers only pass the verified caller along.
type InventoryHandler struct {
	inventory *services.InventoryService
	exports   *services.ExportService
	logger    *zap.Logger
}

func NewInventoryHandler(inventory *services.InventoryService, exports *services.ExportService, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{
		inventory: inventory,
		exports:   exports,
		logger:    logger,
	}
}

// InventoryRouter registers inventory routes on the given router. Every route
// requires a valid bearer token.
func InventoryRouter(
	r chi.Router,
	inventory *services.InventoryService,
	exports *services.ExportService,
	tokens *auth.TokenManager,
	logger *zap.Logger,
) {
	handler := NewInventoryHandler(inventory, exports, logger)

	r.Use(RequireAuth(tokens))
	r.Get("/", handler.List)
	r.Post("/", handler.Create)
	r.Get("/summary", handler.Summary)
	r.Get("/export", handler.Export)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.Put("/", handler.Update)
		r.Delete("/", handler.Delete)
		r.Post("/duplicate", handler.Duplicate)
		r.Post("/refill", handler.SetRefillStatus)
	})
}

type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type InventoryListResponse struct {
	Data       []types.InventoryRecord `json:"data"`
	Pagination Pagination              `json:"pagination"`
}

type RefillRequest struct {
	RefillStatus string `json:"refill_status"`
}

func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	result, err := h.inventory.List(r.Context(), claimsFromContext(r.Context()), services.ListParams{
		Search: query.Get("search"),
		Sort:   query.Get("sort"),
		Order:  query.Get("order"),
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err, "list records", recordResource)
		return
	}

	items := result.Items
	if items == nil {
		items = []types.InventoryRecord{}
	}
	writeJSON(w, http.StatusOK, InventoryListResponse{
		Data: items,
		Pagination: Pagination{
			Total:      result.Total,
			Page:       result.Page,
			Limit:      result.Limit,
			TotalPages: result.TotalPages(),
		},
	})
}

func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeServiceError(w, r, h.logger, err, "fetch record", recordResource)
		return
	}

	record, err := h.inventory.Get(r.Context(), claimsFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "fetch record", recordResource)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *InventoryHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.inventory.Summary(r.Context(), claimsFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "summarize records", recordResource)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var patch types.InventoryPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeServiceError(w, r, h.logger, err, "create record", recordResource)
		return
	}

	record, err := h.inventory.Create(r.Context(), claimsFromContext(r.Context()), patch)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "create record", recordResource)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeServiceError(w, r, h.logger, err, "update record", recordResource)
		return
	}

	var patch types.InventoryPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeServiceError(w, r, h.logger, err, "update record", recordResource)
		return
	}

	record, err := h.inventory.Update(r.Context(), claimsFromContext(r.Context()), id, patch)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "update record", recordResource)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeServiceError(w, r, h.logger, err, "delete record", recordResource)
		return
	}

	if err := h.inventory.Delete(r.Context(), claimsFromContext(r.Context()), id); err != nil {
		writeServiceError(w, r, h.logger, err, "delete record", recordResource)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "record deleted"})
}

func (h *InventoryHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeServiceError(w, r, h.logger, err, "duplicate record", recordResource)
		return
	}

	record, err := h.inventory.Duplicate(r.Context(), claimsFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "duplicate record", recordResource)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *InventoryHandler) SetRefillStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeServiceError(w, r, h.logger, err, "update refill status", recordResource)
		return
	}

	var req RefillRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, err, "update refill status", recordResource)
		return
	}

	record, err := h.inventory.SetRefillStatus(r.Context(), claimsFromContext(r.Context()), id, req.RefillStatus)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "update refill status", recordResource)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// Export writes every record as a CSV attachment.
func (h *InventoryHandler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.exports.WriteCSV(r.Context(), claimsFromContext(r.Context()), &buf); err != nil {
		writeServiceError(w, r, h.logger, err, "export records", recordResource)
		return
	}

	filename := "inventory-" + time.Now().UTC().Format("20060102") + ".csv"
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
