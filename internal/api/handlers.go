package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/coinwatch/coinwatch-backend/internal/stream"
	"github.com/coinwatch/coinwatch-backend/internal/tracker"
	"github.com/coinwatch/coinwatch-backend/internal/view"
	"github.com/coinwatch/coinwatch-backend/pkg/kv"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Handler struct {
	svc     *tracker.Service
	views   *view.Engine
	hub     *stream.Hub
	kv      kv.Store
	logger  *zap.SugaredLogger
	metrics http.Handler
}

func NewHandler(
	svc *tracker.Service,
	views *view.Engine,
	hub *stream.Hub,
	kvStore kv.Store,
	logger *zap.SugaredLogger,
	metricsHandler http.Handler,
) *Handler {
	return &Handler{
		svc:     svc,
		views:   views,
		hub:     hub,
		kv:      kvStore,
		logger:  logger,
		metrics: metricsHandler,
	}
}

// ListAssets returns the raw snapshot: the loaded batch plus fetch and
// selection metadata, untouched by the view pipeline.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	st := h.svc.State()
	h.writeJSON(w, http.StatusOK, snapshotToDTO(st))
}

// GetView returns the derived view: sorted, filtered and windowed to the
// requested page of the loaded batch.
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	st := h.svc.State()
	derived := h.views.Derive(st)
	window := view.Page(derived, st.CurrentPage, st.ItemsPerPage)

	dto := ViewDTO{
		Assets:      assetsToDTOs(window, st),
		Total:       len(derived),
		Page:        st.CurrentPage,
		PerPage:     st.ItemsPerPage,
		SnapshotDTO: snapshotToDTO(st),
	}
	// The outer window already carries the page; drop the duplicate
	// full batch from the embedded snapshot.
	dto.SnapshotDTO.Assets = nil

	h.writeJSON(w, http.StatusOK, dto)
}

// TriggerRefresh dispatches an immediate background refresh of the
// current page and returns before it completes.
func (h *Handler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	page, perPage := h.svc.Pagination()
	go func() {
		if err := h.svc.Refresh(context.Background(), page, perPage); err != nil {
			h.logger.Warnw("Manual refresh failed", "page", page, "error", err)
		}
	}()

	h.writeJSON(w, http.StatusAccepted, AcceptedDTO{Status: "refresh dispatched"})
}

func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	ids := h.svc.State().FavoriteIDs()
	sort.Strings(ids)
	h.writeJSON(w, http.StatusOK, FavoritesDTO{IDs: ids})
}

// ToggleFavorite flips one asset's favorite membership. The toggle
// applies even when persistence fails; the response carries both facts.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "INVALID_ASSET_ID", "asset id is required")
		return
	}

	favorited, err := h.svc.ToggleFavorite(r.Context(), id)
	dto := ToggleFavoriteDTO{ID: id, Favorited: favorited, Persisted: err == nil}
	h.writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) SetPage(w http.ResponseWriter, r *http.Request) {
	var req SetPageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if req.Page < 1 {
		h.writeError(w, http.StatusBadRequest, "INVALID_PAGE", "page must be >= 1")
		return
	}

	h.svc.SetCurrentPage(req.Page)
	h.writeJSON(w, http.StatusOK, snapshotToDTO(h.svc.State()))
}

func (h *Handler) SetPageSize(w http.ResponseWriter, r *http.Request) {
	var req SetPageSizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if req.PerPage < 1 {
		h.writeError(w, http.StatusBadRequest, "INVALID_PAGE_SIZE", "perPage must be >= 1")
		return
	}

	h.svc.SetItemsPerPage(req.PerPage)
	h.writeJSON(w, http.StatusOK, snapshotToDTO(h.svc.State()))
}

// SetSort selects the sort key. Selecting the active key flips the
// direction; selecting a new key resets to ascending.
func (h *Handler) SetSort(w http.ResponseWriter, r *http.Request) {
	var req SetSortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	key := tracker.SortKey(req.Key)
	if !tracker.ValidSortKey(key) {
		h.writeError(w, http.StatusBadRequest, "INVALID_SORT_KEY",
			fmt.Sprintf("unknown sort key %q", req.Key))
		return
	}

	h.svc.SetSort(key)
	h.writeJSON(w, http.StatusOK, snapshotToDTO(h.svc.State()))
}

func (h *Handler) SetFilters(w http.ResponseWriter, r *http.Request) {
	var req SetFiltersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	filters := tracker.Filters{
		FavoritesOnly:    req.FavoritesOnly,
		PercentChangeMin: req.PercentChangeMin,
		SearchTerm:       req.SearchTerm,
	}
	if req.PriceMin != nil {
		d, err := decimal.NewFromString(*req.PriceMin)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "INVALID_PRICE_MIN", err.Error())
			return
		}
		filters.PriceMin = &d
	}
	if req.PriceMax != nil {
		d, err := decimal.NewFromString(*req.PriceMax)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "INVALID_PRICE_MAX", err.Error())
			return
		}
		filters.PriceMax = &d
	}
	if filters.PriceMin != nil && filters.PriceMax != nil && filters.PriceMin.GreaterThan(*filters.PriceMax) {
		h.writeError(w, http.StatusBadRequest, "INVALID_PRICE_RANGE", "priceMin exceeds priceMax")
		return
	}

	h.svc.SetFilters(filters)
	h.writeJSON(w, http.StatusOK, snapshotToDTO(h.svc.State()))
}

func (h *Handler) ResetFilters(w http.ResponseWriter, r *http.Request) {
	h.svc.ResetFilters()
	h.writeJSON(w, http.StatusOK, snapshotToDTO(h.svc.State()))
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.kv.Ping(r.Context()); err != nil {
		h.writeError(w, http.StatusServiceUnavailable, "KV_UNAVAILABLE", err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.logger.Errorw("API error", "code", code, "message", message, "status", status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Code: code, Message: message})
}
