package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/freshpress/portal-bff-go/internal/domain"
)

func adminDashboardHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeFromContext(r.Context())

		dash, err := rt.admin.Load(r.Context())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, dash)
	}
}

func adminRevenueHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeFromContext(r.Context())
		q := r.URL.Query()

		points, err := rt.admin.Revenue(r.Context(), q.Get("range"), q.Get("startDate"), q.Get("endDate"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if points == nil {
			points = []domain.RevenuePoint{}
		}
		writeJSON(w, http.StatusOK, points)
	}
}

func adminUsersHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeFromContext(r.Context())
		page, limit := parsePagination(r)

		users, err := rt.admin.Users(r.Context(), page, limit)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if users == nil {
			users = []domain.UserSummary{}
		}
		writeJSON(w, http.StatusOK, users)
	}
}

func adminInventoryHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeFromContext(r.Context())

		items, err := rt.admin.Inventory(r.Context())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if items == nil {
			items = []domain.InventoryItem{}
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func adminAddInventoryHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeFromContext(r.Context())

		var item domain.InventoryItem
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		created, err := rt.admin.AddInventoryItem(r.Context(), &item)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func adminDeleteInventoryHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeFromContext(r.Context())

		if err := rt.admin.DeleteInventoryItem(r.Context(), chi.URLParam(r, "itemId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
