// Package relay exposes the work-item gateway over HTTP for the
// timeline frontend: pick lists, per-user activity loads, container
// search, and item create/update.
package relay

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nhle/activity-timeline/internal/model"
	"github.com/nhle/activity-timeline/internal/workitem"
)

// Gateway is the slice of the work-item surface the relay exposes.
type Gateway interface {
	Profile(ctx context.Context) (model.User, error)
	LoadUserItems(ctx context.Context, user string) (*workitem.LoadResult, error)
	Search(ctx context.Context, query string) (*workitem.LoadResult, error)
	CreateItem(ctx context.Context, patch model.FieldPatch, parentID int) (model.WorkItem, error)
	UpdateItem(ctx context.Context, id int, patch model.FieldPatch, parentID int) (model.WorkItem, error)
}

// Handler serves the /api routes.
type Handler struct {
	Gateway   Gateway
	Lists     model.Lists // configured pick lists; User is resolved per request
	Logger    *log.Logger
	AssetsDir string // optional static frontend bundle
}

func NewHandler(gateway Gateway, lists model.Lists, logger *log.Logger, assetsDir string) *Handler {
	return &Handler{
		Gateway:   gateway,
		Lists:     lists,
		Logger:    logger,
		AssetsDir: assetsDir,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(h.requestLogger)

	r.Get("/api/lists", h.handleLists)
	r.Get("/api/activities/{user}", h.handleActivities)
	r.Get("/api/search/{query}", h.handleSearch)
	r.Put("/api/activities", h.handleCreate)
	r.Post("/api/activities/{id}", h.handleUpdate)

	if h.AssetsDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(h.AssetsDir)))
	}

	return r
}

// requestLogger tags every request with an id and logs its route.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set("X-Request-Id", id)
		if h.Logger != nil {
			h.Logger.Printf("%s %s %s", id, r.Method, r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) handleLists(w http.ResponseWriter, r *http.Request) {
	user, err := h.Gateway.Profile(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	lists := h.Lists
	lists.User = user
	h.writeJSON(w, http.StatusOK, lists)
}

func (h *Handler) handleActivities(w http.ResponseWriter, r *http.Request) {
	user, err := url.PathUnescape(chi.URLParam(r, "user"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid user")
		return
	}

	result, err := h.Gateway.LoadUserItems(r.Context(), user)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query, err := url.PathUnescape(chi.URLParam(r, "query"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid query")
		return
	}

	result, err := h.Gateway.Search(r.Context(), query)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// itemRequest is the mutation payload: the field patch plus the
// parent to link under, with the no-op sentinel meaning "leave links
// alone".
type itemRequest struct {
	Item     itemPayload `json:"item"`
	ParentID int         `json:"parentId"`
}

type itemPayload struct {
	ID     int          `json:"id"`
	Rev    int          `json:"rev"`
	Fields model.Fields `json:"fields"`
}

func decodeItemRequest(r *http.Request) (itemRequest, error) {
	// Absent parentId must decode to the no-op sentinel, not zero.
	req := itemRequest{ParentID: model.NoParentID}
	err := json.NewDecoder(r.Body).Decode(&req)
	return req, err
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeItemRequest(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	patch := model.FieldPatch{ID: model.UnsavedID, Fields: req.Item.Fields}
	created, err := h.Gateway.CreateItem(r.Context(), patch, req.ParentID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	req, err := decodeItemRequest(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	patch := model.FieldPatch{ID: id, Rev: req.Item.Rev, Fields: req.Item.Fields}
	updated, err := h.Gateway.UpdateItem(r.Context(), id, patch, req.ParentID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
