package http

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/GameLauncher/internal/models"
)

// CatalogService defines the game and category operations required by CatalogHandler.
type CatalogService interface {
	AddCategory(ctx context.Context, name string) (bool, error)
	Categories(ctx context.Context) ([]models.Category, error)
	CategoryIDByName(ctx context.Context, name string) (int64, error)
	DeleteCategory(ctx context.Context, id int64) error
	RemoveCategory(ctx context.Context, name string) (int64, error)
	RepairOrphanCategories(ctx context.Context) (int64, error)
	AddGame(ctx context.Context, name, path string, categoryID int64) (models.Game, error)
	GetGame(ctx context.Context, name string) (models.Game, error)
	ListGames(ctx context.Context) ([]models.Game, error)
	ListGamesByCategory(ctx context.Context, categoryID int64) ([]models.Game, error)
	UpdateGame(ctx context.Context, oldName, newName string, categoryID int64) (models.Game, error)
	DeleteGame(ctx context.Context, name string) error
	Play(ctx context.Context, name string) (models.Game, error)
}

// CatalogHandler serves the current user's categories and games.
type CatalogHandler struct {
	Catalog CatalogService
	Log     *zap.Logger
}

// CategoryRequest is the payload of POST /api/categories.
type CategoryRequest struct {
	Name string `json:"name"`
}

// GameRequest is the payload of POST /api/games and PUT /api/games/{name}.
// A missing category_id selects the default category on create and keeps the
// current one on update.
type GameRequest struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	CategoryID *int64 `json:"category_id"`
}

// ListCategories handles GET /api/categories.
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Catalog.Categories(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// AddCategory handles POST /api/categories.
func (h *CatalogHandler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(req.Name)

	added, err := h.Catalog.AddCategory(r.Context(), name)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if !added {
		http.Error(w, "category already exists", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusCreated, CategoryRequest{Name: name})
}

// DeleteCategory handles DELETE /api/categories/{name}. A category that still
// has games is refused with 409 unless ?reassign=true moves them to the
// default category first.
func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	name, ok := nameParam(r)
	if !ok {
		http.Error(w, "invalid category name", http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("reassign") == "true" {
		if _, err := h.Catalog.RemoveCategory(r.Context(), name); err != nil {
			writeError(w, h.Log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	id, err := h.Catalog.CategoryIDByName(r.Context(), name)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := h.Catalog.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListGames handles GET /api/games with an optional category_id filter.
// Games are ordered by name; order=desc lists them Z to A.
func (h *CatalogHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	var (
		games []models.Game
		err   error
	)
	order := r.URL.Query().Get("order")
	if order != "" && order != "asc" && order != "desc" {
		http.Error(w, "invalid order", http.StatusBadRequest)
		return
	}
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		categoryID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			http.Error(w, "invalid category_id", http.StatusBadRequest)
			return
		}
		games, err = h.Catalog.ListGamesByCategory(r.Context(), categoryID)
	} else {
		games, err = h.Catalog.ListGames(r.Context())
	}
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if order == "desc" {
		slices.Reverse(games)
	}
	writeJSON(w, http.StatusOK, games)
}

// AddGame handles POST /api/games.
func (h *CatalogHandler) AddGame(w http.ResponseWriter, r *http.Request) {
	var req GameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Path = strings.TrimSpace(req.Path)
	if req.Name == "" || req.Path == "" {
		http.Error(w, "name and path are required", http.StatusBadRequest)
		return
	}

	var categoryID int64
	if req.CategoryID != nil {
		categoryID = *req.CategoryID
	} else {
		id, err := h.Catalog.CategoryIDByName(r.Context(), models.DefaultCategoryName)
		if err != nil {
			writeError(w, h.Log, err)
			return
		}
		categoryID = id
	}

	game, err := h.Catalog.AddGame(r.Context(), req.Name, req.Path, categoryID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

// GetGame handles GET /api/games/{name}.
func (h *CatalogHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	name, ok := nameParam(r)
	if !ok {
		http.Error(w, "invalid game name", http.StatusBadRequest)
		return
	}
	game, err := h.Catalog.GetGame(r.Context(), name)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// UpdateGame handles PUT /api/games/{name}. Omitted fields keep their values.
func (h *CatalogHandler) UpdateGame(w http.ResponseWriter, r *http.Request) {
	name, ok := nameParam(r)
	if !ok {
		http.Error(w, "invalid game name", http.StatusBadRequest)
		return
	}
	var req GameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	current, err := h.Catalog.GetGame(r.Context(), name)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	newName := strings.TrimSpace(req.Name)
	if newName == "" {
		newName = current.Name
	}
	categoryID := current.CategoryID
	if req.CategoryID != nil {
		categoryID = *req.CategoryID
	}

	game, err := h.Catalog.UpdateGame(r.Context(), name, newName, categoryID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// DeleteGame handles DELETE /api/games/{name}.
func (h *CatalogHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	name, ok := nameParam(r)
	if !ok {
		http.Error(w, "invalid game name", http.StatusBadRequest)
		return
	}
	if err := h.Catalog.DeleteGame(r.Context(), name); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Play handles POST /api/games/{name}/play. The daemon only records the play;
// the caller starts the executable at the returned path.
func (h *CatalogHandler) Play(w http.ResponseWriter, r *http.Request) {
	name, ok := nameParam(r)
	if !ok {
		http.Error(w, "invalid game name", http.StatusBadRequest)
		return
	}
	game, err := h.Catalog.Play(r.Context(), name)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// Repair handles POST /api/repair.
func (h *CatalogHandler) Repair(w http.ResponseWriter, r *http.Request) {
	n, err := h.Catalog.RepairOrphanCategories(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"repaired": n})
}
