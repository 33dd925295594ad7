package board

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	appMiddleware "todo-list/internal/middleware"
	"todo-list/internal/tasks"
	"todo-list/internal/view"
)

// HandlerOptions — настройки HTTP-слоя.
type HandlerOptions struct {
	RequestTimeout time.Duration
	AdminUser      string
	AdminPassword  string
}

// Handler — HTTP-слой поверх Board.
//
// Здесь только HTTP: роуты, разбор JSON, коды ответов. Состояние и
// правила живут в Board и ниже.
type Handler struct {
	board *Board
	opts  HandlerOptions
}

func NewHandler(b *Board, opts HandlerOptions) *Handler {
	return &Handler{board: b, opts: opts}
}

// Router собирает роутер API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(appMiddleware.JSONHeaderMiddleware)
		r.Use(appMiddleware.RequestTimeoutMiddleware(h.opts.RequestTimeout))

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.getSnapshot)
			r.Post("/", h.createTask)
			r.Post("/undo", h.undo)
			r.With(appMiddleware.BasicAuthMiddleware(h.opts.AdminUser, h.opts.AdminPassword)).
				Delete("/", h.clearAll)

			r.Put("/{id}", h.updateTask)
			r.Delete("/{id}", h.deleteTask)
			r.Post("/{id}/toggle", h.toggleTask)
			r.Post("/{id}/move", h.moveTask)
		})

		r.Route("/view", func(r chi.Router) {
			r.Get("/", h.getSelection)
			r.Put("/sort", h.setSort)
			r.Put("/priority", h.setPriorityFilter)
			r.Put("/completion", h.setCompletionFilter)
			r.Delete("/", h.clearFilters)
		})

		r.Get("/preferences", h.getPreferences)
		r.Put("/preferences", h.setPreferences)
	})
	return r
}

// getSnapshot обрабатывает GET /api/v1/tasks/
//
// Отдаёт отфильтрованный и отсортированный список, счётчики и
// задачу, удаление которой ещё можно отменить.
func (h *Handler) getSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.board.Snapshot(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(snap)
}

// createTask обрабатывает POST /api/v1/tasks/
func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	var req tasks.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	created, err := h.board.AddTask(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(created)
}

// updateTask обрабатывает PUT /api/v1/tasks/{id}
//
// Меняет текст и приоритет. Пустой текст — 400, задача не меняется.
func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request) {
	var req tasks.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	updated, ok, err := h.board.EditTask(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !ok {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(updated)
}

// toggleTask обрабатывает POST /api/v1/tasks/{id}/toggle
func (h *Handler) toggleTask(w http.ResponseWriter, r *http.Request) {
	updated, ok, err := h.board.ToggleCompletion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !ok {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(updated)
}

// moveTask обрабатывает POST /api/v1/tasks/{id}/move с телом {"index": n}.
func (h *Handler) moveTask(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Index *int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Index == nil {
		http.Error(w, "Invalid JSON, want {\"index\": n}", http.StatusBadRequest)
		return
	}

	ok, err := h.board.MoveTask(r.Context(), chi.URLParam(r, "id"), *body.Index)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !ok {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteTask обрабатывает DELETE /api/v1/tasks/{id}
//
// Задача уходит в буфер отмены, ответ — 204.
func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	ok, err := h.board.DeleteTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !ok {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// undo обрабатывает POST /api/v1/tasks/undo
//
// 404, если отменять нечего или окно уже закрылось.
func (h *Handler) undo(w http.ResponseWriter, r *http.Request) {
	restored, ok, err := h.board.Undo(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !ok {
		http.Error(w, "Nothing to undo", http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(restored)
}

// clearAll обрабатывает DELETE /api/v1/tasks/?confirm=true
func (h *Handler) clearAll(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	if err := h.board.ClearAll(r.Context(), confirmed); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getSelection(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(h.board.Selection())
}

// setSort обрабатывает PUT /api/v1/view/sort с телом {"sort": "dueDate"}.
func (h *Handler) setSort(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Sort view.SortKey `json:"sort"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.board.SetSortKey(body.Sort); err != nil {
		h.writeError(w, err)
		return
	}
	h.getSelection(w, r)
}

// setPriorityFilter: {"priority": "High"} или {"priority": null}.
func (h *Handler) setPriorityFilter(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Priority *tasks.Priority `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.board.SetFilterPriority(body.Priority); err != nil {
		h.writeError(w, err)
		return
	}
	h.getSelection(w, r)
}

// setCompletionFilter: {"completed": true|false|null}.
func (h *Handler) setCompletionFilter(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Completed *bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.board.SetFilterCompletion(body.Completed); err != nil {
		h.writeError(w, err)
		return
	}
	h.getSelection(w, r)
}

func (h *Handler) clearFilters(w http.ResponseWriter, r *http.Request) {
	if err := h.board.ClearFilters(); err != nil {
		h.writeError(w, err)
		return
	}
	h.getSelection(w, r)
}

func (h *Handler) getPreferences(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(h.board.Preferences())
}

func (h *Handler) setPreferences(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DarkMode *bool `json:"darkMode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DarkMode == nil {
		http.Error(w, "Invalid JSON, want {\"darkMode\": bool}", http.StatusBadRequest)
		return
	}
	if err := h.board.SetDarkMode(*body.DarkMode); err != nil {
		h.writeError(w, err)
		return
	}
	h.getPreferences(w, r)
}

// writeError переводит ошибку в HTTP-статус.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		// Клиент ушёл или сервер останавливается: отвечать уже некому.
		return
	case errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "Request timeout", http.StatusRequestTimeout)
	case errors.Is(err, tasks.ErrEmptyText),
		errors.Is(err, tasks.ErrInvalidPriority),
		errors.Is(err, tasks.ErrDueDateInPast),
		errors.Is(err, view.ErrInvalidSortKey):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotConfirmed):
		http.Error(w, err.Error(), http.StatusPreconditionFailed)
	default:
		h.board.logger.Error("request failed", "err", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}
