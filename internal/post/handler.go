package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"postboard/internal/post/model"
	"postboard/internal/post/query"
	"postboard/internal/post/render"
	"postboard/internal/post/service"
	"postboard/internal/post/transfer"
	"postboard/pkg/logger"
)

// MaxImportSize bounds the body accepted by ImportPosts.
const MaxImportSize = 10 << 20

type PostHandler struct {
	Service *service.PostService
}

func NewPostHandler(service *service.PostService) *PostHandler {
	return &PostHandler{Service: service}
}

func (h *PostHandler) GetPosts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	params, err := queryParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, h.Service.Query(params))
}

func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, ok := postID(w, r)
	if !ok {
		return
	}

	post, err := h.Service.Get(id)
	if err != nil {
		h.writeError(w, "get post", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.PostFields
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	post, err := h.Service.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, "create post", err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, ok := postID(w, r)
	if !ok {
		return
	}

	var req model.PostFields
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	post, err := h.Service.Update(r.Context(), id, req)
	if err != nil {
		h.writeError(w, "update post", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, ok := postID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.writeError(w, "delete post", err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Post deleted successfully"))
}

func (h *PostHandler) ClearPosts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.Service.ClearAll(r.Context()); err != nil {
		h.writeError(w, "clear posts", err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("All posts cleared"))
}

func (h *PostHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.Service.Stats())
}

func (h *PostHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.Service.Categories)
}

func (h *PostHandler) ExportPosts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := h.Service.Export()
	if err != nil {
		h.writeError(w, "export posts", err)
		return
	}

	w.Header().Set("Content-Type", transfer.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+transfer.FileName(time.Now())+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *PostHandler) ImportPosts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxImportSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Import file is too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Could not read import file", http.StatusBadRequest)
		return
	}

	res, err := h.Service.Import(r.Context(), raw)
	if err != nil {
		h.writeError(w, "import posts", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Feed renders the same projection as GetPosts as an HTML page.
func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	params, err := queryParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", render.ContentType)
	if err := render.Feed(w, h.Service.Query(params), h.Service.Stats()); err != nil {
		logger.Sugar.Errorf("Handler: Failed to render feed: %v", err)
	}
}

// writeError maps service errors onto status codes.
func (h *PostHandler) writeError(w http.ResponseWriter, action string, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, model.ErrFormat):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, model.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, model.ErrEmptyImport), errors.Is(err, model.ErrNothingToExport):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, model.ErrIDsExhausted):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		if service.IsStorageError(err) {
			logger.Sugar.Errorf("Handler: Failed to %s: %v", action, err)
		} else {
			logger.Sugar.Errorf("Handler: Unexpected error during %s: %v", action, err)
		}
		http.Error(w, "Failed to "+action+": "+err.Error(), http.StatusInternalServerError)
	}
}

func queryParams(r *http.Request) (model.QueryParams, error) {
	q := r.URL.Query()
	sortKey, err := query.ParseSortKey(q.Get("sort"))
	if err != nil {
		return model.QueryParams{}, err
	}
	return model.QueryParams{Search: q.Get("search"), Category: q.Get("category"), Sort: sortKey}, nil
}

func postID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		http.Error(w, "Invalid id parameter", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Sugar.Errorf("Handler: Failed to encode response: %v", err)
	}
}
