// File: internal/handlers/chat_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/iyunix/go-soliloquy/internal/domain"
	"github.com/iyunix/go-soliloquy/internal/services"
)

const maxImportSize = 10 << 20

type ChatHandler struct {
	ChatService *services.ChatService
}

func NewChatHandler(cs *services.ChatService) *ChatHandler {
	return &ChatHandler{ChatService: cs}
}

// ListChats returns the sidebar, optionally filtered by ?q=.
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.ChatService.Directory.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	id, err := h.ChatService.Directory.Create(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint{"id": id})
}

func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	chatID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	chat, err := h.ChatService.Directory.Get(r.Context(), chatID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func (h *ChatHandler) RenameChat(w http.ResponseWriter, r *http.Request) {
	chatID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.ChatService.Directory.Rename(r.Context(), chatID, req.Title); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatHandler) TogglePin(w http.ResponseWriter, r *http.Request) {
	chatID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	chat, err := h.ChatService.Directory.TogglePin(r.Context(), chatID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

// DeleteChat removes a chat; ?active= tells whether the selection must be cleared.
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	chatID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	activeID, _ := strconv.ParseUint(r.URL.Query().Get("active"), 10, 32)

	res, err := h.ChatService.Directory.DeleteChat(r.Context(), chatID, uint(activeID))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse(res.Deleted, res.ClearSelection))
}

func (h *ChatHandler) BatchSetPinned(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs    []uint `json:"ids"`
		Pinned bool   `json:"pinned"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	changed, err := h.ChatService.Directory.BatchSetPinned(r.Context(), req.IDs, req.Pinned)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"changed": changed})
}

func (h *ChatHandler) BatchDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs      []uint `json:"ids"`
		ActiveID uint   `json:"activeId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.ChatService.Directory.BatchDelete(r.Context(), req.IDs, req.ActiveID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse(res.Deleted, res.ClearSelection))
}

func (h *ChatHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ActiveID uint `json:"activeId"`
		OverID   uint `json:"overId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.ChatService.Directory.Reorder(r.Context(), req.ActiveID, req.OverID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportChat accepts a multipart "file" field, or a raw body named by ?filename=.
func (h *ChatHandler) ImportChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)

	var (
		name string
		data []byte
		err  error
	)
	if file, header, ferr := r.FormFile("file"); ferr == nil {
		defer file.Close()
		name = header.Filename
		data, err = io.ReadAll(file)
	} else {
		name = r.URL.Query().Get("filename")
		data, err = io.ReadAll(r.Body)
	}
	if err != nil {
		writeError(w, "Could not read upload", http.StatusBadRequest)
		return
	}
	if name == "" {
		writeError(w, "File name is required", http.StatusBadRequest)
		return
	}

	id, err := h.ChatService.Directory.Import(r.Context(), name, data)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint{"id": id})
}

// ExportChat streams the chat as a download; ?format= is json (default), md or html.
func (h *ChatHandler) ExportChat(w http.ResponseWriter, r *http.Request) {
	chatID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	export, err := h.ChatService.Directory.Export(r.Context(), chatID, format)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+export.FileName+"\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Data)
}

func deleteResponse(deleted []uint, clearSelection bool) map[string]interface{} {
	if deleted == nil {
		deleted = []uint{}
	}
	return map[string]interface{}{"deleted": deleted, "clearSelection": clearSelection}
}

// writeJSON is a helper for sending JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError is a helper for sending JSON error responses.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps the error taxonomy onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var noteErr *domain.NoteError
	if !errors.As(err, &noteErr) {
		log.Error().Err(err).Msg("request failed")
		writeError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	status := http.StatusInternalServerError
	switch noteErr.Type {
	case domain.ErrTypeNotFound:
		status = http.StatusNotFound
	case domain.ErrTypeForbidden:
		status = http.StatusForbidden
	case domain.ErrTypeImportFormat, domain.ErrTypeValidation:
		status = http.StatusBadRequest
	case domain.ErrTypeUnsupportedFormat:
		status = http.StatusUnsupportedMediaType
	}
	writeJSON(w, status, map[string]string{"error": noteErr.Message, "type": string(noteErr.Type)})
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 32)
	if err != nil || id == 0 {
		writeError(w, "Invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, "Bad Request", http.StatusBadRequest)
		return false
	}
	return true
}
