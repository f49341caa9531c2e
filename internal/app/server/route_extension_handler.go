package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"filegate/internal/api/dto"
	"filegate/internal/database"
	"filegate/internal/ratelimit"
)

func (s *Server) getFixedExtensions(w http.ResponseWriter, r *http.Request) {
	rows, err := database.ListFixedExtensions()
	if err != nil {
		log.Error("Failed to list fixed extensions", "error", err)
		writeError(w, "Failed to load fixed extensions", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"extensions": rows})
}

func (s *Server) updateFixedExtension(w http.ResponseWriter, r *http.Request) {
	extension := strings.TrimSpace(r.PathValue("extension"))
	if extension == "" {
		writeError(w, "Missing extension", http.StatusBadRequest)
		return
	}

	var payload dto.ExtensionToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	row, err := database.UpdateFixedExtensionEnabled(extension, payload.Enabled)
	if err != nil {
		writeExtensionError(w, err)
		return
	}

	// The mutation is not complete until the blocklist cache is cleared.
	s.notifier.Notify(r.Context(), fmt.Sprintf("fixed extension toggled: %s=%t", row.Extension, row.Enabled))

	writeJSON(w, http.StatusOK, row)
}

func (s *Server) getCustomExtensions(w http.ResponseWriter, r *http.Request) {
	rows, err := database.ListCustomExtensions()
	if err != nil {
		log.Error("Failed to list custom extensions", "error", err)
		writeError(w, "Failed to load custom extensions", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"extensions": rows})
}

func (s *Server) addCustomExtension(w http.ResponseWriter, r *http.Request) {
	var payload dto.ExtensionCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	row, err := database.AddCustomExtension(payload.Extension, ratelimit.ClientIP(r), payload.Note)
	if err != nil {
		writeExtensionError(w, err)
		return
	}

	s.notifier.Notify(r.Context(), fmt.Sprintf("custom extension added: %s", row.Extension))

	writeJSON(w, http.StatusCreated, row)
}

func (s *Server) deleteCustomExtension(w http.ResponseWriter, r *http.Request) {
	rawID := strings.TrimSpace(r.PathValue("id"))
	if rawID == "" {
		writeError(w, "Missing extension id", http.StatusBadRequest)
		return
	}

	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		writeError(w, "Invalid extension id", http.StatusBadRequest)
		return
	}

	deleted, err := database.DeleteCustomExtension(id)
	if err != nil {
		writeExtensionError(w, err)
		return
	}

	s.notifier.Notify(r.Context(), fmt.Sprintf("custom extension deleted: %s", deleted))

	w.WriteHeader(http.StatusNoContent)
}

func writeExtensionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrExtensionNotFound):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, database.ErrExtensionRequired),
		errors.Is(err, database.ErrExtensionTooLong),
		errors.Is(err, database.ErrExtensionInvalid),
		errors.Is(err, database.ErrExtensionExists),
		errors.Is(err, database.ErrExtensionLimitReached):
		writeError(w, err.Error(), http.StatusBadRequest)
	default:
		log.Error("Extension registry operation failed", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}
