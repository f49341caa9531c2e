package server

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/charmbracelet/log"

	"filegate/internal/api/dto"
	"filegate/internal/blocklist"
	"filegate/internal/validation"
)

// Multipart bodies are parsed with a small in-memory threshold; anything
// larger spills to disk. The pipeline's own size cap is checked against the
// declared part size, not this value.
const multipartMemoryLimit = 32 << 20

func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		writeError(w, "Invalid multipart payload", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	log.Info("File upload request", "filename", header.Filename, "size", header.Size)

	result, err := s.pipeline.ValidateUpload(r.Context(), header.Filename, header.Size, partContentType(header))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResultFor(header, result))
}

func (s *Server) uploadMultipleFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		writeError(w, "Invalid multipart payload", http.StatusBadRequest)
		return
	}

	if r.MultipartForm == nil || len(r.MultipartForm.File["files"]) == 0 {
		writeError(w, "Missing files field", http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	log.Info("Multi file upload request", "count", len(headers))

	batch := dto.UploadBatchResult{
		Total:   len(headers),
		Results: make([]dto.UploadResult, 0, len(headers)),
	}

	for _, header := range headers {
		result, err := s.pipeline.ValidateUpload(r.Context(), header.Filename, header.Size, partContentType(header))
		if err != nil {
			writeStoreError(w, err)
			return
		}

		if result.Allowed {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
		batch.Results = append(batch.Results, uploadResultFor(header, result))
	}

	writeJSON(w, http.StatusOK, batch)
}

func (s *Server) validateFilename(w http.ResponseWriter, r *http.Request) {
	var payload dto.FilenameRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	result, err := s.pipeline.ValidateFilename(r.Context(), payload.Filename)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func uploadResultFor(header *multipart.FileHeader, result validation.Result) dto.UploadResult {
	message := result.Message
	if result.Allowed {
		message = "file upload allowed"
	}

	return dto.UploadResult{
		Filename:    header.Filename,
		Size:        header.Size,
		ContentType: partContentType(header),
		Allowed:     result.Allowed,
		Reason:      result.Reason,
		Extension:   result.Extension,
		Message:     message,
	}
}

func partContentType(header *multipart.FileHeader) string {
	return header.Header.Get("Content-Type")
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, blocklist.ErrStoreUnavailable) {
		log.Error("Extension store unavailable", "error", err)
		writeError(w, "Validation service temporarily unavailable", http.StatusServiceUnavailable)
		return
	}

	log.Error("File validation failed unexpectedly", "error", err)
	writeError(w, "Internal server error", http.StatusInternalServerError)
}
