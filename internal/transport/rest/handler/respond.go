package handler

import (
	"duelquiz/internal/service"
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps service errors onto HTTP statuses
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var validationErr *service.ValidationError
	var storageErr *service.StorageError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Msg)
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, service.ErrSessionFull):
		writeError(w, http.StatusConflict, "Session full")
	case errors.Is(err, service.ErrInvalidSlot):
		writeError(w, http.StatusBadRequest, "Invalid slot")
	case errors.Is(err, service.ErrWrongStatus):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &storageErr):
		log.Printf("Storage failure: %v", err)
		writeError(w, http.StatusInternalServerError, fallback)
	default:
		log.Printf("%s: %v", fallback, err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
