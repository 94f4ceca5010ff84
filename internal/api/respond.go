package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"chmura-plikow/internal/hierarchy"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// handleServiceError tłumaczy taksonomię błędów serwisu na kody HTTP.
// Nieznany błąd jest logowany i zwracany jako 500 bez szczegółów.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, hierarchy.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, hierarchy.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, hierarchy.ErrNameConflict):
		http.Error(w, "A node with the same name already exists in the target folder", http.StatusConflict)
	case errors.Is(err, hierarchy.ErrCycle):
		http.Error(w, "Cannot move a folder into itself or its descendant", http.StatusBadRequest)
	case errors.Is(err, hierarchy.ErrQuotaExceeded):
		http.Error(w, "Storage quota exceeded", http.StatusForbidden)
	case errors.Is(err, hierarchy.ErrExternalService):
		http.Error(w, "Storage backend unavailable", http.StatusBadGateway)
	default:
		log.Printf("ERROR: Unhandled service error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
