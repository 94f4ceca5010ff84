package api

import (
	"encoding/json"
	"net/http"
)

// @Summary      Get current user info
// @Description  Retrieves information about the currently authenticated user from their JWT token.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  auth.AppClaims
// @Failure      401  {string}  string "Unauthorized"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /me [get]
func (s *Server) GetCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(claims)
}

// @Summary      Get storage usage
// @Description  Retrieves the quota ledger of the authenticated user: limits and usage of both storage pools, as decimal strings.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.QuotaLedger
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {string}  string "Quota ledger not found"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /me/storage [get]
func (s *Server) GetStorageUsageHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	ledger, err := s.store.GetQuota(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "Failed to retrieve quota data", http.StatusInternalServerError)
		return
	}
	if ledger == nil {
		http.Error(w, "Quota ledger not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, ledger)
}
