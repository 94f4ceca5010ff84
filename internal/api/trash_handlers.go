package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// @Summary      List recycle bin contents
// @Description  Retrieves a page of trashed nodes together with the paths of their former locations.
// @Tags         trash
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query     int  false  "Page size (max 200)"
// @Param        offset  query     int  false  "Page offset"
// @Success      200  {object}  hierarchy.RecycleBinPage
// @Failure      401  {string}  string "Unauthorized"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /trash [get]
func (s *Server) ListTrashHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	limit, offset := parsePagination(r)

	page, err := s.service.RecycleBin(r.Context(), claims.UserID, limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// @Summary      Move a node to the recycle bin
// @Description  Soft-deletes the node and its whole subtree. Quota usage is not released until permanent deletion.
// @Tags         trash
// @Security     BearerAuth
// @Param        nodeId  path      string  true  "Node ID"
// @Success      204     {null}    nil "No Content"
// @Failure      404     {string}  string "Not Found"
// @Router       /nodes/{nodeId} [delete]
func (s *Server) SoftDeleteNodeHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	nodeID := chi.URLParam(r, "nodeId")

	if err := validateFields(map[string]string{"nodeId": nodeID},
		[]fieldRule{{Name: "nodeId", Required: true, UUID: true}}); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.service.SoftDelete(r.Context(), claims.UserID, nodeID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary      Restore a node from the recycle bin
// @Description  Restores a trashed folder with its whole subtree, or a trashed file together with any trashed ancestors up to the first live one.
// @Tags         trash
// @Produce      json
// @Security     BearerAuth
// @Param        nodeId  path      string  true  "Node ID to restore"
// @Success      200     {object}  hierarchy.RestoreResult
// @Failure      404     {string}  string "Node not in the recycle bin"
// @Failure      409     {string}  string "Conflict - a live node with the same name exists at the target location"
// @Router       /trash/{nodeId}/restore [post]
func (s *Server) RestoreNodeHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	nodeID := chi.URLParam(r, "nodeId")

	if err := validateFields(map[string]string{"nodeId": nodeID},
		[]fieldRule{{Name: "nodeId", Required: true, UUID: true}}); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.service.Restore(r.Context(), claims.UserID, nodeID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// @Summary      Permanently delete a node
// @Description  Irreversibly deletes the node and its subtree, releases quota usage and removes backing objects from storage. Works on both live and trashed nodes.
// @Tags         trash
// @Security     BearerAuth
// @Param        nodeId  path      string  true  "Node ID"
// @Success      204     {null}    nil "No Content"
// @Failure      404     {string}  string "Not Found"
// @Router       /trash/{nodeId} [delete]
func (s *Server) HardDeleteNodeHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	nodeID := chi.URLParam(r, "nodeId")

	if err := validateFields(map[string]string{"nodeId": nodeID},
		[]fieldRule{{Name: "nodeId", Required: true, UUID: true}}); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.service.HardDelete(r.Context(), claims.UserID, nodeID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
