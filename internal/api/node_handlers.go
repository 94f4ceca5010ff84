package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"chmura-plikow/internal/hierarchy"
	"chmura-plikow/internal/models"
)

type CreateFolderRequest struct {
	Name     string  `json:"name" example:"Dokumenty"`
	ParentID *string `json:"parent_id"`
}

var createFolderRules = []fieldRule{
	{Name: "name", Required: true, MaxLen: 255},
	{Name: "parent_id", UUID: true},
}

// @Summary      Create a folder
// @Description  Creates a new folder under the given parent (omit parent_id for the root level).
// @Tags         nodes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        createFolderRequest  body      CreateFolderRequest  true  "Folder definition"
// @Success      201  {object}  models.Node
// @Failure      400  {string}  string "Bad Request"
// @Failure      404  {string}  string "Parent folder not found"
// @Failure      409  {string}  string "Name conflict"
// @Router       /nodes/folders [post]
func (s *Server) CreateFolderHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req CreateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	fields := map[string]string{
		"name":      req.Name,
		"parent_id": optionalString(req.ParentID),
	}
	if err := validateFields(fields, createFolderRules); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	node, err := s.service.CreateFolder(r.Context(), claims.UserID, hierarchy.CreateFolderParams{
		Name:     req.Name,
		ParentID: req.ParentID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, node)
}

var listNodesRules = []fieldRule{
	{Name: "parent_id", UUID: true},
	{Name: "kind", Options: []string{"file", "folder"}},
	{Name: "editable", Options: []string{"true", "false"}},
}

// @Summary      List folder contents
// @Description  Lists live children of a folder, folders first, then files by modification time.
// @Tags         nodes
// @Produce      json
// @Security     BearerAuth
// @Param        parent_id  query     string  false  "Parent folder ID (omit for root)"
// @Param        kind       query     string  false  "Filter: file or folder"
// @Param        editable   query     bool    false  "Only online-editable files (folders always pass)"
// @Success      200  {array}   models.Node
// @Failure      400  {string}  string "Bad Request"
// @Router       /nodes [get]
func (s *Server) ListNodesHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	query := r.URL.Query()

	fields := map[string]string{
		"parent_id": query.Get("parent_id"),
		"kind":      query.Get("kind"),
		"editable":  query.Get("editable"),
	}
	if err := validateFields(fields, listNodesRules); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var parentID *string
	if v := query.Get("parent_id"); v != "" {
		parentID = &v
	}

	var editable *bool
	if v := query.Get("editable"); v != "" {
		flag, _ := strconv.ParseBool(v)
		editable = &flag
	}

	nodes, err := s.service.List(r.Context(), claims.UserID, hierarchy.ListParams{
		ParentID: parentID,
		Kind:     query.Get("kind"),
		Editable: editable,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nodes)
}

type UpdateNodeRequest struct {
	Name     *string `json:"name"`
	ParentID *string `json:"parent_id"`
}

var updateNodeRules = []fieldRule{
	{Name: "name", MaxLen: 255},
	{Name: "parent_id", UUID: true},
}

// @Summary      Rename or move a node
// @Description  Renames a node, moves it under a new parent, or both. Use parent_id "root" to move to the root level.
// @Tags         nodes
// @Accept       json
// @Security     BearerAuth
// @Param        nodeId             path  string             true  "Node ID"
// @Param        updateNodeRequest  body  UpdateNodeRequest  true  "Fields to update"
// @Success      200  {object}  models.Node
// @Failure      400  {string}  string "Bad Request"
// @Failure      404  {string}  string "Not Found"
// @Failure      409  {string}  string "Name conflict"
// @Router       /nodes/{nodeId} [patch]
func (s *Server) UpdateNodeHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	nodeID := chi.URLParam(r, "nodeId")

	var req UpdateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// "root" oznacza przenosiny na najwyższy poziom.
	moveToRoot := req.ParentID != nil && *req.ParentID == "root"

	fields := map[string]string{
		"name":   optionalString(req.Name),
		"nodeId": nodeID,
	}
	if !moveToRoot {
		fields["parent_id"] = optionalString(req.ParentID)
	}
	rules := append([]fieldRule{{Name: "nodeId", Required: true, UUID: true}}, updateNodeRules...)
	if err := validateFields(fields, rules); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Name == nil && req.ParentID == nil {
		http.Error(w, "No update operation specified (provide 'name' or 'parent_id')", http.StatusBadRequest)
		return
	}

	var node *models.Node

	if req.Name != nil {
		var err error
		node, err = s.service.Rename(r.Context(), claims.UserID, nodeID, *req.Name)
		if err != nil {
			handleServiceError(w, err)
			return
		}
	}

	if req.ParentID != nil {
		target := req.ParentID
		if moveToRoot {
			target = nil
		}
		if err := s.service.Move(r.Context(), claims.UserID, nodeID, target); err != nil {
			handleServiceError(w, err)
			return
		}
	}

	if node != nil {
		writeJSON(w, http.StatusOK, node)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// @Summary      Search files by name
// @Tags         nodes
// @Produce      json
// @Security     BearerAuth
// @Param        name  query     string  true  "Name fragment (case-insensitive)"
// @Success      200   {array}   hierarchy.SearchResult
// @Failure      400   {string}  string "Bad Request"
// @Router       /nodes/search [get]
func (s *Server) SearchNodesHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	results, err := s.service.Search(r.Context(), claims.UserID, r.URL.Query().Get("name"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, results)
}

// @Summary      Recently modified files
// @Description  Returns the user's most recently modified live files, newest first, with full paths.
// @Tags         nodes
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   hierarchy.RecentFile
// @Router       /nodes/recent [get]
func (s *Server) RecentFilesHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	files, err := s.service.RecentFiles(r.Context(), claims.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, files)
}

// @Summary      Resolve a node's path
// @Description  Returns the ancestor chain of a node from the root down to the node itself.
// @Tags         nodes
// @Produce      json
// @Security     BearerAuth
// @Param        nodeId  path      string  true  "Node ID"
// @Success      200     {array}   models.PathEntry
// @Failure      404     {string}  string "Not Found"
// @Router       /nodes/{nodeId}/path [get]
func (s *Server) ResolvePathHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	nodeID := chi.URLParam(r, "nodeId")

	if err := validateFields(map[string]string{"nodeId": nodeID},
		[]fieldRule{{Name: "nodeId", Required: true, UUID: true}}); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entries, err := s.service.ResolvePath(r.Context(), claims.UserID, nodeID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}
