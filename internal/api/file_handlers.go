package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jaevor/go-nanoid"

	"chmura-plikow/internal/cache"
	"chmura-plikow/internal/hierarchy"
)

const (
	downloadKeyTTL  = 10 * time.Minute
	stsTokenTTL     = 15 * time.Minute
	stsRateWindow   = 180 * time.Second
	stsRateLimit    = 5
	tempURLLifetime = 10 * time.Minute
)

type InsertFileRequest struct {
	Name      string  `json:"name" example:"raport.pdf"`
	ParentID  *string `json:"parent_id"`
	OssPath   string  `json:"oss_path" example:"user-7a3f/raport.pdf"`
	SizeBytes int64   `json:"size_bytes" example:"204800"`
}

var insertFileRules = []fieldRule{
	{Name: "name", Required: true, MaxLen: 255},
	{Name: "parent_id", UUID: true},
	{Name: "oss_path", Required: true, MaxLen: 1024},
}

// @Summary      Register an uploaded file
// @Description  Records metadata for a file already uploaded to object storage and charges the upload quota pool.
// @Tags         files
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        insertFileRequest  body      InsertFileRequest  true  "File metadata"
// @Success      201  {object}  models.Node
// @Failure      400  {string}  string "Bad Request"
// @Failure      403  {string}  string "Storage quota exceeded"
// @Failure      409  {string}  string "Name conflict"
// @Router       /files [post]
func (s *Server) InsertFileHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req InsertFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	fields := map[string]string{
		"name":      req.Name,
		"parent_id": optionalString(req.ParentID),
		"oss_path":  req.OssPath,
	}
	if err := validateFields(fields, insertFileRules); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	node, err := s.service.InsertFile(r.Context(), claims.UserID, hierarchy.InsertFileParams{
		Name:      req.Name,
		ParentID:  req.ParentID,
		OssPath:   req.OssPath,
		SizeBytes: req.SizeBytes,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, node)
}

type InsertOnlineEditFileRequest struct {
	Name     string  `json:"name" example:"notatki.md"`
	ParentID *string `json:"parent_id"`
	Content  string  `json:"content"`
}

// @Summary      Create an online-editable file
// @Description  Creates a file whose content lives in the database and charges the online-edit quota pool.
// @Tags         files
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        insertOnlineEditFileRequest  body      InsertOnlineEditFileRequest  true  "File definition"
// @Success      201  {object}  models.Node
// @Failure      400  {string}  string "Bad Request"
// @Failure      403  {string}  string "Storage quota exceeded"
// @Router       /files/online-edit [post]
func (s *Server) InsertOnlineEditFileHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, hierarchy.MaxContentBytes+4096)

	var req InsertOnlineEditFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	fields := map[string]string{
		"name":      req.Name,
		"parent_id": optionalString(req.ParentID),
	}
	if err := validateFields(fields, []fieldRule{
		{Name: "name", Required: true, MaxLen: 255},
		{Name: "parent_id", UUID: true},
	}); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	node, err := s.service.InsertOnlineEditFile(r.Context(), claims.UserID, hierarchy.InsertOnlineEditFileParams{
		Name:      req.Name,
		ParentID:  req.ParentID,
		Body:      req.Content,
		SizeBytes: int64(len(req.Content)),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, node)
}

type UpdateOnlineEditFileRequest struct {
	Content string `json:"content"`
}

// @Summary      Update an online-editable file
// @Description  Replaces the file's content in place; the online-edit pool is charged with the size difference.
// @Tags         files
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        fileId                       path      string                       true  "File ID"
// @Param        updateOnlineEditFileRequest  body      UpdateOnlineEditFileRequest  true  "New content"
// @Success      200  {object}  models.Node
// @Failure      400  {string}  string "Bad Request"
// @Failure      403  {string}  string "Storage quota exceeded"
// @Failure      404  {string}  string "Not Found"
// @Router       /files/online-edit/{fileId} [put]
func (s *Server) UpdateOnlineEditFileHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	fileID := chi.URLParam(r, "fileId")

	if err := validateFields(map[string]string{"fileId": fileID},
		[]fieldRule{{Name: "fileId", Required: true, UUID: true}}); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, hierarchy.MaxContentBytes+4096)

	var req UpdateOnlineEditFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	node, err := s.service.UpdateOnlineEditFile(r.Context(), claims.UserID, hierarchy.UpdateOnlineEditFileParams{
		FileID:    fileID,
		Body:      req.Content,
		SizeBytes: int64(len(req.Content)),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, node)
}

// @Summary      Read an online-editable file
// @Tags         files
// @Produce      json
// @Security     BearerAuth
// @Param        fileId  path      string  true  "File ID"
// @Success      200     {object}  hierarchy.OnlineEditFile
// @Failure      404     {string}  string "Not Found"
// @Router       /files/online-edit/{fileId} [get]
func (s *Server) GetOnlineEditFileHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	fileID := chi.URLParam(r, "fileId")

	file, err := s.service.GetOnlineEditFile(r.Context(), claims.UserID, fileID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, file)
}

type downloadTicket struct {
	OwnerID string `json:"owner_id"`
	NodeID  string `json:"node_id"`
}

type DownloadKeyResponse struct {
	Key string `json:"key" example:"V1StGXR8_Z5jdHi6B-myT"`
}

// @Summary      Generate a download key
// @Description  Issues a short-lived, single-purpose key that anonymously authorizes downloading the file.
// @Tags         files
// @Produce      json
// @Security     BearerAuth
// @Param        fileId  path      string  true  "File ID"
// @Success      200     {object}  DownloadKeyResponse
// @Failure      404     {string}  string "Not Found"
// @Router       /files/{fileId}/download-generate [post]
func (s *Server) GenerateDownloadKeyHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	fileID := chi.URLParam(r, "fileId")

	node, err := s.store.GetNodeByID(r.Context(), fileID, claims.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if node == nil || node.IsFolder || node.OssPath == nil {
		http.Error(w, "File not found or not downloadable", http.StatusNotFound)
		return
	}

	generateKey, err := nanoid.Standard(21)
	if err != nil {
		log.Printf("CRITICAL: Failed to initialize nanoid generator: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	key := generateKey()

	ticket, _ := json.Marshal(downloadTicket{OwnerID: claims.UserID, NodeID: fileID})
	if err := s.cache.Set(r.Context(), "download-key:"+key, string(ticket), downloadKeyTTL); err != nil {
		log.Printf("ERROR: Failed to store download key: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, DownloadKeyResponse{Key: key})
}

// @Summary      Download a file by key
// @Description  Exchanges a previously generated key for a temporary object-storage URL and redirects to it. No authentication required.
// @Tags         files
// @Param        key  path  string  true  "Download key"
// @Success      302  {string}  string "Redirect to temporary URL"
// @Failure      404  {string}  string "Unknown or expired key"
// @Failure      502  {string}  string "Storage backend unavailable"
// @Router       /files/download/{key} [get]
func (s *Server) DownloadFileHandler(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	raw, err := s.cache.Get(r.Context(), "download-key:"+key)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			http.Error(w, "Unknown or expired download key", http.StatusNotFound)
			return
		}
		log.Printf("ERROR: Download key lookup failed: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var ticket downloadTicket
	if err := json.Unmarshal([]byte(raw), &ticket); err != nil {
		http.Error(w, "Unknown or expired download key", http.StatusNotFound)
		return
	}

	// Klucz jest jednorazowy: zużycie kasuje go natychmiast.
	if err := s.cache.Delete(r.Context(), "download-key:"+key); err != nil {
		log.Printf("WARN: Failed to consume download key: %v", err)
	}

	node, err := s.store.GetNodeByID(r.Context(), ticket.NodeID, ticket.OwnerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if node == nil || node.OssPath == nil {
		http.Error(w, "File no longer exists", http.StatusNotFound)
		return
	}

	url, err := s.objects.TempURL(r.Context(), *node.OssPath, tempURLLifetime, 1, node.Name)
	if err != nil {
		log.Printf("ERROR: Failed to obtain temporary URL for %s: %v", *node.OssPath, err)
		http.Error(w, "Storage backend unavailable", http.StatusBadGateway)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

// @Summary      Get temporary upload credentials
// @Description  Issues short-lived STS credentials for direct browser upload. Rate limited per user.
// @Tags         files
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  objectstore.AccessToken
// @Failure      429  {string}  string "Too many requests"
// @Failure      502  {string}  string "Storage backend unavailable"
// @Router       /files/sts [get]
func (s *Server) GetSTSHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	count, err := s.cache.Incr(r.Context(), "sts_count:"+claims.UserID, stsRateWindow)
	if err != nil {
		log.Printf("WARN: STS rate limit counter unavailable: %v", err)
	} else if count > stsRateLimit {
		http.Error(w, "Too many credential requests, try again later", http.StatusTooManyRequests)
		return
	}

	token, err := s.objects.TempAccessToken(r.Context(), stsTokenTTL)
	if err != nil {
		log.Printf("ERROR: Failed to obtain STS token: %v", err)
		http.Error(w, "Storage backend unavailable", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, token)
}

// @Summary      Bucket statistics
// @Tags         files
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  objectstore.BucketStat
// @Failure      502  {string}  string "Storage backend unavailable"
// @Router       /files/bucket-stat [get]
func (s *Server) BucketStatHandler(w http.ResponseWriter, r *http.Request) {
	stat, err := s.objects.GetBucketStat(r.Context())
	if err != nil {
		log.Printf("ERROR: Failed to fetch bucket statistics: %v", err)
		http.Error(w, "Storage backend unavailable", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, stat)
}
