// Package hierarchy realizuje operacje na drzewie plików i folderów:
// tworzenie, listowanie, move, rename, kosz (soft delete), kasowanie
// fizyczne i restore. Każda operacja mutująca to jedna transakcja; korekty
// licznika zużycia są współtransakcyjne z zapisem, który je wymusza, a
// cache i powiadomienia dotykane są wyłącznie po commicie.
package hierarchy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"chmura-plikow/internal/cache"
	"chmura-plikow/internal/database"
	"chmura-plikow/internal/models"

	"github.com/google/uuid"
)

// MaxContentBytes ogranicza treść pliku edytowalnego online (10 MiB).
const MaxContentBytes = 10 << 20

const (
	defaultPathTTL   = 600 * time.Second
	defaultRecentTTL = 3600 * time.Second
)

type ObjectDeleter interface {
	DeleteObject(ctx context.Context, ossPath string) (bool, error)
}

type EventPublisher interface {
	PublishEvent(userID string, eventData []byte)
}

type Service struct {
	store     *database.Store
	cache     cache.Backend
	objects   ObjectDeleter
	hub       EventPublisher
	pathTTL   time.Duration
	recentTTL time.Duration
}

// NewService buduje serwis z jawnie wstrzykniętymi zależnościami — cache
// jest zwykłym argumentem konstruktora, nie stanem procesu.
func NewService(store *database.Store, cacheBackend cache.Backend, objects ObjectDeleter, hub EventPublisher) *Service {
	return &Service{
		store:     store,
		cache:     cacheBackend,
		objects:   objects,
		hub:       hub,
		pathTTL:   defaultPathTTL,
		recentTTL: defaultRecentTTL,
	}
}

func (s *Service) notify(userID string, eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	eventBytes, err := json.Marshal(map[string]interface{}{
		"event_type": eventType,
		"payload":    payload,
	})
	if err != nil {
		return
	}
	s.hub.PublishEvent(userID, eventBytes)
}

func fileSuffix(name string) *string {
	suffix := ""
	if idx := strings.LastIndex(name, "."); idx >= 0 && idx < len(name)-1 {
		suffix = name[idx+1:]
	}
	return &suffix
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrValidation)
	}
	return nil
}

// resolveParent sprawdza, że wskazany rodzic istnieje, żyje, jest folderem
// i należy do tego samego właściciela. nil = katalog główny.
func resolveParent(ctx context.Context, q *database.Queries, ownerID string, parentID *string) error {
	if parentID == nil {
		return nil
	}
	parent, err := q.GetNodeByID(ctx, *parentID, ownerID)
	if err != nil {
		return err
	}
	if parent == nil || !parent.IsFolder {
		return fmt.Errorf("%w: target folder", ErrNotFound)
	}
	return nil
}

func checkSiblingConflict(ctx context.Context, q *database.Queries, ownerID string, parentID *string, name string) error {
	exists, err := q.SiblingNameExists(ctx, ownerID, parentID, name)
	if err != nil {
		return err
	}
	if exists {
		return ErrNameConflict
	}
	return nil
}

type CreateFolderParams struct {
	Name     string
	ParentID *string
}

func (s *Service) CreateFolder(ctx context.Context, ownerID string, arg CreateFolderParams) (*models.Node, error) {
	if err := validateName(arg.Name); err != nil {
		return nil, err
	}

	var node *models.Node
	txErr := s.store.ExecTx(ctx, func(q *database.Queries) error {
		if err := resolveParent(ctx, q, ownerID, arg.ParentID); err != nil {
			return err
		}
		if err := checkSiblingConflict(ctx, q, ownerID, arg.ParentID, arg.Name); err != nil {
			return err
		}

		var err error
		node, err = q.CreateNode(ctx, database.CreateNodeParams{
			ID:       uuid.NewString(),
			OwnerID:  ownerID,
			ParentID: arg.ParentID,
			Name:     arg.Name,
			IsFolder: true,
		})
		if err != nil {
			return convertStoreErr(err)
		}

		return q.LogEvent(ctx, ownerID, "node_created", node)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.notify(ownerID, "node_created", node)
	return node, nil
}

type InsertFileParams struct {
	Name      string
	ParentID  *string
	OssPath   string
	SizeBytes int64
}

// InsertFile rejestruje plik już wgrany do object storage. Powiększenie
// puli uploadu i INSERT metadanych commitują się razem albo wcale.
func (s *Service) InsertFile(ctx context.Context, ownerID string, arg InsertFileParams) (*models.Node, error) {
	if err := validateName(arg.Name); err != nil {
		return nil, err
	}
	if arg.SizeBytes < 0 {
		return nil, fmt.Errorf("%w: negative file size", ErrValidation)
	}
	if strings.TrimSpace(arg.OssPath) == "" {
		return nil, fmt.Errorf("%w: oss path cannot be empty", ErrValidation)
	}

	var node *models.Node
	txErr := s.store.ExecTx(ctx, func(q *database.Queries) error {
		if err := resolveParent(ctx, q, ownerID, arg.ParentID); err != nil {
			return err
		}
		if err := checkSiblingConflict(ctx, q, ownerID, arg.ParentID, arg.Name); err != nil {
			return err
		}

		ledger, err := q.GetQuotaForUpdate(ctx, ownerID)
		if err != nil {
			return err
		}
		if ledger == nil {
			return fmt.Errorf("quota ledger missing for user %s", ownerID)
		}
		if !ledger.IncreaseUploadUsed(arg.SizeBytes) {
			return ErrQuotaExceeded
		}
		if err := q.UpdateQuotaUsage(ctx, ledger); err != nil {
			return err
		}

		node, err = q.CreateNode(ctx, database.CreateNodeParams{
			ID:         uuid.NewString(),
			OwnerID:    ownerID,
			ParentID:   arg.ParentID,
			Name:       arg.Name,
			OssPath:    &arg.OssPath,
			SizeBytes:  &arg.SizeBytes,
			FileSuffix: fileSuffix(arg.Name),
		})
		if err != nil {
			return convertStoreErr(err)
		}

		return q.LogEvent(ctx, ownerID, "file_created", node)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidateRecent(ctx, ownerID)
	s.notify(ownerID, "file_created", node)
	return node, nil
}

type InsertOnlineEditFileParams struct {
	Name      string
	ParentID  *string
	Body      string
	SizeBytes int64
}

// InsertOnlineEditFile tworzy plik edytowalny online: węzeł i rekord treści
// powstają w jednej transakcji razem z powiększeniem puli online-edit.
func (s *Service) InsertOnlineEditFile(ctx context.Context, ownerID string, arg InsertOnlineEditFileParams) (*models.Node, error) {
	if err := validateName(arg.Name); err != nil {
		return nil, err
	}
	if arg.SizeBytes < 0 {
		return nil, fmt.Errorf("%w: negative file size", ErrValidation)
	}
	if len(arg.Body) > MaxContentBytes {
		return nil, fmt.Errorf("%w: content exceeds %d bytes", ErrValidation, MaxContentBytes)
	}

	var node *models.Node
	txErr := s.store.ExecTx(ctx, func(q *database.Queries) error {
		if err := resolveParent(ctx, q, ownerID, arg.ParentID); err != nil {
			return err
		}
		if err := checkSiblingConflict(ctx, q, ownerID, arg.ParentID, arg.Name); err != nil {
			return err
		}

		ledger, err := q.GetQuotaForUpdate(ctx, ownerID)
		if err != nil {
			return err
		}
		if ledger == nil {
			return fmt.Errorf("quota ledger missing for user %s", ownerID)
		}
		if !ledger.IncreaseOnlineEditUsed(arg.SizeBytes) {
			return ErrQuotaExceeded
		}
		if err := q.UpdateQuotaUsage(ctx, ledger); err != nil {
			return err
		}

		suffix := fileSuffix(arg.Name)
		node, err = q.CreateNode(ctx, database.CreateNodeParams{
			ID:             uuid.NewString(),
			OwnerID:        ownerID,
			ParentID:       arg.ParentID,
			Name:           arg.Name,
			SizeBytes:      &arg.SizeBytes,
			FileSuffix:     suffix,
			OnlineEditable: true,
		})
		if err != nil {
			return convertStoreErr(err)
		}

		if _, err := q.CreateContent(ctx, database.CreateContentParams{
			ID:         node.ID,
			OwnerID:    ownerID,
			Name:       arg.Name,
			Body:       arg.Body,
			FileSuffix: suffix,
		}); err != nil {
			return err
		}

		return q.LogEvent(ctx, ownerID, "file_created", node)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidateRecent(ctx, ownerID)
	s.notify(ownerID, "file_created", node)
	return node, nil
}

type UpdateOnlineEditFileParams struct {
	FileID    string
	Body      string
	SizeBytes int64
}

// UpdateOnlineEditFile podmienia treść w miejscu; pula online-edit dostaje
// used - stary + nowy rozmiar w tej samej transakcji.
func (s *Service) UpdateOnlineEditFile(ctx context.Context, ownerID string, arg UpdateOnlineEditFileParams) (*models.Node, error) {
	if arg.SizeBytes < 0 {
		return nil, fmt.Errorf("%w: negative file size", ErrValidation)
	}
	if len(arg.Body) > MaxContentBytes {
		return nil, fmt.Errorf("%w: content exceeds %d bytes", ErrValidation, MaxContentBytes)
	}

	var node *models.Node
	txErr := s.store.ExecTx(ctx, func(q *database.Queries) error {
		var err error
		node, err = q.GetNodeByID(ctx, arg.FileID, ownerID)
		if err != nil {
			return err
		}
		if node == nil || node.IsFolder || !node.OnlineEditable {
			return fmt.Errorf("%w: online editable file", ErrNotFound)
		}

		ledger, err := q.GetQuotaForUpdate(ctx, ownerID)
		if err != nil {
			return err
		}
		if ledger == nil {
			return fmt.Errorf("quota ledger missing for user %s", ownerID)
		}

		var oldSize int64
		if node.SizeBytes != nil {
			oldSize = *node.SizeBytes
		}
		if !ledger.ReplaceOnlineEditUsed(oldSize, arg.SizeBytes) {
			return ErrQuotaExceeded
		}
		if err := q.UpdateQuotaUsage(ctx, ledger); err != nil {
			return err
		}

		now := time.Now()
		if _, err := q.UpdateNodeSize(ctx, node.ID, ownerID, arg.SizeBytes, now); err != nil {
			return err
		}
		ok, err := q.UpdateContentBody(ctx, node.ID, ownerID, arg.Body, now)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: file content", ErrNotFound)
		}

		node.SizeBytes = &arg.SizeBytes
		node.UpdatedAt = now

		return q.LogEvent(ctx, ownerID, "file_updated", node)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidatePaths(ctx, ownerID, node.ID)
	s.invalidateRecent(ctx, ownerID)
	s.notify(ownerID, "file_updated", node)
	return node, nil
}

type OnlineEditFile struct {
	Node    *models.Node    `json:"node"`
	Content *models.Content `json:"content"`
}

func (s *Service) GetOnlineEditFile(ctx context.Context, ownerID string, fileID string) (*OnlineEditFile, error) {
	node, err := s.store.GetNodeByID(ctx, fileID, ownerID)
	if err != nil {
		return nil, err
	}
	if node == nil || node.IsFolder || !node.OnlineEditable {
		return nil, fmt.Errorf("%w: online editable file", ErrNotFound)
	}

	content, err := s.store.GetContent(ctx, fileID, ownerID)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, fmt.Errorf("%w: file content", ErrNotFound)
	}

	return &OnlineEditFile{Node: node, Content: content}, nil
}

type ListParams struct {
	ParentID *string
	// Kind: "" = wszystko, "file" lub "folder".
	Kind string
	// Editable: nil = wszystko; filtr dotyczy tylko plików.
	Editable *bool
}

// List zwraca żywe dzieci wskazanego folderu: foldery przed plikami, w
// obrębie grupy rosnąco po czasie modyfikacji.
func (s *Service) List(ctx context.Context, ownerID string, arg ListParams) ([]models.Node, error) {
	switch arg.Kind {
	case "", "file", "folder":
	default:
		return nil, fmt.Errorf("%w: unknown node kind %q", ErrValidation, arg.Kind)
	}

	return s.store.ListChildren(ctx, database.ListChildrenParams{
		OwnerID:  ownerID,
		ParentID: arg.ParentID,
		Kind:     arg.Kind,
		Editable: arg.Editable,
	})
}

type SearchResult struct {
	models.Node
	Path []models.PathEntry `json:"path"`
}

func (s *Service) Search(ctx context.Context, ownerID string, namePart string) ([]SearchResult, error) {
	if strings.TrimSpace(namePart) == "" {
		return nil, fmt.Errorf("%w: search term cannot be empty", ErrValidation)
	}

	files, err := s.store.SearchFilesByName(ctx, ownerID, namePart)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(files))
	for _, f := range files {
		result := SearchResult{Node: f, Path: []models.PathEntry{}}
		if f.ParentID != nil {
			entries, err := s.ResolvePath(ctx, ownerID, *f.ParentID)
			if err != nil {
				return nil, err
			}
			result.Path = entries
		}
		results = append(results, result)
	}

	return results, nil
}

type RecycleBinItem struct {
	models.Node
	Path []models.PathEntry `json:"path"`
}

type RecycleBinPage struct {
	Items []RecycleBinItem `json:"items"`
	Total int64            `json:"total"`
}

// RecycleBin listuje rekordy z tombstone'em wraz ze ścieżką ich dawnego
// położenia.
func (s *Service) RecycleBin(ctx context.Context, ownerID string, limit int, offset int) (*RecycleBinPage, error) {
	total, err := s.store.CountRecycleBin(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	nodes, err := s.store.ListRecycleBin(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}

	items := make([]RecycleBinItem, 0, len(nodes))
	for _, n := range nodes {
		item := RecycleBinItem{Node: n, Path: []models.PathEntry{}}
		if n.ParentID != nil {
			entries, err := s.ResolvePath(ctx, ownerID, *n.ParentID)
			if err != nil {
				return nil, err
			}
			item.Path = entries
		}
		items = append(items, item)
	}

	return &RecycleBinPage{Items: items, Total: total}, nil
}

// convertStoreErr tłumaczy sentinele warstwy bazy na taksonomię operacji.
func convertStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrDuplicateNodeName):
		return ErrNameConflict
	case errors.Is(err, database.ErrParentNotFound):
		return fmt.Errorf("%w: target folder", ErrNotFound)
	default:
		return err
	}
}
