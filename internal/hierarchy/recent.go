package hierarchy

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"chmura-plikow/internal/cache"
	"chmura-plikow/internal/models"
)

const recentFilesLimit = 20

func recentCacheKey(ownerID string) string {
	return "recent_files:" + ownerID
}

type RecentFile struct {
	ID             string             `json:"id"`
	Name           string             `json:"file_name"`
	FileSuffix     *string            `json:"file_suffix"`
	SizeBytes      *int64             `json:"file_size"`
	OnlineEditable bool               `json:"online_editable"`
	UpdatedAt      time.Time          `json:"update_datetime"`
	Path           []models.PathEntry `json:"path_entries"`
	FullPath       string             `json:"path"`
}

// RecentFiles zwraca ostatnio modyfikowane żywe pliki użytkownika, najnowsze
// najpierw, wraz z pełnymi ścieżkami. Cała lista trzymana jest pod jednym
// kluczem i unieważniana hurtem po każdej mutacji drzewa.
func (s *Service) RecentFiles(ctx context.Context, ownerID string) ([]RecentFile, error) {
	key := recentCacheKey(ownerID)

	if raw, err := s.cache.Get(ctx, key); err == nil {
		var files []RecentFile
		if jsonErr := json.Unmarshal([]byte(raw), &files); jsonErr == nil {
			return files, nil
		}
		log.Printf("WARN: Corrupted recent-files cache entry for user %s, falling back to database", ownerID)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("WARN: Recent-files cache read failed for user %s: %v", ownerID, err)
	}

	nodes, err := s.store.RecentFiles(ctx, ownerID, recentFilesLimit)
	if err != nil {
		return nil, convertStoreErr(err)
	}

	files := make([]RecentFile, 0, len(nodes))
	for _, n := range nodes {
		entries, err := s.ResolvePath(ctx, ownerID, n.ID)
		if err != nil {
			return nil, err
		}
		files = append(files, RecentFile{
			ID:             n.ID,
			Name:           n.Name,
			FileSuffix:     n.FileSuffix,
			SizeBytes:      n.SizeBytes,
			OnlineEditable: n.OnlineEditable,
			UpdatedAt:      n.UpdatedAt,
			Path:           entries,
			FullPath:       fullPath(entries),
		})
	}

	if raw, err := json.Marshal(files); err == nil {
		if setErr := s.cache.Set(ctx, key, string(raw), s.recentTTL); setErr != nil {
			log.Printf("WARN: Recent-files cache write failed for user %s: %v", ownerID, setErr)
		}
	}

	return files, nil
}

func (s *Service) invalidateRecent(ctx context.Context, ownerID string) {
	if err := s.cache.Delete(ctx, recentCacheKey(ownerID)); err != nil {
		log.Printf("WARN: Recent-files cache invalidation failed for user %s: %v", ownerID, err)
	}
}
