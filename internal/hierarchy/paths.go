package hierarchy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"chmura-plikow/internal/cache"
	"chmura-plikow/internal/models"
)

// Klucz zawiera właściciela, żeby wpis jednego konta nigdy nie był
// serwowany innemu.
func pathCacheKey(ownerID string, nodeID string) string {
	return "path-cache-id:" + ownerID + ":" + nodeID
}

// ResolvePath zwraca łańcuch przodków węzła od korzenia do niego samego.
// Trafienie w cache omija bazę; pudło albo błąd cache przechodzi na
// zapytanie rekurencyjne, a wynik jest odkładany best-effort.
func (s *Service) ResolvePath(ctx context.Context, ownerID string, nodeID string) ([]models.PathEntry, error) {
	key := pathCacheKey(ownerID, nodeID)

	if raw, err := s.cache.Get(ctx, key); err == nil {
		var entries []models.PathEntry
		if jsonErr := json.Unmarshal([]byte(raw), &entries); jsonErr == nil {
			return entries, nil
		}
		log.Printf("WARN: Corrupted path cache entry for node %s, falling back to database", nodeID)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("WARN: Path cache read failed for node %s: %v", nodeID, err)
	}

	chain, err := s.store.AncestorChain(ctx, nodeID, ownerID)
	if err != nil {
		return nil, convertStoreErr(err)
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: node %s", ErrNotFound, nodeID)
	}

	entries := make([]models.PathEntry, 0, len(chain))
	for _, n := range chain {
		entries = append(entries, models.PathEntry{ID: n.ID, Name: n.Name, UpdatedAt: n.UpdatedAt})
	}

	if raw, err := json.Marshal(entries); err == nil {
		if setErr := s.cache.Set(ctx, key, string(raw), s.pathTTL); setErr != nil {
			log.Printf("WARN: Path cache write failed for node %s: %v", nodeID, setErr)
		}
	}

	return entries, nil
}

// invalidatePaths usuwa wpisy ścieżek dla podanych węzłów. Porażka jest
// logowana i połykana — przeterminowany wpis i tak wygaśnie po TTL.
func (s *Service) invalidatePaths(ctx context.Context, ownerID string, nodeIDs ...string) {
	if len(nodeIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		keys = append(keys, pathCacheKey(ownerID, id))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Printf("WARN: Path cache invalidation failed for %d keys: %v", len(keys), err)
	}
}

// fullPath skleja łańcuch w tekstową ścieżkę od korzenia.
func fullPath(entries []models.PathEntry) string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return "/" + strings.Join(names, "/")
}
