package hierarchy

import (
	"context"
	"fmt"
	"log"
	"time"

	"chmura-plikow/internal/database"
	"chmura-plikow/internal/models"
)

// Move przepina węzeł pod nowego rodzica (nil = katalog główny).
// Kontrola cyklu idzie po łańcuchu przodków celu; kolizja nazw liczona
// wyłącznie wśród żywego rodzeństwa w miejscu docelowym.
func (s *Service) Move(ctx context.Context, ownerID string, nodeID string, newParentID *string) error {
	var node *models.Node
	var oldParentID *string

	txErr := s.store.ExecTx(ctx, func(q *database.Queries) error {
		var err error
		node, err = q.GetNodeByID(ctx, nodeID, ownerID)
		if err != nil {
			return err
		}
		if node == nil {
			return ErrNotFound
		}
		oldParentID = node.ParentID

		if newParentID != nil {
			if *newParentID == nodeID {
				return ErrCycle
			}
			newParent, err := q.GetNodeByID(ctx, *newParentID, ownerID)
			if err != nil {
				return err
			}
			if newParent == nil || !newParent.IsFolder {
				return fmt.Errorf("%w: target folder", ErrNotFound)
			}

			if node.IsFolder {
				chain, err := q.AncestorChain(ctx, *newParentID, ownerID)
				if err != nil {
					return err
				}
				for _, ancestor := range chain {
					if ancestor.ID == nodeID {
						return ErrCycle
					}
				}
			}
		}

		if err := checkSiblingConflict(ctx, q, ownerID, newParentID, node.Name); err != nil {
			return err
		}

		ok, err := q.UpdateNodeParent(ctx, nodeID, ownerID, newParentID)
		if err != nil {
			return convertStoreErr(err)
		}
		if !ok {
			return ErrNotFound
		}

		return q.LogEvent(ctx, ownerID, "node_moved", map[string]interface{}{
			"id":            nodeID,
			"old_parent_id": oldParentID,
			"new_parent_id": newParentID,
		})
	})
	if txErr != nil {
		return txErr
	}

	// Łańcuchy wszystkich potomków przesuniętego folderu zmieniły się
	// razem z nim — ich wpisy też muszą wylecieć z cache.
	stale := []string{nodeID}
	if oldParentID != nil {
		stale = append(stale, *oldParentID)
	}
	if newParentID != nil {
		stale = append(stale, *newParentID)
	}
	if node.IsFolder {
		stale = append(stale, s.subtreeIDs(ctx, ownerID, nodeID)...)
	}
	s.invalidatePaths(ctx, ownerID, stale...)
	s.invalidateRecent(ctx, ownerID)
	s.notify(ownerID, "node_moved", map[string]interface{}{
		"id":            nodeID,
		"old_parent_id": oldParentID,
		"new_parent_id": newParentID,
	})

	return nil
}

// Rename zmienia nazwę i sufiks; dla plików edytowalnych online lustrzanie
// aktualizuje rekord treści. Kolizję liczymy tylko wśród żywego rodzeństwa —
// rekord w koszu nie blokuje nazwy.
func (s *Service) Rename(ctx context.Context, ownerID string, nodeID string, newName string) (*models.Node, error) {
	if err := validateName(newName); err != nil {
		return nil, err
	}

	var node *models.Node
	txErr := s.store.ExecTx(ctx, func(q *database.Queries) error {
		var err error
		node, err = q.GetNodeByID(ctx, nodeID, ownerID)
		if err != nil {
			return err
		}
		if node == nil {
			return ErrNotFound
		}
		if node.Name == newName {
			return nil
		}

		if err := checkSiblingConflict(ctx, q, ownerID, node.ParentID, newName); err != nil {
			return err
		}

		var newSuffix *string
		if !node.IsFolder {
			newSuffix = fileSuffix(newName)
		}

		ok, err := q.UpdateNodeName(ctx, nodeID, ownerID, newName, newSuffix)
		if err != nil {
			return convertStoreErr(err)
		}
		if !ok {
			return ErrNotFound
		}

		if node.OnlineEditable {
			if _, err := q.UpdateContentName(ctx, nodeID, ownerID, newName, newSuffix); err != nil {
				return err
			}
		}

		node, err = q.GetNodeByID(ctx, nodeID, ownerID)
		if err != nil {
			return err
		}

		return q.LogEvent(ctx, ownerID, "node_renamed", node)
	})
	if txErr != nil {
		return nil, txErr
	}

	stale := []string{nodeID}
	if node.IsFolder {
		stale = append(stale, s.subtreeIDs(ctx, ownerID, nodeID)...)
	}
	s.invalidatePaths(ctx, ownerID, stale...)
	s.invalidateRecent(ctx, ownerID)
	s.notify(ownerID, "node_renamed", node)

	return node, nil
}

// SoftDelete przenosi węzeł do kosza. Całe poddrzewo ładowane jest jednym
// zapytaniem i tombstone'owane jednym UPDATE — razem z rekordami treści
// plików edytowalnych — w jednej transakcji.
func (s *Service) SoftDelete(ctx context.Context, ownerID string, nodeID string) error {
	var staleIDs []string

	txErr := s.store.ExecTx(ctx, func(q *database.Queries) error {
		node, err := q.GetNodeByID(ctx, nodeID, ownerID)
		if err != nil {
			return err
		}
		if node == nil {
			return ErrNotFound
		}

		subtree, err := q.SubtreeNodes(ctx, nodeID, ownerID)
		if err != nil {
			return err
		}

		var nodeIDs, contentIDs []string
		for _, n := range subtree {
			nodeIDs = append(nodeIDs, n.ID)
			if !n.IsFolder && n.OnlineEditable {
				contentIDs = append(contentIDs, n.ID)
			}
		}
		staleIDs = nodeIDs

		now := time.Now()
		if _, err := q.SoftDeleteNodes(ctx, nodeIDs, now); err != nil {
			return err
		}
		if len(contentIDs) > 0 {
			if _, err := q.SoftDeleteContents(ctx, contentIDs, now); err != nil {
				return err
			}
		}

		return q.LogEvent(ctx, ownerID, "node_trashed", map[string]interface{}{
			"id":    nodeID,
			"count": len(nodeIDs),
		})
	})
	if txErr != nil {
		return txErr
	}

	s.invalidatePaths(ctx, ownerID, staleIDs...)
	s.invalidateRecent(ctx, ownerID)
	s.notify(ownerID, "node_trashed", map[string]interface{}{"id": nodeID})

	return nil
}

// HardDelete usuwa poddrzewo nieodwracalnie. Zwroty do obu pul licznika
// commitują się razem z DELETE; fizyczne kasowanie obiektów OSS idzie po
// commicie i jego porażka nie cofa metadanych — nieusunięte obiekty trafiają
// do dziennika rekoncyliacji.
func (s *Service) HardDelete(ctx context.Context, ownerID string, nodeID string) error {
	var staleIDs []string
	var ossPaths []string

	txErr := s.store.ExecTx(ctx, func(q *database.Queries) error {
		node, err := q.GetNodeAnyState(ctx, nodeID, ownerID)
		if err != nil {
			return err
		}
		if node == nil {
			return ErrNotFound
		}

		subtree, err := q.SubtreeNodes(ctx, nodeID, ownerID)
		if err != nil {
			return err
		}

		var nodeIDs, contentIDs []string
		var uploadBytes, onlineBytes int64
		for _, n := range subtree {
			nodeIDs = append(nodeIDs, n.ID)
			if n.IsFolder {
				continue
			}
			var size int64
			if n.SizeBytes != nil {
				size = *n.SizeBytes
			}
			if n.OnlineEditable {
				contentIDs = append(contentIDs, n.ID)
				onlineBytes += size
			} else {
				uploadBytes += size
				if n.OssPath != nil && *n.OssPath != "" {
					ossPaths = append(ossPaths, *n.OssPath)
				}
			}
		}
		staleIDs = nodeIDs

		ledger, err := q.GetQuotaForUpdate(ctx, ownerID)
		if err != nil {
			return err
		}
		if ledger == nil {
			return fmt.Errorf("quota ledger missing for user %s", ownerID)
		}
		ledger.DecreaseUploadUsed(uploadBytes)
		ledger.DecreaseOnlineEditUsed(onlineBytes)
		if err := q.UpdateQuotaUsage(ctx, ledger); err != nil {
			return err
		}

		if len(contentIDs) > 0 {
			if _, err := q.HardDeleteContents(ctx, contentIDs); err != nil {
				return err
			}
		}
		if _, err := q.HardDeleteNodes(ctx, nodeIDs); err != nil {
			return err
		}

		return q.LogEvent(ctx, ownerID, "node_deleted", map[string]interface{}{
			"id":    nodeID,
			"count": len(nodeIDs),
		})
	})
	if txErr != nil {
		return txErr
	}

	for _, ossPath := range ossPaths {
		ok, err := s.objects.DeleteObject(ctx, ossPath)
		if err != nil || !ok {
			log.Printf("WARN: Failed to delete object %s from storage: %v", ossPath, err)
			reason := "delete rejected by oss-control-service"
			if err != nil {
				reason = err.Error()
			}
			if recErr := s.store.RecordOrphanedObject(ctx, ownerID, ossPath, reason); recErr != nil {
				log.Printf("WARN: Failed to record orphaned object %s: %v", ossPath, recErr)
			}
		}
	}

	s.invalidatePaths(ctx, ownerID, staleIDs...)
	s.invalidateRecent(ctx, ownerID)
	s.notify(ownerID, "node_deleted", map[string]interface{}{"id": nodeID})

	return nil
}

// ReconcileOrphans domyka sprzątanie po nieudanych usunięciach z OSS:
// ponawia delete dla zaległych wpisów i oznacza trafione jako rozliczone.
// Wpisy, których nadal nie da się usunąć, zostają w kolejce na następny
// przebieg. Zwraca liczbę rozliczonych obiektów.
func (s *Service) ReconcileOrphans(ctx context.Context, batchSize int) (int, error) {
	orphans, err := s.store.ListOrphanedObjects(ctx, batchSize)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, orphan := range orphans {
		ok, err := s.objects.DeleteObject(ctx, orphan.OssPath)
		if err != nil || !ok {
			log.Printf("WARN: Orphan %s still undeletable: %v", orphan.OssPath, err)
			continue
		}
		if err := s.store.MarkOrphanResolved(ctx, orphan.ID); err != nil {
			log.Printf("WARN: Failed to mark orphan %d resolved: %v", orphan.ID, err)
			continue
		}
		resolved++
	}

	return resolved, nil
}

type RestoreResult struct {
	// RestoredNames to nazwy wskrzeszonych rekordów w kolejności
	// przywracania.
	RestoredNames []string           `json:"restored_names"`
	Path          []models.PathEntry `json:"path_entries"`
	FullPath      string             `json:"path"`
}

// Restore wyciąga rekord z kosza. Folder wskrzesza całe tombstone'owane
// poddrzewo; plik wskrzesza dodatkowo swoich usuniętych przodków aż do
// pierwszego żywego, żeby był osiągalny z korzenia.
func (s *Service) Restore(ctx context.Context, ownerID string, nodeID string) (*RestoreResult, error) {
	result := &RestoreResult{RestoredNames: []string{}, Path: []models.PathEntry{}}
	var staleIDs []string

	txErr := s.store.ExecTx(ctx, func(q *database.Queries) error {
		target, err := q.GetNodeAnyState(ctx, nodeID, ownerID)
		if err != nil {
			return err
		}
		if target == nil || target.DeletedAt == nil {
			return fmt.Errorf("%w: node is not in the recycle bin", ErrNotFound)
		}

		var nodeIDs, contentIDs []string

		if target.IsFolder {
			doomed, err := q.DeletedSubtreeNodes(ctx, nodeID, ownerID)
			if err != nil {
				return err
			}
			for _, n := range doomed {
				nodeIDs = append(nodeIDs, n.ID)
				result.RestoredNames = append(result.RestoredNames, n.Name)
				if !n.IsFolder && n.OnlineEditable {
					contentIDs = append(contentIDs, n.ID)
				}
			}
		} else {
			chain, err := q.AncestorChain(ctx, nodeID, ownerID)
			if err != nil {
				return err
			}
			// Od liścia w górę, do pierwszego żywego przodka.
			for i := len(chain) - 1; i >= 0; i-- {
				if chain[i].DeletedAt == nil {
					break
				}
				nodeIDs = append(nodeIDs, chain[i].ID)
				result.RestoredNames = append(result.RestoredNames, chain[i].Name)
			}
			if target.OnlineEditable {
				contentIDs = append(contentIDs, nodeID)
			}
		}
		staleIDs = nodeIDs

		if _, err := q.RestoreNodes(ctx, nodeIDs); err != nil {
			return convertStoreErr(err)
		}
		if len(contentIDs) > 0 {
			if _, err := q.RestoreContents(ctx, contentIDs); err != nil {
				return err
			}
		}

		chain, err := q.AncestorChain(ctx, nodeID, ownerID)
		if err != nil {
			return err
		}
		for _, n := range chain {
			result.Path = append(result.Path, models.PathEntry{ID: n.ID, Name: n.Name, UpdatedAt: n.UpdatedAt})
		}
		result.FullPath = fullPath(result.Path)

		return q.LogEvent(ctx, ownerID, "node_restored", map[string]interface{}{
			"id":   nodeID,
			"path": result.FullPath,
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidatePaths(ctx, ownerID, staleIDs...)
	s.invalidateRecent(ctx, ownerID)
	s.notify(ownerID, "node_restored", map[string]interface{}{"id": nodeID, "path": result.FullPath})

	return result, nil
}

// subtreeIDs czyta identyfikatory poddrzewa poza transakcją — wyłącznie na
// potrzeby inwalidacji cache, więc błąd jest tylko logowany.
func (s *Service) subtreeIDs(ctx context.Context, ownerID string, nodeID string) []string {
	subtree, err := s.store.SubtreeNodes(ctx, nodeID, ownerID)
	if err != nil {
		log.Printf("WARN: Failed to load subtree of %s for cache invalidation: %v", nodeID, err)
		return nil
	}
	ids := make([]string, 0, len(subtree))
	for _, n := range subtree {
		ids = append(ids, n.ID)
	}
	return ids
}
