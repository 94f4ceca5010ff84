package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chmura-plikow/internal/models"

	"github.com/jackc/pgx/v5"
)

const nodeColumns = `id, owner_id, parent_id, name, is_folder, oss_path, size_bytes, file_suffix, online_editable, created_at, updated_at, deleted_at`

func scanNode(row pgx.Row) (*models.Node, error) {
	var node models.Node
	err := row.Scan(
		&node.ID,
		&node.OwnerID,
		&node.ParentID,
		&node.Name,
		&node.IsFolder,
		&node.OssPath,
		&node.SizeBytes,
		&node.FileSuffix,
		&node.OnlineEditable,
		&node.CreatedAt,
		&node.UpdatedAt,
		&node.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func collectNodes(rows pgx.Rows) ([]models.Node, error) {
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, *node)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if nodes == nil {
		return []models.Node{}, nil
	}

	return nodes, nil
}

type CreateNodeParams struct {
	ID             string
	OwnerID        string
	ParentID       *string
	Name           string
	IsFolder       bool
	OssPath        *string
	SizeBytes      *int64
	FileSuffix     *string
	OnlineEditable bool
}

func (q *Queries) CreateNode(ctx context.Context, arg CreateNodeParams) (*models.Node, error) {
	query := `
		INSERT INTO nodes (id, owner_id, parent_id, name, is_folder, oss_path, size_bytes, file_suffix, online_editable, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING ` + nodeColumns

	now := time.Now()
	row := q.db.QueryRow(ctx, query,
		arg.ID,
		arg.OwnerID,
		arg.ParentID,
		arg.Name,
		arg.IsFolder,
		arg.OssPath,
		arg.SizeBytes,
		arg.FileSuffix,
		arg.OnlineEditable,
		now,
	)

	node, err := scanNode(row)
	if err != nil {
		if isPgErr(err, "23505") {
			return nil, ErrDuplicateNodeName
		}
		if isPgErr(err, "23503") {
			return nil, ErrParentNotFound
		}
		return nil, err
	}

	return node, nil
}

// GetNodeByID zwraca żywy (nieusunięty) węzeł. Niezgodny owner_id zachowuje
// się identycznie jak brak rekordu.
func (q *Queries) GetNodeByID(ctx context.Context, id string, ownerID string) (*models.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`

	node, err := scanNode(q.db.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return node, nil
}

// GetNodeAnyState zwraca węzeł niezależnie od tombstone'a (potrzebne dla
// kosza: restore i hard delete działają na rekordach usuniętych).
func (q *Queries) GetNodeAnyState(ctx context.Context, id string, ownerID string) (*models.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE id = $1 AND owner_id = $2`

	node, err := scanNode(q.db.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return node, nil
}

type ListChildrenParams struct {
	OwnerID  string
	ParentID *string
	// Kind: "" = wszystko, "file" lub "folder".
	Kind string
	// Editable filtruje pliki po online_editable; foldery zawsze przechodzą.
	Editable *bool
	Limit    int
	Offset   int
}

func (q *Queries) ListChildren(ctx context.Context, arg ListChildrenParams) ([]models.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE owner_id = $1 AND deleted_at IS NULL`
	args := []interface{}{arg.OwnerID}

	if arg.ParentID == nil {
		query += ` AND parent_id IS NULL`
	} else {
		args = append(args, *arg.ParentID)
		query += fmt.Sprintf(` AND parent_id = $%d`, len(args))
	}

	switch arg.Kind {
	case "file":
		query += ` AND is_folder = FALSE`
	case "folder":
		query += ` AND is_folder = TRUE`
	}

	if arg.Editable != nil {
		args = append(args, *arg.Editable)
		query += fmt.Sprintf(` AND (is_folder = TRUE OR online_editable = $%d)`, len(args))
	}

	query += ` ORDER BY is_folder DESC, updated_at ASC`

	if arg.Limit > 0 {
		args = append(args, arg.Limit, arg.Offset)
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return collectNodes(rows)
}

// SiblingNameExists sprawdza kolizję nazwy wśród żywego rodzeństwa.
func (q *Queries) SiblingNameExists(ctx context.Context, ownerID string, parentID *string, name string) (bool, error) {
	var query string
	var row pgx.Row

	if parentID == nil {
		query = `SELECT EXISTS(SELECT 1 FROM nodes WHERE owner_id = $1 AND parent_id IS NULL AND name = $2 AND deleted_at IS NULL)`
		row = q.db.QueryRow(ctx, query, ownerID, name)
	} else {
		query = `SELECT EXISTS(SELECT 1 FROM nodes WHERE owner_id = $1 AND parent_id = $2 AND name = $3 AND deleted_at IS NULL)`
		row = q.db.QueryRow(ctx, query, ownerID, *parentID, name)
	}

	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

// SubtreeNodes ładuje całe poddrzewo (łącznie z korzeniem, w każdym stanie)
// jednym rekurencyjnym zapytaniem — bez wędrówki węzeł po węźle.
func (q *Queries) SubtreeNodes(ctx context.Context, id string, ownerID string) ([]models.Node, error) {
	query := `
		WITH RECURSIVE subtree AS (
			SELECT n.id, n.owner_id, n.parent_id, n.name, n.is_folder, n.oss_path, n.size_bytes,
			       n.file_suffix, n.online_editable, n.created_at, n.updated_at, n.deleted_at, 1 AS depth
			FROM nodes n
			WHERE n.id = $1 AND n.owner_id = $2

			UNION ALL

			SELECT n.id, n.owner_id, n.parent_id, n.name, n.is_folder, n.oss_path, n.size_bytes,
			       n.file_suffix, n.online_editable, n.created_at, n.updated_at, n.deleted_at, s.depth + 1
			FROM nodes n
			INNER JOIN subtree s ON n.parent_id = s.id
		)
		SELECT ` + nodeColumns + ` FROM subtree ORDER BY depth ASC, name ASC
	`

	rows, err := q.db.Query(ctx, query, id, ownerID)
	if err != nil {
		return nil, err
	}

	return collectNodes(rows)
}

// DeletedSubtreeNodes schodzi w dół wyłącznie po rekordach z tombstone'em —
// dokładnie ten zbiór wskrzesza restore folderu.
func (q *Queries) DeletedSubtreeNodes(ctx context.Context, id string, ownerID string) ([]models.Node, error) {
	query := `
		WITH RECURSIVE doomed AS (
			SELECT n.id, n.owner_id, n.parent_id, n.name, n.is_folder, n.oss_path, n.size_bytes,
			       n.file_suffix, n.online_editable, n.created_at, n.updated_at, n.deleted_at, 1 AS depth
			FROM nodes n
			WHERE n.id = $1 AND n.owner_id = $2 AND n.deleted_at IS NOT NULL

			UNION ALL

			SELECT n.id, n.owner_id, n.parent_id, n.name, n.is_folder, n.oss_path, n.size_bytes,
			       n.file_suffix, n.online_editable, n.created_at, n.updated_at, n.deleted_at, d.depth + 1
			FROM nodes n
			INNER JOIN doomed d ON n.parent_id = d.id
			WHERE n.deleted_at IS NOT NULL
		)
		SELECT ` + nodeColumns + ` FROM doomed ORDER BY depth ASC, name ASC
	`

	rows, err := q.db.Query(ctx, query, id, ownerID)
	if err != nil {
		return nil, err
	}

	return collectNodes(rows)
}

// AncestorChain zwraca łańcuch od korzenia do węzła włącznie, jednym
// zapytaniem.
func (q *Queries) AncestorChain(ctx context.Context, id string, ownerID string) ([]models.Node, error) {
	query := `
		WITH RECURSIVE chain AS (
			SELECT n.id, n.owner_id, n.parent_id, n.name, n.is_folder, n.oss_path, n.size_bytes,
			       n.file_suffix, n.online_editable, n.created_at, n.updated_at, n.deleted_at, 1 AS depth
			FROM nodes n
			WHERE n.id = $1 AND n.owner_id = $2

			UNION ALL

			SELECT n.id, n.owner_id, n.parent_id, n.name, n.is_folder, n.oss_path, n.size_bytes,
			       n.file_suffix, n.online_editable, n.created_at, n.updated_at, n.deleted_at, c.depth + 1
			FROM nodes n
			INNER JOIN chain c ON n.id = c.parent_id
		)
		SELECT ` + nodeColumns + ` FROM chain ORDER BY depth DESC
	`

	rows, err := q.db.Query(ctx, query, id, ownerID)
	if err != nil {
		return nil, err
	}

	return collectNodes(rows)
}

// IsDescendantOf odpowiada, czy potentialDescendantID leży w poddrzewie
// nodeID (albo jest nim samym) — kontrola cyklu przy move.
func (q *Queries) IsDescendantOf(ctx context.Context, nodeID string, potentialDescendantID string, ownerID string) (bool, error) {
	if nodeID == potentialDescendantID {
		return true, nil
	}

	query := `
		WITH RECURSIVE node_children AS (
			SELECT id FROM nodes WHERE id = $1 AND owner_id = $3

			UNION ALL

			SELECT n.id
			FROM nodes n
			JOIN node_children nc ON n.parent_id = nc.id
		)
		SELECT EXISTS (
			SELECT 1 FROM node_children WHERE id = $2
		)
	`
	var isDescendant bool
	err := q.db.QueryRow(ctx, query, nodeID, potentialDescendantID, ownerID).Scan(&isDescendant)
	return isDescendant, err
}

func (q *Queries) UpdateNodeName(ctx context.Context, id string, ownerID string, newName string, newSuffix *string) (bool, error) {
	query := `
		UPDATE nodes
		SET name = $1, file_suffix = COALESCE($2, file_suffix), updated_at = $3
		WHERE id = $4 AND owner_id = $5 AND deleted_at IS NULL
	`
	res, err := q.db.Exec(ctx, query, newName, newSuffix, time.Now(), id, ownerID)
	if err != nil {
		if isPgErr(err, "23505") {
			return false, ErrDuplicateNodeName
		}
		return false, err
	}

	return res.RowsAffected() > 0, nil
}

func (q *Queries) UpdateNodeParent(ctx context.Context, id string, ownerID string, newParentID *string) (bool, error) {
	query := `
		UPDATE nodes
		SET parent_id = $1, updated_at = $2
		WHERE id = $3 AND owner_id = $4 AND deleted_at IS NULL
	`
	res, err := q.db.Exec(ctx, query, newParentID, time.Now(), id, ownerID)
	if err != nil {
		if isPgErr(err, "23503") {
			return false, ErrParentNotFound
		}
		if isPgErr(err, "23505") {
			return false, ErrDuplicateNodeName
		}
		return false, err
	}

	return res.RowsAffected() > 0, nil
}

func (q *Queries) UpdateNodeSize(ctx context.Context, id string, ownerID string, sizeBytes int64, updatedAt time.Time) (bool, error) {
	query := `
		UPDATE nodes
		SET size_bytes = $1, updated_at = $2
		WHERE id = $3 AND owner_id = $4 AND deleted_at IS NULL
	`
	res, err := q.db.Exec(ctx, query, sizeBytes, updatedAt, id, ownerID)
	if err != nil {
		return false, err
	}

	return res.RowsAffected() > 0, nil
}

// SoftDeleteNodes stawia tombstone na wskazanych rekordach. Rekordy już
// usunięte zachowują pierwotny znacznik czasu.
func (q *Queries) SoftDeleteNodes(ctx context.Context, ids []string, deletedAt time.Time) (int64, error) {
	query := `UPDATE nodes SET deleted_at = $2 WHERE id = ANY($1::uuid[]) AND deleted_at IS NULL`
	res, err := q.db.Exec(ctx, query, ids, deletedAt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (q *Queries) RestoreNodes(ctx context.Context, ids []string) (int64, error) {
	query := `UPDATE nodes SET deleted_at = NULL WHERE id = ANY($1::uuid[]) AND deleted_at IS NOT NULL`
	res, err := q.db.Exec(ctx, query, ids)
	if err != nil {
		if isPgErr(err, "23505") {
			return 0, ErrDuplicateNodeName
		}
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (q *Queries) HardDeleteNodes(ctx context.Context, ids []string) (int64, error) {
	query := `DELETE FROM nodes WHERE id = ANY($1::uuid[])`
	res, err := q.db.Exec(ctx, query, ids)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

// Korzeniem usunięcia jest rekord z tombstone'em, którego rodzic żyje albo
// nie istnieje; potomkowie wiszą pod nim i wracają razem z nim.
const recycleBinRootCond = `
	owner_id = $1 AND deleted_at IS NOT NULL
	AND (parent_id IS NULL OR EXISTS(
		SELECT 1 FROM nodes p WHERE p.id = nodes.parent_id AND p.deleted_at IS NULL
	))`

func (q *Queries) ListRecycleBin(ctx context.Context, ownerID string, limit int, offset int) ([]models.Node, error) {
	query := `
		SELECT ` + nodeColumns + `
		FROM nodes
		WHERE ` + recycleBinRootCond + `
		ORDER BY deleted_at DESC LIMIT $2 OFFSET $3
	`
	rows, err := q.db.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}

	return collectNodes(rows)
}

func (q *Queries) CountRecycleBin(ctx context.Context, ownerID string) (int64, error) {
	var total int64
	query := `SELECT count(*) FROM nodes WHERE ` + recycleBinRootCond
	err := q.db.QueryRow(ctx, query, ownerID).Scan(&total)
	return total, err
}

func (q *Queries) RecentFiles(ctx context.Context, ownerID string, limit int) ([]models.Node, error) {
	query := `
		SELECT ` + nodeColumns + `
		FROM nodes
		WHERE owner_id = $1 AND is_folder = FALSE AND deleted_at IS NULL
		ORDER BY updated_at DESC LIMIT $2
	`
	rows, err := q.db.Query(ctx, query, ownerID, limit)
	if err != nil {
		return nil, err
	}

	return collectNodes(rows)
}

func (q *Queries) SearchFilesByName(ctx context.Context, ownerID string, namePart string) ([]models.Node, error) {
	query := `
		SELECT ` + nodeColumns + `
		FROM nodes
		WHERE owner_id = $1 AND is_folder = FALSE AND deleted_at IS NULL AND name ILIKE '%' || $2 || '%'
		ORDER BY updated_at DESC
	`
	rows, err := q.db.Query(ctx, query, ownerID, namePart)
	if err != nil {
		return nil, err
	}

	return collectNodes(rows)
}
