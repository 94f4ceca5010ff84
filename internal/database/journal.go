package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// LogEvent dopisuje zdarzenie do dziennika użytkownika w bieżącej
// transakcji; hub websocketowy publikuje je dopiero po commicie.
func (q *Queries) LogEvent(ctx context.Context, userID string, eventType string, payload interface{}) error {
	eventMsg := map[string]interface{}{
		"event_type": eventType,
		"payload":    payload,
	}
	eventBytes, err := json.Marshal(eventMsg)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	query := `INSERT INTO event_journal (user_id, event_type, payload) VALUES ($1, $2, $3)`
	_, err = q.db.Exec(ctx, query, userID, eventType, eventBytes)
	return err
}

type Event struct {
	ID        int64           `json:"id"`
	EventType string          `json:"event_type"`
	EventTime time.Time       `json:"event_time"`
	Payload   json.RawMessage `json:"payload"`
}

func (q *Queries) GetEventsSince(ctx context.Context, userID string, sinceID int64) ([]Event, error) {
	query := `
		SELECT id, event_type, event_time, payload
		FROM event_journal
		WHERE user_id = $1 AND id > $2
		ORDER BY id ASC
		LIMIT 100
	`
	rows, err := q.db.Query(ctx, query, userID, sinceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		err := rows.Scan(
			&event.ID,
			&event.EventType,
			&event.EventTime,
			&event.Payload,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if events == nil {
		return []Event{}, nil
	}

	return events, nil
}

// RecordOrphanedObject odnotowuje obiekt OSS, którego fizyczne usunięcie
// się nie powiodło. Metadane już nie istnieją — sprzątanie jest
// at-least-once i domyka je proces poza ścieżką żądania.
func (q *Queries) RecordOrphanedObject(ctx context.Context, ownerID string, ossPath string, reason string) error {
	query := `INSERT INTO oss_reconciliation (owner_id, oss_path, reason) VALUES ($1, $2, $3)`
	_, err := q.db.Exec(ctx, query, ownerID, ossPath, reason)
	return err
}

type OrphanedObject struct {
	ID         int64      `json:"id"`
	OwnerID    string     `json:"owner_id"`
	OssPath    string     `json:"oss_path"`
	Reason     string     `json:"reason"`
	RecordedAt time.Time  `json:"recorded_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

func (q *Queries) ListOrphanedObjects(ctx context.Context, limit int) ([]OrphanedObject, error) {
	query := `
		SELECT id, owner_id, oss_path, reason, recorded_at, resolved_at
		FROM oss_reconciliation
		WHERE resolved_at IS NULL
		ORDER BY id ASC
		LIMIT $1
	`
	rows, err := q.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orphans []OrphanedObject
	for rows.Next() {
		var o OrphanedObject
		if err := rows.Scan(&o.ID, &o.OwnerID, &o.OssPath, &o.Reason, &o.RecordedAt, &o.ResolvedAt); err != nil {
			return nil, err
		}
		orphans = append(orphans, o)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if orphans == nil {
		return []OrphanedObject{}, nil
	}

	return orphans, nil
}

func (q *Queries) MarkOrphanResolved(ctx context.Context, id int64) error {
	query := `UPDATE oss_reconciliation SET resolved_at = $1 WHERE id = $2 AND resolved_at IS NULL`
	_, err := q.db.Exec(ctx, query, time.Now(), id)
	return err
}
