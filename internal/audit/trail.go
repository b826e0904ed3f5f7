// Append-only audit trail over the key-value store.
package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/eanlabs/bioplast/internal/metrics"
	"github.com/eanlabs/bioplast/internal/models"
	"github.com/eanlabs/bioplast/internal/store"
)

type Trail struct {
	kv  store.KV
	now func() time.Time
}

func NewTrail(kv store.KV) *Trail {
	return &Trail{kv: kv, now: time.Now}
}

// Log appends one entry. Entry ids are random uuids rather than creation
// timestamps, so two appends within the same clock tick stay distinct.
func (t *Trail) Log(action string, details map[string]any) error {
	entries, err := t.Entries()
	if err != nil {
		return err
	}

	entries = append(entries, models.AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: t.now().UTC(),
		Action:    action,
		Details:   details,
	})

	if err := store.WriteJSON(t.kv, store.KeyAuditLog, entries); err != nil {
		return err
	}

	metrics.AuditEventsTotal.WithLabelValues(action).Inc()
	return nil
}

// Entries returns the full trail in insertion order. The presentation
// layer reverses it for most-recent-first display.
func (t *Trail) Entries() ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	if err := store.ReadJSON(t.kv, store.KeyAuditLog, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Clear wipes the trail. Destructive and irreversible; the caller gates it
// behind the admin role.
func (t *Trail) Clear() error {
	return t.kv.Delete(store.KeyAuditLog)
}
