package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"sihacare/m/domain"
)

// LocationFilter scopes available-stock queries to a warehouse or hospital.
// At most one field should be set; zero values mean no scoping.
type LocationFilter struct {
	WarehouseID int64
	HospitalID  int64
}

// AvailableBatches returns batches with remaining quantity that are still
// usable: created stock at a warehouse, or received stock at a hospital.
func (l *Ledger) AvailableBatches(ctx context.Context, filter LocationFilter) ([]domain.Batch, error) {
	batches := []domain.Batch{}

	switch {
	case filter.WarehouseID > 0:
		err := l.db.SelectContext(ctx, &batches,
			`SELECT * FROM batches
			 WHERE remaining_quantity > 0 AND status = ? AND warehouse_id = ?
			 ORDER BY created_at DESC, id`,
			domain.BatchCreated, filter.WarehouseID)
		if err != nil {
			return nil, fmt.Errorf("listing warehouse stock: %w", err)
		}
	case filter.HospitalID > 0:
		// Received stock belongs to the hospital its dispatch was delivered to.
		err := l.db.SelectContext(ctx, &batches,
			`SELECT DISTINCT b.* FROM batches b
			 JOIN dispatches d ON d.batch_id = b.id
			 WHERE b.remaining_quantity > 0 AND b.status = ?
			   AND d.status = ? AND d.to_hospital_id = ?
			 ORDER BY b.created_at DESC, b.id`,
			domain.BatchReceived, domain.DispatchReceived, filter.HospitalID)
		if err != nil {
			return nil, fmt.Errorf("listing hospital stock: %w", err)
		}
	default:
		err := l.db.SelectContext(ctx, &batches,
			`SELECT * FROM batches
			 WHERE remaining_quantity > 0 AND status IN (?, ?)
			 ORDER BY created_at DESC, id`,
			domain.BatchCreated, domain.BatchReceived)
		if err != nil {
			return nil, fmt.Errorf("listing available batches: %w", err)
		}
	}
	return batches, nil
}

// PendingDeliveries returns dispatches still awaiting receipt.
func (l *Ledger) PendingDeliveries(ctx context.Context) ([]domain.Dispatch, error) {
	dispatches := []domain.Dispatch{}
	err := l.db.SelectContext(ctx, &dispatches,
		`SELECT * FROM dispatches WHERE status IN (?, ?) ORDER BY dispatched_at, id`,
		domain.DispatchPending, domain.DispatchInTransit)
	if err != nil {
		return nil, fmt.Errorf("listing pending deliveries: %w", err)
	}
	return dispatches, nil
}

// AuditEvent is one entry in a batch's custody timeline.
type AuditEvent struct {
	Kind      string    `json:"kind"` // created, dispatched, received, administered
	Timestamp time.Time `json:"timestamp"`
	ActorID   int64     `json:"actor_id,omitempty"`
	Quantity  int64     `json:"quantity,omitempty"`
	RefID     string    `json:"ref_id"` // id of the batch, dispatch or usage record
}

var auditKindRank = map[string]int{
	"created":      0,
	"dispatched":   1,
	"received":     2,
	"administered": 3,
}

// AuditTrail folds a batch's creation, dispatches, receipt and usage
// records into one chronologically ordered timeline. The sort is stable by
// timestamp; ties break on event-kind precedence so that, for example, a
// dispatch never sorts before the creation it depends on.
func (l *Ledger) AuditTrail(ctx context.Context, batchID string) ([]AuditEvent, error) {
	batch, err := l.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	events := []AuditEvent{{
		Kind:      "created",
		Timestamp: batch.CreatedAt,
		ActorID:   batch.CreatedBy,
		Quantity:  batch.Quantity,
		RefID:     batch.ID,
	}}

	dispatches, err := l.ListDispatches(ctx, batchID)
	if err != nil {
		return nil, err
	}
	for _, d := range dispatches {
		events = append(events, AuditEvent{
			Kind:      "dispatched",
			Timestamp: d.DispatchedAt,
			ActorID:   d.DispatchedBy,
			Quantity:  d.Quantity,
			RefID:     d.ID,
		})
		if d.ReceivedAt != nil {
			evt := AuditEvent{
				Kind:      "received",
				Timestamp: *d.ReceivedAt,
				Quantity:  d.Quantity,
				RefID:     d.ID,
			}
			if d.ReceivedBy != nil {
				evt.ActorID = *d.ReceivedBy
			}
			events = append(events, evt)
		}
	}

	records, err := l.ListUsage(ctx, batchID)
	if err != nil {
		return nil, err
	}
	for _, u := range records {
		events = append(events, AuditEvent{
			Kind:      "administered",
			Timestamp: u.AdministeredAt,
			ActorID:   u.ClinicianID,
			Quantity:  u.Quantity,
			RefID:     u.ID,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.Before(events[j].Timestamp)
		}
		return auditKindRank[events[i].Kind] < auditKindRank[events[j].Kind]
	})
	return events, nil
}

// Stats returns the dashboard summary counts.
func (l *Ledger) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	err := l.db.GetContext(ctx, &stats,
		`SELECT
		   (SELECT COUNT(*) FROM batches) AS total_batches,
		   (SELECT COUNT(*) FROM dispatches) AS total_dispatches,
		   (SELECT COUNT(*) FROM patients) AS total_patients,
		   (SELECT COUNT(*) FROM users WHERE is_approved = 0) AS pending_approvals`)
	if err != nil {
		return stats, fmt.Errorf("computing stats: %w", err)
	}
	return stats, nil
}

// ExpiringBatches returns batches with stock left that expire within the
// given window, soonest first.
func (l *Ledger) ExpiringBatches(ctx context.Context, within time.Duration) ([]domain.Batch, error) {
	cutoff := l.now().Add(within)
	batches := []domain.Batch{}
	err := l.db.SelectContext(ctx, &batches,
		`SELECT * FROM batches
		 WHERE remaining_quantity > 0 AND expiry_date <= ?
		 ORDER BY expiry_date, id`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("listing expiring batches: %w", err)
	}
	return batches, nil
}
