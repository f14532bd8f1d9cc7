package services

import (
	"context"

	"briar/internal/models"
	"briar/internal/store"
)

// RateLedger is the one-record-per-(voter,target) vote store. It has
// no side effects beyond the ledger itself; the vote state machine is
// responsible for coordinating counter updates.
type RateLedger struct {
	store store.Store
}

func NewRateLedger(st store.Store) *RateLedger {
	return &RateLedger{store: st}
}

// bind returns the ledger over a transactional store view.
func (l *RateLedger) bind(st store.Store) *RateLedger {
	return &RateLedger{store: st}
}

// Find returns the voter's rate for a target, or NotFound.
func (l *RateLedger) Find(ctx context.Context, voterID uint, kind models.TargetKind, targetID uint) (*models.Rate, error) {
	return l.store.FindRate(ctx, voterID, kind, targetID)
}

// Create inserts a new rate. A second rate for the same
// (voter, target) hits the store's composite unique index and comes
// back as Conflict.
func (l *RateLedger) Create(ctx context.Context, voterID uint, kind models.TargetKind, targetID uint, negative bool) (*models.Rate, error) {
	r := &models.Rate{
		UserID:     voterID,
		TargetKind: kind,
		TargetID:   targetID,
		Negative:   negative,
	}
	if err := l.store.CreateRate(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// SetNegative flips the stored direction of an existing rate in place.
func (l *RateLedger) SetNegative(ctx context.Context, rateID uint, negative bool) error {
	return l.store.SetRateNegative(ctx, rateID, negative)
}

func (l *RateLedger) Delete(ctx context.Context, rateID uint) error {
	return l.store.DeleteRate(ctx, rateID)
}

// ForTargets is the indexed batch lookup used when projecting lists
// and trees: one query instead of rescanning the voter's whole rate
// collection per node.
func (l *RateLedger) ForTargets(ctx context.Context, voterID uint, kind models.TargetKind, targetIDs []uint) (map[uint]models.Rate, error) {
	if voterID == 0 || len(targetIDs) == 0 {
		return nil, nil
	}
	rates, err := l.store.ListRates(ctx, voterID, kind, targetIDs)
	if err != nil {
		return nil, err
	}
	byTarget := make(map[uint]models.Rate, len(rates))
	for _, r := range rates {
		byTarget[r.TargetID] = r
	}
	return byTarget, nil
}
