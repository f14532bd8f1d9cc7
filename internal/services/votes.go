package services

import (
	"context"

	"briar/internal/apperr"
	"briar/internal/metrics"
	"briar/internal/models"
	"briar/internal/store"
)

// VoteService applies vote, change-vote and unvote transitions. Every
// transition issues its ledger mutation and both counter increments
// (target rating, author aggregate rating) inside one store
// transaction, with the ledger written first.
type VoteService struct {
	store  store.Store
	ledger *RateLedger
}

func NewVoteService(st store.Store) *VoteService {
	return &VoteService{store: st, ledger: NewRateLedger(st)}
}

// VoteResult is the updated target projected through the standard
// rated shape.
type VoteResult struct {
	Kind     models.TargetKind `json:"kind"`
	TargetID uint              `json:"target_id"`
	Rating   float64           `json:"rating"`
	Rated    models.RatedInfo  `json:"rated"`
}

// target is the tagged variant the state machine dispatches on: a kind
// plus the per-kind accessors resolved up front.
type target struct {
	kind     models.TargetKind
	id       uint
	authorID uint
}

func loadTarget(ctx context.Context, st store.Store, kind models.TargetKind, id uint) (*target, error) {
	switch kind {
	case models.KindPost:
		p, err := st.GetPost(ctx, id)
		if err != nil {
			return nil, err
		}
		return &target{kind: kind, id: id, authorID: p.UserID}, nil
	case models.KindComment:
		c, err := st.GetComment(ctx, id)
		if err != nil {
			return nil, err
		}
		if c.Deleted {
			return nil, apperr.NotFoundf("comment not found")
		}
		return &target{kind: kind, id: id, authorID: c.UserID}, nil
	default:
		return nil, apperr.BadRequestf("unknown target kind %q", kind)
	}
}

func addTargetRating(ctx context.Context, st store.Store, kind models.TargetKind, id uint, delta float64) error {
	if kind == models.KindComment {
		return st.AddCommentRating(ctx, id, delta)
	}
	return st.AddPostRating(ctx, id, delta)
}

func targetRating(ctx context.Context, st store.Store, kind models.TargetKind, id uint) (float64, error) {
	if kind == models.KindComment {
		c, err := st.GetComment(ctx, id)
		if err != nil {
			return 0, err
		}
		return c.Rating, nil
	}
	p, err := st.GetPost(ctx, id)
	if err != nil {
		return 0, err
	}
	return p.Rating, nil
}

// Vote casts a new vote or flips an existing one.
func (s *VoteService) Vote(ctx context.Context, voterID uint, kind models.TargetKind, targetID uint, negative bool) (*VoteResult, error) {
	var result *VoteResult
	var transition string

	err := s.store.Atomically(ctx, func(tx store.Store) error {
		t, err := loadTarget(ctx, tx, kind, targetID)
		if err != nil {
			return err
		}
		if t.authorID == voterID {
			return apperr.Forbiddenf("cannot rate your own %s", kind)
		}

		unit := kind.UnitValue()
		sign := 1.0
		if negative {
			sign = -1.0
		}

		ledger := s.ledger.bind(tx)
		existing, err := ledger.Find(ctx, voterID, kind, targetID)

		var delta float64
		switch {
		case err == nil && existing.Negative == negative:
			return apperr.Forbiddenf("already rated in that direction")
		case err == nil:
			// Flip: double the unit in the new direction cancels the
			// old vote and applies the new one in a single step.
			delta = sign * unit * 2
			if err := ledger.SetNegative(ctx, existing.ID, negative); err != nil {
				return err
			}
			transition = "flip"
		case apperr.Is(err, apperr.NotFound):
			delta = sign * unit
			if _, err := ledger.Create(ctx, voterID, kind, targetID, negative); err != nil {
				return err
			}
			transition = "cast"
		default:
			return err
		}

		if err := addTargetRating(ctx, tx, kind, targetID, delta); err != nil {
			return err
		}
		if err := tx.AddUserRating(ctx, t.authorID, delta); err != nil {
			return err
		}

		rating, err := targetRating(ctx, tx, kind, targetID)
		if err != nil {
			return err
		}
		result = &VoteResult{
			Kind:     kind,
			TargetID: targetID,
			Rating:   rating,
			Rated:    models.RatedInfo{IsRated: true, Negative: negative},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.VotesApplied.WithLabelValues(string(kind), transition).Inc()
	return result, nil
}

// Unvote withdraws the voter's rate, reversing its effect exactly.
func (s *VoteService) Unvote(ctx context.Context, voterID uint, kind models.TargetKind, targetID uint) (*VoteResult, error) {
	var result *VoteResult

	err := s.store.Atomically(ctx, func(tx store.Store) error {
		t, err := loadTarget(ctx, tx, kind, targetID)
		if err != nil {
			return err
		}

		ledger := s.ledger.bind(tx)
		existing, err := ledger.Find(ctx, voterID, kind, targetID)
		if err != nil {
			if apperr.Is(err, apperr.NotFound) {
				return apperr.Forbiddenf("target is not rated")
			}
			return err
		}

		unit := kind.UnitValue()
		delta := -unit
		if existing.Negative {
			delta = unit
		}

		if err := ledger.Delete(ctx, existing.ID); err != nil {
			return err
		}
		if err := addTargetRating(ctx, tx, kind, targetID, delta); err != nil {
			return err
		}
		if err := tx.AddUserRating(ctx, t.authorID, delta); err != nil {
			return err
		}

		rating, err := targetRating(ctx, tx, kind, targetID)
		if err != nil {
			return err
		}
		result = &VoteResult{
			Kind:     kind,
			TargetID: targetID,
			Rating:   rating,
			Rated:    models.RatedInfo{},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.VotesApplied.WithLabelValues(string(kind), "unvote").Inc()
	return result, nil
}
