package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VotesApplied counts vote state machine transitions by target kind
	// and transition (cast, flip, unvote).
	VotesApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "briar_votes_applied_total",
		Help: "Vote transitions applied, by target kind and transition.",
	}, []string{"kind", "transition"})

	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "briar_comments_created_total",
		Help: "Comments created.",
	})

	// CommentsDeleted is labelled by mode: tombstone or hard.
	CommentsDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "briar_comments_deleted_total",
		Help: "Comments deleted, by deletion mode.",
	}, []string{"mode"})

	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "briar_posts_created_total",
		Help: "Posts created.",
	})
)
