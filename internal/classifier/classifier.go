// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

package classifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/attentra/internal/database"
	"github.com/tomtom215/attentra/internal/logging"
	"github.com/tomtom215/attentra/internal/metrics"
	"github.com/tomtom215/attentra/internal/models"
)

// Sentinel errors for plan handling.
var (
	ErrPlanNotFound  = errors.New("retention plan not found")
	ErrPlanExpired   = errors.New("retention plan expired")
	ErrPlanExecuted  = errors.New("retention plan already executed")
	ErrTokenMismatch = errors.New("confirmation token mismatch")
)

// SessionStore is the slice of the metadata store the classifier needs.
type SessionStore interface {
	DistinctSessionIDs(ctx context.Context) ([]string, error)
	EventsBySession(ctx context.Context, sessionID string) ([]models.Event, error)
	DeleteEventsBySession(ctx context.Context, sessionID string) (int64, error)
}

// Plan is a computed retention decision: which sessions stay, which go.
// A plan deletes nothing by itself; execution requires the confirmation
// token and must happen before ExpiresAt.
type Plan struct {
	ID        string    `json:"planId"`
	Token     string    `json:"confirmToken"`
	Good      []string  `json:"goodSessions"`
	Bad       []string  `json:"badSessions"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Executed  bool      `json:"executed"`
}

// snapshot returns a detached copy so callers can read and encode the
// plan without holding the classifier's lock.
func (p *Plan) snapshot() *Plan {
	cp := *p
	cp.Good = append([]string(nil), p.Good...)
	cp.Bad = append([]string(nil), p.Bad...)
	return &cp
}

// ExecutionResult reports what an executed plan deleted.
type ExecutionResult struct {
	PlanID          string           `json:"planId"`
	DeletedCounts   map[string]int64 `json:"deletedCounts"`
	SessionsDropped int              `json:"sessionsDropped"`
	EventsDeleted   int64            `json:"eventsDeleted"`
}

// Classifier computes and executes retention plans. Plans live in memory;
// a restart discards them, which is acceptable because execution is always
// an attended two-step action.
type Classifier struct {
	store   SessionStore
	planTTL time.Duration

	mu    sync.Mutex
	plans map[string]*Plan

	// now is swappable for expiry tests.
	now func() time.Time
}

// New creates a classifier over the given session store.
func New(store SessionStore, planTTL time.Duration) *Classifier {
	return &Classifier{
		store:   store,
		planTTL: planTTL,
		plans:   make(map[string]*Plan),
		now:     time.Now,
	}
}

// BuildPlan classifies every stored session and records a new plan with a
// fresh confirmation token. The GOOD and BAD lists are disjoint and cover
// all sessions present at computation time.
func (c *Classifier) BuildPlan(ctx context.Context) (*Plan, error) {
	sessionIDs, err := c.store.DistinctSessionIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	plan := &Plan{
		ID:        uuid.NewString(),
		Token:     uuid.NewString(),
		Good:      []string{},
		Bad:       []string{},
		CreatedAt: c.now().UTC(),
	}
	plan.ExpiresAt = plan.CreatedAt.Add(c.planTTL)

	for _, sessionID := range sessionIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		events, err := c.store.EventsBySession(ctx, sessionID)
		if err != nil {
			// Deleted between listing and load; nothing left to classify.
			if errors.Is(err, database.ErrSessionNotFound) {
				continue
			}
			return nil, fmt.Errorf("load session %s: %w", sessionID, err)
		}
		if Classify(events) == QualityGood {
			plan.Good = append(plan.Good, sessionID)
		} else {
			plan.Bad = append(plan.Bad, sessionID)
		}
	}

	c.mu.Lock()
	c.plans[plan.ID] = plan
	snap := plan.snapshot()
	c.mu.Unlock()

	logging.Info().
		Str("plan_id", snap.ID).
		Int("good", len(snap.Good)).
		Int("bad", len(snap.Bad)).
		Time("expires_at", snap.ExpiresAt).
		Msg("Retention plan computed")

	return snap, nil
}

// GetPlan returns a copy of a stored plan for inspection.
func (c *Classifier) GetPlan(planID string) (*Plan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	plan, ok := c.plans[planID]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return plan.snapshot(), nil
}

// ExecutePlan deletes the BAD sessions of a plan. Execution requires the
// matching confirmation token, must happen before the plan expires, and
// succeeds at most once even under concurrent calls.
func (c *Classifier) ExecutePlan(ctx context.Context, planID, token string) (*ExecutionResult, error) {
	c.mu.Lock()
	plan, ok := c.plans[planID]
	switch {
	case !ok:
		c.mu.Unlock()
		return nil, ErrPlanNotFound
	case plan.Executed:
		c.mu.Unlock()
		return nil, ErrPlanExecuted
	case c.now().After(plan.ExpiresAt):
		c.mu.Unlock()
		return nil, ErrPlanExpired
	case plan.Token != token:
		c.mu.Unlock()
		return nil, ErrTokenMismatch
	}
	// Claim the plan before releasing the lock so a concurrent call
	// cannot execute it a second time.
	plan.Executed = true
	c.mu.Unlock()

	result := &ExecutionResult{
		PlanID:        planID,
		DeletedCounts: make(map[string]int64, len(plan.Bad)),
	}
	for _, sessionID := range plan.Bad {
		deleted, err := c.store.DeleteEventsBySession(ctx, sessionID)
		if err != nil {
			// The plan stays claimed; a partial execution must not be
			// re-runnable with stale classification results.
			return nil, fmt.Errorf("delete session %s: %w", sessionID, err)
		}
		result.DeletedCounts[sessionID] = deleted
		result.EventsDeleted += deleted
		if deleted > 0 {
			result.SessionsDropped++
		}
	}

	metrics.RetentionSessionsDeleted.Add(float64(result.SessionsDropped))
	logging.Info().
		Str("plan_id", planID).
		Int("sessions_dropped", result.SessionsDropped).
		Int64("events_deleted", result.EventsDeleted).
		Msg("Retention plan executed")

	return result, nil
}
