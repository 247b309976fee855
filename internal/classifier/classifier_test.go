// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

package classifier

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/attentra/internal/database"
	"github.com/tomtom215/attentra/internal/models"
)

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string][]models.Event
	// vanished ids show up in the listing but load as not-found, like a
	// session deleted between the two calls.
	vanished []string
	deleted  []string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string][]models.Event)}
}

func (s *fakeSessionStore) DistinctSessionIDs(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions)+len(s.vanished))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	ids = append(ids, s.vanished...)
	sort.Strings(ids)
	return ids, nil
}

func (s *fakeSessionStore) EventsBySession(_ context.Context, sessionID string) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events, ok := s.sessions[sessionID]
	if !ok {
		return nil, database.ErrSessionNotFound
	}
	return events, nil
}

func (s *fakeSessionStore) DeleteEventsBySession(_ context.Context, sessionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.deleted = append(s.deleted, sessionID)
	return int64(len(events)), nil
}

func newTestClassifier(store SessionStore) *Classifier {
	return New(store, 10*time.Minute)
}

func TestBuildPlanSplitsSessions(t *testing.T) {
	store := newFakeSessionStore()
	store.sessions["good"] = buildSession(12, 5*time.Minute)
	store.sessions["short"] = buildSession(12, 30*time.Second)
	store.sessions["sparse"] = buildSession(5, 5*time.Minute)

	c := newTestClassifier(store)
	plan, err := c.BuildPlan(context.Background())
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}

	if len(plan.Good) != 1 || plan.Good[0] != "good" {
		t.Errorf("Good = %v, want [good]", plan.Good)
	}
	if len(plan.Bad) != 2 {
		t.Errorf("Bad = %v, want [short sparse]", plan.Bad)
	}
	if plan.Token == "" || plan.ID == "" {
		t.Error("plan must carry an id and a confirmation token")
	}
	if !plan.ExpiresAt.After(plan.CreatedAt) {
		t.Error("ExpiresAt must be after CreatedAt")
	}

	// Plans are inspectable until executed.
	got, err := c.GetPlan(plan.ID)
	if err != nil {
		t.Fatalf("GetPlan() error = %v", err)
	}
	if got.Executed {
		t.Error("fresh plan marked executed")
	}
}

func TestBuildPlanSkipsVanishedSession(t *testing.T) {
	store := newFakeSessionStore()
	store.sessions["good"] = buildSession(12, 5*time.Minute)
	store.vanished = []string{"ghost"}

	c := newTestClassifier(store)
	plan, err := c.BuildPlan(context.Background())
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}

	if len(plan.Good) != 1 || plan.Good[0] != "good" {
		t.Errorf("Good = %v, want [good]", plan.Good)
	}
	if len(plan.Bad) != 0 {
		t.Errorf("Bad = %v, want empty; vanished sessions have nothing to delete", plan.Bad)
	}
}

func TestPlanReadsAreDetachedCopies(t *testing.T) {
	store := newFakeSessionStore()
	store.sessions["bad"] = buildSession(3, time.Minute)

	c := newTestClassifier(store)
	plan, _ := c.BuildPlan(context.Background())

	inspected, err := c.GetPlan(plan.ID)
	if err != nil {
		t.Fatalf("GetPlan() error = %v", err)
	}

	// Tampering with a returned plan must not touch the stored one.
	inspected.Executed = true
	inspected.Token = "tampered"
	inspected.Bad[0] = "tampered"

	result, err := c.ExecutePlan(context.Background(), plan.ID, plan.Token)
	if err != nil {
		t.Fatalf("ExecutePlan() error = %v", err)
	}
	if result.DeletedCounts["bad"] != 3 {
		t.Errorf("DeletedCounts[bad] = %d, want 3", result.DeletedCounts["bad"])
	}

	// Plans handed out earlier stay snapshots of their creation time.
	if plan.Executed {
		t.Error("plan returned by BuildPlan mutated by execution")
	}
	current, err := c.GetPlan(plan.ID)
	if err != nil {
		t.Fatalf("GetPlan() after execution error = %v", err)
	}
	if !current.Executed {
		t.Error("stored plan must be marked executed")
	}
}

func TestExecutePlanDeletesOnlyBadSessions(t *testing.T) {
	store := newFakeSessionStore()
	store.sessions["good"] = buildSession(12, 5*time.Minute)
	store.sessions["bad1"] = buildSession(12, 30*time.Second)
	store.sessions["bad2"] = buildSession(3, 5*time.Minute)

	c := newTestClassifier(store)
	plan, err := c.BuildPlan(context.Background())
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}

	result, err := c.ExecutePlan(context.Background(), plan.ID, plan.Token)
	if err != nil {
		t.Fatalf("ExecutePlan() error = %v", err)
	}

	if result.SessionsDropped != 2 {
		t.Errorf("SessionsDropped = %d, want 2", result.SessionsDropped)
	}
	if result.DeletedCounts["bad1"] != 12 {
		t.Errorf("DeletedCounts[bad1] = %d, want 12", result.DeletedCounts["bad1"])
	}
	if result.DeletedCounts["bad2"] != 3 {
		t.Errorf("DeletedCounts[bad2] = %d, want 3", result.DeletedCounts["bad2"])
	}
	if result.EventsDeleted != 15 {
		t.Errorf("EventsDeleted = %d, want 15", result.EventsDeleted)
	}
	if _, ok := store.sessions["good"]; !ok {
		t.Error("GOOD session must survive execution")
	}
}

func TestExecutePlanTokenMismatch(t *testing.T) {
	store := newFakeSessionStore()
	store.sessions["bad"] = buildSession(3, time.Minute)

	c := newTestClassifier(store)
	plan, _ := c.BuildPlan(context.Background())

	_, err := c.ExecutePlan(context.Background(), plan.ID, "wrong-token")
	if !errors.Is(err, ErrTokenMismatch) {
		t.Errorf("error = %v, want ErrTokenMismatch", err)
	}
	if len(store.deleted) != 0 {
		t.Error("nothing may be deleted on token mismatch")
	}
}

func TestExecutePlanSingleUse(t *testing.T) {
	store := newFakeSessionStore()
	store.sessions["bad"] = buildSession(3, time.Minute)

	c := newTestClassifier(store)
	plan, _ := c.BuildPlan(context.Background())

	if _, err := c.ExecutePlan(context.Background(), plan.ID, plan.Token); err != nil {
		t.Fatalf("first execution error = %v", err)
	}
	_, err := c.ExecutePlan(context.Background(), plan.ID, plan.Token)
	if !errors.Is(err, ErrPlanExecuted) {
		t.Errorf("second execution = %v, want ErrPlanExecuted", err)
	}
}

func TestExecutePlanExpired(t *testing.T) {
	store := newFakeSessionStore()
	store.sessions["bad"] = buildSession(3, time.Minute)

	c := newTestClassifier(store)
	plan, _ := c.BuildPlan(context.Background())

	c.now = func() time.Time { return plan.ExpiresAt.Add(time.Second) }

	_, err := c.ExecutePlan(context.Background(), plan.ID, plan.Token)
	if !errors.Is(err, ErrPlanExpired) {
		t.Errorf("error = %v, want ErrPlanExpired", err)
	}
	if len(store.deleted) != 0 {
		t.Error("nothing may be deleted after expiry")
	}
}

func TestExecutePlanNotFound(t *testing.T) {
	c := newTestClassifier(newFakeSessionStore())
	_, err := c.ExecutePlan(context.Background(), "missing", "token")
	if !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("error = %v, want ErrPlanNotFound", err)
	}
	if _, err := c.GetPlan("missing"); !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("GetPlan() = %v, want ErrPlanNotFound", err)
	}
}

func TestExecutePlanConcurrentSingleFlight(t *testing.T) {
	store := newFakeSessionStore()
	store.sessions["bad"] = buildSession(3, time.Minute)

	c := newTestClassifier(store)
	plan, _ := c.BuildPlan(context.Background())

	const attempts = 8
	var (
		wg        sync.WaitGroup
		successMu sync.Mutex
		successes int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.ExecutePlan(context.Background(), plan.ID, plan.Token); err == nil {
				successMu.Lock()
				successes++
				successMu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("successes = %d, want exactly 1", successes)
	}
	if len(store.deleted) != 1 {
		t.Errorf("deletions = %d, want 1", len(store.deleted))
	}
}
