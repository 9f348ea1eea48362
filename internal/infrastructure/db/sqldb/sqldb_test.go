package sqldb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/celanai/celan/internal/core/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), Config{
		Driver: DriverSQLite,
		URL:    filepath.Join(t.TempDir(), "data", "celan.db"),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "mysql", URL: "x"}); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}

func TestProfileRepository(t *testing.T) {
	repo := NewProfileRepository(openTestDB(t))
	ctx := context.Background()
	created := time.Date(2025, 2, 3, 4, 5, 6, 789, time.UTC)

	pro := domain.PlanPro
	user, err := repo.Insert(ctx, &domain.User{ID: "u1", Email: "a@b.com", Name: "A", Plan: &pro, CreatedAt: created})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if user.Plan == nil || *user.Plan != domain.PlanPro {
		t.Fatalf("unexpected plan: %v", user.Plan)
	}
	if !user.CreatedAt.Equal(created) {
		t.Fatalf("created_at not preserved: %v", user.CreatedAt)
	}

	noPlan, err := repo.Insert(ctx, &domain.User{ID: "u2", Email: "c@d.com", Name: "C", CreatedAt: created})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if noPlan.Plan != nil {
		t.Fatalf("expected NULL plan, got %v", *noPlan.Plan)
	}

	if _, err := repo.Insert(ctx, &domain.User{ID: "u1", Email: "x@y.com", Name: "X", CreatedAt: created}); err == nil {
		t.Fatalf("expected duplicate id to fail")
	}

	updated, err := repo.UpdatePlan(ctx, "u2", domain.PlanScale)
	if err != nil {
		t.Fatalf("UpdatePlan failed: %v", err)
	}
	if updated.Plan == nil || *updated.Plan != domain.PlanScale || updated.Name != "C" {
		t.Fatalf("unexpected user after update: %+v", updated)
	}

	if _, err := repo.UpdatePlan(ctx, "missing", domain.PlanPro); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := repo.FindByID(ctx, "missing"); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func seedAgent(t *testing.T, repo *AgentRepository, id, userID string, createdAt time.Time) *domain.Agent {
	t.Helper()
	a, err := repo.Insert(context.Background(), &domain.Agent{
		ID:        id,
		UserID:    userID,
		Name:      "agent " + id,
		Type:      domain.AgentTypeSupport,
		Status:    domain.AgentActive,
		LastRun:   createdAt,
		CreatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("insert agent %s: %v", id, err)
	}
	return a
}

func newAgentFixture(t *testing.T) *AgentRepository {
	t.Helper()
	db := openTestDB(t)
	profiles := NewProfileRepository(db)
	for _, id := range []string{"owner", "other"} {
		if _, err := profiles.Insert(context.Background(), &domain.User{ID: id, Email: id + "@b.com", Name: id, CreatedAt: time.Now()}); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	return NewAgentRepository(db)
}

func TestAgentRepository_InsertAndList(t *testing.T) {
	repo := newAgentFixture(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	desc := "handles tickets"
	first, err := repo.Insert(ctx, &domain.Agent{
		ID: "a1", UserID: "owner", Name: "Helpdesk", Type: domain.AgentTypeSupport,
		Description: &desc, Status: domain.AgentActive, LastRun: base, CreatedAt: base,
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if first.Description == nil || *first.Description != desc {
		t.Fatalf("description lost: %+v", first)
	}
	seedAgent(t, repo, "a2", "owner", base.Add(time.Hour))
	seedAgent(t, repo, "a3", "other", base.Add(2*time.Hour))

	agents, err := repo.ListByUser(ctx, "owner")
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(agents) != 2 || agents[0].ID != "a2" || agents[1].ID != "a1" {
		t.Fatalf("expected [a2 a1], got %+v", agents)
	}
	if agents[1].Description == nil || agents[0].Description != nil {
		t.Fatalf("description NULL handling wrong: %+v", agents)
	}

	empty, err := repo.ListByUser(ctx, "nobody")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty slice, got %#v %v", empty, err)
	}
}

func TestAgentRepository_OwnerScopedMutations(t *testing.T) {
	repo := newAgentFixture(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	seedAgent(t, repo, "a1", "owner", base)

	if _, err := repo.FindByID(ctx, "other", "a1"); err != domain.ErrAgentNotFound {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}
	if _, err := repo.UpdateStatus(ctx, "other", "a1", domain.AgentPaused); err != domain.ErrAgentNotFound {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}
	if _, err := repo.UpdateLastRun(ctx, "other", "a1", base.Add(time.Hour)); err != domain.ErrAgentNotFound {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "other", "a1"); err != domain.ErrAgentNotFound {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}

	stored, err := repo.FindByID(ctx, "owner", "a1")
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if stored.Status != domain.AgentActive || !stored.LastRun.Equal(base) {
		t.Fatalf("row changed by another user: %+v", stored)
	}
}

func TestAgentRepository_Updates(t *testing.T) {
	repo := newAgentFixture(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	seedAgent(t, repo, "a1", "owner", base)

	paused, err := repo.UpdateStatus(ctx, "owner", "a1", domain.AgentPaused)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if paused.Status != domain.AgentPaused || paused.Name != "agent a1" {
		t.Fatalf("unexpected agent: %+v", paused)
	}

	next := base.Add(time.Nanosecond)
	ran, err := repo.UpdateLastRun(ctx, "owner", "a1", next)
	if err != nil {
		t.Fatalf("UpdateLastRun failed: %v", err)
	}
	if !ran.LastRun.Equal(next) {
		t.Fatalf("nanosecond precision lost: %v", ran.LastRun)
	}
	if ran.Status != domain.AgentPaused {
		t.Fatalf("status changed by run: %s", ran.Status)
	}

	if err := repo.Delete(ctx, "owner", "a1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.FindByID(ctx, "owner", "a1"); err != domain.ErrAgentNotFound {
		t.Fatalf("expected ErrAgentNotFound after delete, got %v", err)
	}
}
