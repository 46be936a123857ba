package social

import (
	"context"
	"errors"
	"testing"

	"gorm.io/datatypes"

	"github.com/yungbote/personapost-backend/internal/data/repos/testutil"
	types "github.com/yungbote/personapost-backend/internal/domain"
	"github.com/yungbote/personapost-backend/internal/pkg/dbctx"
	perr "github.com/yungbote/personapost-backend/internal/pkg/errors"
)

func TestScheduleRepoRejectsDuplicatePair(t *testing.T) {
	db := testutil.DB(t)
	repo := NewScheduleRepo(db, testutil.Logger(t))
	dbc := dbctx.New(context.Background())

	persona := testutil.SeedPersona(t, db, "dup")
	account := testutil.SeedAccount(t, db, "tok", nil)

	first := &types.Schedule{PersonaID: persona.ID, AccountID: account.ID, PostsPerDay: 1, PostingTimes: datatypes.JSONSlice[string]{"09:00"}, Active: true}
	if _, err := repo.Create(dbc, first); err != nil {
		t.Fatalf("first create: %v", err)
	}
	second := &types.Schedule{PersonaID: persona.ID, AccountID: account.ID, PostsPerDay: 2, PostingTimes: datatypes.JSONSlice[string]{"10:00"}, Active: true}
	if _, err := repo.Create(dbc, second); !errors.Is(err, perr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestScheduleRepoListActiveForSlot(t *testing.T) {
	db := testutil.DB(t)
	repo := NewScheduleRepo(db, testutil.Logger(t))
	dbc := dbctx.New(context.Background())

	p1 := testutil.SeedPersona(t, db, "slot1")
	p2 := testutil.SeedPersona(t, db, "slot2")
	p3 := testutil.SeedPersona(t, db, "slot3")
	account := testutil.SeedAccount(t, db, "tok", nil)
	match := testutil.SeedSchedule(t, db, p1.ID, account.ID, []string{"09:00", "15:00"}, false)
	testutil.SeedSchedule(t, db, p2.ID, account.ID, []string{"09:00"}, false)
	inactive := testutil.SeedSchedule(t, db, p3.ID, account.ID, []string{"15:00"}, false)
	if err := repo.UpdateFields(dbc, inactive.ID, map[string]interface{}{"active": false}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	got, err := repo.ListActiveForSlot(dbc, "15:00")
	if err != nil {
		t.Fatalf("ListActiveForSlot: %v", err)
	}
	if len(got) != 1 || got[0].ID != match.ID {
		t.Fatalf("expected only the active 15:00 schedule, got %d", len(got))
	}
}
