package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/yungbote/personapost-backend/internal/data/repos"
	"github.com/yungbote/personapost-backend/internal/data/repos/testutil"
	perr "github.com/yungbote/personapost-backend/internal/pkg/errors"
)

func TestNormalizePostingTimes(t *testing.T) {
	got, err := NormalizePostingTimes([]string{"21:00", " 9:00", "15:00"})
	noError(t, err, "NormalizePostingTimes")
	if want := []string{"09:00", "15:00", "21:00"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("want=%v got=%v", want, got)
	}
	for _, bad := range [][]string{nil, {"15:37"}, {"24:00"}, {"noon"}, {"09:00", "9:00"}} {
		if _, err := NormalizePostingTimes(bad); !errors.Is(err, perr.ErrValidation) {
			t.Fatalf("%v: want ErrValidation, got %v", bad, err)
		}
	}
}

func TestHourSlotAndStartOfDay(t *testing.T) {
	at := time.Date(2025, 6, 1, 15, 42, 10, 0, time.FixedZone("X", 2*3600))
	if got := HourSlot(at); got != "13:00" {
		t.Fatalf("HourSlot: got %q", got)
	}
	if got := StartOfDayUTC(at); !got.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("StartOfDayUTC: got %s", got)
	}
}

func TestScheduleServiceRejectsDuplicatePair(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewScheduleService(log, repos.NewScheduleRepo(db, log), repos.NewPersonaRepo(db, log), repos.NewAccountRepo(db, log))
	persona := testutil.SeedPersona(t, db, "ada")
	acct := testutil.SeedAccount(t, db, "tok", nil)

	in := ScheduleInput{PersonaID: persona.ID, AccountID: acct.ID, PostsPerDay: 3, PostingTimes: []string{"09:00", "15:00", "21:00"}}
	first, err := svc.Create(ctx, in)
	noError(t, err, "first Create")
	if !first.Active || first.Timezone != "UTC" {
		t.Fatalf("defaults: %+v", first)
	}
	if _, err := svc.Create(ctx, in); !errors.Is(err, perr.ErrConflict) {
		t.Fatalf("second Create: want ErrConflict, got %v", err)
	}

	off, err := svc.SetActive(ctx, first.ID, false)
	noError(t, err, "SetActive")
	if off.Active {
		t.Fatalf("schedule still active")
	}
	if _, err := svc.Update(ctx, first.ID, SchedulePatch{PostsPerDay: ptrInt(0)}); !errors.Is(err, perr.ErrValidation) {
		t.Fatalf("posts_per_day=0: want ErrValidation, got %v", err)
	}
}

func ptrInt(v int) *int { return &v }
