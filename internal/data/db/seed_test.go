package db

import (
	"testing"

	"github.com/yungbote/personapost-backend/internal/data/repos/testutil"
	types "github.com/yungbote/personapost-backend/internal/domain"
)

const sampleSeed = `
personas:
  - name: Ada Lovelace
    handle: ada
    style: precise, visionary
    occupation: mathematician
    sample_quotes:
      - "That brain of mine is something more than merely mortal."
topics:
  - title: Analytical engines
  - title: Poetical science
    description: Imagination meets mathematics
`

func TestParseSeedRejectsMissingFields(t *testing.T) {
	if _, err := ParseSeed([]byte("personas:\n  - name: Nobody\n")); err == nil {
		t.Fatalf("persona without handle should fail")
	}
	if _, err := ParseSeed([]byte("topics:\n  - description: untitled\n")); err == nil {
		t.Fatalf("topic without title should fail")
	}
}

func TestApplySeedIsIdempotent(t *testing.T) {
	db := testutil.DB(t)
	f, err := ParseSeed([]byte(sampleSeed))
	if err != nil {
		t.Fatalf("ParseSeed: %v", err)
	}

	res, err := ApplySeed(db, f)
	if err != nil {
		t.Fatalf("ApplySeed: %v", err)
	}
	if res.PersonasCreated != 1 || res.TopicsCreated != 2 {
		t.Fatalf("first apply: %+v", res)
	}

	res, err = ApplySeed(db, f)
	if err != nil {
		t.Fatalf("second ApplySeed: %v", err)
	}
	if res.PersonasCreated != 0 || res.TopicsCreated != 0 {
		t.Fatalf("second apply: %+v", res)
	}

	var p types.Persona
	if err := db.Where("handle = ?", "ada").Take(&p).Error; err != nil {
		t.Fatalf("load persona: %v", err)
	}
	if !p.Active || len(p.SampleQuotes) != 1 {
		t.Fatalf("persona: %+v", p)
	}
}
