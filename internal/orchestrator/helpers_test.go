package orchestrator

import (
	"context"
	"testing"
	"time"

	"rundown-orchestrator/internal/playout"
)

// sampleYAML is one rundown of three segments with three parts each; p4 and
// p8 are invalid.
const sampleYAML = `
id: news
name: Evening News
rundowns:
  - id: rd1
    name: Main
    segments:
      - id: seg1
        name: Opening
        parts:
          - {id: p1, title: Headlines, duration: 5s}
          - {id: p2, title: Weather, duration: 5s}
          - {id: p3, title: Traffic, duration: 5s}
      - id: seg2
        name: Sport
        parts:
          - {id: p4, title: Football, duration: 5s, invalid: true}
          - {id: p5, title: Tennis, duration: 5s}
          - {id: p6, title: Golf, duration: 2s}
      - id: seg3
        name: Close
        parts:
          - {id: p7, title: Recap, duration: 5s}
          - {id: p8, title: Bloopers, duration: 5s, invalid: true}
          - {id: p9, title: Goodnight, duration: 5s}
`

var testNow = time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC)

func sampleDocument(t *testing.T) *Document {
	t.Helper()
	doc, err := ParseDocument([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	return doc
}

func newTestService(t *testing.T, settings playout.StudioSettings) (*Service, *StoreRepository) {
	t.Helper()
	repo := NewInMemoryRepository()
	svc := NewService(repo, settings, WithClock(func() time.Time { return testNow }))
	return svc, repo
}

// activeService imports the sample document as "news" and activates it.
func activeService(t *testing.T, settings playout.StudioSettings) (*Service, *StoreRepository) {
	t.Helper()
	svc, repo := newTestService(t, settings)
	ctx := context.Background()
	if _, err := svc.ImportPlaylist(ctx, "news", sampleDocument(t)); err != nil {
		t.Fatalf("ImportPlaylist: %v", err)
	}
	if _, err := svc.Activate(ctx, "news"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	return svc, repo
}

func mustTake(t *testing.T, svc *Service) (*PlayoutState, TakeResult) {
	t.Helper()
	st, res, err := svc.Take(context.Background(), "news")
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	return st, res
}

func partID(pi *playout.PartInstance) playout.PartID {
	if pi == nil {
		return ""
	}
	return pi.Part.ID
}
