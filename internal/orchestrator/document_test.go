package orchestrator

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rundown-orchestrator/internal/playout"
)

func TestParseDocument_yaml(t *testing.T) {
	doc := sampleDocument(t)
	if doc.ID != "news" || len(doc.Rundowns) != 1 || len(doc.Rundowns[0].Segments) != 3 {
		t.Fatalf("unexpected document shape: %+v", doc)
	}
	p6 := doc.Rundowns[0].Segments[1].Parts[2]
	if p6.ID != "p6" || time.Duration(p6.Duration) != 2*time.Second {
		t.Errorf("p6 = %+v", p6)
	}
	if !doc.Rundowns[0].Segments[1].Parts[0].Invalid {
		t.Error("p4 should be invalid")
	}
}

func TestParseDocument_json(t *testing.T) {
	data := []byte(`{"id":"late","name":"Late","rundowns":[{"id":"rd1","segments":[{"id":"s1","parts":[{"id":"a","duration":"1m30s","autonext":true}]}]}]}`)
	doc, err := ParseDocument(data)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	p := doc.Rundowns[0].Segments[0].Parts[0]
	if time.Duration(p.Duration) != 90*time.Second || !p.AutoNext {
		t.Errorf("part = %+v", p)
	}
}

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"5", 5 * time.Second, false},
		{"2.5", 2500 * time.Millisecond, false},
		{"1m30s", 90 * time.Second, false},
		{"250ms", 250 * time.Millisecond, false},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && time.Duration(d) != tt.want {
				t.Errorf("got %v, want %v", time.Duration(d), tt.want)
			}
		})
	}
}

func TestParseDocument_invalid(t *testing.T) {
	tests := map[string]string{
		"malformed":         "rundowns: [",
		"missing_part_id":   "rundowns: [{id: rd1, segments: [{id: s1, parts: [{title: x}]}]}]",
		"duplicate_part":    "rundowns: [{id: rd1, segments: [{id: s1, parts: [{id: a}, {id: a}]}]}]",
		"duplicate_rundown": "rundowns: [{id: rd1}, {id: rd1}]",
		"unknown_orphaned":  "rundowns: [{id: rd1, segments: [{id: s1, orphaned: lost}]}]",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDocument([]byte(in))
			if !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("expected ErrInvalidDocument, got %v", err)
			}
		})
	}
}

func TestLoadDocumentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rundown.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := LoadDocumentFile(path)
	if err != nil {
		t.Fatalf("LoadDocumentFile: %v", err)
	}
	if doc.Name != "Evening News" {
		t.Errorf("name = %q", doc.Name)
	}

	if _, err := LoadDocumentFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDocument_apply(t *testing.T) {
	doc := sampleDocument(t)
	doc.Rundowns[0].Segments[0].Parts[0].DurationWithTransition = Duration(6 * time.Second)

	var st PlayoutState
	doc.apply(&st)

	if len(st.Playlist.RundownIDs) != 1 || len(st.Segments) != 3 || len(st.Parts) != 9 {
		t.Fatalf("rundowns=%d segments=%d parts=%d", len(st.Playlist.RundownIDs), len(st.Segments), len(st.Parts))
	}
	g := st.Graph()
	p1, _ := g.Part("p1")
	if p1.ExpectedDurationWithTransition != 6*time.Second {
		t.Errorf("p1 with transition = %v", p1.ExpectedDurationWithTransition)
	}
	p2, _ := g.Part("p2")
	if p2.ExpectedDurationWithTransition != p2.ExpectedDuration {
		t.Errorf("with transition should default to duration: %+v", p2)
	}
	seg2, _ := g.Segment("seg2")
	if seg2.Rank != 1 || seg2.RundownID != "rd1" {
		t.Errorf("seg2 = %+v", seg2)
	}

	var ids []playout.PartID
	for _, p := range g.OrderedParts() {
		ids = append(ids, p.ID)
	}
	if len(ids) != 9 || ids[0] != "p1" || ids[8] != "p9" {
		t.Errorf("ordered parts = %v", ids)
	}
}
