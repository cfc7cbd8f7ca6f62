package orchestrator

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"rundown-orchestrator/internal/playout"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument is returned for rundown documents that cannot be imported.
var ErrInvalidDocument = errors.New("invalid rundown document")

// Duration is a time.Duration written as "1m30s". Bare numbers are seconds.
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*d = 0
		return nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Document is the ingest form of a playlist: rundowns, segments and parts
// nested in playout order. Ranks are taken from document order.
type Document struct {
	ID       string            `json:"id" yaml:"id"`
	Name     string            `json:"name" yaml:"name"`
	Rundowns []RundownDocument `json:"rundowns" yaml:"rundowns"`
}

// RundownDocument is one rundown of a Document; segment order is play order.
type RundownDocument struct {
	ID       string            `json:"id" yaml:"id"`
	Name     string            `json:"name" yaml:"name"`
	Segments []SegmentDocument `json:"segments" yaml:"segments"`
}

// SegmentDocument is one segment. Orphaned is empty, "deleted" or "adlib-testing".
type SegmentDocument struct {
	ID       string         `json:"id" yaml:"id"`
	Name     string         `json:"name" yaml:"name"`
	Orphaned string         `json:"orphaned,omitempty" yaml:"orphaned,omitempty"`
	Parts    []PartDocument `json:"parts" yaml:"parts"`
}

// PartDocument is one part. DurationWithTransition defaults to Duration.
type PartDocument struct {
	ID                     string   `json:"id" yaml:"id"`
	Title                  string   `json:"title" yaml:"title"`
	Invalid                bool     `json:"invalid,omitempty" yaml:"invalid,omitempty"`
	Floated                bool     `json:"floated,omitempty" yaml:"floated,omitempty"`
	Duration               Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
	DurationWithTransition Duration `json:"duration_with_transition,omitempty" yaml:"duration_with_transition,omitempty"`
	AutoNext               bool     `json:"autonext,omitempty" yaml:"autonext,omitempty"`
	AutoNextOverlap        Duration `json:"autonext_overlap,omitempty" yaml:"autonext_overlap,omitempty"`
}

// ParseDocument decodes a YAML or JSON rundown document and validates it.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadDocumentFile reads and parses a rundown document from disk.
func LoadDocumentFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rundown %s: %w", path, err)
	}
	return ParseDocument(data)
}

// Validate checks that every entity has an id and that ids are unique per kind.
func (d *Document) Validate() error {
	rundowns := map[string]bool{}
	segments := map[string]bool{}
	parts := map[string]bool{}
	for _, rd := range d.Rundowns {
		if err := checkID("rundown", rd.ID, rundowns); err != nil {
			return err
		}
		for _, seg := range rd.Segments {
			if err := checkID("segment", seg.ID, segments); err != nil {
				return err
			}
			switch playout.SegmentOrphanedReason(seg.Orphaned) {
			case playout.SegmentNotOrphaned, playout.SegmentOrphanedDeleted, playout.SegmentOrphanedAdlibTesting:
			default:
				return fmt.Errorf("%w: segment %s: unknown orphaned reason %q", ErrInvalidDocument, seg.ID, seg.Orphaned)
			}
			for _, p := range seg.Parts {
				if err := checkID("part", p.ID, parts); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func checkID(kind, id string, seen map[string]bool) error {
	if id == "" {
		return fmt.Errorf("%w: %s without id", ErrInvalidDocument, kind)
	}
	if seen[id] {
		return fmt.Errorf("%w: duplicate %s id %q", ErrInvalidDocument, kind, id)
	}
	seen[id] = true
	return nil
}

// apply replaces the ingest data of st with the document's content. Runtime
// fields are left alone.
func (d *Document) apply(st *PlayoutState) {
	st.Playlist.Name = d.Name
	st.Playlist.RundownIDs = nil
	st.Rundowns = nil
	st.Segments = nil
	st.Parts = nil

	for _, rd := range d.Rundowns {
		rundownID := playout.RundownID(rd.ID)
		st.Playlist.RundownIDs = append(st.Playlist.RundownIDs, rundownID)
		st.Rundowns = append(st.Rundowns, playout.Rundown{ID: rundownID, Name: rd.Name})

		for si, seg := range rd.Segments {
			segmentID := playout.SegmentID(seg.ID)
			st.Segments = append(st.Segments, playout.Segment{
				ID:        segmentID,
				RundownID: rundownID,
				Rank:      float64(si),
				Name:      seg.Name,
				Orphaned:  playout.SegmentOrphanedReason(seg.Orphaned),
			})

			for pi, p := range seg.Parts {
				withTransition := p.DurationWithTransition
				if withTransition == 0 {
					withTransition = p.Duration
				}
				st.Parts = append(st.Parts, playout.Part{
					ID:                             playout.PartID(p.ID),
					SegmentID:                      segmentID,
					Rank:                           float64(pi),
					Title:                          p.Title,
					Invalid:                        p.Invalid,
					Floated:                        p.Floated,
					ExpectedDuration:               time.Duration(p.Duration),
					ExpectedDurationWithTransition: time.Duration(withTransition),
					AutoNext:                       p.AutoNext,
					AutoNextOverlap:                time.Duration(p.AutoNextOverlap),
				})
			}
		}
	}
}
