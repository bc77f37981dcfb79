package session

import (
	"slices"

	"github.com/nao1215/contactscan/internal/model"
)

// SchemaVersion is the current version of the persisted Record layout.
const SchemaVersion = 1

// Record is the persisted session state.
type Record struct {
	// Version is the schema version the record was written with.
	Version int `json:"version"`

	// Completed lists root URLs that were crawled successfully.
	// They are never crawled again by a later run.
	Completed []string `json:"completed"`

	// Failed lists root URLs whose crawl failed.
	Failed []string `json:"failed"`

	// Results holds the business records saved by earlier runs.
	Results []model.Business `json:"results"`
}

// NewRecord returns an empty record at the current schema version.
func NewRecord() *Record {
	return &Record{
		Version:   SchemaVersion,
		Completed: []string{},
		Failed:    []string{},
		Results:   []model.Business{},
	}
}

// Update is a partial change merged into a Record.
type Update struct {
	Completed []string
	Failed    []string
	Results   []model.Business
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return len(u.Completed) == 0 && len(u.Failed) == 0 && len(u.Results) == 0
}

// apply merges u into r: URL sets are unioned in insertion order and
// results are appended.
func (r *Record) apply(u Update) {
	r.Completed = union(r.Completed, u.Completed)
	r.Failed = union(r.Failed, u.Failed)
	r.Results = append(r.Results, u.Results...)
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	out := &Record{
		Version:   r.Version,
		Completed: slices.Clone(r.Completed),
		Failed:    slices.Clone(r.Failed),
		Results:   make([]model.Business, len(r.Results)),
	}
	if out.Completed == nil {
		out.Completed = []string{}
	}
	if out.Failed == nil {
		out.Failed = []string{}
	}
	for i, b := range r.Results {
		out.Results[i] = b.Clone()
	}
	return out
}

// normalize fills nil slices and the version of a freshly decoded record.
func (r *Record) normalize() error {
	switch {
	case r.Version == 0:
		r.Version = SchemaVersion
	case r.Version > SchemaVersion:
		return ErrUnsupportedVersion
	}
	if r.Completed == nil {
		r.Completed = []string{}
	}
	if r.Failed == nil {
		r.Failed = []string{}
	}
	if r.Results == nil {
		r.Results = []model.Business{}
	}
	r.Completed = union(nil, r.Completed)
	r.Failed = union(nil, r.Failed)
	return nil
}

// union appends the members of add missing from base, preserving order.
func union(base, add []string) []string {
	seen := make(map[string]struct{}, len(base)+len(add))
	out := make([]string, 0, len(base)+len(add))
	for _, list := range [][]string{base, add} {
		for _, s := range list {
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
