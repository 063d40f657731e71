package assign

import (
	"fmt"
	"log"
	"runtime"
	"time"

	"region-index/internal/metrics"
	spatialindex "region-index/spatial-index"

	"golang.org/x/sync/errgroup"
)

// TieBreak picks one region when a point lands in several.
type TieBreak int

const (
	// TieBreakFirst keeps the first match in traversal order, which is the
	// catalog's insertion order.
	TieBreakFirst TieBreak = iota
	// TieBreakSmallestArea keeps the most specific match. Equal areas fall
	// back to the lowest id.
	TieBreakSmallestArea
)

func (t TieBreak) String() string {
	switch t {
	case TieBreakFirst:
		return "first"
	case TieBreakSmallestArea:
		return "smallest-area"
	default:
		return fmt.Sprintf("TieBreak(%d)", int(t))
	}
}

func ParseTieBreak(s string) (TieBreak, error) {
	switch s {
	case "", "first":
		return TieBreakFirst, nil
	case "smallest-area":
		return TieBreakSmallestArea, nil
	default:
		return 0, fmt.Errorf("unknown tie-break %q: must be one of first, smallest-area", s)
	}
}

type Outcome int

const (
	OutcomeMissing Outcome = iota
	OutcomeUnmatched
	OutcomeMatched
	OutcomeMultiMatch
)

func (o Outcome) String() string {
	return [...]string{"missing", "unmatched", "matched", "multi"}[o]
}

// Assigner resolves records to regions of a built index. It holds no mutable
// state and may be shared between goroutines.
type Assigner struct {
	index    *spatialindex.Index
	tieBreak TieBreak
	workers  int
	areas    map[string]float64
}

type Option func(*Assigner)

func WithTieBreak(t TieBreak) Option {
	return func(a *Assigner) {
		a.tieBreak = t
	}
}

// WithWorkers bounds batch parallelism; values below 1 mean GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(a *Assigner) {
		a.workers = n
	}
}

func New(index *spatialindex.Index, opts ...Option) *Assigner {
	a := &Assigner{index: index, tieBreak: TieBreakFirst}
	for _, opt := range opts {
		opt(a)
	}
	if a.workers < 1 {
		a.workers = runtime.GOMAXPROCS(0)
	}
	if a.tieBreak == TieBreakSmallestArea {
		a.areas = make(map[string]float64, index.Len())
		for _, r := range index.Regions() {
			a.areas[r.ID] = spatialindex.Area(r.Polygon)
		}
	}
	return a
}

func (a *Assigner) TieBreak() TieBreak {
	return a.tieBreak
}

// AssignRegion returns the region id for the record, or nil when it has no
// usable coordinates or falls outside every region.
func (a *Assigner) AssignRegion(r Record) *string {
	id, _ := a.resolve(r)
	return id
}

// Assign writes the resolved region onto the record.
func (a *Assigner) Assign(r Record) Outcome {
	id, outcome := a.resolve(r)
	r.SetRegionID(id)
	return outcome
}

func (a *Assigner) resolve(r Record) (*string, Outcome) {
	p, ok := r.Coordinates()
	if !ok {
		return nil, OutcomeMissing
	}

	matches := a.index.Query(p)
	switch len(matches) {
	case 0:
		return nil, OutcomeUnmatched
	case 1:
		return &matches[0], OutcomeMatched
	}

	id := matches[0]
	if a.tieBreak == TieBreakSmallestArea {
		for _, m := range matches[1:] {
			if a.areas[m] < a.areas[id] || (a.areas[m] == a.areas[id] && m < id) {
				id = m
			}
		}
	}
	return &id, OutcomeMultiMatch
}

// Report summarises a batch. Unmatched and missing records are counted here
// rather than treated as failures.
type Report struct {
	Total              int `json:"total"`
	MissingCoordinates int `json:"missing_coordinates"`
	Unmatched          int `json:"unmatched"`
	Matched            int `json:"matched"`
	MultiMatch         int `json:"multi_match"`
}

// Assigned counts records that ended up with a region.
func (r Report) Assigned() int {
	return r.Matched + r.MultiMatch
}

func (r *Report) add(o Outcome) {
	r.Total++
	switch o {
	case OutcomeMissing:
		r.MissingCoordinates++
	case OutcomeUnmatched:
		r.Unmatched++
	case OutcomeMatched:
		r.Matched++
	case OutcomeMultiMatch:
		r.MultiMatch++
	}
}

func (r *Report) merge(o Report) {
	r.Total += o.Total
	r.MissingCoordinates += o.MissingCoordinates
	r.Unmatched += o.Unmatched
	r.Matched += o.Matched
	r.MultiMatch += o.MultiMatch
}

// Batch assigns every record in place and returns the same slice. Records
// never interact, so they are split into contiguous chunks across workers.
// No record is dropped.
func Batch[R Record](a *Assigner, records []R) ([]R, Report) {
	start := time.Now()

	chunks := min(a.workers, len(records))
	partial := make([]Report, chunks)

	var g errgroup.Group
	for c := 0; c < chunks; c++ {
		lo := c * len(records) / chunks
		hi := (c + 1) * len(records) / chunks
		g.Go(func() error {
			for _, r := range records[lo:hi] {
				partial[c].add(a.Assign(r))
			}
			return nil
		})
	}
	_ = g.Wait()

	var report Report
	for _, p := range partial {
		report.merge(p)
	}

	if report.MultiMatch > 0 {
		log.Printf("%d of %d records matched more than one region, resolved by %s tie-break",
			report.MultiMatch, report.Total, a.tieBreak)
	}
	metrics.ObserveBatch(report.MissingCoordinates, report.Unmatched, report.Matched, report.MultiMatch, time.Since(start))

	return records, report
}
