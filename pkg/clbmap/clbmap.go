package clbmap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/km3net/km3db-go/pkg/streamds"
	"github.com/km3net/km3db-go/pkg/tsv"
)

// ErrCLBNotFound is returned for lookups with no matching CLB.
var ErrCLBNotFound = errors.New("clbmap: no CLB found")

// StreamGetter is the catalog surface this package consumes.
// streamds.Client implements it.
type StreamGetter interface {
	GetRecords(ctx context.Context, stream string, sel ...streamds.Selector) ([]tsv.Record, error)
}

// CLB is one central logic board of a detector.
type CLB struct {
	DetOID       string
	UPI          string
	DOMID        int
	DU           int
	Floor        int
	SerialNumber int
}

// OMKey addresses an optical module by line and floor.
type OMKey struct {
	DU    int
	Floor int
}

// Option configures a Map or a CompassResolver.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger assigns the logger used for lookup warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Map is a read-through index over one detector's CLB record set. Indices
// are built on first use and cached for the lifetime of the Map; building
// one never invalidates another. Construct a new Map to refresh. Index
// construction is guarded, so lookups are safe for concurrent callers.
type Map struct {
	DetOID string

	logger *slog.Logger
	clbs   []CLB

	mu      sync.Mutex
	byUPI   map[string]CLB
	byDOMID map[int]CLB
	byOMKey map[OMKey]CLB
	base    map[int]CLB
}

// NewMap fetches the clbmap stream for the given detector and wraps it.
func NewMap(ctx context.Context, sds StreamGetter, detOID string, opts ...Option) (*Map, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	records, err := sds.GetRecords(ctx, "clbmap", streamds.Sel("detoid", detOID))
	if err != nil {
		return nil, fmt.Errorf("clbmap: fetch clbmap stream: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("clbmap: no data for detector %q", detOID)
	}

	clbs := make([]CLB, 0, len(records))
	for _, rec := range records {
		clb, err := clbFromRecord(rec)
		if err != nil {
			return nil, err
		}
		clbs = append(clbs, clb)
	}

	return &Map{DetOID: detOID, logger: o.logger, clbs: clbs}, nil
}

// Len returns the number of CLBs in the detector.
func (m *Map) Len() int {
	return len(m.clbs)
}

// All returns the full record set in server order.
func (m *Map) All() []CLB {
	return m.clbs
}

// ByUPI looks up a CLB by its UPI.
func (m *Map) ByUPI(upi string) (CLB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byUPI == nil {
		m.byUPI = make(map[string]CLB, len(m.clbs))
		for _, clb := range m.clbs {
			m.byUPI[clb.UPI] = clb
		}
	}
	clb, ok := m.byUPI[upi]
	if !ok {
		return CLB{}, fmt.Errorf("%w: UPI %q in detector %q", ErrCLBNotFound, upi, m.DetOID)
	}
	return clb, nil
}

// ByDOMID looks up a CLB by its DOM ID.
func (m *Map) ByDOMID(domID int) (CLB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byDOMID == nil {
		m.byDOMID = make(map[int]CLB, len(m.clbs))
		for _, clb := range m.clbs {
			m.byDOMID[clb.DOMID] = clb
		}
	}
	clb, ok := m.byDOMID[domID]
	if !ok {
		return CLB{}, fmt.Errorf("%w: DOM ID %d in detector %q", ErrCLBNotFound, domID, m.DetOID)
	}
	return clb, nil
}

// ByOMKey looks up a CLB by its (DU, floor) pair.
func (m *Map) ByOMKey(key OMKey) (CLB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byOMKey == nil {
		m.byOMKey = make(map[OMKey]CLB, len(m.clbs))
		for _, clb := range m.clbs {
			m.byOMKey[OMKey{DU: clb.DU, Floor: clb.Floor}] = clb
		}
	}
	clb, ok := m.byOMKey[key]
	if !ok {
		return CLB{}, fmt.Errorf("%w: OMKey (%d, %d) in detector %q", ErrCLBNotFound, key.DU, key.Floor, m.DetOID)
	}
	return clb, nil
}

// Base returns the base module (floor 0) of a DU.
func (m *Map) Base(du int) (CLB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.base == nil {
		m.base = make(map[int]CLB)
		for _, clb := range m.clbs {
			if clb.Floor == 0 {
				m.base[clb.DU] = clb
			}
		}
	}
	clb, ok := m.base[du]
	if !ok {
		return CLB{}, fmt.Errorf("%w: base of DU %d in detector %q", ErrCLBNotFound, du, m.DetOID)
	}
	return clb, nil
}

func clbFromRecord(rec tsv.Record) (CLB, error) {
	detOID, _ := rec.Get("detoid")
	upi, ok := rec.Get("upi")
	if !ok {
		return CLB{}, errors.New("clbmap: record without UPI field")
	}

	domID, err := rec.Int("domid")
	if err != nil {
		return CLB{}, fmt.Errorf("clbmap: UPI %q: %w", upi, err)
	}
	du, err := rec.Int("du")
	if err != nil {
		return CLB{}, fmt.Errorf("clbmap: UPI %q: %w", upi, err)
	}
	floor, err := rec.Int("floor")
	if err != nil {
		return CLB{}, fmt.Errorf("clbmap: UPI %q: %w", upi, err)
	}
	serial, err := rec.Int("serialnumber")
	if err != nil {
		return CLB{}, fmt.Errorf("clbmap: UPI %q: %w", upi, err)
	}

	return CLB{
		DetOID:       detOID,
		UPI:          upi,
		DOMID:        domID,
		DU:           du,
		Floor:        floor,
		SerialNumber: serial,
	}, nil
}
