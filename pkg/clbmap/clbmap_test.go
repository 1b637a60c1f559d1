package clbmap_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km3net/km3db-go/pkg/clbmap"
	"github.com/km3net/km3db-go/pkg/streamds"
	"github.com/km3net/km3db-go/pkg/tsv"
)

const clbmapText = "DETOID\tUPI\tDOMID\tDU\tFLOOR\tSERIALNUMBER\n" +
	"D_ORCA003\t3.4.3.2/V2-2-1/2.100\t808964852\t3\t0\t100\n" +
	"D_ORCA003\t3.4.3.2/V2-2-1/2.570\t806487231\t3\t13\t570\n" +
	"D_ORCA003\t3.4.3.2/V2-2-1/2.121\t808982547\t1\t0\t121\n" +
	"D_ORCA003\t3.4.3.2/V2-2-1/2.94\t808961480\t1\t5\t94\n"

// fakeSDS serves canned stream payloads and counts fetches per stream.
type fakeSDS struct {
	payloads map[string]string
	calls    map[string]int
}

func (f *fakeSDS) GetRecords(ctx context.Context, stream string, sel ...streamds.Selector) ([]tsv.Record, error) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[stream]++
	text, ok := f.payloads[stream]
	if !ok {
		return nil, nil
	}
	return tsv.Records(text)
}

func newTestMap(t *testing.T) (*clbmap.Map, *fakeSDS) {
	t.Helper()
	sds := &fakeSDS{payloads: map[string]string{"clbmap": clbmapText}}
	m, err := clbmap.NewMap(context.Background(), sds, "D_ORCA003")
	require.NoError(t, err)
	return m, sds
}

func TestNewMapFetchesOnce(t *testing.T) {
	m, sds := newTestMap(t)
	assert.Equal(t, 4, m.Len())
	assert.Equal(t, 1, sds.calls["clbmap"])
}

func TestNewMapFailsWithoutData(t *testing.T) {
	sds := &fakeSDS{payloads: map[string]string{}}
	_, err := clbmap.NewMap(context.Background(), sds, "D_MISSING")
	assert.Error(t, err)
}

func TestNewMapFailsOnNonNumericFields(t *testing.T) {
	sds := &fakeSDS{payloads: map[string]string{
		"clbmap": "DETOID\tUPI\tDOMID\tDU\tFLOOR\tSERIALNUMBER\nD1\tu1\tnot-a-number\t1\t0\t1\n",
	}}
	_, err := clbmap.NewMap(context.Background(), sds, "D1")
	assert.Error(t, err)
}

func TestByUPIRoundTrip(t *testing.T) {
	m, _ := newTestMap(t)

	for _, clb := range m.All() {
		got, err := m.ByUPI(clb.UPI)
		require.NoError(t, err)
		assert.Equal(t, clb, got)
	}

	clb, err := m.ByUPI("3.4.3.2/V2-2-1/2.570")
	require.NoError(t, err)
	assert.Equal(t, 806487231, clb.DOMID)
	assert.Equal(t, 13, clb.Floor)
	assert.Equal(t, "D_ORCA003", clb.DetOID)

	_, err = m.ByUPI("3.4.3.2/V2-2-1/2.999")
	assert.ErrorIs(t, err, clbmap.ErrCLBNotFound)
}

func TestByDOMIDRoundTrip(t *testing.T) {
	m, _ := newTestMap(t)

	for _, clb := range m.All() {
		got, err := m.ByDOMID(clb.DOMID)
		require.NoError(t, err)
		assert.Equal(t, clb, got)
	}

	clb, err := m.ByDOMID(808964852)
	require.NoError(t, err)
	assert.Equal(t, "3.4.3.2/V2-2-1/2.100", clb.UPI)
	assert.Equal(t, 3, clb.DU)

	_, err = m.ByDOMID(1)
	assert.ErrorIs(t, err, clbmap.ErrCLBNotFound)
}

func TestByOMKey(t *testing.T) {
	m, _ := newTestMap(t)

	clb, err := m.ByOMKey(clbmap.OMKey{DU: 3, Floor: 13})
	require.NoError(t, err)
	assert.Equal(t, "3.4.3.2/V2-2-1/2.570", clb.UPI)

	_, err = m.ByOMKey(clbmap.OMKey{DU: 9, Floor: 9})
	assert.ErrorIs(t, err, clbmap.ErrCLBNotFound)
}

func TestBaseReturnsFloorZero(t *testing.T) {
	m, _ := newTestMap(t)

	// DU 3 has two CLBs; the base is the floor-0 one.
	base, err := m.Base(3)
	require.NoError(t, err)
	assert.Equal(t, 0, base.Floor)
	assert.Equal(t, 808964852, base.DOMID)

	base, err = m.Base(1)
	require.NoError(t, err)
	assert.Equal(t, 808982547, base.DOMID)

	_, err = m.Base(7)
	assert.ErrorIs(t, err, clbmap.ErrCLBNotFound)
}

func TestLookupsAreSafeForConcurrentCallers(t *testing.T) {
	m, _ := newTestMap(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, clb := range m.All() {
				got, err := m.ByUPI(clb.UPI)
				assert.NoError(t, err)
				assert.Equal(t, clb, got)

				got, err = m.ByDOMID(clb.DOMID)
				assert.NoError(t, err)
				assert.Equal(t, clb, got)

				_, err = m.ByOMKey(clbmap.OMKey{DU: clb.DU, Floor: clb.Floor})
				assert.NoError(t, err)
			}
			base, err := m.Base(3)
			assert.NoError(t, err)
			assert.Equal(t, 0, base.Floor)
		}()
	}
	wg.Wait()
}

func TestIndicesAreIndependentAndMemoized(t *testing.T) {
	m, sds := newTestMap(t)

	_, err := m.ByUPI("3.4.3.2/V2-2-1/2.100")
	require.NoError(t, err)
	_, err = m.ByDOMID(806487231)
	require.NoError(t, err)
	_, err = m.Base(3)
	require.NoError(t, err)

	// All indices derive from the single construction-time fetch.
	assert.Equal(t, 1, sds.calls["clbmap"])
}
