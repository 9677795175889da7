package brush

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/quake-explorer/internal/models"
	"github.com/mr1hm/quake-explorer/internal/projection"
)

// identity projects lon/lat straight onto x/y.
type identity struct{}

func (identity) Project(lon, lat float64) (float64, float64, bool) {
	return lon, lat, true
}

// hideNegative hides every point west of the meridian.
type hideNegative struct{}

func (hideNegative) Project(lon, lat float64) (float64, float64, bool) {
	return lon, lat, lon >= 0
}

func TestMachine_FullCycle(t *testing.T) {
	m := NewMachine()
	assert.Equal(t, PhaseIdle, m.Phase())
	assert.True(t, m.InteractionsEnabled())

	require.True(t, m.Toggle())
	assert.Equal(t, PhaseSelect, m.Phase())
	assert.False(t, m.InteractionsEnabled())

	require.NoError(t, m.Begin())
	assert.Equal(t, PhaseSelecting, m.Phase())
	assert.False(t, m.InteractionsEnabled())

	require.NoError(t, m.Release(Rect{X0: 10, Y0: 10, X1: 0, Y1: 0}, identity{}))
	assert.Equal(t, PhaseDone, m.Phase())
	assert.True(t, m.InteractionsEnabled())
	require.NotNil(t, m.Selection())
	assert.Equal(t, Rect{X0: 0, Y0: 0, X1: 10, Y1: 10}, m.Selection().Rect)

	require.True(t, m.Toggle())
	assert.Equal(t, PhaseIdle, m.Phase())
	assert.Nil(t, m.Selection())
}

func TestMachine_ZeroAreaReleaseClears(t *testing.T) {
	m := NewMachine()
	m.Toggle()
	require.NoError(t, m.Begin())

	require.NoError(t, m.Release(Rect{X0: 5, Y0: 5, X1: 5, Y1: 50}, identity{}))
	assert.Equal(t, PhaseIdle, m.Phase())
	assert.Nil(t, m.Selection())
}

func TestMachine_ToggleIgnoredMidSelection(t *testing.T) {
	m := NewMachine()
	m.Toggle()
	assert.False(t, m.Toggle())
	assert.Equal(t, PhaseSelect, m.Phase())

	require.NoError(t, m.Begin())
	assert.False(t, m.Toggle())
	assert.Equal(t, PhaseSelecting, m.Phase())
}

func TestMachine_NewDragDiscardsPrevious(t *testing.T) {
	m := NewMachine()
	m.Toggle()
	require.NoError(t, m.Begin())
	require.NoError(t, m.Release(Rect{X1: 10, Y1: 10}, identity{}))

	require.NoError(t, m.Begin())
	assert.Equal(t, PhaseSelecting, m.Phase())
	assert.Nil(t, m.Selection())

	require.NoError(t, m.Release(Rect{X0: 20, Y0: 20, X1: 30, Y1: 30}, identity{}))
	assert.Equal(t, Rect{X0: 20, Y0: 20, X1: 30, Y1: 30}, m.Selection().Rect)
}

func TestMachine_CancelFromAnyActivePhase(t *testing.T) {
	m := NewMachine()
	assert.False(t, m.Cancel())

	m.Toggle()
	assert.True(t, m.Cancel())
	assert.Equal(t, PhaseIdle, m.Phase())

	m.Toggle()
	require.NoError(t, m.Begin())
	assert.True(t, m.Cancel())
	assert.Equal(t, PhaseIdle, m.Phase())
}

func TestMachine_InvalidTransitions(t *testing.T) {
	m := NewMachine()

	err := m.Begin()
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	err = m.Release(Rect{X1: 1, Y1: 1}, identity{})
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, PhaseIdle, m.Phase())

	m.Toggle()
	err = m.Release(Rect{X1: 1, Y1: 1}, identity{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, PhaseSelect, m.Phase())
}

func TestSelection_ApplyInclusive(t *testing.T) {
	records := []models.EarthquakeRecord{
		{Location: "corner", Longitude: 0, Latitude: 0},
		{Location: "edge", Longitude: 10, Latitude: 5},
		{Location: "inside", Longitude: 5, Latitude: 5},
		{Location: "outside", Longitude: 10.01, Latitude: 5},
		{Location: "hidden", Longitude: -1, Latitude: 5},
	}

	sel := &Selection{Rect: Rect{X0: -5, Y0: 0, X1: 10, Y1: 10}, Projector: hideNegative{}}
	var got []string
	for _, r := range sel.Apply(records) {
		got = append(got, r.Location)
	}
	assert.Equal(t, []string{"corner", "edge", "inside"}, got)
}

func TestSelection_ApplyUnderRealProjection(t *testing.T) {
	p := projection.Equirectangular{
		Scale:      projection.MapScale(projection.DefaultWidth, 1),
		TranslateX: projection.DefaultWidth / 2,
		TranslateY: projection.DefaultHeight / 2,
	}
	records := []models.EarthquakeRecord{
		{Location: "JAPAN", Longitude: 142.4, Latitude: 38.3},
		{Location: "CHILE", Longitude: -73, Latitude: -38},
	}

	x, y, _ := p.Project(142.4, 38.3)
	sel := &Selection{Rect: Rect{X0: x - 1, Y0: y - 1, X1: x + 1, Y1: y + 1}, Projector: p}

	got := sel.Apply(records)
	require.Len(t, got, 1)
	assert.Equal(t, "JAPAN", got[0].Location)
}

func TestRect_Clip(t *testing.T) {
	r := Rect{X0: 900, Y0: -20, X1: 100, Y1: 200}.Clip(800, 500)
	assert.Equal(t, Rect{X0: 100, Y0: 0, X1: 800, Y1: 200}, r)
}
