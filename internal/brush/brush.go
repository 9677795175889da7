// Package brush implements the rectangular region selection that restricts
// every dashboard view to the records drawn inside it.
package brush

import (
	"errors"
	"fmt"
	"math"

	"github.com/mr1hm/quake-explorer/internal/models"
	"github.com/mr1hm/quake-explorer/internal/projection"
)

var ErrInvalidTransition = errors.New("invalid brush transition")

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseSelect    Phase = "select"
	PhaseSelecting Phase = "selecting"
	PhaseDone      Phase = "done"
)

// Rect is a screen-space rectangle. Use Normalize before testing containment.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Normalize orders the corners so X0 <= X1 and Y0 <= Y1.
func (r Rect) Normalize() Rect {
	return Rect{
		X0: math.Min(r.X0, r.X1),
		Y0: math.Min(r.Y0, r.Y1),
		X1: math.Max(r.X0, r.X1),
		Y1: math.Max(r.Y0, r.Y1),
	}
}

// Clip limits r to the [0,w]x[0,h] viewport.
func (r Rect) Clip(w, h float64) Rect {
	r = r.Normalize()
	return Rect{
		X0: math.Max(0, math.Min(w, r.X0)),
		Y0: math.Max(0, math.Min(h, r.Y0)),
		X1: math.Max(0, math.Min(w, r.X1)),
		Y1: math.Max(0, math.Min(h, r.Y1)),
	}
}

func (r Rect) Area() float64 {
	n := r.Normalize()
	return (n.X1 - n.X0) * (n.Y1 - n.Y0)
}

// Contains is inclusive on every edge.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X0 && x <= r.X1 && y >= r.Y0 && y <= r.Y1
}

// Selection is a released rectangle together with the projection that was
// on screen when it was drawn.
type Selection struct {
	Rect      Rect
	Projector projection.Projector
}

// Apply keeps the records whose projected position falls inside the
// selection. Records hidden by the projection are excluded.
func (s *Selection) Apply(records []models.EarthquakeRecord) []models.EarthquakeRecord {
	out := make([]models.EarthquakeRecord, 0, len(records))
	for i := range records {
		x, y, ok := s.Projector.Project(records[i].Longitude, records[i].Latitude)
		if ok && s.Rect.Contains(x, y) {
			out = append(out, records[i])
		}
	}
	return out
}

// Machine is the brush state machine:
//
//	idle -> select -> selecting -> done -> idle
//
// Only one selection is live at a time.
type Machine struct {
	phase     Phase
	selection *Selection
}

func NewMachine() *Machine {
	return &Machine{phase: PhaseIdle}
}

func (m *Machine) Phase() Phase {
	return m.phase
}

// Selection returns the live selection, or nil unless the phase is done.
func (m *Machine) Selection() *Selection {
	return m.selection
}

// InteractionsEnabled reports whether pan, rotate and zoom are allowed.
// They are suspended while a rectangle is being chosen.
func (m *Machine) InteractionsEnabled() bool {
	return m.phase == PhaseIdle || m.phase == PhaseDone
}

// Toggle handles the select-region button: idle arms the brush, done clears
// it, and the button is ignored mid-selection. It reports whether the phase
// changed.
func (m *Machine) Toggle() bool {
	switch m.phase {
	case PhaseIdle:
		m.phase = PhaseSelect
		return true
	case PhaseDone:
		m.reset()
		return true
	}
	return false
}

// Begin starts dragging a rectangle. Starting from done discards the
// previous selection.
func (m *Machine) Begin() error {
	if m.phase != PhaseSelect && m.phase != PhaseDone {
		return fmt.Errorf("%w: begin from %s", ErrInvalidTransition, m.phase)
	}
	m.selection = nil
	m.phase = PhaseSelecting
	return nil
}

// Release finishes the drag. A zero-area rectangle clears the brush back to
// idle.
func (m *Machine) Release(r Rect, p projection.Projector) error {
	if m.phase != PhaseSelecting {
		return fmt.Errorf("%w: release from %s", ErrInvalidTransition, m.phase)
	}
	r = r.Normalize()
	if r.Area() == 0 {
		m.reset()
		return nil
	}
	m.selection = &Selection{Rect: r, Projector: p}
	m.phase = PhaseDone
	return nil
}

// Cancel handles a click outside the view. It reports whether there was
// anything to cancel.
func (m *Machine) Cancel() bool {
	if m.phase == PhaseIdle {
		return false
	}
	m.reset()
	return true
}

func (m *Machine) reset() {
	m.phase = PhaseIdle
	m.selection = nil
}
