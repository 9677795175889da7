package dashboard

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/minio/highwayhash"

	"github.com/mr1hm/quake-explorer/internal/aggregate"
	"github.com/mr1hm/quake-explorer/internal/brush"
	"github.com/mr1hm/quake-explorer/internal/filter"
)

var fingerprintKey = []byte("quake-explorer-snapshot-hash-key")

type BrushView struct {
	Phase               brush.Phase `json:"phase"`
	Rect                *brush.Rect `json:"rect,omitempty"`
	InteractionsEnabled bool        `json:"interactions_enabled"`
}

type AnimationView struct {
	Playing bool `json:"playing"`
	Speed   int  `json:"speed"`
}

// Snapshot is one complete rendering of the dashboard. Every view in it was
// derived from the same effective set.
type Snapshot struct {
	Fingerprint string                `json:"fingerprint"`
	Filters     filter.State          `json:"filters"`
	Brush       BrushView             `json:"brush"`
	View        View                  `json:"view"`
	Animation   AnimationView         `json:"animation"`
	Effective   int                   `json:"effective"`
	Legend      []aggregate.Tier      `json:"legend"`
	Markers     []aggregate.Marker    `json:"markers"`
	Bars        aggregate.StackedBars `json:"bars"`
	Top         aggregate.TopList     `json:"top"`
	Scatter     aggregate.Scatter     `json:"scatter"`
}

// seal computes the fingerprint over the snapshot's content. Identical
// content always yields the identical fingerprint.
func (s *Snapshot) seal() error {
	s.Fingerprint = ""
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("error encoding snapshot: %w", err)
	}

	h, err := highwayhash.New(fingerprintKey)
	if err != nil {
		return fmt.Errorf("failed to create hash: %w", err)
	}
	h.Write(data)
	s.Fingerprint = hex.EncodeToString(h.Sum(nil))
	return nil
}
