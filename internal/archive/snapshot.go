package archive

import (
	"time"

	"github.com/google/uuid"

	"github.com/arkinlabs/engine/internal/domain"
	"github.com/arkinlabs/engine/internal/featurestore"
)

// Snapshot is a point-in-time dump of ledger and feature-store state, the
// unit archived to object storage on ArchiveConfig.Interval.
type Snapshot struct {
	TakenAt   time.Time         `msgpack:"taken_at"`
	Accounts  []domain.Account  `msgpack:"accounts"`
	Transfers []domain.Transfer `msgpack:"transfers"`
	Features  []FeatureSeries   `msgpack:"features"`
}

// FeatureSeries is one (instrument, feature) series as of the snapshot.
type FeatureSeries struct {
	InstrumentID uuid.UUID             `msgpack:"instrument_id"`
	FeatureID    string                `msgpack:"feature_id"`
	Samples      []featurestore.Sample `msgpack:"samples"`
}
