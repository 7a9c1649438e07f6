// Package archive periodically snapshots ledger and feature-store state and
// uploads it, msgpack-encoded, to an S3-compatible bucket for durability
// beyond the process lifetime.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/arkinlabs/engine/internal/config"
	"github.com/arkinlabs/engine/internal/featurestore"
	"github.com/arkinlabs/engine/internal/ledger"
)

// Archiver uploads ledger/feature-store snapshots to object storage on a
// fixed cadence.
type Archiver struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string

	ledger   *ledger.Ledger
	features *featurestore.Store
	log      zerolog.Logger
}

// New builds an Archiver. It loads AWS credentials from the default
// provider chain (env vars, shared config, instance role); cfg.Endpoint
// overrides the endpoint and forces path-style addressing for
// S3-compatible stores such as Cloudflare R2.
func New(ctx context.Context, cfg config.ArchiveConfig, led *ledger.Ledger, features *featurestore.Store, log zerolog.Logger) (*Archiver, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Archiver{
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		ledger:   led,
		features: features,
		log:      log.With().Str("component", "archive").Logger(),
	}, nil
}

// Snapshot builds a Snapshot of the current ledger and feature-store state.
func (a *Archiver) Snapshot() Snapshot {
	dump := a.features.Dump()
	series := make([]FeatureSeries, 0, len(dump))
	for key, samples := range dump {
		series = append(series, FeatureSeries{
			InstrumentID: key.InstrumentID,
			FeatureID:    key.FeatureID.String(),
			Samples:      samples,
		})
	}

	return Snapshot{
		TakenAt:   time.Now().UTC(),
		Accounts:  a.ledger.Accounts(),
		Transfers: a.ledger.Transfers(),
		Features:  series,
	}
}

// Upload takes a snapshot and writes it to the configured bucket.
func (a *Archiver) Upload(ctx context.Context) error {
	snap := a.Snapshot()
	payload, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	key := snapshotKey(a.prefix, snap.TakenAt)
	if _, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(payload),
	}); err != nil {
		return fmt.Errorf("failed to upload snapshot to %s: %w", key, err)
	}

	a.log.Info().
		Str("key", key).
		Int("accounts", len(snap.Accounts)).
		Int("transfers", len(snap.Transfers)).
		Int("series", len(snap.Features)).
		Msg("archived snapshot")
	return nil
}

// Run uploads a snapshot every interval until ctx is cancelled. Upload
// errors are logged, not fatal: a missed snapshot does not stop the loop.
func (a *Archiver) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.Upload(ctx); err != nil {
				a.log.Error().Err(err).Msg("snapshot upload failed")
			}
		}
	}
}

func snapshotKey(prefix string, at time.Time) string {
	return fmt.Sprintf("%s/%s.msgpack", prefix, at.Format("20060102T150405Z"))
}
