package simulator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"anomalydash/internal/logger"
	"anomalydash/internal/services/storage"
)

// Broadcaster delivers one encoded frame to every feed subscriber.
type Broadcaster interface {
	Broadcast(message []byte)
}

// Annotator marks an anomaly frame before it is archived.
type Annotator func(frame []byte, label string) ([]byte, error)

type ReplayOptions struct {
	Interval     time.Duration
	AnomalyEvery int    // every Nth frame (N>0) is reported as an anomaly
	Folder       string // chain folder of the replayed video, video_N
}

type framePacket struct {
	Frame        string  `json:"frame"`
	IsAnomaly    bool    `json:"is_anomaly"`
	AnomalyScore float64 `json:"anomaly_score"`
}

// Replayer emits frames from a source at a fixed rate with mock detection. An
// anomaly is logged on the chain and, annotated, queued for the catalog.
type Replayer struct {
	source   FrameSource
	out      Broadcaster
	chain    *Chain
	buffer   *storage.BufferService
	annotate Annotator
	opts     ReplayOptions
	rng      *rand.Rand
	logger   *logger.Logger
	frame    int
}

func NewReplayer(source FrameSource, out Broadcaster, chain *Chain, buffer *storage.BufferService, opts ReplayOptions, logger *logger.Logger) *Replayer {
	if opts.AnomalyEvery <= 0 {
		opts.AnomalyEvery = 50
	}
	if opts.Folder == "" {
		opts.Folder = "video_1"
	}
	now := uint64(time.Now().UnixNano())
	return &Replayer{
		source: source,
		out:    out,
		chain:  chain,
		buffer: buffer,
		opts:   opts,
		rng:    rand.New(rand.NewPCG(now, now>>1)),
		logger: logger,
	}
}

// SetAnnotator sets how archived anomaly frames are marked. Without one they are
// archived as captured.
func (r *Replayer) SetAnnotator(a Annotator) {
	r.annotate = a
}

// Run emits one frame per interval until ctx is done.
func (r *Replayer) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	r.logger.Info("▶️  Replaying frames every %s, anomaly every %d", r.opts.Interval, r.opts.AnomalyEvery)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.Step(); err != nil {
				return err
			}
		}
	}
}

// Step reads, scores and broadcasts the next frame.
func (r *Replayer) Step() error {
	data, err := r.source.Next()
	if err != nil {
		return fmt.Errorf("failed to read frame %d: %w", r.frame, err)
	}

	anomaly := r.frame > 0 && r.frame%r.opts.AnomalyEvery == 0
	score := r.score(anomaly)
	if anomaly {
		r.archive(data, score)
	}

	packet, err := json.Marshal(framePacket{
		Frame:        base64.StdEncoding.EncodeToString(data),
		IsAnomaly:    anomaly,
		AnomalyScore: score,
	})
	if err != nil {
		return err
	}
	r.out.Broadcast(packet)

	r.frame++
	return nil
}

func (r *Replayer) score(anomaly bool) float64 {
	if anomaly {
		return 0.3 + r.rng.Float64()*0.6
	}
	return 0.1 + r.rng.Float64()*0.3
}

func (r *Replayer) archive(data []byte, score float64) {
	tx, err := r.chain.Record(r.opts.Folder, r.frame, score)
	if err != nil {
		r.logger.Error("Error recording anomaly at frame %d: %v", r.frame, err)
		return
	}
	r.logger.Info("🚨 Anomaly at frame %d (score %s), tx %d", tx.Frame, tx.Error, tx.Index)

	if r.buffer == nil {
		return
	}
	if r.annotate != nil {
		label := "ANOMALY " + tx.Error
		if annotated, err := r.annotate(data, label); err != nil {
			r.logger.Warning("Archiving frame %d unannotated: %v", r.frame, err)
		} else {
			data = annotated
		}
	}
	name, ok := MatchFilename(tx)
	if !ok {
		name = fmt.Sprintf("%s_frame%05d.jpg", tx.Folder, tx.Frame)
	}
	r.buffer.AddImage(name, data)
}
