// Package diarize segments a multi-speaker recording into
// speaker-homogeneous spans: VAD finds speech segments, each segment is
// embedded independently, agglomerative clustering groups the embeddings
// by speaker, and an optional speaker.Manager resolves cluster centroids
// to enrolled speaker IDs.
package diarize

import (
	"fmt"

	"github.com/aurakit/voiceprint-go/audio"
	"github.com/aurakit/voiceprint-go/cluster"
	"github.com/aurakit/voiceprint-go/config"
	"github.com/aurakit/voiceprint-go/embedding"
	"github.com/aurakit/voiceprint-go/onnxsession"
	"github.com/aurakit/voiceprint-go/result"
	"github.com/aurakit/voiceprint-go/speaker"
	"github.com/aurakit/voiceprint-go/vad"
	"go.uber.org/zap"
)

// MinSegmentDurationSec is the shortest VAD segment the diarizer will
// attempt to embed; shorter segments are dropped rather than producing
// an unreliable per-segment embedding.
const MinSegmentDurationSec float32 = 0.5

// Diarizer wraps a VAD detector and embedding extractor with
// agglomerative clustering, plus an optional speaker.Manager used to
// resolve cluster centroids to enrolled speaker IDs.
type Diarizer struct {
	detector  *vad.Detector
	extractor *embedding.Extractor
	embModel  *onnxsession.Session
	manager   *speaker.Manager
	logger    *zap.Logger
}

// New loads the VAD and embedding models named in cfg.Models. manager may
// be nil, in which case diarized segments are never matched to an
// enrolled speaker ID.
func New(cfg config.Config, manager *speaker.Manager, logger *zap.Logger) (*Diarizer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "diarize"))

	detector, err := vad.Load(cfg.ModelDir + "/" + cfg.Models.VAD)
	if err != nil {
		return nil, fmt.Errorf("diarize: load vad model: %w", err)
	}

	embModel, err := onnxsession.Load(cfg.ModelDir+"/"+cfg.Models.Embedding, cfg.NumThreads)
	if err != nil {
		detector.Close()
		return nil, fmt.Errorf("diarize: load embedding model: %w", err)
	}

	return &Diarizer{
		detector:  detector,
		extractor: embedding.New(embModel, detector),
		embModel:  embModel,
		manager:   manager,
		logger:    logger,
	}, nil
}

// Close releases the diarizer's models.
func (d *Diarizer) Close() error {
	d.detector.Close()
	d.embModel.Close()
	return nil
}

// Diarize segments pcm (16kHz mono), embeds each speech segment, clusters
// the embeddings by speaker, and returns one DiarizeSegment per VAD
// segment that is at least MinSegmentDurationSec long and yields an
// embedding (other segments are dropped), labeled with its cluster and
// (when manager is set and the
// cluster centroid matches an enrolled speaker above the manager's own
// threshold) its matched enrolled speaker ID. maxClusters caps the number
// of distinct speakers reported; 0 means unbounded. Finding no usable
// speech, or failing to embed any of it, is not an error: Diarize returns
// a nil slice and a nil error.
func (d *Diarizer) Diarize(pcm []float32, maxClusters int) ([]result.DiarizeSegment, error) {
	segments, err := d.detector.Detect(pcm)
	if err != nil {
		return nil, fmt.Errorf("diarize: vad: %w", err)
	}

	minSamples := int(MinSegmentDurationSec * float32(audio.TargetSampleRate))
	var usable []vad.Segment
	for _, seg := range segments {
		if seg.EndSample-seg.StartSample >= minSamples {
			usable = append(usable, seg)
		}
	}
	if len(usable) == 0 {
		d.logger.Warn("no speech segments found")
		return nil, nil
	}

	embeddings := make([][]float32, 0, len(usable))
	kept := make([]vad.Segment, 0, len(usable))
	for _, seg := range usable {
		start, end := seg.StartSample, seg.EndSample
		if end > len(pcm) {
			end = len(pcm)
		}
		emb, err := d.extractor.Extract(audio.Buffer{Samples: pcm[start:end], SampleRate: audio.TargetSampleRate})
		if err != nil {
			d.logger.Warn("dropping unembeddable segment", zap.Int("start", start), zap.Int("end", end), zap.Error(err))
			continue
		}
		embeddings = append(embeddings, emb)
		kept = append(kept, seg)
	}
	if len(embeddings) == 0 {
		d.logger.Warn("no segments yielded an embeddable speaker span")
		return nil, nil
	}

	clustered := cluster.Agglomerative(embeddings, cluster.DefaultThreshold, maxClusters)

	speakerIDs := make([]string, clustered.NumClusters)
	if d.manager != nil {
		for i, centroid := range clustered.Centroids {
			if id, _, err := d.manager.IdentifyEmbedding(centroid); err == nil {
				speakerIDs[i] = id
			}
		}
	}

	out := make([]result.DiarizeSegment, len(kept))
	for i, seg := range kept {
		label := clustered.Labels[i]
		out[i] = result.DiarizeSegment{
			StartSec:     float32(seg.StartSample) / float32(audio.TargetSampleRate),
			EndSec:       float32(seg.EndSample) / float32(audio.TargetSampleRate),
			Confidence:   seg.Confidence,
			SpeakerLabel: fmt.Sprintf("SPEAKER_%d", label),
			SpeakerID:    speakerIDs[label],
		}
	}
	return out, nil
}

// DiarizeFile reads wavPath (resampling to 16kHz if needed) and diarizes
// it.
func (d *Diarizer) DiarizeFile(wavPath string, maxClusters int) ([]result.DiarizeSegment, error) {
	buf, err := audio.ReadWAV(wavPath)
	if err != nil {
		return nil, fmt.Errorf("diarize: %w", err)
	}
	norm := buf.Normalize()
	return d.Diarize(norm.Samples, maxClusters)
}
