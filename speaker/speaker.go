// Package speaker implements enrollment, identification and verification
// against a cache of speaker profiles backed by a persistent store. The
// cache is warmed from the store at construction and kept consistent with
// it on every mutation.
package speaker

import (
	"fmt"
	"sync"
	"time"

	"github.com/aurakit/voiceprint-go/audio"
	"github.com/aurakit/voiceprint-go/config"
	"github.com/aurakit/voiceprint-go/embedding"
	"github.com/aurakit/voiceprint-go/onnxsession"
	"github.com/aurakit/voiceprint-go/similarity"
	"github.com/aurakit/voiceprint-go/store"
	"github.com/aurakit/voiceprint-go/vad"
	"github.com/aurakit/voiceprint-go/verrors"
	"go.uber.org/zap"
)

// DefaultThreshold is the minimum cosine score Identify requires to report
// a match when the caller hasn't overridden it via SetThreshold. Verify
// only logs its comparison against the threshold.
const DefaultThreshold = 0.30

// Manager owns an embedding extractor, a persistent store, and an
// in-memory cache of every enrolled profile kept warm for fast
// identification.
type Manager struct {
	extractor *embedding.Extractor
	detector  *vad.Detector
	embModel  *onnxsession.Session
	store     store.Store
	logger    *zap.Logger

	mu        sync.RWMutex
	cache     map[string]store.Profile
	threshold float32
}

// NewManager loads the embedding and VAD models named in cfg.Models,
// opens cfg.StorePath, and warms the in-memory cache from it.
func NewManager(cfg config.Config, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "speaker"))

	vadPath := cfg.ModelDir + "/" + cfg.Models.VAD
	detector, err := vad.Load(vadPath)
	if err != nil {
		return nil, fmt.Errorf("speaker: load vad model: %w", err)
	}

	embPath := cfg.ModelDir + "/" + cfg.Models.Embedding
	embModel, err := onnxsession.Load(embPath, cfg.NumThreads)
	if err != nil {
		detector.Close()
		return nil, fmt.Errorf("speaker: load embedding model: %w", err)
	}

	st, err := store.Open(cfg.StorePath, logger)
	if err != nil {
		detector.Close()
		embModel.Close()
		return nil, fmt.Errorf("speaker: open store: %w", err)
	}

	threshold := cfg.DefaultThreshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	m := &Manager{
		extractor: embedding.New(embModel, detector),
		detector:  detector,
		embModel:  embModel,
		store:     st,
		logger:    logger,
		cache:     make(map[string]store.Profile),
		threshold: threshold,
	}

	profiles, err := st.LoadAll()
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("speaker: warm cache: %w", err)
	}
	for _, p := range profiles {
		m.cache[p.ID] = p
	}
	logger.Info("speaker manager ready", zap.Int("enrolled", len(m.cache)))

	return m, nil
}

// Close releases the manager's models and store.
func (m *Manager) Close() error {
	if m.detector != nil {
		m.detector.Close()
	}
	if m.embModel != nil {
		m.embModel.Close()
	}
	if m.store != nil {
		return m.store.Close()
	}
	return nil
}

// SetThreshold sets the minimum cosine score Identify requires (Verify
// only logs its comparison against it).
// Out-of-[0,1] values are rejected rather than silently clamped.
func (m *Manager) SetThreshold(t float32) error {
	if t < 0 || t > 1 {
		return verrors.ErrInvalidParam
	}
	m.mu.Lock()
	m.threshold = t
	m.mu.Unlock()
	return nil
}

// Count returns the number of enrolled speakers.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cache)
}

// Enroll extracts an embedding from pcm and enrolls or updates id: a
// first enrollment stores the embedding as-is with enroll_count=1; a
// repeat enrollment folds it into the existing profile via an
// incremental mean, then re-normalizes to unit length.
func (m *Manager) Enroll(id string, pcm []float32) error {
	if id == "" {
		return verrors.ErrInvalidParam
	}
	emb, err := m.extractor.Extract(audio.Buffer{Samples: pcm, SampleRate: audio.TargetSampleRate})
	if err != nil {
		return fmt.Errorf("speaker: enroll %s: %w", id, err)
	}
	return m.enrollEmbedding(id, emb)
}

// EnrollFile reads wavPath and enrolls/updates id from it.
func (m *Manager) EnrollFile(id, wavPath string) error {
	if id == "" {
		return verrors.ErrInvalidParam
	}
	emb, err := m.extractor.ExtractFile(wavPath)
	if err != nil {
		return fmt.Errorf("speaker: enroll %s: %w", id, err)
	}
	return m.enrollEmbedding(id, emb)
}

func (m *Manager) enrollEmbedding(id string, emb []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	existing, ok := m.cache[id]
	var profile store.Profile
	if ok {
		profile = store.Profile{
			ID:          id,
			Embedding:   incrementalMean(existing.Embedding, emb, existing.EnrollCount),
			EnrollCount: existing.EnrollCount + 1,
			CreatedAt:   existing.CreatedAt,
			UpdatedAt:   now,
		}
		embedding.L2Normalize(profile.Embedding)
	} else {
		profile = store.Profile{
			ID:          id,
			Embedding:   emb,
			EnrollCount: 1,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	if err := m.store.Save(profile); err != nil {
		return fmt.Errorf("speaker: persist %s: %w", id, err)
	}
	m.cache[id] = profile
	m.logger.Info("enrolled speaker", zap.String("id", id), zap.Int("count", profile.EnrollCount))
	return nil
}

// incrementalMean folds newEmb into the running mean oldEmb (computed
// over n prior enrollments), weighting each existing dimension by n and
// the new sample by 1.
func incrementalMean(oldEmb, newEmb []float32, n int) []float32 {
	out := make([]float32, len(oldEmb))
	for i := range oldEmb {
		var nv float32
		if i < len(newEmb) {
			nv = newEmb[i]
		}
		out[i] = (oldEmb[i]*float32(n) + nv) / float32(n+1)
	}
	return out
}

// Remove deletes id from both the cache and the store.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cache[id]; !ok {
		return verrors.ErrSpeakerNotFound
	}
	if err := m.store.Remove(id); err != nil {
		return fmt.Errorf("speaker: remove %s: %w", id, err)
	}
	delete(m.cache, id)
	return nil
}

// Identify extracts an embedding from pcm and searches every enrolled
// speaker for the closest match. It snapshots the cache under a read
// lock, then scores the snapshot without holding the lock — so a
// concurrent Enroll/Remove can proceed while Identify is scoring, at the
// cost of Identify potentially missing (or still seeing) a profile that
// changed mid-call.
func (m *Manager) Identify(pcm []float32) (id string, score float32, err error) {
	emb, err := m.extractor.Extract(audio.Buffer{Samples: pcm, SampleRate: audio.TargetSampleRate})
	if err != nil {
		return "", 0, fmt.Errorf("speaker: identify: %w", err)
	}
	return m.IdentifyEmbedding(emb)
}

// IdentifyEmbedding searches every enrolled speaker for the closest match
// to an already-extracted embedding, without re-running VAD/fbank/model
// inference — used by the diarizer, which already has per-segment
// embeddings of its own.
func (m *Manager) IdentifyEmbedding(emb []float32) (id string, score float32, err error) {
	m.mu.RLock()
	candidates := make([]similarity.Candidate, 0, len(m.cache))
	for cid, p := range m.cache {
		candidates = append(candidates, similarity.Candidate{ID: cid, Embedding: p.Embedding})
	}
	threshold := m.threshold
	m.mu.RUnlock()

	if len(candidates) == 0 {
		return "", 0, verrors.ErrNoMatch
	}

	match := similarity.FindBestMatch(emb, candidates)
	if match.Score < threshold {
		return "", match.Score, verrors.ErrNoMatch
	}
	return match.ID, match.Score, nil
}

// Verify extracts an embedding from pcm and scores it against the
// specific enrolled speaker id. A successful extraction always returns a
// nil error; the returned score does not by itself imply a match — the
// caller compares it against its own threshold (see SetThreshold).
func (m *Manager) Verify(id string, pcm []float32) (score float32, err error) {
	m.mu.RLock()
	profile, ok := m.cache[id]
	threshold := m.threshold
	m.mu.RUnlock()
	if !ok {
		return 0, verrors.ErrSpeakerNotFound
	}

	emb, err := m.extractor.Extract(audio.Buffer{Samples: pcm, SampleRate: audio.TargetSampleRate})
	if err != nil {
		return 0, fmt.Errorf("speaker: verify %s: %w", id, err)
	}

	score = similarity.Cosine(emb, profile.Embedding)
	if score >= threshold {
		m.logger.Debug("verify matched", zap.String("id", id), zap.Float32("score", score))
	} else {
		m.logger.Debug("verify did not match", zap.String("id", id), zap.Float32("score", score))
	}
	return score, nil
}
