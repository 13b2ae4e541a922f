package intake

import (
	"context"
	"sync"
	"time"

	"github.com/healthalyze/healthalyze_backend/internal/service/wizard"
)

// DraftStore keeps in-progress questionnaires between requests.
type DraftStore interface {
	// Load returns nil, nil when the subject has no draft.
	Load(ctx context.Context, subjectID string) (*wizard.Snapshot, error)
	Save(ctx context.Context, subjectID string, s wizard.Snapshot) error
	Delete(ctx context.Context, subjectID string) error
}

type memoryDraft struct {
	snap    wizard.Snapshot
	expires time.Time
}

// MemoryDrafts is a process-local DraftStore for development and tests.
type MemoryDrafts struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	drafts map[string]memoryDraft
}

func NewMemoryDrafts(ttl time.Duration) *MemoryDrafts {
	return &MemoryDrafts{ttl: ttl, now: time.Now, drafts: map[string]memoryDraft{}}
}

func (m *MemoryDrafts) Load(_ context.Context, subjectID string) (*wizard.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.drafts[subjectID]
	if !ok {
		return nil, nil
	}
	if m.ttl > 0 && !m.now().Before(d.expires) {
		delete(m.drafts, subjectID)
		return nil, nil
	}
	snap := d.snap
	snap.Answers = d.snap.Answers.Clone()
	return &snap, nil
}

func (m *MemoryDrafts) Save(_ context.Context, subjectID string, s wizard.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.Answers = s.Answers.Clone()
	m.drafts[subjectID] = memoryDraft{snap: s, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryDrafts) Delete(_ context.Context, subjectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.drafts, subjectID)
	return nil
}
