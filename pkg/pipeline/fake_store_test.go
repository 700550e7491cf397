package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"ml-segregation-be/internal/entity"
	"ml-segregation-be/internal/repository/contract"
	"ml-segregation-be/internal/repository/specification"
	"ml-segregation-be/internal/repository/unitofwork"
)

// fakeStore is an in-memory stand-in for the Postgres-backed repositories.
// It interprets the same specification types the GORM implementations do,
// so gate and orchestrator logic is exercised unchanged.
type fakeStore struct {
	mu        sync.Mutex
	sessions  map[string]*entity.PreparedSession
	state     *entity.PipelineState
	decisions []*entity.GateDecision
	records   []*entity.DispatchRecord

	failCount func() error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[string]*entity.PreparedSession),
	}
}

func (f *fakeStore) seed(prefix, label string, n int, deferred bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		s := &entity.PreparedSession{
			Uuid:            prefix + "-" + string(rune('a'+i/26)) + string(rune('a'+i%26)),
			Label:           label,
			MedianLongitude: float64(i),
			MedianLatitude:  float64(i) / 2,
			MeanDiffTime:    float64(i * 10),
			MeanDiffAmount:  float64(i * 3),
			MedianTargetIP:  "10.0.0.1",
			MedianDestIP:    "192.168.0.1",
			Deferred:        deferred,
			CreatedAt:       time.Now(),
		}
		f.sessions[s.Uuid] = s
	}
}

func (f *fakeStore) setPhase(phase entity.PipelinePhase) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = &entity.PipelineState{Id: 1, Phase: phase, UpdatedAt: time.Now()}
}

func (f *fakeStore) phase() entity.PipelinePhase {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == nil {
		return ""
	}
	return f.state.Phase
}

func (f *fakeStore) countWhere(match func(*entity.PreparedSession) bool) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.sessions {
		if match(s) {
			n++
		}
	}
	return n
}

func matchSpecs(s *entity.PreparedSession, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.Pending:
			if s.Processed || s.Deferred {
				return false
			}
		case specification.Unprocessed:
			if s.Processed {
				return false
			}
		case specification.Processed:
			if !s.Processed {
				return false
			}
		case specification.Deferred:
			if !s.Deferred || s.Processed {
				return false
			}
		case specification.ByLabel:
			if s.Label != sp.Label {
				return false
			}
		case specification.ByUuids:
			found := false
			for _, u := range sp.Uuids {
				if u == s.Uuid {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// --- unit of work plumbing ---

type fakeFactory struct {
	store *fakeStore
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: f.store}
}

func newFakeFactory(store *fakeStore) unitofwork.RepositoryFactory {
	return &fakeFactory{store: store}
}

type fakeUow struct {
	store *fakeStore
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) SessionRepository() contract.SessionRepository {
	return &fakeSessionRepo{store: u.store}
}

func (u *fakeUow) PipelineStateRepository() contract.PipelineStateRepository {
	return &fakeStateRepo{store: u.store}
}

func (u *fakeUow) GateDecisionRepository() contract.GateDecisionRepository {
	return &fakeDecisionRepo{store: u.store}
}

func (u *fakeUow) DispatchRecordRepository() contract.DispatchRecordRepository {
	return &fakeRecordRepo{store: u.store}
}

// --- repositories ---

type fakeSessionRepo struct {
	store *fakeStore
}

func (r *fakeSessionRepo) CreateBatch(ctx context.Context, sessions []*entity.PreparedSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range sessions {
		if _, exists := r.store.sessions[s.Uuid]; exists {
			return contract.ErrDuplicateSession
		}
	}
	for _, s := range sessions {
		copied := *s
		r.store.sessions[s.Uuid] = &copied
	}
	return nil
}

func (r *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PreparedSession, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*entity.PreparedSession, 0)
	for _, s := range r.store.sessions {
		if matchSpecs(s, specs) {
			copied := *s
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Uuid < out[j].Uuid })
	return out, nil
}

func (r *fakeSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	if r.store.failCount != nil {
		if err := r.store.failCount(); err != nil {
			return 0, err
		}
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for _, s := range r.store.sessions {
		if matchSpecs(s, specs) {
			n++
		}
	}
	return n, nil
}

func (r *fakeSessionRepo) LabelCounts(ctx context.Context, specs ...specification.Specification) (map[string]int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	counts := make(map[string]int64)
	for _, s := range r.store.sessions {
		if matchSpecs(s, specs) {
			counts[s.Label]++
		}
	}
	return counts, nil
}

func (r *fakeSessionRepo) MarkProcessed(ctx context.Context, uuids []string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range uuids {
		if s, ok := r.store.sessions[u]; ok {
			s.Processed = true
		}
	}
	return nil
}

func (r *fakeSessionRepo) RequeueDeferred(ctx context.Context) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range r.store.sessions {
		if !s.Processed {
			s.Deferred = false
		}
	}
	return nil
}

func (r *fakeSessionRepo) DeleteProcessed(ctx context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for u, s := range r.store.sessions {
		if s.Processed {
			delete(r.store.sessions, u)
			n++
		}
	}
	return n, nil
}

type fakeStateRepo struct {
	store *fakeStore
}

func (r *fakeStateRepo) Get(ctx context.Context) (*entity.PipelineState, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.state == nil {
		return nil, nil
	}
	copied := *r.store.state
	return &copied, nil
}

func (r *fakeStateRepo) GetLocked(ctx context.Context) (*entity.PipelineState, error) {
	return r.Get(ctx)
}

func (r *fakeStateRepo) Save(ctx context.Context, phase entity.PipelinePhase) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.state = &entity.PipelineState{Id: 1, Phase: phase, UpdatedAt: time.Now()}
	return nil
}

type fakeDecisionRepo struct {
	store *fakeStore
}

func (r *fakeDecisionRepo) Create(ctx context.Context, d *entity.GateDecision) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	copied := *d
	r.store.decisions = append(r.store.decisions, &copied)
	return nil
}

func (r *fakeDecisionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.GateDecision, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]*entity.GateDecision(nil), r.store.decisions...), nil
}

func (r *fakeDecisionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.decisions)), nil
}

type fakeRecordRepo struct {
	store *fakeStore
}

func (r *fakeRecordRepo) Create(ctx context.Context, rec *entity.DispatchRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	copied := *rec
	r.store.records = append(r.store.records, &copied)
	return nil
}

func (r *fakeRecordRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DispatchRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]*entity.DispatchRecord(nil), r.store.records...), nil
}

func (r *fakeRecordRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.records)), nil
}
