package clusterconfig

import (
	"sync"

	"github.com/dreamware/vecdb/internal/vectortypes"
)

// StaticRepository is an in-memory Repository useful for tests and for the
// coordinator's unit-test harness: callers push new configs with Set and
// every registered callback fires synchronously.
type StaticRepository struct {
	mu        sync.Mutex
	current   vectortypes.ClusterConfig
	callbacks map[int]ChangeFunc
	nextID    int
}

// NewStaticRepository returns a StaticRepository seeded with cfg.
func NewStaticRepository(cfg vectortypes.ClusterConfig) *StaticRepository {
	return &StaticRepository{
		current:   cfg,
		callbacks: make(map[int]ChangeFunc),
	}
}

// GetClusterConfig implements Repository.
func (r *StaticRepository) GetClusterConfig() (vectortypes.ClusterConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, nil
}

// GetShards implements Repository.
func (r *StaticRepository) GetShards() ([]vectortypes.ShardConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.Shards, nil
}

// OnChange implements Repository.
func (r *StaticRepository) OnChange(fn ChangeFunc) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.callbacks[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.callbacks, id)
		r.mu.Unlock()
	}
}

// Set replaces the current ClusterConfig and synchronously notifies every
// registered callback, mirroring how FileRepository reacts to a write.
func (r *StaticRepository) Set(cfg vectortypes.ClusterConfig) {
	r.mu.Lock()
	r.current = cfg
	callbacks := make([]ChangeFunc, 0, len(r.callbacks))
	for _, fn := range r.callbacks {
		callbacks = append(callbacks, fn)
	}
	r.mu.Unlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
}

// Close implements Repository; StaticRepository holds no resources.
func (r *StaticRepository) Close() error { return nil }
