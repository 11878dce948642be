package clusterconfig

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dreamware/vecdb/internal/vectortypes"
)

// fileDocument is the on-disk YAML shape: a thin wrapper so the file can
// grow additional top-level keys later without touching ClusterConfig.
type fileDocument struct {
	Shards []vectortypes.ShardConfig `yaml:"shards"`
}

// FileRepository implements Repository by reading a YAML file and watching
// it for changes with fsnotify, republishing a validated ClusterConfig on
// every write. It is the concrete stand-in for the external, ZooKeeper-
// shaped config store the design assumes.
type FileRepository struct {
	path    string
	logger  *zap.SugaredLogger
	watcher *fsnotify.Watcher

	current atomic.Pointer[vectortypes.ClusterConfig]

	mu        sync.Mutex
	callbacks map[int]ChangeFunc
	nextID    int

	done chan struct{}
}

// NewFileRepository loads path once, starts watching it for writes, and
// returns a ready Repository. The initial load must succeed and pass
// ClusterConfig.Validate; subsequent invalid writes are logged and ignored,
// leaving the last-known-good config in place.
func NewFileRepository(path string, logger *zap.SugaredLogger) (*FileRepository, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	r := &FileRepository{
		path:      path,
		logger:    logger,
		callbacks: make(map[int]ChangeFunc),
		done:      make(chan struct{}),
	}

	cfg, err := r.load()
	if err != nil {
		return nil, fmt.Errorf("clusterconfig: initial load of %s: %w", path, err)
	}
	r.current.Store(&cfg)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("clusterconfig: creating watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("clusterconfig: watching %s: %w", path, err)
	}
	r.watcher = watcher

	go r.watch()
	return r, nil
}

func (r *FileRepository) load() (vectortypes.ClusterConfig, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return vectortypes.ClusterConfig{}, err
	}
	var doc fileDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return vectortypes.ClusterConfig{}, fmt.Errorf("parsing yaml: %w", err)
	}
	cfg := vectortypes.ClusterConfig{Shards: doc.Shards}
	if err := cfg.Validate(); err != nil {
		return vectortypes.ClusterConfig{}, err
	}
	return cfg, nil
}

func (r *FileRepository) watch() {
	for {
		select {
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			r.reload()
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warnw("clusterconfig watcher error", "path", r.path, "error", err)
		case <-r.done:
			return
		}
	}
}

func (r *FileRepository) reload() {
	cfg, err := r.load()
	if err != nil {
		r.logger.Warnw("clusterconfig reload rejected, keeping last-known-good config", "path", r.path, "error", err)
		return
	}
	r.current.Store(&cfg)
	r.logger.Infow("clusterconfig reloaded", "path", r.path, "shards", len(cfg.Shards))

	r.mu.Lock()
	callbacks := make([]ChangeFunc, 0, len(r.callbacks))
	for _, fn := range r.callbacks {
		callbacks = append(callbacks, fn)
	}
	r.mu.Unlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
}

// GetClusterConfig implements Repository.
func (r *FileRepository) GetClusterConfig() (vectortypes.ClusterConfig, error) {
	cfg := r.current.Load()
	if cfg == nil {
		return vectortypes.ClusterConfig{}, fmt.Errorf("clusterconfig: not yet loaded")
	}
	return *cfg, nil
}

// GetShards implements Repository.
func (r *FileRepository) GetShards() ([]vectortypes.ShardConfig, error) {
	cfg, err := r.GetClusterConfig()
	if err != nil {
		return nil, err
	}
	return cfg.Shards, nil
}

// OnChange implements Repository.
func (r *FileRepository) OnChange(fn ChangeFunc) func() {
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

// Close implements Repository.
func (r *FileRepository) Close() error {
	close(r.done)
	return r.watcher.Close()
}
