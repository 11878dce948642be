package clusterconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dreamware/vecdb/internal/vectortypes"
)

const validYAML = `
shards:
  - shardId: s1
    baseUrl: http://s1
    hashKey: 100
    status: ACTIVE
  - shardId: s2
    baseUrl: http://s2
    hashKey: 200
    status: ACTIVE
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cluster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestFileRepositoryLoadsInitialConfig(t *testing.T) {
	path := writeTempConfig(t, validYAML)
	repo, err := NewFileRepository(path, nil)
	require.NoError(t, err)
	defer repo.Close()

	cfg, err := repo.GetClusterConfig()
	require.NoError(t, err)
	require.Len(t, cfg.Shards, 2)
	require.Equal(t, "s1", cfg.Shards[0].ShardID)
}

func TestFileRepositoryRejectsInvalidInitialConfig(t *testing.T) {
	path := writeTempConfig(t, `shards:
  - shardId: ""
    baseUrl: http://s1
    hashKey: 100
    status: ACTIVE
`)
	_, err := NewFileRepository(path, nil)
	require.Error(t, err)
}

func TestFileRepositoryNotifiesOnChange(t *testing.T) {
	path := writeTempConfig(t, validYAML)
	repo, err := NewFileRepository(path, nil)
	require.NoError(t, err)
	defer repo.Close()

	changed := make(chan int, 1)
	unregister := repo.OnChange(func(cfg vectortypes.ClusterConfig) {
		changed <- len(cfg.Shards)
	})
	defer unregister()

	require.NoError(t, os.WriteFile(path, []byte(`shards:
  - shardId: s1
    baseUrl: http://s1
    hashKey: 100
    status: ACTIVE
`), 0o644))

	select {
	case n := <-changed:
		require.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fsnotify change callback")
	}
}
