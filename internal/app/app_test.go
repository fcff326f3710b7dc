package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/austiecodes/curator/internal/config"
	"github.com/austiecodes/curator/internal/consts"
	"github.com/austiecodes/curator/internal/types"
)

func localConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Models.Chat = types.Model{Provider: consts.ProviderOllama, ModelID: "llama3.1"}
	cfg.Models.Embedding = types.Model{Provider: consts.ProviderOllama, ModelID: "nomic-embed-text"}
	cfg.Store.Backend = consts.BackendSQLite
	cfg.Store.ContentIndex = "store"
	cfg.Store.Path = filepath.Join(t.TempDir(), "memory.db")
	return cfg
}

func TestNewWiresLocalStack(t *testing.T) {
	a, err := New(context.Background(), localConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	assert.NotNil(t, a.Gateway)
	assert.NotNil(t, a.Router)
	assert.NotNil(t, a.Orchestrator)
	assert.NotNil(t, a.Creative)
	assert.NoError(t, a.Store.Ping(context.Background()))
	assert.NotNil(t, a.Server().Handler())
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	cfg := localConfig(t)
	cfg.Store.Backend = "mongo"
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewRequiresProviderKey(t *testing.T) {
	cfg := localConfig(t)
	cfg.Models.Chat = types.Model{Provider: consts.ProviderOpenAI, ModelID: "gpt-4o-mini"}
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestStartWriterStops(t *testing.T) {
	a, err := New(context.Background(), localConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	stop := a.StartWriter(context.Background())
	done := make(chan struct{})
	go func() {
		stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("writer did not stop")
	}
}
