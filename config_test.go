package slate

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

func TestLoadConfig(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	URL := "mem://localhost/slate/config/slate.yaml"
	content := `
http:
  addr: ":9191"
approval:
  ttl: 2h
ledger:
  backend: fs
  baseURL: mem://localhost/slate/config/decisions
`
	require.NoError(t, fs.Upload(ctx, URL, file.DefaultFileOsMode, strings.NewReader(content)))

	cfg, err := LoadConfig(ctx, fs, URL)
	require.NoError(t, err)
	assert.Equal(t, ":9191", cfg.HTTP.Addr)
	assert.Equal(t, 2*time.Hour, cfg.Approval.TTL)
	assert.Equal(t, BackendFs, cfg.Ledger.Backend)
	// untouched sections keep their defaults
	assert.Equal(t, 2, cfg.Executor.Workers)
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(context.Background(), afs.New(), "mem://localhost/slate/config/absent.yaml")
	assert.Error(t, err)
}

func TestLoadConfigInvalid(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	URL := "mem://localhost/slate/config/bad.yaml"
	require.NoError(t, fs.Upload(ctx, URL, file.DefaultFileOsMode, strings.NewReader("executor:\n  workers: 0\n")))
	_, err := LoadConfig(ctx, fs, URL)
	assert.Error(t, err)
}
