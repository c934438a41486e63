package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/leratech/maweni-results/pkg/config"
)

func TestArchiveStorageIsCreatedOnFirstUse(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archives")
	cfg := &config.Config{}
	cfg.Reports.StorageDir = dir
	cfg.Reports.SignedURLSecret = "secret"

	container, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer container.Close()

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "storage directory created before use")

	store, err := container.ArchiveStorage()
	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	again, err := container.ArchiveStorage()
	require.NoError(t, err)
	assert.Same(t, store, again)
}
