package logutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cerrors "github.com/lwmacct/251216-go-pkg-arbiter/pkg/errors"
)

func TestValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	require.NoError(t, (&Config{Level: "debug", Format: "json"}).Validate())

	err := (&Config{Level: "loud", Format: "text"}).Validate()
	assert.True(t, cerrors.ErrInvalidConfig.Equal(err))

	err = (&Config{Level: "info", Format: "xml"}).Validate()
	assert.True(t, cerrors.ErrInvalidConfig.Equal(err))
}

func TestInitLoggerToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbiter.log")
	logger, err := InitLogger(&Config{Level: "info", Format: "json", File: path})
	require.NoError(t, err)

	logger.Debug("hidden message")
	logger.Info("arbiter created", zap.String("arbiter", "test"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "arbiter created")
	assert.Contains(t, string(data), `"arbiter":"test"`)
	assert.NotContains(t, string(data), "hidden message")
}

func TestInitLoggerRejectsInvalid(t *testing.T) {
	_, err := InitLogger(&Config{Level: "info", Format: "xml"})
	assert.True(t, cerrors.ErrInvalidConfig.Equal(err))
}
