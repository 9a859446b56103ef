package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanctumapp/sanctum/internal/config"
	"github.com/sanctumapp/sanctum/internal/metrics"
)

func testConfig() *config.Config {
	return &config.Config{
		DBDriver:          "postgres",
		LogLevel:          "info",
		EnvelopeAlgorithm: "aes-gcm",
		KDFTime:           1,
		KDFMemoryKiB:      64,
		KDFThreads:        1,
		MetricsEnabled:    false,
		MetricsNamespace:  "sanctum",
	}
}

func TestContainer_Logger(t *testing.T) {
	c := NewContainer(testConfig())

	logger := c.Logger()
	require.NotNil(t, logger)
	assert.Same(t, logger, c.Logger())
}

func TestContainer_Keyring_IsSingleton(t *testing.T) {
	c := NewContainer(testConfig())

	assert.Same(t, c.Keyring(), c.Keyring())
}

func TestContainer_BusinessMetrics_Disabled(t *testing.T) {
	c := NewContainer(testConfig())

	bm, err := c.BusinessMetrics()
	require.NoError(t, err)
	assert.IsType(t, &metrics.NoOpBusinessMetrics{}, bm)
}

func TestContainer_BusinessMetrics_Enabled(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsEnabled = true
	c := NewContainer(cfg)

	bm, err := c.BusinessMetrics()
	require.NoError(t, err)
	assert.NotNil(t, bm)
	assert.IsType(t, &metrics.NoOpBusinessMetrics{}, metrics.NewNoOpBusinessMetrics())
}

func TestContainer_KeyWrapper(t *testing.T) {
	t.Run("valid algorithm", func(t *testing.T) {
		c := NewContainer(testConfig())

		wrapper, err := c.KeyWrapper()
		require.NoError(t, err)
		assert.NotNil(t, wrapper)
	})

	t.Run("invalid algorithm", func(t *testing.T) {
		cfg := testConfig()
		cfg.EnvelopeAlgorithm = "rot13"
		c := NewContainer(cfg)

		_, err := c.KeyWrapper()
		require.Error(t, err)

		// The error sticks on later calls.
		_, err = c.KeyWrapper()
		assert.Error(t, err)
	})
}

func TestContainer_Shutdown_WithoutInit(t *testing.T) {
	c := NewContainer(testConfig())

	assert.NoError(t, c.Shutdown(context.Background()))
}
