package main

import (
	"testing"

	"github.com/poiesic/boardvec/config"
	"github.com/poiesic/boardvec/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestParseTier(t *testing.T) {
	tests := []struct {
		input    string
		expected core.Tier
		wantErr  bool
	}{
		{"free", core.TierFree, false},
		{"starter", core.TierStarter, false},
		{"pro", core.TierPro, false},
		{"PRO", core.TierPro, false},
		{"enterprise", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tier, err := parseTier(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tier)
		})
	}
}

func TestQuotaLimits(t *testing.T) {
	t.Run("zero values keep defaults", func(t *testing.T) {
		limits := quotaLimits(config.Default())
		assert.Equal(t, 50, limits.FreeLifetime)
		assert.Equal(t, 25, limits.FreeChannel)
		assert.Equal(t, 500, limits.StarterMonthly)
		assert.Equal(t, 2000, limits.ProMonthly)
	})

	t.Run("config overrides applied", func(t *testing.T) {
		cfg := config.Default()
		cfg.Quota.FreeLifetimeLimit = 10
		cfg.Quota.ProMonthly = 5000

		limits := quotaLimits(cfg)
		assert.Equal(t, 10, limits.FreeLifetime)
		assert.Equal(t, 25, limits.FreeChannel)
		assert.Equal(t, 5000, limits.ProMonthly)
	})
}

func TestSyncCommandRequiresSlug(t *testing.T) {
	app := &cli.App{
		Name: "boardvec",
		Commands: []*cli.Command{
			{
				Name:   "sync",
				Action: syncCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "slug",
						Required: true,
					},
				},
			},
		},
	}

	err := app.Run([]string{"boardvec", "sync"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slug")
}

func TestSetupLoggerRejectsUnknownLevel(t *testing.T) {
	app := &cli.App{
		Name: "boardvec",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info"},
		},
		Before: setupLogger,
		Action: func(c *cli.Context) error { return nil },
	}

	err := app.Run([]string{"boardvec", "--log-level", "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")

	err = app.Run([]string{"boardvec", "--log-level", "warn"})
	assert.NoError(t, err)
}
