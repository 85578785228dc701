package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youruser/memberids/internal/config"
	"github.com/youruser/memberids/internal/layout"
	"github.com/youruser/memberids/internal/logger"
)

func testConfig() config.Config {
	return config.Config{
		APIBase:       "https://api.example.test",
		SiteBase:      "https://site.example.test",
		DirectoryPath: "/api/download",
		LogoURL:       "/Images/logo.png",
		Profile:       "standard",
		FetchTimeout:  time.Second,
		Org:           config.Org{Name: "Robi Fitness Center", Phones: []string{"1", "2"}},
	}
}

func TestNew(t *testing.T) {
	a, err := New(testConfig(), logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, "https://site.example.test/Images/logo.png", a.Options.LogoURL)
	assert.Equal(t, config.ArtifactName, a.Options.ArtifactName)
	assert.Equal(t, "Robi Fitness Center", a.Branding.Name)
	assert.Equal(t, []string{"standard", "wide"}, a.Profiles.Names())

	c, err := a.Compositor("", nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, c)

	_, err = a.Compositor("poster", nil, nil)
	assert.ErrorIs(t, err, layout.ErrUnknownProfile)

	d, err := a.Directory()
	require.NoError(t, err)
	assert.NotNil(t, d)
}

func TestNewUnknownDefaultProfile(t *testing.T) {
	cfg := testConfig()
	cfg.Profile = "poster"
	_, err := New(cfg, logger.Nop())
	assert.ErrorIs(t, err, layout.ErrUnknownProfile)
}

func TestNewWithProfilesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles:\n  - name: kiosk\n    extends: wide\n"), 0o644))

	cfg := testConfig()
	cfg.ProfilesFile = path
	cfg.Profile = "kiosk"
	cfg.LogoURL = ""
	a, err := New(cfg, logger.Nop())
	require.NoError(t, err)
	assert.Contains(t, a.Profiles.Names(), "kiosk")
	assert.Empty(t, a.Options.LogoURL)
}
