package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadEnvOverrides_Empty(t *testing.T) {
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvProfile, "")

	overrides := ReadEnvOverrides()
	assert.Empty(t, overrides.ConfigPath)
	assert.Empty(t, overrides.Profile)
}

func TestReadEnvOverrides_Populated(t *testing.T) {
	t.Setenv(EnvConfig, "/etc/bkmsync/config.toml")
	t.Setenv(EnvProfile, "work")

	overrides := ReadEnvOverrides()
	assert.Equal(t, "/etc/bkmsync/config.toml", overrides.ConfigPath)
	assert.Equal(t, "work", overrides.Profile)
}
