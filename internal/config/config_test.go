package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDecodesTemplateKey(t *testing.T) {
	t.Setenv("TEMPLATE_ENCRYPTION_KEY", strings.Repeat("6b", 32))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Len(t, cfg.TemplateKey, 32)
}

func TestLoadRejectsInvalidTemplateKey(t *testing.T) {
	t.Setenv("TEMPLATE_ENCRYPTION_KEY", "not-hex-at-all")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorContains(t, err, "TEMPLATE_ENCRYPTION_KEY")
}

func TestLoadLeavesUnsetTemplateKeyNil(t *testing.T) {
	t.Setenv("TEMPLATE_ENCRYPTION_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Nil(t, cfg.TemplateKey)
}
