package conventions_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/invk/internal/conventions"
)

func TestHistoryDBPath(t *testing.T) {
	got := conventions.HistoryDBPath(filepath.Join("home", "user"))
	assert.Equal(t, filepath.Join("home", "user", ".invk", "history.db"), got)
}

func TestSettingsFileCandidates(t *testing.T) {
	got := conventions.SettingsFileCandidates("project/invk")
	assert.Equal(t, []string{
		"project/invk.yaml",
		"project/invk.yml",
		"project/invk.toml",
		"project/invk.json",
	}, got)
}
