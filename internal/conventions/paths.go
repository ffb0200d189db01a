package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default invk data directory name (relative to home).
	DefaultDataDir = ".invk"
	// HistoryDBFile is the SQLite run history filename inside the data directory.
	HistoryDBFile = "history.db"

	// UserSettingsName is the settings file basename in the home directory.
	UserSettingsName = ".invk"
	// ProjectSettingsName is the settings file basename in the working directory.
	ProjectSettingsName = "invk"

	// EnvPrefix is the prefix of the environment variables mapped to flags.
	EnvPrefix = "INVK"
)

// SettingsExtensions are the supported settings file extensions, in order of preference.
var SettingsExtensions = []string{".yaml", ".yml", ".toml", ".json"}

// DataDir returns the invk data directory for a home directory.
func DataDir(homeDir string) string {
	return filepath.Join(homeDir, DefaultDataDir)
}

// HistoryDBPath returns the default run history database path.
func HistoryDBPath(homeDir string) string {
	return filepath.Join(DataDir(homeDir), HistoryDBFile)
}

// SettingsFileCandidates returns the settings files looked up for a base path,
// in order of preference.
func SettingsFileCandidates(base string) []string {
	paths := make([]string, 0, len(SettingsExtensions))
	for _, ext := range SettingsExtensions {
		paths = append(paths, base+ext)
	}
	return paths
}
