package model

// Settings is the effective configuration, loaded once at process start and
// passed down explicitly. Nothing reads settings files after that.
type Settings struct {
	Run     RunSettings
	History HistorySettings
	// Sources lists the settings files that were merged, lowest precedence first.
	Sources []string
}

// RunSettings are the defaults applied to every command run.
type RunSettings struct {
	// Shell is the shell used to interpret commands, empty means the platform default.
	Shell    string
	Encoding string
	Hide     Hide
	Warn     bool
	Pty      bool
	Dir      string
	Env      map[string]string
}

// HistorySettings configures the run history.
type HistorySettings struct {
	Enabled bool
	DBPath  string
}
