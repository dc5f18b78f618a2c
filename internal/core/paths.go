package core

import (
	"os"
	"path/filepath"
	"sync"
)

// DataDirEnv overrides the data directory, mostly for tests.
const DataDirEnv = "GSHCTX_HOME"

type Paths struct {
	HomeDir     string
	DataDir     string
	LogFile     string
	HistoryFile string
	ConfigFile  string
}

var (
	pathsMu      sync.Mutex
	defaultPaths *Paths
)

func ensureDefaultPaths() *Paths {
	pathsMu.Lock()
	defer pathsMu.Unlock()

	if defaultPaths == nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			panic(err)
		}

		dataDir := os.Getenv(DataDirEnv)
		if dataDir == "" {
			dataDir = filepath.Join(homeDir, ".gshctx")
		}

		defaultPaths = &Paths{
			HomeDir:     homeDir,
			DataDir:     dataDir,
			LogFile:     filepath.Join(dataDir, "gshctx.log"),
			HistoryFile: filepath.Join(dataDir, "history.db"),
			ConfigFile:  filepath.Join(dataDir, "config.yaml"),
		}

		if err := os.MkdirAll(defaultPaths.DataDir, 0755); err != nil {
			panic(err)
		}
	}
	return defaultPaths
}

func HomeDir() string {
	return ensureDefaultPaths().HomeDir
}

func DataDir() string {
	return ensureDefaultPaths().DataDir
}

func LogFile() string {
	return ensureDefaultPaths().LogFile
}

func HistoryFile() string {
	return ensureDefaultPaths().HistoryFile
}

func ConfigFile() string {
	return ensureDefaultPaths().ConfigFile
}

// ResetPaths clears the cached paths, forcing them to be reinitialized.
// This is primarily used for testing purposes.
func ResetPaths() {
	pathsMu.Lock()
	defer pathsMu.Unlock()
	defaultPaths = nil
}
