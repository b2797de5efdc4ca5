// Package arena is a command-line stand-in for the game's presentation
// layer. It plays rounds against the GraphQL API, re-checks every verdict
// locally and keeps a scoreboard, a player profile and a battle history in
// a JSON file.
package arena

import (
	"os"
	"path/filepath"
	"time"
)

// Client and state defaults.
const (
	DefaultBaseURL = "http://localhost:9080"
	DefaultTimeout = 10 * time.Second
	DefaultRounds  = 10

	// MaxHistory is the number of most recent battles kept on disk.
	MaxHistory = 1000

	stateDirName  = ".holotrumps"
	stateFileName = "history.json"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Config holds the settings shared by every arena command.
type Config struct {
	BaseURL   string        // Base URL of the service
	Timeout   time.Duration // HTTP request timeout
	StatePath string        // JSON file holding history and profile
	Verbose   bool          // Log every round
}

// DefaultStatePath returns ~/.holotrumps/history.json, or a path relative to
// the working directory when the home directory is unknown.
func DefaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(stateDirName, stateFileName)
	}
	return filepath.Join(home, stateDirName, stateFileName)
}
