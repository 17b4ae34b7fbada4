package worker

import (
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/jinutvm/nanda-adapter-sdk/internal/errors"
)

// DiscoverInterpreter locates the Python interpreter for the worker.
//
// Search order:
//  1. The explicit path, if provided (no fallback).
//  2. python3, then python, on the system PATH.
//  3. Common installation directories.
//
// Returns a SpawnError listing the searched locations when nothing is found.
func DiscoverInterpreter(log *slog.Logger, explicit string) (string, error) {
	if explicit != "" {
		log.Debug("Using explicit python path", "python_path", explicit)

		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}

		return "", &errors.SpawnError{SearchedPaths: []string{explicit}}
	}

	searchedPaths := make([]string, 0, 6)

	for _, name := range []string{"python3", "python"} {
		if path, err := exec.LookPath(name); err == nil {
			log.Debug("Found python in PATH", "path", path)

			return path, nil
		}

		searchedPaths = append(searchedPaths, "$PATH/"+name)
	}

	commonPaths := []string{
		"/usr/local/bin/python3",
		"/usr/bin/python3",
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		commonPaths = append(commonPaths, filepath.Join(homeDir, ".local/bin/python3"))
	}

	for _, path := range commonPaths {
		searchedPaths = append(searchedPaths, path)

		if _, err := os.Stat(path); err == nil {
			log.Debug("Found python at common path", "path", path)

			return path, nil
		}
	}

	log.Warn("Python interpreter not found", "searched_paths", searchedPaths)

	return "", &errors.SpawnError{SearchedPaths: searchedPaths}
}
