// Package pathutil provides centralized path management for the data directory.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathResolver manages paths for the database file, upload staging and exports.
type PathResolver struct {
	dataDir      string
	databasePath string
	uploadDir    string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// DataDir is the root directory for all local state (e.g., ./data)
	DataDir string
	// Driver selects the default database file name (bolt or sqlite3)
	Driver string
	// DatabasePath is the path to the database file
	DatabasePath string
	// UploadDir is the directory where uploaded CSV files are staged
	UploadDir string
}

// New creates a new PathResolver with the given configuration.
// If DatabasePath is empty, it defaults to {DataDir}/ledger.db for bolt and
// {DataDir}/ledger.sqlite for sqlite3.
// If UploadDir is empty, it defaults to {DataDir}/uploads
func New(config Config) *PathResolver {
	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}

	dbPath := config.DatabasePath
	if dbPath == "" {
		name := "ledger.db"
		if config.Driver == "sqlite3" {
			name = "ledger.sqlite"
		}
		dbPath = filepath.Join(dataDir, name)
	}

	uploadDir := config.UploadDir
	if uploadDir == "" {
		uploadDir = filepath.Join(dataDir, "uploads")
	}

	return &PathResolver{
		dataDir:      dataDir,
		databasePath: dbPath,
		uploadDir:    uploadDir,
	}
}

// GetDataDir returns the data directory.
func (p *PathResolver) GetDataDir() string {
	return p.dataDir
}

// GetDatabasePath returns the database file path.
func (p *PathResolver) GetDatabasePath() string {
	return p.databasePath
}

// GetUploadDir returns the upload staging directory.
func (p *PathResolver) GetUploadDir() string {
	return p.uploadDir
}

// GetExportPath returns the path of an export file.
// Example: data/exports/ricky_s_savings_transactions.csv
func (p *PathResolver) GetExportPath(filename string) (string, error) {
	if filename == "" || filepath.Base(filename) != filename {
		return "", fmt.Errorf("invalid export file name: %q", filename)
	}
	return filepath.Join(p.dataDir, "exports", filename), nil
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	dir := filepath.Dir(filePath)
	return p.EnsureDir(dir)
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}
