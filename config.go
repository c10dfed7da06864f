package examsift

import (
	"os"
	"path/filepath"

	"github.com/prasadg/examsift/layout"
)

// Config holds all configuration for the ExamSift engine.
type Config struct {
	// DBPath is the full path to the SQLite database file.
	// If empty, defaults to ~/.examsift/<DBName>.db
	DBPath string `json:"db_path" yaml:"db_path"`

	// DBName is the name for the database (used when DBPath is empty).
	// Defaults to "examsift".
	DBName string `json:"db_name" yaml:"db_name"`

	// StorageDir controls where the database is created when DBPath is not
	// explicitly set. Options: "home" (default) uses ~/.examsift/, "local"
	// uses the current working directory.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// TempDir is the root for page images and extracted diagrams.
	TempDir string `json:"temp_dir" yaml:"temp_dir"`

	// Vision is the LLM provider used to parse page images.
	Vision LLMConfig `json:"vision" yaml:"vision"`

	// DPI is the page rasterization resolution.
	DPI int `json:"dpi" yaml:"dpi"`

	// Workers caps concurrent page parses per document.
	Workers int `json:"workers" yaml:"workers"`

	// Layout tunes the page layout classifier.
	Layout layout.Config `json:"layout" yaml:"layout"`
}

// LLMConfig configures a single LLM provider endpoint.
type LLMConfig struct {
	Provider string `json:"provider" yaml:"provider"` // openai, ollama, openrouter, nebius, custom
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
}

// DefaultConfig returns a Config with sensible defaults for local inference.
// Database is stored in ~/.examsift/examsift.db by default.
func DefaultConfig() Config {
	return Config{
		DBName:     "examsift",
		StorageDir: "home",
		TempDir:    "temp",
		Vision: LLMConfig{
			Provider: "ollama",
			Model:    "llama3.2-vision",
			BaseURL:  "http://localhost:11434",
		},
		DPI:     200,
		Workers: 4,
		Layout:  layout.DefaultConfig(),
	}
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	name := c.DBName
	if name == "" {
		name = "examsift"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db" // fallback to cwd
		}
		return filepath.Join(home, ".examsift", name+".db")
	}
}
