// Command schema-generator writes the JSON schemas of projsync.yml and its
// extensions into schema/.
package main

import (
	"os"
	"path/filepath"

	"github.com/grovetools/projsync/config"
	"github.com/grovetools/projsync/logging"
)

func main() {
	logger := logging.NewLogger("schema-generator")

	outputDir := "schema"
	if len(os.Args) > 1 {
		outputDir = os.Args[1]
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		logger.WithError(err).Fatal("Error creating schema directory")
	}

	targets := []struct {
		file     string
		generate func() ([]byte, error)
	}{
		{"projsync.schema.json", config.GenerateSchema},
		{"logging.schema.json", logging.GenerateSchema},
	}
	for _, target := range targets {
		data, err := target.generate()
		if err != nil {
			logger.WithError(err).WithField("file", target.file).Fatal("Error generating schema")
		}
		path := filepath.Join(outputDir, target.file)
		if err := os.WriteFile(path, data, 0644); err != nil {
			logger.WithError(err).WithField("path", path).Fatal("Error writing schema file")
		}
		logger.WithField("path", path).Info("Generated schema")
	}
}
