/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/step-security-bot/elasticgraph-sub008/internal/admin"
	"github.com/step-security-bot/elasticgraph-sub008/internal/config"
	"github.com/step-security-bot/elasticgraph-sub008/internal/logging"
	"github.com/step-security-bot/elasticgraph-sub008/internal/schema"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

var (
	configPath   string
	metadataPath string
	logLevel     string
	logJSON      bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "elasticgraph-admin",
	Short: "Administer ElasticGraph datastore indices",
	Long: `elasticgraph-admin reconciles datastore indices, rollover index
templates and cluster settings against the schema-derived runtime
metadata and per-environment configuration.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"elasticgraph-admin version %s (commit %s)\n", Version, Commit))

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Environment configuration file")
	rootCmd.PersistentFlags().StringVarP(&metadataPath, "metadata", "m", "runtime_metadata.yaml", "Schema runtime metadata file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit JSON logs instead of console output")
}

func newLogger() logr.Logger {
	return logging.New(logging.Config{Level: logLevel, JSONOutput: logJSON})
}

// loadAdmin builds the admin layer from the configured files.
func loadAdmin(logger logr.Logger) (*admin.Admin, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	artifact, err := schema.LoadArtifact(metadataPath)
	if err != nil {
		return nil, err
	}
	return admin.New(cfg, artifact, logger)
}
