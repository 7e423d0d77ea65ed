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

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration against the live datastore without writing",
	Long: `Validate checks the environment configuration and diffs every index
definition against the live datastore state. All problems are reported in
one pass; nothing is written.

Exit status is non-zero when any problem is found.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	a, err := loadAdmin(logger)
	if err != nil {
		return err
	}

	findings, err := a.ValidateAll(cmd.Context())
	if err != nil {
		return err
	}

	if len(findings) == 0 {
		fmt.Println("Configuration is valid.")
		return nil
	}

	for _, finding := range findings {
		fmt.Printf("  - %s\n", finding)
	}
	return fmt.Errorf("%d validation problem(s) found", len(findings))
}
