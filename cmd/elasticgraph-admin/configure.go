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

	"github.com/step-security-bot/elasticgraph-sub008/internal/configurator"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Reconcile every index definition into its target clusters",
	Long: `Configure brings the datastore in line with the schema-derived desired
state: it pre-creates overridden rollover indices, puts index templates,
and propagates mapping and setting changes to existing concrete indices.

The whole run happens inside an index maintenance window: index
auto-creation is disabled on every cluster first and re-enabled after a
successful run. If the run fails, the window is left open on purpose and
must be closed by an operator (see maintenance-mode end).`,
	RunE: runConfigure,
}

var maintenanceCmd = &cobra.Command{
	Use:   "maintenance-mode",
	Short: "Manually toggle the index maintenance window",
}

var maintenanceStartCmd = &cobra.Command{
	Use:   "start [cluster]",
	Short: "Disable index auto-creation on a cluster (or all clusters)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadAdmin(newLogger())
		if err != nil {
			return err
		}
		return a.ClusterSettingsManager().StartIndexMaintenanceMode(cmd.Context(), clusterArg(args))
	},
}

var maintenanceEndCmd = &cobra.Command{
	Use:   "end [cluster]",
	Short: "Re-enable index auto-creation on a cluster (or all clusters)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadAdmin(newLogger())
		if err != nil {
			return err
		}
		return a.ClusterSettingsManager().EndIndexMaintenanceMode(cmd.Context(), clusterArg(args))
	},
}

func init() {
	rootCmd.AddCommand(configureCmd)

	maintenanceCmd.AddCommand(maintenanceStartCmd)
	maintenanceCmd.AddCommand(maintenanceEndCmd)
	rootCmd.AddCommand(maintenanceCmd)
}

func clusterArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return configurator.AllClusters
}

func runConfigure(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	a, err := loadAdmin(logger)
	if err != nil {
		return err
	}

	if err := a.ConfigureAll(cmd.Context()); err != nil {
		return fmt.Errorf("configuration run failed: %w", err)
	}

	fmt.Println("All index definitions configured.")
	return nil
}
