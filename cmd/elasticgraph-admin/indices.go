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

var listIndicesCmd = &cobra.Command{
	Use:   "list-indices",
	Short: "List index definitions and their live rollover indices",
	RunE:  runListIndices,
}

func init() {
	rootCmd.AddCommand(listIndicesCmd)
}

func runListIndices(cmd *cobra.Command, args []string) error {
	a, err := loadAdmin(newLogger())
	if err != nil {
		return err
	}

	for _, def := range a.Definitions() {
		kind := "index"
		if def.IsRollover() {
			kind = "rollover template"
		}
		fmt.Printf("%s (%s)\n", def.Name(), kind)

		if !def.IsRollover() {
			continue
		}

		related, err := def.KnownRelatedQueryRolloverIndices(cmd.Context())
		if err != nil {
			return err
		}
		if len(related) == 0 {
			fmt.Println("  (no concrete indices yet)")
			continue
		}
		for _, index := range related {
			fmt.Printf("  %s  covers %s\n", index.Name, index.TimeSet)
		}
	}
	return nil
}
