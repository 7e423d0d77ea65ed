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

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordConfigureRun(t *testing.T) {
	before := testutil.ToFloat64(ConfigureRunsTotal.WithLabelValues("things", "success"))

	RecordConfigureRun("things", "success", 0.25)
	RecordConfigureRun("things", "success", 0.5)

	after := testutil.ToFloat64(ConfigureRunsTotal.WithLabelValues("things", "success"))
	assert.Equal(t, before+2, after)
}

func TestRecordDatastoreWrite(t *testing.T) {
	before := testutil.ToFloat64(DatastoreWritesTotal.WithLabelValues("main", "create_index"))

	RecordDatastoreWrite("main", "create_index")

	after := testutil.ToFloat64(DatastoreWritesTotal.WithLabelValues("main", "create_index"))
	assert.Equal(t, before+1, after)
}

func TestRecordValidationProblems(t *testing.T) {
	before := testutil.ToFloat64(ValidationProblemsTotal.WithLabelValues("widgets"))

	RecordValidationProblems("widgets", 3)
	RecordValidationProblems("widgets", 0) // zero problems must not touch the counter

	after := testutil.ToFloat64(ValidationProblemsTotal.WithLabelValues("widgets"))
	assert.Equal(t, before+3, after)
}

func TestRecordMaintenanceModeToggle(t *testing.T) {
	before := testutil.ToFloat64(MaintenanceModeToggles.WithLabelValues("main", "start"))

	RecordMaintenanceModeToggle("main", "start")

	after := testutil.ToFloat64(MaintenanceModeToggles.WithLabelValues("main", "start"))
	assert.Equal(t, before+1, after)
}
