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

package indexdef

import (
	"time"

	"github.com/step-security-bot/elasticgraph-sub008/internal/egerrors"
)

// Frequency is how often a rollover template rolls over to a new concrete
// index.
type Frequency string

const (
	Hourly  Frequency = "hourly"
	Daily   Frequency = "daily"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// frequencyTraits pins, per frequency, the index-name suffix layout and
// the number of dash-separated elements it produces. The layouts match
// the strftime patterns used by every existing deployment (%Y-%m-%d-%H,
// %Y-%m-%d, %Y-%m, %Y) and must be preserved bit-exact.
type frequencyTraits struct {
	layout   string
	elements int
}

var traitsByFrequency = map[Frequency]frequencyTraits{
	Hourly:  {layout: "2006-01-02-15", elements: 4},
	Daily:   {layout: "2006-01-02", elements: 3},
	Monthly: {layout: "2006-01", elements: 2},
	Yearly:  {layout: "2006", elements: 1},
}

// ParseFrequency validates a configured frequency value.
func ParseFrequency(value string) (Frequency, error) {
	f := Frequency(value)
	if _, ok := traitsByFrequency[f]; !ok {
		return "", egerrors.NewSchemaError(
			"unrecognized rollover frequency %q (expected hourly, daily, monthly or yearly)", value)
	}
	return f, nil
}

// Suffix formats a timestamp into this frequency's index-name suffix.
func (f Frequency) Suffix(t time.Time) string {
	return t.UTC().Format(traitsByFrequency[f].layout)
}

// suffixElements is the number of dash-separated elements a suffix of
// this frequency contains.
func (f Frequency) suffixElements() int {
	return traitsByFrequency[f].elements
}

// parseSuffix parses an index-name suffix back into the start of its
// calendar bucket.
func (f Frequency) parseSuffix(suffix string) (time.Time, error) {
	return time.ParseInLocation(traitsByFrequency[f].layout, suffix, time.UTC)
}

// BucketStart truncates a timestamp to the start of its calendar bucket.
func (f Frequency) BucketStart(t time.Time) time.Time {
	t = t.UTC()
	switch f {
	case Hourly:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	case Daily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case Monthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default: // Yearly
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	}
}

// BucketTimeSet is the half-open interval covered by the calendar bucket
// containing t.
func (f Frequency) BucketTimeSet(t time.Time) TimeSet {
	start := f.BucketStart(t)
	var end time.Time
	switch f {
	case Hourly:
		end = start.Add(time.Hour)
	case Daily:
		end = start.AddDate(0, 0, 1)
	case Monthly:
		end = start.AddDate(0, 1, 0)
	default: // Yearly
		end = start.AddDate(1, 0, 0)
	}
	return TimeSet{Lower: start, Upper: end}
}
