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
	"fmt"
	"time"
)

// TimeSet is a half-open time interval [Lower, Upper): the lower bound is
// inclusive, the upper bound exclusive. A zero bound means the interval is
// unbounded on that side. No overlap detection is performed between
// TimeSets; ambiguous overlapping configuration is surfaced by config
// validation, not here.
type TimeSet struct {
	Lower time.Time
	Upper time.Time
}

// TimeSetOfRange builds a TimeSet from optional inclusive-lower /
// exclusive-upper bounds.
func TimeSetOfRange(gte, lt *time.Time) TimeSet {
	var ts TimeSet
	if gte != nil {
		ts.Lower = gte.UTC()
	}
	if lt != nil {
		ts.Upper = lt.UTC()
	}
	return ts
}

// Contains reports whether t falls within the interval.
func (s TimeSet) Contains(t time.Time) bool {
	if !s.Lower.IsZero() && t.Before(s.Lower) {
		return false
	}
	if !s.Upper.IsZero() && !t.Before(s.Upper) {
		return false
	}
	return true
}

// Equal reports whether both intervals have the same bounds.
func (s TimeSet) Equal(o TimeSet) bool {
	return s.Lower.Equal(o.Lower) && s.Upper.Equal(o.Upper)
}

// IntersectsWith reports whether the two intervals share any instant.
func (s TimeSet) IntersectsWith(o TimeSet) bool {
	if !s.Upper.IsZero() && !o.Lower.IsZero() && !s.Upper.After(o.Lower) {
		return false
	}
	if !o.Upper.IsZero() && !s.Lower.IsZero() && !o.Upper.After(s.Lower) {
		return false
	}
	return true
}

func (s TimeSet) String() string {
	lower, upper := "-inf", "+inf"
	if !s.Lower.IsZero() {
		lower = s.Lower.Format(time.RFC3339)
	}
	if !s.Upper.IsZero() {
		upper = s.Upper.Format(time.RFC3339)
	}
	return fmt.Sprintf("[%s, %s)", lower, upper)
}
