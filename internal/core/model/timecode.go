// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// timecodePattern accepts HH:MM:SS with an optional .mmm fraction. Hours may
// have more than two digits.
var timecodePattern = regexp.MustCompile(`^(\d{2,}):(\d{2}):(\d{2})(?:\.(\d{1,3}))?$`)

// ParseTimecode converts a "HH:MM:SS.mmm" string into seconds. The millisecond
// part is optional and defaults to zero.
func ParseTimecode(in string) (float64, error) {
	m := timecodePattern.FindStringSubmatch(in)
	if m == nil {
		return 0, NewError(KindInvalidTimeFormat, "parse-timecode", "%q is not HH:MM:SS[.mmm]", in)
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	if minutes > 59 || seconds > 59 {
		return 0, NewError(KindInvalidTimeFormat, "parse-timecode", "%q has minutes or seconds out of range", in)
	}
	millis := 0
	if len(m[4]) > 0 {
		// ".5" is half a second, not five milliseconds.
		frac := m[4]
		for len(frac) < 3 {
			frac += "0"
		}
		millis, _ = strconv.Atoi(frac)
	}
	totalMillis := int64(hours)*3_600_000 + int64(minutes)*60_000 + int64(seconds)*1000 + int64(millis)
	return float64(totalMillis) / 1000, nil
}

// FormatTimecode renders seconds as "HH:MM:SS.mmm". Negative values are clamped to zero.
func FormatTimecode(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(math.Round(seconds * 1000))
	h := totalMillis / 3_600_000
	m := (totalMillis / 60_000) % 60
	s := (totalMillis / 1000) % 60
	ms := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
