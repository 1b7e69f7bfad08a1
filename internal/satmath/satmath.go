// Copyright 2025 The Corestream Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package satmath centralizes the saturating arithmetic used by the
// position tracker, the input buffer, and the token buffer so that byte
// counters never wrap on overflow.
package satmath

import "math"

// AddUint64 returns a+b, or math.MaxUint64 if the sum would overflow.
func AddUint64(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

// AddInt returns a+b clamped to [math.MinInt, math.MaxInt].
func AddInt(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		return math.MaxInt
	}
	if b < 0 && a < math.MinInt-b {
		return math.MinInt
	}
	return a + b
}

// SubUint64 returns a-b, or 0 if the difference would underflow.
func SubUint64(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// AddSize returns a+b as an int, saturating at math.MaxInt. Used for
// buffer and allocation size computations where a negative result is
// never meaningful.
func AddSize(a, b int) int {
	if a < 0 || b < 0 {
		return math.MaxInt
	}
	sum := a + b
	if sum < a {
		return math.MaxInt
	}
	return sum
}

// MulSize returns a*b as an int, saturating at math.MaxInt on overflow.
func MulSize(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxInt/b {
		return math.MaxInt
	}
	return a * b
}
