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

package jsonstream

import "github.com/corestream-dev/jsonstream/internal/satmath"

// tokenBufferKind says what, if anything, is parked in a tokenBuffer.
type tokenBufferKind int

const (
	tbNone tokenBufferKind = iota
	tbPartialString
	tbPartialNumber
)

// tokenBuffer is the resumption record: everything the lexer needs to
// pick a string or number back up after a chunk boundary split it mid-
// token. It is owned by the Stream and reused across tokens; Clear
// retains the underlying allocation.
type tokenBuffer struct {
	kind        tokenBufferKind
	bytes       []byte
	startOffset uint64
	startPos    Position

	// String resumption state. Surrogate pairing is not tracked here: it
	// is resolved by decodeUnicodeEscape once the whole string is
	// reassembled, not while bytes are still being scanned.
	inEscape            bool
	unicodeHexRemaining int

	// Number resumption state.
	hasDot          bool
	hasExp          bool
	expSignSeen     bool
	startsWithMinus bool
	// matchingNegInfinity is set once the lexer has committed to reading
	// "-Infinity" char-by-char rather than a plain numeric lexeme.
	matchingNegInfinity bool
}

// clear resets the buffer to tbNone while keeping its backing array, per
// the invariant kind == tbNone iff bytes.len == 0.
func (b *tokenBuffer) clear() {
	b.kind = tbNone
	b.bytes = b.bytes[:0]
	b.inEscape = false
	b.unicodeHexRemaining = 0
	b.hasDot = false
	b.hasExp = false
	b.expSignSeen = false
	b.startsWithMinus = false
	b.matchingNegInfinity = false
}

// hybridGrowthThreshold is where append stops doubling and switches to
// linear growth, bounding worst-case overshoot for very long strings.
const hybridGrowthThreshold = 1 << 10 // 1 KiB
const hybridLinearStep = 64

// grow ensures capacity for n additional bytes using the hybrid
// doubling/linear discipline from Design Notes §9.
func (b *tokenBuffer) grow(n int) {
	need := len(b.bytes) + n
	if cap(b.bytes) >= need {
		return
	}
	newCap := cap(b.bytes)
	if newCap == 0 {
		newCap = 64
	}
	for newCap < need {
		if newCap < hybridGrowthThreshold {
			newCap = satmath.MulSize(newCap, 2)
		} else {
			newCap = satmath.AddSize(newCap, hybridLinearStep)
		}
	}
	grown := make([]byte, len(b.bytes), newCap)
	copy(grown, b.bytes)
	b.bytes = grown
}

// append adds p to the buffer, growing as needed.
func (b *tokenBuffer) append(p []byte) {
	b.grow(len(p))
	b.bytes = append(b.bytes, p...)
}

// beginString parks the start of a string token: the opening quote is
// included in bytes per the "first byte is the opening sentinel"
// invariant.
func (b *tokenBuffer) beginString(quote byte, offset uint64, pos Position) {
	b.clear()
	b.kind = tbPartialString
	b.startOffset = offset
	b.startPos = pos
	b.append([]byte{quote})
}

// beginNumber parks the start of a number token.
func (b *tokenBuffer) beginNumber(firstByte byte, offset uint64, pos Position) {
	b.clear()
	b.kind = tbPartialNumber
	b.startOffset = offset
	b.startPos = pos
	b.startsWithMinus = firstByte == '-'
	b.append([]byte{firstByte})
}
