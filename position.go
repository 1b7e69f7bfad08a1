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

// Position is an absolute byte offset paired with a 1-indexed line and
// column. All three fields saturate at their maximum representable value
// instead of wrapping, so a pathological input can never turn a position
// report into garbage.
type Position struct {
	Offset uint64
	Line   int
	Col    int
}

// startPosition is the position of the very first byte of input.
func startPosition() Position {
	return Position{Offset: 0, Line: 1, Col: 1}
}

// advanceColumn moves the position forward by n bytes on the same line.
func (p *Position) advanceColumn(n int) {
	p.Offset = satmath.AddUint64(p.Offset, uint64(n))
	p.Col = satmath.AddInt(p.Col, n)
}

// advanceOffset moves only the absolute offset forward, for bytes that
// don't affect line/column (used to skip a leading BOM).
func (p *Position) advanceOffset(n int) {
	p.Offset = satmath.AddUint64(p.Offset, uint64(n))
}

// newline accounts for a consumed '\n': the offset advances by one, the
// line increments, and the column resets to 1.
func (p *Position) newline() {
	p.Offset = satmath.AddUint64(p.Offset, 1)
	p.Line = satmath.AddInt(p.Line, 1)
	p.Col = 1
}
