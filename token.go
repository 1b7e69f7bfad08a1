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

// tokenKind tags the variant carried by a Token.
type tokenKind int

const (
	tokPunct tokenKind = iota
	tokNull
	tokTrue
	tokFalse
	tokString
	tokNumber
	tokNaN
	tokInfinity
	tokNegInfinity
	tokEOF
)

// lexStatus is the outcome of one Lexer.next call.
type lexStatus int

const (
	lexOK lexStatus = iota
	// lexIncomplete means "no error yet; feed more bytes and call next
	// again". It is a flow-control signal internal to the core and must
	// never be surfaced to a Stream caller.
	lexIncomplete
	lexEOF
	lexError
)

// token is the lexer's output: a tagged variant plus the position where
// it began and the number of source bytes it spans.
type token struct {
	kind   tokenKind
	punct  byte
	str    []byte // decoded bytes, valid when kind == tokString
	number NumberValue
	pos    Position
	length int
}
