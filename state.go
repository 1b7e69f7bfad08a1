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

// StreamState is the top-level grammar state.
type StreamState int

const (
	// StateInit is the state before any token has been consumed.
	StateInit StreamState = iota
	// StateValue means a value was just emitted; a comma or a closing
	// bracket is expected next.
	StateValue
	// StateExpectValue means a value is expected next: an array was just
	// opened, a comma was just consumed inside an array, or a ':' was just
	// consumed inside an object.
	StateExpectValue
	// StateObjectKey means a string key or a closing '}' is expected.
	StateObjectKey
	// StateObjectValue means a key was just emitted; ':' is expected.
	StateObjectValue
	// StateDone means the single top-level value is complete.
	StateDone
	// StateError is terminal; no further tokens are accepted.
	StateError
)

// StackEntry tracks one open container. elemCount is compared against
// the configured per-container limit independently of hasElements, which
// exists purely to drive trailing-comma detection.
type StackEntry struct {
	isArray     bool
	hasElements bool
	elemCount   int
}

// machine is the stream's grammar state machine (component F). It owns
// no I/O; Stream drives it with tokens and relays the Events it produces
// to the caller's Handler.
type machine struct {
	state   StreamState
	stack   []StackEntry
	limits  resolvedLimits
	allowTrailingCommas bool
}

func newMachine(limits resolvedLimits, allowTrailingCommas bool) *machine {
	return &machine{state: StateInit, limits: limits, allowTrailingCommas: allowTrailingCommas}
}

func (m *machine) top() *StackEntry {
	if len(m.stack) == 0 {
		return nil
	}
	return &m.stack[len(m.stack)-1]
}

func (m *machine) push(isArray bool, pos Position) *Error {
	if len(m.stack)+1 > m.limits.maxDepth {
		return newError(CodeDepth, pos, "nesting depth exceeds max_depth (%d)", m.limits.maxDepth)
	}
	m.stack = append(m.stack, StackEntry{isArray: isArray})
	return nil
}

// pop removes the current container and sets the state that follows,
// per spec.md §4.F: "after popping... if stack is empty, Done; otherwise
// the parent now has an element, state = Value".
func (m *machine) pop() {
	m.stack = m.stack[:len(m.stack)-1]
	if len(m.stack) == 0 {
		m.state = StateDone
		return
	}
	parent := m.top()
	parent.hasElements = true
	m.state = StateValue
}

func isValueToken(k tokenKind) bool {
	switch k {
	case tokNull, tokTrue, tokFalse, tokString, tokNumber, tokNaN, tokInfinity, tokNegInfinity:
		return true
	}
	return false
}

func scalarEvent(tok token, depth int) Event {
	switch tok.kind {
	case tokNull:
		return Event{Kind: Null, Pos: tok.pos, Depth: depth}
	case tokTrue:
		return Event{Kind: Bool, Bool: true, Pos: tok.pos, Depth: depth}
	case tokFalse:
		return Event{Kind: Bool, Bool: false, Pos: tok.pos, Depth: depth}
	case tokString:
		return Event{Kind: String, Text: tok.str, Pos: tok.pos, Depth: depth}
	default: // tokNumber, tokNaN, tokInfinity, tokNegInfinity
		return Event{Kind: Number, Num: tok.number, Pos: tok.pos, Depth: depth}
	}
}

// accept drives one token through the grammar and reports the Event it
// produces, if any. Trailing-comma acceptance note (Open Question,
// recorded in DESIGN.md): the closing-bracket row that immediately
// follows a value with no intervening comma (state Value) is always
// legal regardless of allow_trailing_commas — only the row reached via
// an explicit comma (state ExpectValue / ObjectKey with hasElements
// already true) is gated by it. spec.md's transition table states the
// gate on both rows, which would make "[1]" illegal without
// allow_trailing_commas; that reading is rejected as almost certainly a
// transcription artifact rather than intended behavior.
func (m *machine) accept(tok token) (Event, bool, *Error) {
	switch m.state {
	case StateInit:
		return m.acceptInit(tok)
	case StateExpectValue:
		return m.acceptExpectValue(tok)
	case StateValue:
		return m.acceptValue(tok)
	case StateObjectKey:
		return m.acceptObjectKey(tok)
	case StateObjectValue:
		return m.acceptObjectValue(tok)
	case StateDone:
		return Event{}, false, newError(CodeTrailingGarbage, tok.pos, "unexpected data after the top-level value")
	default:
		return Event{}, false, newError(CodeState, tok.pos, "token received while stream is not accepting input")
	}
}

func (m *machine) acceptInit(tok token) (Event, bool, *Error) {
	if isValueToken(tok.kind) {
		ev := scalarEvent(tok, 0)
		m.state = StateDone
		return ev, true, nil
	}
	if tok.kind == tokPunct && tok.punct == '[' {
		if err := m.push(true, tok.pos); err != nil {
			return Event{}, false, err
		}
		m.state = StateExpectValue
		return Event{Kind: ArrayBegin, Pos: tok.pos, Depth: len(m.stack)}, true, nil
	}
	if tok.kind == tokPunct && tok.punct == '{' {
		if err := m.push(false, tok.pos); err != nil {
			return Event{}, false, err
		}
		m.state = StateObjectKey
		return Event{Kind: ObjectBegin, Pos: tok.pos, Depth: len(m.stack)}, true, nil
	}
	return Event{}, false, newError(CodeBadToken, tok.pos, "unexpected token at start of input")
}

func (m *machine) acceptExpectValue(tok token) (Event, bool, *Error) {
	top := m.top()
	if isValueToken(tok.kind) {
		ev := scalarEvent(tok, len(m.stack))
		if err := m.countElement(top, tok.pos); err != nil {
			return Event{}, false, err
		}
		m.state = StateValue
		return ev, true, nil
	}
	if tok.kind == tokPunct {
		switch tok.punct {
		case ']':
			if top != nil && top.isArray && m.closeAllowed(top) {
				depth := len(m.stack)
				m.pop()
				return Event{Kind: ArrayEnd, Pos: tok.pos, Depth: depth}, true, nil
			}
		case '}':
			if top != nil && !top.isArray && m.closeAllowed(top) {
				depth := len(m.stack)
				m.pop()
				return Event{Kind: ObjectEnd, Pos: tok.pos, Depth: depth}, true, nil
			}
		case '[':
			if err := m.push(true, tok.pos); err != nil {
				return Event{}, false, err
			}
			m.state = StateExpectValue
			return Event{Kind: ArrayBegin, Pos: tok.pos, Depth: len(m.stack)}, true, nil
		case '{':
			if err := m.push(false, tok.pos); err != nil {
				return Event{}, false, err
			}
			m.state = StateObjectKey
			return Event{Kind: ObjectBegin, Pos: tok.pos, Depth: len(m.stack)}, true, nil
		}
	}
	return Event{}, false, newError(CodeBadToken, tok.pos, "expected a value")
}

func (m *machine) acceptValue(tok token) (Event, bool, *Error) {
	top := m.top()
	if top == nil {
		return Event{}, false, newError(CodeTrailingGarbage, tok.pos, "unexpected data after the top-level value")
	}
	if tok.kind == tokPunct {
		switch tok.punct {
		case ',':
			if top.isArray {
				m.state = StateExpectValue
			} else {
				m.state = StateObjectKey
			}
			return Event{}, false, nil
		case ']':
			if top.isArray {
				depth := len(m.stack)
				m.pop()
				return Event{Kind: ArrayEnd, Pos: tok.pos, Depth: depth}, true, nil
			}
		case '}':
			if !top.isArray {
				depth := len(m.stack)
				m.pop()
				return Event{Kind: ObjectEnd, Pos: tok.pos, Depth: depth}, true, nil
			}
		}
	}
	return Event{}, false, newError(CodeBadToken, tok.pos, "expected ',' or a closing bracket")
}

func (m *machine) acceptObjectKey(tok token) (Event, bool, *Error) {
	top := m.top()
	if tok.kind == tokString {
		ev := Event{Kind: Key, Text: tok.str, Pos: tok.pos, Depth: len(m.stack)}
		m.state = StateObjectValue
		return ev, true, nil
	}
	if tok.kind == tokPunct && tok.punct == '}' && top != nil && m.closeAllowed(top) {
		depth := len(m.stack)
		m.pop()
		return Event{Kind: ObjectEnd, Pos: tok.pos, Depth: depth}, true, nil
	}
	return Event{}, false, newError(CodeBadToken, tok.pos, "expected a string key or '}'")
}

func (m *machine) acceptObjectValue(tok token) (Event, bool, *Error) {
	if tok.kind == tokPunct && tok.punct == ':' {
		m.state = StateExpectValue
		return Event{}, false, nil
	}
	return Event{}, false, newError(CodeBadToken, tok.pos, "expected ':'")
}

// closeAllowed implements the trailing-comma gate shared by every
// closing-bracket row reached via ExpectValue/ObjectKey: a fresh,
// element-free container may always close; one reached through a comma
// may only close if allow_trailing_commas is set.
func (m *machine) closeAllowed(top *StackEntry) bool {
	return !top.hasElements || m.allowTrailingCommas
}

func (m *machine) countElement(top *StackEntry, pos Position) *Error {
	if top == nil {
		return nil
	}
	top.hasElements = true
	top.elemCount++
	if top.elemCount > m.limits.maxContainerElems {
		return newError(CodeLimit, pos, "container element count exceeds max_container_elems (%d)", m.limits.maxContainerElems)
	}
	return nil
}

// reconcileResumption implements spec.md §4.F's resumption reconciliation:
// if a token was parked mid-flight across a chunk boundary while the
// machine had already (optimistically) advanced to StateValue, rewind to
// the state that was actually true before that token started, and rewind
// hasElements to match (Open Question #2 in SPEC_FULL.md).
func (m *machine) reconcileResumption() {
	if m.state != StateValue {
		return
	}
	top := m.top()
	if top == nil {
		m.state = StateInit
		return
	}
	top.hasElements = false
	if top.elemCount > 0 {
		top.elemCount--
	}
	m.state = StateExpectValue
}
