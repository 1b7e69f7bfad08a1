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

// Stream is the incremental driver (component G): it owns the input
// buffer, the TokenBuffer, the grammar state machine, and the absolute
// position. Feed and Finish are the only entry points; a Stream is not
// safe for concurrent use, and once it reaches its Error or Done state
// it rejects further input.
type Stream struct {
	opts    Options
	limits  resolvedLimits
	handler Handler
	machine *machine

	buf       []byte
	used      int
	processed int

	bufferStartOffset uint64
	totalBytesConsumed uint64

	pos Position
	tb  tokenBuffer
}

// NewStream allocates a Stream. handler is required; it is invoked
// synchronously, in source order, once per Event.
func NewStream(opts Options, handler Handler) (*Stream, error) {
	if handler == nil {
		return nil, newError(CodeInvalid, startPosition(), "NewStream: handler must not be nil")
	}
	limits := opts.resolve()
	return &Stream{
		opts:    opts,
		limits:  limits,
		handler: handler,
		machine: newMachine(limits, opts.AllowTrailingCommas),
		pos:     startPosition(),
	}, nil
}

// State reports the stream's current grammar state, chiefly useful for
// tests and diagnostics.
func (s *Stream) State() StreamState {
	return s.machine.state
}

// Feed appends chunk to the input buffer and processes as many complete
// tokens as it contains. It returns an error and moves the stream to its
// Error state if the input is malformed, a limit is exceeded, or the
// Handler itself returns an error.
func (s *Stream) Feed(chunk []byte) error {
	if err := s.checkAcceptingInput(); err != nil {
		return err
	}
	newTotal := satmath.AddUint64(s.totalBytesConsumed, uint64(len(chunk)))
	if newTotal > s.limits.maxTotalBytes {
		remaining := satmath.SubUint64(s.limits.maxTotalBytes, s.totalBytesConsumed)
		err := newError(CodeLimit, s.pos, "total input exceeds max_total_bytes (%d); %d bytes of budget remained", s.limits.maxTotalBytes, remaining)
		s.machine.state = StateError
		return err
	}
	s.totalBytesConsumed = newTotal
	s.appendInput(chunk)
	return s.drain(true)
}

// Finish flips the lexer into non-streaming mode (forcing completion of
// any parked token), drains whatever remains in the buffer, and then
// requires the grammar to have reached Done — an open container or a
// missing value at this point is an Incomplete error, while a token left
// unterminated fails with the lexer's own error code.
func (s *Stream) Finish() error {
	if err := s.checkAcceptingInput(); err != nil {
		return err
	}
	if err := s.drain(false); err != nil {
		return err
	}
	if s.machine.state != StateDone {
		err := newError(CodeIncomplete, s.pos, "unexpected end of input: unclosed container or missing value")
		s.machine.state = StateError
		return err
	}
	return nil
}

func (s *Stream) checkAcceptingInput() error {
	switch s.machine.state {
	case StateError:
		return newError(CodeState, s.pos, "stream is in its Error state; start a new Stream to continue")
	case StateDone:
		return newError(CodeState, s.pos, "stream already reached Done")
	}
	return nil
}

// appendInput grows buf with the doubling-plus-1KiB-headroom discipline
// from spec.md §5, then copies chunk in.
func (s *Stream) appendInput(chunk []byte) {
	need := s.used + len(chunk)
	if cap(s.buf) < need {
		newCap := cap(s.buf)
		if newCap == 0 {
			newCap = 256
		}
		for newCap < need {
			newCap = satmath.MulSize(newCap, 2)
		}
		newCap = satmath.AddSize(newCap, 1<<10)
		grown := make([]byte, s.used, newCap)
		copy(grown, s.buf[:s.used])
		s.buf = grown
	}
	s.buf = s.buf[:need]
	copy(s.buf[s.used:need], chunk)
	s.used = need
}

// drain is the token-processing pass shared by Feed and Finish (spec.md
// §4.G / §9's "factor a drain(mode) operation"): it compacts the buffer,
// then repeatedly lexes and feeds tokens to the grammar machine until the
// buffer is exhausted, an error occurs, or the machine reaches Done.
func (s *Stream) drain(streaming bool) error {
	if s.processed > 0 {
		copy(s.buf, s.buf[s.processed:s.used])
		s.used -= s.processed
		s.buf = s.buf[:s.used]
		s.bufferStartOffset = satmath.AddUint64(s.bufferStartOffset, uint64(s.processed))
		s.processed = 0
	}
	if s.used == 0 && s.tb.kind == tbNone {
		return nil
	}

	lx := newLexer(s.buf[:s.used], s.pos, s.opts, s.limits, streaming, &s.tb)
	if s.tb.kind != tbNone {
		s.machine.reconcileResumption()
	}

	for {
		tok, status, lerr := lx.next()
		switch status {
		case lexIncomplete:
			if s.tb.kind != tbNone {
				s.processed = lx.cursor
			}
			s.pos = lx.pos
			return nil
		case lexEOF:
			s.processed = lx.cursor
			s.pos = lx.pos
			return nil
		case lexError:
			s.machine.state = StateError
			return lerr
		}

		s.processed = lx.cursor
		s.pos = lx.pos

		ev, has, merr := s.machine.accept(tok)
		if merr != nil {
			s.machine.state = StateError
			return merr
		}
		if has {
			if herr := s.handler(ev); herr != nil {
				s.machine.state = StateError
				return herr
			}
		}
		if s.machine.state == StateDone {
			return nil
		}
	}
}
