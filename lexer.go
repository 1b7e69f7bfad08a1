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

// lexer consumes bytes from a borrowed slice and produces tokens. In
// streaming mode it may return lexIncomplete with resumption state
// parked in the tokenBuffer it was handed; the Stream driver owns both
// the slice and the tokenBuffer across lexer instantiations.
type lexer struct {
	input     []byte
	cursor    int
	pos       Position
	opts      Options
	limits    resolvedLimits
	streaming bool
	tb        *tokenBuffer
}

func newLexer(input []byte, pos Position, opts Options, limits resolvedLimits, streaming bool, tb *tokenBuffer) *lexer {
	return &lexer{input: input, pos: pos, opts: opts, limits: limits, streaming: streaming, tb: tb}
}

// next produces the next token. When it returns lexIncomplete with the
// token buffer still empty (a partial keyword or an ambiguous comment
// opener), the cursor and position are rewound to where this call began,
// so the caller can safely leave every byte of this pass unprocessed.
func (l *lexer) next() (token, lexStatus, *Error) {
	entryCursor, entryPos := l.cursor, l.pos
	tok, status, err := l.nextImpl()
	if status == lexIncomplete && l.tb.kind == tbNone {
		l.cursor, l.pos = entryCursor, entryPos
	}
	return tok, status, err
}

func (l *lexer) nextImpl() (token, lexStatus, *Error) {
	if l.tb.kind != tbNone {
		switch l.tb.kind {
		case tbPartialString:
			return l.continueString()
		case tbPartialNumber:
			return l.continueNumber()
		}
	}

	if status, err := l.maybeSkipBOM(); status != lexOK {
		return token{}, status, err
	}

	l.skipWhitespace()

	if l.opts.AllowComments {
		if status, err := l.skipComments(); status != lexOK {
			return token{}, status, err
		}
	}

	if l.cursor >= len(l.input) {
		return token{kind: tokEOF, pos: l.pos}, lexEOF, nil
	}

	start := l.cursor
	startPos := l.pos
	c := l.input[l.cursor]

	switch c {
	case '{', '}', '[', ']', ':', ',':
		l.cursor++
		l.pos.advanceColumn(1)
		return token{kind: tokPunct, punct: c, pos: startPos, length: 1}, lexOK, nil
	case '"':
		return l.lexString(start, startPos, '"')
	case '\'':
		if l.opts.AllowSingleQuotes {
			return l.lexString(start, startPos, '\'')
		}
		return l.invalidByteToken(start, startPos)
	}

	if c == '-' || isDigit(c) {
		return l.lexNumber(start, startPos)
	}
	if isIdentStart(c) {
		return l.lexKeyword(start, startPos)
	}
	return l.invalidByteToken(start, startPos)
}

// --- whitespace, comments, BOM ---

func (l *lexer) skipWhitespace() {
	for l.cursor < len(l.input) {
		switch l.input[l.cursor] {
		case ' ', '\t', '\r':
			l.cursor++
			l.pos.advanceColumn(1)
		case '\n':
			l.cursor++
			l.pos.newline()
		default:
			return
		}
	}
}

// skipComments repeatedly skips `// ... \n` and `/* ... */` comments
// interleaved with whitespace. A `/` that can't yet be classified
// because the chunk ends right after it is left alone in streaming mode
// (returns lexIncomplete without committing); at true end of input it is
// just an ordinary invalid byte, handled by the caller.
func (l *lexer) skipComments() (lexStatus, *Error) {
	for {
		l.skipWhitespace()

		if l.cursor >= len(l.input) {
			return lexOK, nil
		}
		if l.input[l.cursor] != '/' {
			return lexOK, nil
		}
		if l.cursor+1 >= len(l.input) {
			if l.streaming {
				return lexIncomplete, nil
			}
			return lexOK, nil
		}

		switch l.input[l.cursor+1] {
		case '/':
			l.cursor += 2
			l.pos.advanceColumn(2)
			for l.cursor < len(l.input) && l.input[l.cursor] != '\n' {
				l.cursor++
				l.pos.advanceColumn(1)
			}
			if l.cursor < len(l.input) {
				l.cursor++
				l.pos.newline()
			} else if l.streaming {
				return lexIncomplete, nil
			}
		case '*':
			startPos := l.pos
			l.cursor += 2
			l.pos.advanceColumn(2)
			closed := false
			for l.cursor+1 < len(l.input) {
				if l.input[l.cursor] == '*' && l.input[l.cursor+1] == '/' {
					l.cursor += 2
					l.pos.advanceColumn(2)
					closed = true
					break
				}
				if l.input[l.cursor] == '\n' {
					l.cursor++
					l.pos.newline()
				} else {
					l.cursor++
					l.pos.advanceColumn(1)
				}
			}
			if !closed {
				if l.streaming {
					return lexIncomplete, nil
				}
				return lexError, newError(CodeBadToken, startPos, "unclosed block comment")
			}
		default:
			return lexOK, nil
		}
	}
}

const bomBytes = "\xef\xbb\xbf"

func (l *lexer) maybeSkipBOM() (lexStatus, *Error) {
	if !l.opts.AllowLeadingBOM || l.pos.Offset != 0 || l.cursor != 0 {
		return lexOK, nil
	}
	avail := len(l.input) - l.cursor
	if avail < len(bomBytes) {
		for i := 0; i < avail; i++ {
			if l.input[l.cursor+i] != bomBytes[i] {
				return lexOK, nil
			}
		}
		if l.streaming {
			return lexIncomplete, nil
		}
		return lexOK, nil
	}
	if string(l.input[l.cursor:l.cursor+len(bomBytes)]) == bomBytes {
		l.cursor += len(bomBytes)
		l.pos.advanceOffset(len(bomBytes))
	}
	return lexOK, nil
}

// --- strings ---

type stringScanState struct {
	inEscape     bool
	hexRemaining int
}

// scanString consumes bytes one at a time implementing the FSM from
// spec §4.E: a pending \u escape always wins, then an open escape flag,
// then the closing quote, then literal bytes. It reports whether the
// string completed in this call.
func (l *lexer) scanString(quote byte, st *stringScanState) (complete bool, err *Error) {
	for l.cursor < len(l.input) {
		c := l.input[l.cursor]
		l.cursor++
		if c == '\n' {
			l.pos.newline()
		} else {
			l.pos.advanceColumn(1)
		}

		if st.hexRemaining > 0 {
			if !isHexDigitByte(c) {
				return false, newError(CodeBadUnicode, l.pos, "invalid hex digit '%c' in \\u escape", c)
			}
			st.hexRemaining--
			continue
		}
		if st.inEscape {
			if c == 'u' {
				st.hexRemaining = 4
			}
			st.inEscape = false
			continue
		}
		if c == '\\' {
			st.inEscape = true
			continue
		}
		if c == quote {
			return true, nil
		}
	}
	return false, nil
}

func (l *lexer) lexString(start int, startPos Position, quote byte) (token, lexStatus, *Error) {
	l.cursor++ // past opening quote
	l.pos.advanceColumn(1)
	contentStart := l.cursor

	st := stringScanState{}
	complete, err := l.scanString(quote, &st)
	if err != nil {
		return token{}, lexError, err
	}
	if complete {
		interior := l.input[contentStart : l.cursor-1]
		decoded, derr := decodeString(interior, startPos, l.decodeOpts())
		if derr != nil {
			return token{}, lexError, derr
		}
		return token{kind: tokString, str: decoded, pos: startPos, length: l.cursor - start}, lexOK, nil
	}

	if !l.streaming {
		return token{}, lexError, newError(CodeBadToken, startPos, "unterminated string")
	}

	l.tb.beginString(quote, uint64(start), startPos)
	l.tb.append(l.input[contentStart:l.cursor])
	l.tb.inEscape = st.inEscape
	l.tb.unicodeHexRemaining = st.hexRemaining
	if limitErr := checkBufLimit(len(l.tb.bytes), l.limits.maxStringBytes, startPos, "string"); limitErr != nil {
		return token{}, lexError, limitErr
	}
	l.cursor = len(l.input)
	return token{}, lexIncomplete, nil
}

func (l *lexer) continueString() (token, lexStatus, *Error) {
	quote := l.tb.bytes[0]
	startPos := l.tb.startPos
	st := stringScanState{inEscape: l.tb.inEscape, hexRemaining: l.tb.unicodeHexRemaining}

	before := l.cursor
	complete, err := l.scanString(quote, &st)
	if err != nil {
		return token{}, lexError, err
	}
	if complete {
		tail := l.input[before : l.cursor-1]
		full := make([]byte, 0, len(l.tb.bytes)+len(tail))
		full = append(full, l.tb.bytes[1:]...) // drop opening quote
		full = append(full, tail...)
		decoded, derr := decodeString(full, startPos, l.decodeOpts())
		length := len(l.tb.bytes) + len(tail) + 1 // +1 for the closing quote
		l.tb.clear()
		if derr != nil {
			return token{}, lexError, derr
		}
		return token{kind: tokString, str: decoded, pos: startPos, length: length}, lexOK, nil
	}

	if !l.streaming {
		return token{}, lexError, newError(CodeBadToken, startPos, "unterminated string")
	}

	l.tb.append(l.input[before:l.cursor])
	l.tb.inEscape = st.inEscape
	l.tb.unicodeHexRemaining = st.hexRemaining
	if limitErr := checkBufLimit(len(l.tb.bytes), l.limits.maxStringBytes, startPos, "string"); limitErr != nil {
		return token{}, lexError, limitErr
	}
	l.cursor = len(l.input)
	return token{}, lexIncomplete, nil
}

// --- numbers ---

type numberScanState struct {
	hasDot      bool
	hasExp      bool
	expSignSeen bool
}

func (l *lexer) scanNumberBody(st *numberScanState) {
	for l.cursor < len(l.input) {
		c := l.input[l.cursor]
		switch {
		case isDigit(c):
		case c == '.':
			st.hasDot = true
		case c == 'e' || c == 'E':
			st.hasExp = true
		case c == '+' || c == '-':
			if !st.hasExp {
				return
			}
			st.expSignSeen = true
		default:
			return
		}
		l.cursor++
		l.pos.advanceColumn(1)
	}
}

const negInfinityLiteral = "-Infinity"

func (l *lexer) lexNumber(start int, startPos Position) (token, lexStatus, *Error) {
	if l.input[l.cursor] == '-' {
		l.cursor++
		l.pos.advanceColumn(1)
		if l.cursor < len(l.input) && l.input[l.cursor] == 'I' {
			return l.matchNegInfinity(start, startPos, 1)
		}
		if l.cursor >= len(l.input) {
			if !l.streaming {
				return token{}, lexError, newError(CodeBadNumber, startPos, "number has no digits after sign")
			}
			l.tb.beginNumber('-', uint64(start), startPos)
			l.cursor = len(l.input)
			return token{}, lexIncomplete, nil
		}
	}

	st := numberScanState{}
	l.scanNumberBody(&st)
	return l.finishNumberLex(start, startPos, st)
}

func (l *lexer) finishNumberLex(start int, startPos Position, st numberScanState) (token, lexStatus, *Error) {
	if l.cursor < len(l.input) || !l.streaming {
		lexeme := string(l.input[start:l.cursor])
		return l.completeNumber(lexeme, startPos)
	}

	l.tb.beginNumber(l.input[start], uint64(start), startPos)
	if l.cursor > start+1 {
		l.tb.append(l.input[start+1 : l.cursor])
	}
	l.tb.hasDot = st.hasDot
	l.tb.hasExp = st.hasExp
	l.tb.expSignSeen = st.expSignSeen
	if limitErr := checkBufLimit(len(l.tb.bytes), l.limits.maxNumberBytes, startPos, "number"); limitErr != nil {
		return token{}, lexError, limitErr
	}
	l.cursor = len(l.input)
	return token{}, lexIncomplete, nil
}

func (l *lexer) continueNumber() (token, lexStatus, *Error) {
	startPos := l.tb.startPos

	if !l.tb.matchingNegInfinity && len(l.tb.bytes) == 1 && l.tb.bytes[0] == '-' &&
		l.cursor < len(l.input) && l.input[l.cursor] == 'I' {
		return l.matchNegInfinityResume(startPos, 1)
	}
	if l.tb.matchingNegInfinity {
		return l.matchNegInfinityResume(startPos, len(l.tb.bytes))
	}

	st := numberScanState{hasDot: l.tb.hasDot, hasExp: l.tb.hasExp, expSignSeen: l.tb.expSignSeen}
	before := l.cursor
	l.scanNumberBody(&st)

	if l.cursor < len(l.input) || !l.streaming {
		full := make([]byte, 0, len(l.tb.bytes)+(l.cursor-before))
		full = append(full, l.tb.bytes...)
		full = append(full, l.input[before:l.cursor]...)
		l.tb.clear()
		return l.completeNumber(string(full), startPos)
	}

	l.tb.append(l.input[before:l.cursor])
	l.tb.hasDot = st.hasDot
	l.tb.hasExp = st.hasExp
	l.tb.expSignSeen = st.expSignSeen
	if limitErr := checkBufLimit(len(l.tb.bytes), l.limits.maxNumberBytes, startPos, "number"); limitErr != nil {
		return token{}, lexError, limitErr
	}
	l.cursor = len(l.input)
	return token{}, lexIncomplete, nil
}

func (l *lexer) matchNegInfinity(start int, startPos Position, matched int) (token, lexStatus, *Error) {
	return l.matchNegInfinityCommon(startPos, matched, func(finalMatched int) {
		l.tb.beginNumber('-', uint64(start), startPos)
		l.tb.matchingNegInfinity = true
		if finalMatched > 1 {
			l.tb.bytes = []byte(negInfinityLiteral[:finalMatched])
		}
	})
}

func (l *lexer) matchNegInfinityResume(startPos Position, matched int) (token, lexStatus, *Error) {
	return l.matchNegInfinityCommon(startPos, matched, func(finalMatched int) {
		l.tb.matchingNegInfinity = true
		l.tb.bytes = []byte(negInfinityLiteral[:finalMatched])
	})
}

// matchNegInfinityCommon matches the remainder of "-Infinity" byte by
// byte from position `matched` in the literal. park is called only when
// the literal is not yet fully matched and more input is needed; it
// receives how much of the literal was actually confirmed this call.
func (l *lexer) matchNegInfinityCommon(startPos Position, matched int, park func(int)) (token, lexStatus, *Error) {
	lit := negInfinityLiteral
	for matched < len(lit) && l.cursor < len(l.input) {
		if l.input[l.cursor] != lit[matched] {
			return token{}, lexError, newError(CodeBadNumber, startPos, "invalid numeric literal")
		}
		l.cursor++
		l.pos.advanceColumn(1)
		matched++
	}
	if matched == len(lit) {
		l.tb.clear()
		if !l.opts.AllowNonfiniteNumbers {
			return token{}, lexError, newError(CodeNonFinite, startPos, "-Infinity not allowed (allow_nonfinite_numbers is off)")
		}
		nv, _ := parseNumber(lit, startPos, l.numberOpts())
		return token{kind: tokNegInfinity, number: nv, pos: startPos, length: len(lit)}, lexOK, nil
	}
	if !l.streaming {
		return token{}, lexError, newError(CodeBadNumber, startPos, "truncated -Infinity literal")
	}
	park(matched)
	l.cursor = len(l.input)
	return token{}, lexIncomplete, nil
}

func (l *lexer) completeNumber(lexeme string, startPos Position) (token, lexStatus, *Error) {
	nv, err := parseNumber(lexeme, startPos, l.numberOpts())
	if err != nil {
		return token{}, lexError, err
	}
	return token{kind: tokNumber, number: nv, pos: startPos, length: len(lexeme)}, lexOK, nil
}

// --- keywords ---

func keywordFor(c byte) (lit string, kind tokenKind, nonfinite bool, ok bool) {
	switch c {
	case 'n':
		return "null", tokNull, false, true
	case 't':
		return "true", tokTrue, false, true
	case 'f':
		return "false", tokFalse, false, true
	case 'N':
		return "NaN", tokNaN, true, true
	case 'I':
		return "Infinity", tokInfinity, true, true
	default:
		return "", 0, false, false
	}
}

func (l *lexer) lexKeyword(start int, startPos Position) (token, lexStatus, *Error) {
	lit, kind, nonfinite, ok := keywordFor(l.input[l.cursor])
	if !ok {
		return l.invalidByteToken(start, startPos)
	}
	return l.matchKeyword(start, startPos, lit, kind, nonfinite, 0)
}

func (l *lexer) matchKeyword(start int, startPos Position, lit string, kind tokenKind, nonfinite bool, matched int) (token, lexStatus, *Error) {
	for matched < len(lit) && l.cursor < len(l.input) {
		if l.input[l.cursor] != lit[matched] {
			return l.invalidIdentifierToken(start, startPos)
		}
		l.cursor++
		l.pos.advanceColumn(1)
		matched++
	}
	if matched < len(lit) {
		if !l.streaming {
			return l.invalidIdentifierToken(start, startPos)
		}
		return token{}, lexIncomplete, nil
	}
	if l.cursor < len(l.input) && isIdentCont(l.input[l.cursor]) {
		return l.invalidIdentifierToken(start, startPos)
	}
	if nonfinite && !l.opts.AllowNonfiniteNumbers {
		return token{}, lexError, newError(CodeNonFinite, startPos, "%s not allowed (allow_nonfinite_numbers is off)", lit)
	}
	tok := token{kind: kind, pos: startPos, length: len(lit)}
	if kind == tokNaN || kind == tokInfinity {
		nv, _ := parseNumber(lit, startPos, l.numberOpts())
		tok.number = nv
	}
	return tok, lexOK, nil
}

func (l *lexer) invalidIdentifierToken(start int, startPos Position) (token, lexStatus, *Error) {
	for l.cursor < len(l.input) && isIdentCont(l.input[l.cursor]) {
		l.cursor++
		l.pos.advanceColumn(1)
	}
	return token{}, lexError, newError(CodeBadToken, startPos, "unrecognized identifier %q", string(l.input[start:l.cursor])).withContext(l.input, start)
}

func (l *lexer) invalidByteToken(start int, startPos Position) (token, lexStatus, *Error) {
	c := l.input[l.cursor]
	l.cursor++
	l.pos.advanceColumn(1)
	return token{}, lexError, newError(CodeBadToken, startPos, "unexpected byte 0x%02x", c).withContext(l.input, start)
}

// --- shared helpers ---

func (l *lexer) decodeOpts() decodeOptions {
	return decodeOptions{
		validateUTF8:           l.opts.ValidateUTF8,
		allowUnescapedControls: l.opts.AllowUnescapedControls,
		maxStringBytes:         l.limits.maxStringBytes,
	}
}

func (l *lexer) numberOpts() numberOptions {
	return numberOptions{
		preserveLexeme: l.opts.PreserveNumberLexeme,
		parseInt64:     l.opts.ParseInt64,
		parseUint64:    l.opts.ParseUint64,
		parseDouble:    l.opts.ParseDouble,
	}
}

func checkBufLimit(n, max int, pos Position, what string) *Error {
	if max > 0 && n > max {
		return newError(CodeLimit, pos, "%s buffer exceeds configured limit (%d bytes)", what, max)
	}
	return nil
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
