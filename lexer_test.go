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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexOne(t *testing.T, input string, opts Options, streaming bool) (token, lexStatus, *Error) {
	t.Helper()
	limits := opts.resolve()
	var tb tokenBuffer
	lx := newLexer([]byte(input), startPosition(), opts, limits, streaming, &tb)
	return lx.next()
}

func TestLexerPunctuation(t *testing.T) {
	for _, c := range []byte{'{', '}', '[', ']', ':', ','} {
		tok, status, _ := lexOne(t, string(c), Options{}, false)
		assert.Equal(t, lexOK, status)
		assert.Equal(t, tokPunct, tok.kind)
		assert.Equal(t, c, tok.punct)
	}
}

func TestLexerKeywords(t *testing.T) {
	tests := []struct {
		in   string
		kind tokenKind
	}{
		{"null", tokNull},
		{"true", tokTrue},
		{"false", tokFalse},
	}
	for _, tt := range tests {
		tok, status, _ := lexOne(t, tt.in, Options{}, false)
		assert.Equal(t, lexOK, status)
		assert.Equal(t, tt.kind, tok.kind)
	}
}

func TestLexerUnknownIdentifierIsBadToken(t *testing.T) {
	limits := Options{}.resolve()
	var tb tokenBuffer
	lx := newLexer([]byte("nope"), startPosition(), Options{}, limits, false, &tb)
	_, status, err := lx.next()
	assert.Equal(t, lexError, status)
	require.NotNil(t, err)
	assert.Equal(t, CodeBadToken, err.Code())
}

func TestLexerChunkedKeywordScenario(t *testing.T) {
	// Concrete scenario 5: feed "nul", then "l", then finish -> Null; after
	// the first feed the buffer is not advanced and no TokenBuffer state
	// is parked.
	opts := Options{}
	limits := opts.resolve()
	var tb tokenBuffer

	lx := newLexer([]byte("nul"), startPosition(), opts, limits, true, &tb)
	_, status, err := lx.next()
	require.Nil(t, err)
	assert.Equal(t, lexIncomplete, status)
	assert.Equal(t, tbNone, tb.kind)
	assert.Equal(t, 0, lx.cursor)

	lx2 := newLexer([]byte("null"), startPosition(), opts, limits, false, &tb)
	tok, status, err := lx2.next()
	require.Nil(t, err)
	assert.Equal(t, lexOK, status)
	assert.Equal(t, tokNull, tok.kind)
}

func TestLexerNonfiniteKeywordsRequireOption(t *testing.T) {
	_, status, err := lexOne(t, "NaN", Options{}, false)
	assert.Equal(t, lexError, status)
	require.NotNil(t, err)
	assert.Equal(t, CodeNonFinite, err.Code())

	tok, status, err := lexOne(t, "NaN", Options{AllowNonfiniteNumbers: true, ParseDouble: true}, false)
	require.Nil(t, err)
	assert.Equal(t, lexOK, status)
	assert.Equal(t, tokNaN, tok.kind)
	assert.True(t, tok.number.Nonfinite)
}

func TestLexerStringSimple(t *testing.T) {
	tok, status, _ := lexOne(t, `"hello"`, Options{ValidateUTF8: true}, false)
	assert.Equal(t, lexOK, status)
	assert.Equal(t, tokString, tok.kind)
	assert.Equal(t, "hello", string(tok.str))
}

func TestLexerChunkedStringScenario(t *testing.T) {
	// Concrete scenario 3: feed `"he`, then `llo"`, finish -> String("hello").
	opts := Options{}
	limits := opts.resolve()
	var tb tokenBuffer

	lx := newLexer([]byte(`"he`), startPosition(), opts, limits, true, &tb)
	_, status, err := lx.next()
	require.Nil(t, err)
	assert.Equal(t, lexIncomplete, status)
	require.Equal(t, tbPartialString, tb.kind)
	assert.Equal(t, `"he`, string(tb.bytes))

	lx2 := newLexer([]byte(`llo"`), lx.pos, opts, limits, false, &tb)
	tok, status, err := lx2.next()
	require.Nil(t, err)
	assert.Equal(t, lexOK, status)
	assert.Equal(t, "hello", string(tok.str))
	assert.Equal(t, tbNone, tb.kind)
}

func TestLexerStringEscapesAcrossChunkBoundary(t *testing.T) {
	opts := Options{}
	limits := opts.resolve()
	var tb tokenBuffer

	lx := newLexer([]byte(`"a\`), startPosition(), opts, limits, true, &tb)
	_, status, err := lx.next()
	require.Nil(t, err)
	assert.Equal(t, lexIncomplete, status)
	assert.True(t, tb.inEscape)

	lx2 := newLexer([]byte(`n"`), lx.pos, opts, limits, false, &tb)
	tok, status, err := lx2.next()
	require.Nil(t, err)
	assert.Equal(t, lexOK, status)
	assert.Equal(t, "a\n", string(tok.str))
}

func TestLexerUnterminatedStringAtFinishIsError(t *testing.T) {
	opts := Options{}
	limits := opts.resolve()
	var tb tokenBuffer
	lx := newLexer([]byte(`"abc`), startPosition(), opts, limits, false, &tb)
	_, status, err := lx.next()
	assert.Equal(t, lexError, status)
	require.NotNil(t, err)
	assert.Equal(t, CodeBadToken, err.Code())
}

func TestLexerSingleQuoteStrings(t *testing.T) {
	_, status, err := lexOne(t, `'abc'`, Options{}, false)
	assert.Equal(t, lexError, status)
	require.NotNil(t, err)

	tok, status, err := lexOne(t, `'abc'`, Options{AllowSingleQuotes: true}, false)
	require.Nil(t, err)
	assert.Equal(t, lexOK, status)
	assert.Equal(t, "abc", string(tok.str))
}

func TestLexerNumberSimple(t *testing.T) {
	tok, status, _ := lexOne(t, "-42", Options{ParseInt64: true}, false)
	assert.Equal(t, lexOK, status)
	assert.Equal(t, tokNumber, tok.kind)
	assert.Equal(t, int64(-42), tok.number.Int64)
}

func TestLexerNumberStopsAtNonNumberByte(t *testing.T) {
	limits := Options{}.resolve()
	var tb tokenBuffer
	lx := newLexer([]byte("12]"), startPosition(), Options{}, limits, false, &tb)
	tok, status, err := lx.next()
	require.Nil(t, err)
	assert.Equal(t, lexOK, status)
	assert.Equal(t, tokNumber, tok.kind)
	assert.Equal(t, 2, lx.cursor)
}

func TestLexerChunkedNumberExponentScenario(t *testing.T) {
	// Concrete scenario 4: feed "1.5e", feed "+2", finish -> Number("1.5e+2").
	opts := Options{PreserveNumberLexeme: true}
	limits := opts.resolve()
	var tb tokenBuffer

	lx := newLexer([]byte("1.5e"), startPosition(), opts, limits, true, &tb)
	_, status, err := lx.next()
	require.Nil(t, err)
	assert.Equal(t, lexIncomplete, status)
	require.Equal(t, tbPartialNumber, tb.kind)
	assert.True(t, tb.hasDot)
	assert.True(t, tb.hasExp)
	assert.False(t, tb.expSignSeen)

	lx2 := newLexer([]byte("+2"), lx.pos, opts, limits, true, &tb)
	_, status, err = lx2.next()
	require.Nil(t, err)
	assert.Equal(t, lexIncomplete, status)
	assert.True(t, tb.expSignSeen)

	lx3 := newLexer(nil, lx2.pos, opts, limits, false, &tb)
	tok, status, err := lx3.next()
	require.Nil(t, err)
	assert.Equal(t, lexOK, status)
	assert.Equal(t, "1.5e+2", tok.number.Lexeme)
}

func TestLexerNegInfinityAcrossChunks(t *testing.T) {
	opts := Options{AllowNonfiniteNumbers: true, ParseDouble: true}
	limits := opts.resolve()
	var tb tokenBuffer

	lx := newLexer([]byte("-Inf"), startPosition(), opts, limits, true, &tb)
	_, status, err := lx.next()
	require.Nil(t, err)
	assert.Equal(t, lexIncomplete, status)
	assert.True(t, tb.matchingNegInfinity)

	lx2 := newLexer([]byte("inity"), lx.pos, opts, limits, false, &tb)
	tok, status, err := lx2.next()
	require.Nil(t, err)
	assert.Equal(t, lexOK, status)
	assert.Equal(t, tokNegInfinity, tok.kind)
	assert.True(t, tok.number.Nonfinite)
}

func TestLexerMinusFollowedByDigitIsNotNegInfinity(t *testing.T) {
	tok, status, _ := lexOne(t, "-5", Options{ParseInt64: true}, false)
	assert.Equal(t, lexOK, status)
	assert.Equal(t, int64(-5), tok.number.Int64)
}

func TestLexerComments(t *testing.T) {
	opts := Options{AllowComments: true}
	tok, status, _ := lexOne(t, "// a comment\n42", opts, false)
	assert.Equal(t, lexOK, status)
	assert.Equal(t, tokNumber, tok.kind)

	tok, status, _ = lexOne(t, "/* block */ 42", opts, false)
	assert.Equal(t, lexOK, status)
	assert.Equal(t, tokNumber, tok.kind)
}

func TestLexerUnclosedBlockCommentAtFinishIsError(t *testing.T) {
	opts := Options{AllowComments: true}
	limits := opts.resolve()
	var tb tokenBuffer
	lx := newLexer([]byte("/* never closed"), startPosition(), opts, limits, false, &tb)
	_, status, err := lx.next()
	assert.Equal(t, lexError, status)
	require.NotNil(t, err)
	assert.Equal(t, CodeBadToken, err.Code())
}

func TestLexerLeadingBOMSkipped(t *testing.T) {
	opts := Options{AllowLeadingBOM: true}
	tok, status, _ := lexOne(t, "\xef\xbb\xbf42", opts, false)
	assert.Equal(t, lexOK, status)
	assert.Equal(t, tokNumber, tok.kind)
	assert.Equal(t, uint64(3), tok.pos.Offset)
}

func TestLexerBOMRejectedWhenOptionOff(t *testing.T) {
	limits := Options{}.resolve()
	var tb tokenBuffer
	lx := newLexer([]byte("\xef\xbb\xbf42"), startPosition(), Options{}, limits, false, &tb)
	_, status, err := lx.next()
	assert.Equal(t, lexError, status)
	require.NotNil(t, err)
}

func TestLexerEOF(t *testing.T) {
	tok, status, _ := lexOne(t, "   ", Options{}, false)
	assert.Equal(t, lexEOF, status)
	assert.Equal(t, tokEOF, tok.kind)
}
