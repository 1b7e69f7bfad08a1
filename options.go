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

// Limit represents a resource limit that is either "use the library
// default" or an explicit value, including an explicit zero. A plain
// `int` field with "0 means default" can't distinguish "no limit
// configured" from "limit of zero", which matters once a caller wants to
// say "reject every container" on purpose. Limit makes that distinction a
// type, not a convention a reader has to remember.
type Limit struct {
	set   bool
	value int
}

// DefaultLimit reports "use whatever the library default is".
func DefaultLimit() Limit { return Limit{} }

// AtLimit fixes the limit at exactly n, including n == 0.
func AtLimit(n int) Limit { return Limit{set: true, value: n} }

// Resolve returns the configured value, or def if none was set.
func (l Limit) Resolve(def int) int {
	if l.set {
		return l.value
	}
	return def
}

// DupKeyPolicy controls how a downstream DOM builder should treat
// duplicate object keys. The streaming core accepts and ignores this
// field — duplicate-key detection requires buffering a whole object's
// keys, which is a DOM concern, not a lexical or grammar one — but it is
// part of Options because callers configure DOM and streaming behavior
// together in one struct.
type DupKeyPolicy int

const (
	DupKeyError DupKeyPolicy = iota
	DupKeyFirstWins
	DupKeyLastWins
	DupKeyCollect
)

// Default resource limits, used whenever the corresponding Limit field is
// DefaultLimit().
const (
	DefaultMaxDepth          = 256
	DefaultMaxStringBytes    = 16 << 20 // 16 MiB
	DefaultMaxNumberBytes    = 16 << 20 // 16 MiB, see SPEC_FULL.md Open Question #1
	DefaultMaxContainerElems = 1 << 20  // 1,048,576
	DefaultMaxTotalBytes     = 64 << 20 // 64 MiB
)

// Options configures both the lexer's grammar extensions and the
// driver's resource limits. The zero value is strict RFC 8259 JSON with
// library-default limits.
type Options struct {
	AllowComments          bool
	AllowTrailingCommas    bool
	AllowNonfiniteNumbers  bool
	AllowSingleQuotes      bool
	AllowUnescapedControls bool
	AllowLeadingBOM        bool
	ValidateUTF8           bool

	MaxDepth          Limit
	MaxStringBytes    Limit
	MaxNumberBytes    Limit
	MaxContainerElems Limit
	MaxTotalBytes     Limit

	PreserveNumberLexeme bool
	ParseInt64           bool
	ParseUint64          bool
	ParseDouble          bool

	DupKeys DupKeyPolicy
}

// resolvedLimits is computed once at NewStream time so the hot token loop
// never has to re-ask "was this left at its default".
type resolvedLimits struct {
	maxDepth          int
	maxStringBytes    int
	maxNumberBytes    int
	maxContainerElems int
	maxTotalBytes     uint64
}

func (o Options) resolve() resolvedLimits {
	return resolvedLimits{
		maxDepth:          o.MaxDepth.Resolve(DefaultMaxDepth),
		maxStringBytes:    o.MaxStringBytes.Resolve(DefaultMaxStringBytes),
		maxNumberBytes:    o.MaxNumberBytes.Resolve(DefaultMaxNumberBytes),
		maxContainerElems: o.MaxContainerElems.Resolve(DefaultMaxContainerElems),
		maxTotalBytes:     uint64(o.MaxTotalBytes.Resolve(DefaultMaxTotalBytes)),
	}
}
