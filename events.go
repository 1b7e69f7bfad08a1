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

// EventKind tags the variant carried by an Event.
type EventKind int

const (
	ObjectBegin EventKind = iota
	ObjectEnd
	ArrayBegin
	ArrayEnd
	Key
	String
	Number
	Bool
	Null
)

func (k EventKind) String() string {
	switch k {
	case ObjectBegin:
		return "ObjectBegin"
	case ObjectEnd:
		return "ObjectEnd"
	case ArrayBegin:
		return "ArrayBegin"
	case ArrayEnd:
		return "ArrayEnd"
	case Key:
		return "Key"
	case String:
		return "String"
	case Number:
		return "Number"
	case Bool:
		return "Bool"
	case Null:
		return "Null"
	default:
		return "Unknown"
	}
}

// Event is handed to the Handler synchronously as it is produced. Text
// (for Key / String) holds bytes decoded for that one token; the Stream
// keeps no reference to them after the Handler returns.
type Event struct {
	Kind   EventKind
	Text   []byte      // valid for Key, String
	Num    NumberValue // valid for Number
	Bool   bool        // valid for Bool
	Pos    Position
	Depth  int
}

// Handler processes one Event at a time. Returning a non-nil error
// cancels the stream: the Stream moves to its Error state and that same
// error is returned from the Feed/Finish call that produced the event.
type Handler func(Event) error
