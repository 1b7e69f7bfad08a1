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

func valTok(kind tokenKind) token { return token{kind: kind} }
func punctTok(c byte) token       { return token{kind: tokPunct, punct: c} }

func TestMachineEmptyArray(t *testing.T) {
	m := newMachine(Options{}.resolve(), false)
	_, has, err := m.accept(punctTok('['))
	require.Nil(t, err)
	assert.True(t, has)
	assert.Equal(t, StateExpectValue, m.state)

	ev, has, err := m.accept(punctTok(']'))
	require.Nil(t, err)
	assert.True(t, has)
	assert.Equal(t, ArrayEnd, ev.Kind)
	assert.Equal(t, StateDone, m.state)
}

func TestMachineSingleElementArrayClosesWithoutTrailingCommas(t *testing.T) {
	m := newMachine(Options{}.resolve(), false)
	_, _, err := m.accept(punctTok('['))
	require.Nil(t, err)
	_, has, err := m.accept(valTok(tokNumber))
	require.Nil(t, err)
	assert.True(t, has)
	assert.Equal(t, StateValue, m.state)

	ev, has, err := m.accept(punctTok(']'))
	require.Nil(t, err)
	assert.True(t, has)
	assert.Equal(t, ArrayEnd, ev.Kind)
	assert.Equal(t, StateDone, m.state)
}

func TestMachineTrailingCommaRejectedByDefault(t *testing.T) {
	m := newMachine(Options{}.resolve(), false)
	_, _, _ = m.accept(punctTok('['))
	_, _, _ = m.accept(valTok(tokNumber))
	_, has, err := m.accept(punctTok(','))
	require.Nil(t, err)
	assert.False(t, has)
	assert.Equal(t, StateExpectValue, m.state)

	_, _, err = m.accept(punctTok(']'))
	require.NotNil(t, err)
	assert.Equal(t, CodeBadToken, err.Code())
}

func TestMachineTrailingCommaAllowedWhenConfigured(t *testing.T) {
	m := newMachine(Options{}.resolve(), true)
	_, _, _ = m.accept(punctTok('['))
	_, _, _ = m.accept(valTok(tokNumber))
	_, _, _ = m.accept(punctTok(','))
	ev, has, err := m.accept(punctTok(']'))
	require.Nil(t, err)
	assert.True(t, has)
	assert.Equal(t, ArrayEnd, ev.Kind)
}

func TestMachineObjectRoundTrip(t *testing.T) {
	m := newMachine(Options{}.resolve(), false)
	_, _, err := m.accept(punctTok('{'))
	require.Nil(t, err)
	assert.Equal(t, StateObjectKey, m.state)

	ev, has, err := m.accept(token{kind: tokString, str: []byte("a")})
	require.Nil(t, err)
	assert.True(t, has)
	assert.Equal(t, Key, ev.Kind)
	assert.Equal(t, StateObjectValue, m.state)

	_, _, err = m.accept(punctTok(':'))
	require.Nil(t, err)
	assert.Equal(t, StateExpectValue, m.state)

	ev, has, err = m.accept(valTok(tokTrue))
	require.Nil(t, err)
	assert.True(t, has)
	assert.Equal(t, Bool, ev.Kind)
	assert.Equal(t, StateValue, m.state)

	ev, has, err = m.accept(punctTok('}'))
	require.Nil(t, err)
	assert.True(t, has)
	assert.Equal(t, ObjectEnd, ev.Kind)
	assert.Equal(t, StateDone, m.state)
}

func TestMachineEmptyObject(t *testing.T) {
	m := newMachine(Options{}.resolve(), false)
	_, _, _ = m.accept(punctTok('{'))
	ev, has, err := m.accept(punctTok('}'))
	require.Nil(t, err)
	assert.True(t, has)
	assert.Equal(t, ObjectEnd, ev.Kind)
}

func TestMachineBareTopLevelValue(t *testing.T) {
	m := newMachine(Options{}.resolve(), false)
	ev, has, err := m.accept(valTok(tokNull))
	require.Nil(t, err)
	assert.True(t, has)
	assert.Equal(t, Null, ev.Kind)
	assert.Equal(t, StateDone, m.state)
}

func TestMachineTrailingGarbageAfterTopLevelValue(t *testing.T) {
	m := newMachine(Options{}.resolve(), false)
	_, _, _ = m.accept(valTok(tokNull))
	_, _, err := m.accept(valTok(tokNumber))
	require.NotNil(t, err)
	assert.Equal(t, CodeTrailingGarbage, err.Code())
}

func TestMachineDepthLimit(t *testing.T) {
	m := newMachine(resolvedLimits{maxDepth: 1, maxContainerElems: 1 << 20}, false)
	_, _, err := m.accept(punctTok('['))
	require.Nil(t, err)
	_, _, err = m.accept(punctTok('['))
	require.NotNil(t, err)
	assert.Equal(t, CodeDepth, err.Code())
}

func TestMachineContainerElemLimit(t *testing.T) {
	m := newMachine(resolvedLimits{maxDepth: 256, maxContainerElems: 1}, false)
	_, _, _ = m.accept(punctTok('['))
	_, _, err := m.accept(valTok(tokNumber))
	require.Nil(t, err)
	_, _, _ = m.accept(punctTok(','))
	_, _, err = m.accept(valTok(tokNumber))
	require.NotNil(t, err)
	assert.Equal(t, CodeLimit, err.Code())
}

func TestMachineReconcileResumptionRewindsHasElements(t *testing.T) {
	m := newMachine(Options{}.resolve(), false)
	_, _, _ = m.accept(punctTok('['))
	_, _, _ = m.accept(valTok(tokNumber))
	require.Equal(t, StateValue, m.state)
	require.True(t, m.top().hasElements)

	m.reconcileResumption()

	assert.Equal(t, StateExpectValue, m.state)
	assert.False(t, m.top().hasElements)
}

func TestMachineReconcileResumptionAtRoot(t *testing.T) {
	m := newMachine(Options{}.resolve(), false)
	m.state = StateValue
	m.reconcileResumption()
	assert.Equal(t, StateInit, m.state)
}
