/*
 * Copyright 2021 Dapper Labs, Inc.  All rights reserved.
 */

package ctf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypeStoreInsertAndGet(t *testing.T) {
	s := newTypeStore()
	td := &typeDef{id: 1, name: "int", kind: KindInteger}
	s.insert(td)
	require.Equal(t, td, s.get(1))
	require.Nil(t, s.get(2))
	require.Equal(t, 1, s.len())
}

func TestTypeStoreInsertionOrder(t *testing.T) {
	s := newTypeStore()
	s.insert(&typeDef{id: 3, name: "c"})
	s.insert(&typeDef{id: 1, name: "a"})
	s.insert(&typeDef{id: 2, name: "b"})

	var order []TypeID
	s.each(func(td *typeDef) bool {
		order = append(order, td.id)
		return true
	})
	require.Equal(t, []TypeID{3, 1, 2}, order)

	var reverse []TypeID
	s.eachReverse(func(td *typeDef) bool {
		reverse = append(reverse, td.id)
		return true
	})
	require.Equal(t, []TypeID{2, 1, 3}, reverse)
}

func TestTypeStoreDelete(t *testing.T) {
	s := newTypeStore()
	s.insert(&typeDef{id: 1})
	s.insert(&typeDef{id: 2})
	s.insert(&typeDef{id: 3})

	require.True(t, s.delete(2))
	require.False(t, s.delete(2))
	require.Nil(t, s.get(2))
	require.Equal(t, 2, s.len())

	var order []TypeID
	s.each(func(td *typeDef) bool {
		order = append(order, td.id)
		return true
	})
	require.Equal(t, []TypeID{1, 3}, order)
}

func TestTypeStoreEachStopsEarly(t *testing.T) {
	s := newTypeStore()
	for i := TypeID(1); i <= 5; i++ {
		s.insert(&typeDef{id: i})
	}
	var seen int
	s.each(func(td *typeDef) bool {
		seen++
		return td.id != 3
	})
	require.Equal(t, 3, seen)
}
