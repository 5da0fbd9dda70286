/*
 * Copyright 2021 Dapper Labs, Inc.  All rights reserved.
 */

package ctf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarStoreInsertLookupDelete(t *testing.T) {
	s := newVarStore()
	s.insert(&varDef{name: "origin", typ: 5})

	got := s.lookup("origin")
	require.NotNil(t, got)
	require.Equal(t, TypeID(5), got.typ)
	require.Nil(t, s.lookup("missing"))

	deleted := s.delete("origin")
	require.NotNil(t, deleted)
	require.Nil(t, s.lookup("origin"))
	require.Equal(t, 0, s.len())
}

func TestVarStoreInsertionOrder(t *testing.T) {
	s := newVarStore()
	s.insert(&varDef{name: "z"})
	s.insert(&varDef{name: "a"})
	s.insert(&varDef{name: "m"})

	var order []string
	s.each(func(v *varDef) bool {
		order = append(order, v.name)
		return true
	})
	require.Equal(t, []string{"z", "a", "m"}, order)
}
