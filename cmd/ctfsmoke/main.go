/*
 * Copyright 2021 Dapper Labs, Inc.  All rights reserved.
 */

// Command ctfsmoke builds a small type dictionary end to end, updates it,
// imports its struct into a second container, and prints the struct's
// kind and size in both, exercising the builder, updater, copier, and
// lookup paths together.
package main

import (
	"fmt"
	"os"

	"github.com/ctfkit/ctf"
)

func run() error {
	dict := ctf.NewDict(ctf.DataModelLP64)

	intID, err := dict.AddInteger(true, "int", ctf.Encoding{Format: ctf.FormatSigned, Bits: 32})
	if err != nil {
		return fmt.Errorf("add int: %w", err)
	}

	structID, err := dict.AddStruct(true, "point")
	if err != nil {
		return fmt.Errorf("add struct: %w", err)
	}
	if err := dict.AddMember(structID, "x", intID); err != nil {
		return fmt.Errorf("add member x: %w", err)
	}
	if err := dict.AddMember(structID, "y", intID); err != nil {
		return fmt.Errorf("add member y: %w", err)
	}

	if err := dict.AddVariable("origin", structID); err != nil {
		return fmt.Errorf("add variable: %w", err)
	}

	if err := dict.Update(); err != nil {
		return fmt.Errorf("update: %w", err)
	}

	kind, size, err := dict.TypeInfo(structID)
	if err != nil {
		return fmt.Errorf("type info: %w", err)
	}
	fmt.Printf("point: kind=%s size=%d bytes\n", kind, size)

	other := ctf.NewDict(ctf.DataModelLP64)
	importedID, err := other.AddType(dict, structID)
	if err != nil {
		return fmt.Errorf("cross-import: %w", err)
	}
	if err := other.Update(); err != nil {
		return fmt.Errorf("update (other): %w", err)
	}
	otherKind, otherSize, err := other.TypeInfo(importedID)
	if err != nil {
		return fmt.Errorf("type info (other): %w", err)
	}
	fmt.Printf("imported point: kind=%s size=%d bytes\n", otherKind, otherSize)

	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ctfsmoke:", err)
		os.Exit(1)
	}
}
