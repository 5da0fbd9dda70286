/*
 * Copyright 2021 Dapper Labs, Inc.  All rights reserved.
 */

// Package ctf implements a mutable Compact Type Format dictionary: an
// in-memory container that accepts incremental type and variable
// additions, deduplicates and cross-imports against other containers,
// supports snapshot/rollback, and serializes on demand into a
// self-contained, read-only buffer that a parsed view can be queried
// against.
package ctf
