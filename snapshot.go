/*
 * Copyright 2021 Dapper Labs, Inc.  All rights reserved.
 */

package ctf

// SnapshotID is the opaque handle returned by Snapshot: a high-water
// type index paired with a monotonic snapshot counter (spec.md §4.5).
// Its zero value is what Snapshot returns on a freshly created container.
type SnapshotID struct {
	typeHWM TypeID
	snap    uint64
}

func rawIndex(id TypeID) TypeID { return id &^ childIDFlag }

// Snapshot records the current high-water mark of allocated type ids and
// variable births, returning an id that Rollback can later bound a
// revert to.
func (d *Dict) Snapshot() SnapshotID {
	id := SnapshotID{typeHWM: rawIndex(d.nextID - 1), snap: d.snapshotCount}
	d.snapshotCount++
	return id
}

// Discard reverts every addition made since the last successful Update,
// equivalent to Rollback(Snapshot taken right after commit).
func (d *Dict) Discard() error {
	return d.Rollback(SnapshotID{typeHWM: rawIndex(d.oldID), snap: d.lastCommittedSnapshot + 1})
}

// Rollback removes every dynamic type whose index exceeds id.typeHWM and
// every dynamic variable born after id.snap, then rewinds next_id and
// snapshot_count to match. It returns OverrollbackError if id would
// cross a point already committed by Update.
func (d *Dict) Rollback(id SnapshotID) error {
	if rawIndex(d.oldID) > id.typeHWM || (d.view != nil && d.lastCommittedSnapshot >= id.snap) {
		return d.setErr(NewOverrollbackError(id.typeHWM, d.oldID))
	}

	var toDelete []*typeDef
	d.types.each(func(td *typeDef) bool {
		if rawIndex(td.id) > id.typeHWM {
			toDelete = append(toDelete, td)
		}
		return true
	})
	for _, td := range toDelete {
		d.types.delete(td.id)
		d.unindexType(td.id)
		d.strGrowth -= nameGrowth(td.name)
		for _, m := range td.members {
			d.strGrowth -= nameGrowth(m.Name)
		}
	}

	var varsToDelete []*varDef
	d.vars.each(func(v *varDef) bool {
		if v.born > id.snap {
			varsToDelete = append(varsToDelete, v)
		}
		return true
	})
	for _, v := range varsToDelete {
		d.vars.delete(v.name)
		d.strGrowth -= nameGrowth(v.name)
	}

	d.nextID = id.typeHWM + 1
	d.snapshotCount = id.snap
	if id.typeHWM <= rawIndex(d.oldID) {
		d.clearDirty()
	}
	return nil
}

// unindexType removes every name-index entry pointing at tid, across all
// four per-kind indexes (spec.md §4.5 leaves this implicit in "delete
// every dynamic type" — a dangling index entry would otherwise resolve
// to a type no longer present in the store).
func (d *Dict) unindexType(tid TypeID) {
	for _, idx := range []map[string]TypeID{d.byStruct, d.byUnion, d.byEnum, d.byName} {
		for name, id := range idx {
			if id == tid {
				delete(idx, name)
			}
		}
	}
}
