package orgsim

// CommitDelete removes the record, a record removed concurrently is not found
func CommitDelete(stmt *Statement) {
	if stmt.Fault != nil {
		return
	}
	stmt.Phase = PhaseCommitting

	if !stmt.Table.Remove(stmt.ID) {
		stmt.AddFault(errRecordNotFound(stmt.LogicalName, stmt.ID))
		return
	}
	stmt.RowsAffected = 1
}

// DeleteAssociations removes the join records referencing the deleted record
func DeleteAssociations(stmt *Statement) {
	if stmt.Fault != nil {
		return
	}

	for _, info := range stmt.DB.associations().forEntity(stmt.LogicalName) {
		t, ok := stmt.DB.lookupTable(info.IntersectEntity)
		if !ok {
			continue
		}
		attr1, attr2 := info.storageAttributes()
		for _, join := range t.snapshot() {
			if (info.Entity1LogicalName == stmt.LogicalName && matchesID(join, attr1, stmt.ID)) ||
				(info.Entity2LogicalName == stmt.LogicalName && matchesID(join, attr2, stmt.ID)) {
				if t.Remove(join.ID) {
					stmt.RowsAffected++
				}
			}
		}
	}
}
