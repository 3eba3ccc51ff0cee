package orgsim

// MergeUpdate applies the incoming attributes onto a copy of the stored record,
// nil values clear the attribute
func MergeUpdate(stmt *Statement) {
	if stmt.Fault != nil {
		return
	}

	target := stmt.Existing.Clone()
	for k, v := range stmt.Entity.Attributes {
		if v == nil {
			delete(target.Attributes, k)
		} else {
			target.Attributes[k] = cloneValue(v)
		}
	}
	stmt.Target = target
}

// PopulateUpdate stamps the modification fields and recomputes derived ones
func PopulateUpdate(stmt *Statement) {
	if stmt.Fault != nil {
		return
	}
	stmt.Phase = PhasePopulating
	if stmt.SkipPopulate {
		return
	}

	var (
		db       = stmt.DB
		target   = stmt.Target
		incoming = stmt.Entity
	)

	// creation fields are immutable
	for _, name := range []string{"createdon", "createdby", "createdonbehalfby", "overriddencreatedon"} {
		if v, ok := stmt.Existing.Attributes[name]; ok {
			target.Attributes[name] = v
		} else {
			delete(target.Attributes, name)
		}
	}

	if stmt.HasAttribute("modifiedon") {
		target.Set("modifiedon", db.now())
	}
	if stmt.HasAttribute("modifiedby") {
		target.Set("modifiedby", db.CallerReference())
	}
	if delegate, ok := db.delegateReference(); ok && stmt.HasAttribute("modifiedonbehalfby") {
		target.Set("modifiedonbehalfby", delegate)
	}

	if containsAny(incoming, fullNameParts) && !incoming.Contains("fullname") && stmt.HasAttribute("fullname") {
		target.Set("fullname", db.fullName(target))
	}

	if owner, ok := incoming.GetReference("ownerid"); ok && stmt.HasAttribute("owningbusinessunit") && !incoming.Contains("owningbusinessunit") {
		target.Set("owningbusinessunit", db.owningBusinessUnitOf(owner))
	}
}

// CommitUpdate replaces the stored record with the merged one
func CommitUpdate(stmt *Statement) {
	if stmt.Fault != nil {
		return
	}
	stmt.Phase = PhaseCommitting

	if err := stmt.Table.Replace(prepareForCommit(stmt.Target)); err != nil {
		stmt.AddFault(err)
		return
	}
	stmt.RowsAffected = 1
}
