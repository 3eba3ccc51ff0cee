package orgsim

import "github.com/google/uuid"

// ReferenceNames fills the display name of references from the referenced records
func ReferenceNames(stmt *Statement) {
	if stmt.Fault != nil {
		return
	}

	names := map[uuid.UUID]string{}
	resolve := func(ref EntityReference) EntityReference {
		if ref.Name != "" || ref.LogicalName == "" || ref.ID == uuid.Nil {
			return ref
		}
		if name, ok := names[ref.ID]; ok {
			ref.Name = name
			return ref
		}
		if t, ok := stmt.DB.lookupTable(ref.LogicalName); ok {
			if record, ok := t.Get(ref.ID); ok {
				ref.Name = record.GetString(stmt.DB.primaryNameAttribute(ref.LogicalName))
			}
		}
		names[ref.ID] = ref.Name
		return ref
	}

	for _, e := range stmt.Results {
		for k, v := range e.Attributes {
			switch value := v.(type) {
			case EntityReference:
				e.Attributes[k] = resolve(value)
			case AliasedValue:
				if ref, ok := value.Value.(EntityReference); ok {
					value.Value = resolve(ref)
					e.Attributes[k] = value
				}
			}
		}
	}
}

// FormattedValues computes display strings in the database's locale
func FormattedValues(stmt *Statement) {
	if stmt.Fault != nil {
		return
	}

	f := stmt.DB.formatter()
	for _, e := range stmt.Results {
		f.formatEntity(e)
	}
}
