package orgsim

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/orgsim/orgsim/clause"
)

// RelationshipKind cardinality of a relationship
type RelationshipKind int

const (
	OneToMany RelationshipKind = iota
	ManyToMany
)

func (k RelationshipKind) String() string {
	if k == ManyToMany {
		return "ManyToMany"
	}
	return "OneToMany"
}

// AssociationInfo describes the join records of a relationship: the join
// record type and the record type and id attribute of each side
type AssociationInfo struct {
	RelationshipName   string
	Kind               RelationshipKind
	IntersectEntity    string
	Entity1LogicalName string
	Entity1Attribute   string
	Entity2LogicalName string
	Entity2Attribute   string
}

func (info AssociationInfo) normalize() (AssociationInfo, error) {
	info.RelationshipName = strings.ToLower(info.RelationshipName)
	info.IntersectEntity = strings.ToLower(info.IntersectEntity)
	info.Entity1LogicalName = strings.ToLower(info.Entity1LogicalName)
	info.Entity2LogicalName = strings.ToLower(info.Entity2LogicalName)
	info.Entity1Attribute = strings.ToLower(info.Entity1Attribute)
	info.Entity2Attribute = strings.ToLower(info.Entity2Attribute)

	if info.RelationshipName == "" || info.Entity1LogicalName == "" || info.Entity2LogicalName == "" {
		return info, newFault(ErrInvalidArgument, CodeInvalidArgument, "relationship %q needs a name and both record types", info.RelationshipName)
	}
	if info.IntersectEntity == "" {
		info.IntersectEntity = info.RelationshipName
	}
	if info.Entity1Attribute == "" {
		info.Entity1Attribute = info.Entity1LogicalName + "id"
	}
	if info.Entity2Attribute == "" {
		info.Entity2Attribute = info.Entity2LogicalName + "id"
	}
	return info, nil
}

// storageAttributes the id attributes stored on join records, suffixed with
// one and two when both sides use the same name
func (info AssociationInfo) storageAttributes() (string, string) {
	if info.Entity1Attribute == info.Entity2Attribute {
		return info.Entity1Attribute + "one", info.Entity2Attribute + "two"
	}
	return info.Entity1Attribute, info.Entity2Attribute
}

// sides orders a pair of records as entity1, entity2 of the relationship
func (info AssociationInfo) sides(source, related EntityReference) (EntityReference, EntityReference, bool) {
	switch {
	case info.Entity1LogicalName == source.LogicalName && info.Entity2LogicalName == related.LogicalName:
		return source, related, true
	case info.Entity2LogicalName == source.LogicalName && info.Entity1LogicalName == related.LogicalName:
		return related, source, true
	}
	return EntityReference{}, EntityReference{}, false
}

type associationRegistry struct {
	m sync.Map
}

func newAssociationRegistry() *associationRegistry {
	return &associationRegistry{}
}

// register stores info unless the relationship is known, returning the stored one
func (r *associationRegistry) register(info AssociationInfo) AssociationInfo {
	v, _ := r.m.LoadOrStore(info.RelationshipName, info)
	return v.(AssociationInfo)
}

func (r *associationRegistry) lookup(name string) (AssociationInfo, bool) {
	v, ok := r.m.Load(strings.ToLower(name))
	if !ok {
		return AssociationInfo{}, false
	}
	return v.(AssociationInfo), true
}

func (r *associationRegistry) all() []AssociationInfo {
	var infos []AssociationInfo
	r.m.Range(func(_, v interface{}) bool {
		infos = append(infos, v.(AssociationInfo))
		return true
	})
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].RelationshipName < infos[j].RelationshipName
	})
	return infos
}

// forEntity relationships with logicalName on either side
func (r *associationRegistry) forEntity(logicalName string) []AssociationInfo {
	var infos []AssociationInfo
	for _, info := range r.all() {
		if info.Entity1LogicalName == logicalName || info.Entity2LogicalName == logicalName {
			infos = append(infos, info)
		}
	}
	return infos
}

// byIntersect the relationship stored in the join record type
func (r *associationRegistry) byIntersect(logicalName string) (AssociationInfo, bool) {
	for _, info := range r.all() {
		if info.IntersectEntity == logicalName {
			return info, true
		}
	}
	return AssociationInfo{}, false
}

// RegisterManyToMany registers a many to many relationship, the first
// registration of a name wins
func (r *Registry) RegisterManyToMany(info AssociationInfo) (AssociationInfo, error) {
	info.Kind = ManyToMany
	info, err := info.normalize()
	if err != nil {
		return info, err
	}
	return r.associations.register(info), nil
}

// RegisterOneToMany registers a one to many relationship whose join records
// are named after the relationship
func (r *Registry) RegisterOneToMany(relationshipName, referencedEntity, referencingEntity string) (AssociationInfo, error) {
	info, err := AssociationInfo{
		RelationshipName:   relationshipName,
		Kind:               OneToMany,
		Entity1LogicalName: referencedEntity,
		Entity2LogicalName: referencingEntity,
	}.normalize()
	if err != nil {
		return info, err
	}
	return r.associations.register(info), nil
}

// RegisterManyToMany registers a relationship in the database's registry
func (db *DB) RegisterManyToMany(info AssociationInfo) (AssociationInfo, error) {
	return db.registry.RegisterManyToMany(info)
}

// RegisterOneToMany registers a relationship in the database's registry
func (db *DB) RegisterOneToMany(relationshipName, referencedEntity, referencingEntity string) (AssociationInfo, error) {
	return db.registry.RegisterOneToMany(relationshipName, referencedEntity, referencingEntity)
}

func (db *DB) associations() *associationRegistry {
	return db.registry.associations
}

// association resolves a relationship through the registry, then the provider
func (db *DB) association(relationshipName string) (AssociationInfo, error) {
	if info, ok := db.associations().lookup(relationshipName); ok {
		return info, nil
	}
	if db.ManyToManyAssociationProvider != nil {
		if info, ok := db.ManyToManyAssociationProvider.AssociationFor(relationshipName); ok {
			if info.RelationshipName == "" {
				info.RelationshipName = relationshipName
			}
			return db.RegisterManyToMany(info)
		}
	}
	return AssociationInfo{}, newFault(ErrRelationshipNotConfigured, CodeNotSupported,
		"The relationship %s is not configured. Register it with RegisterManyToMany or RegisterOneToMany, or set Config.ManyToManyAssociationProvider.", relationshipName)
}

func matchesID(e *Entity, attribute string, id uuid.UUID) bool {
	v, ok := idOf(e.Attributes[attribute])
	return ok && v == id
}

// findJoin the stored join record of a pair, read only
func findJoin(t *Table, info AssociationInfo, id1, id2 uuid.UUID) (*Entity, bool) {
	attr1, attr2 := info.storageAttributes()
	return t.find(func(e *Entity) bool {
		return matchesID(e, attr1, id1) && matchesID(e, attr2, id2)
	})
}

// joinID the id of the join record of a pair, the same for every associate of
// that pair so concurrent inserts collide on the table key
func joinID(info AssociationInfo, id1, id2 uuid.UUID) uuid.UUID {
	return uuid.NewSHA1(id1, append([]byte(info.RelationshipName+":"), id2[:]...))
}

func errAlreadyAssociated(info AssociationInfo, first, second EntityReference) error {
	return newFault(ErrDuplicateKey, CodeDuplicateRecord, "Cannot insert duplicate key. %s and %s are already associated through %s.", first, second, info.RelationshipName)
}

// Associate creates one join record per related record
func Associate(stmt *Statement) {
	if stmt.Fault != nil {
		return
	}

	db := stmt.DB
	info, err := db.association(stmt.Relationship)
	if err != nil {
		stmt.AddFault(err)
		return
	}
	if !stmt.Table.Contains(stmt.ID) {
		stmt.AddFault(errRecordNotFound(stmt.LogicalName, stmt.ID))
		return
	}

	source := NewReference(stmt.LogicalName, stmt.ID)
	joins := db.Table(info.IntersectEntity)
	attr1, attr2 := info.storageAttributes()
	for _, related := range stmt.Related {
		related.LogicalName = strings.ToLower(related.LogicalName)
		first, second, ok := info.sides(source, related)
		if !ok {
			stmt.AddFault(newFault(ErrInvalidArgument, CodeInvalidArgument, "%s and %s are not the record types of relationship %s", source.LogicalName, related.LogicalName, info.RelationshipName))
			return
		}
		if t, ok := db.lookupTable(related.LogicalName); !ok || !t.Contains(related.ID) {
			stmt.AddFault(errRecordNotFound(related.LogicalName, related.ID))
			return
		}
		if _, ok := findJoin(joins, info, first.ID, second.ID); ok {
			stmt.AddFault(errAlreadyAssociated(info, first, second))
			return
		}

		join := NewEntity(info.IntersectEntity)
		join.ID = joinID(info, first.ID, second.ID)
		join.Set(attr1, first.ID).Set(attr2, second.ID)
		child := db.newStatement(stmt.Context, OperationCreate, info.IntersectEntity)
		child.Entity = join
		child.SkipPopulate, child.SkipValidation, child.nested = true, true, true
		db.callbacks.Create().Execute(child)
		if child.Fault != nil {
			if errors.Is(child.Fault, ErrDuplicateKey) {
				stmt.AddFault(errAlreadyAssociated(info, first, second))
			} else {
				stmt.AddFault(child.Fault)
			}
			return
		}
		stmt.RowsAffected++
	}
}

// Disassociate removes the join record of every related record, pairs that
// are not associated are skipped
func Disassociate(stmt *Statement) {
	if stmt.Fault != nil {
		return
	}

	db := stmt.DB
	info, err := db.association(stmt.Relationship)
	if err != nil {
		stmt.AddFault(err)
		return
	}

	joins, ok := db.lookupTable(info.IntersectEntity)
	if !ok {
		return
	}
	source := NewReference(stmt.LogicalName, stmt.ID)
	for _, related := range stmt.Related {
		related.LogicalName = strings.ToLower(related.LogicalName)
		first, second, ok := info.sides(source, related)
		if !ok {
			stmt.AddFault(newFault(ErrInvalidArgument, CodeInvalidArgument, "%s and %s are not the record types of relationship %s", source.LogicalName, related.LogicalName, info.RelationshipName))
			return
		}
		join, ok := findJoin(joins, info, first.ID, second.ID)
		if !ok {
			continue
		}

		child := db.newStatement(stmt.Context, OperationDelete, info.IntersectEntity)
		child.ID = join.ID
		child.SkipValidation, child.nested = true, true
		db.callbacks.Delete().Execute(child)
		if child.Fault != nil {
			stmt.AddFault(child.Fault)
			return
		}
		stmt.RowsAffected++
	}
}

// rewriteLinks maps joins through a join record type onto its stored id
// attributes, so callers join on the relationship's natural attribute names
func (db *DB) rewriteLinks(parentType string, links []clause.Link) error {
	for idx := range links {
		link := &links[idx]
		if info, ok := db.associations().byIntersect(link.LinkToEntityName); ok && parentType != link.LinkToEntityName {
			side, err := linkSide(info, parentType, link.LinkToAttributeName, 0)
			if err != nil {
				return err
			}
			attr1, attr2 := info.storageAttributes()
			link.LinkToAttributeName = pick(side, attr1, attr2)

			for nestedIdx := range link.LinkEntities {
				nested := &link.LinkEntities[nestedIdx]
				other, err := linkSide(info, nested.LinkToEntityName, nested.LinkFromAttributeName, side)
				if err != nil {
					return err
				}
				nested.LinkFromAttributeName = pick(other, attr1, attr2)
			}
		}
		if err := db.rewriteLinks(link.LinkToEntityName, link.LinkEntities); err != nil {
			return err
		}
	}
	return nil
}

// linkSide the side of info that entityType joins on, 1 or 2; taken excludes
// a side already used by the other end of the join
func linkSide(info AssociationInfo, entityType, attribute string, taken int) (int, error) {
	attr1, attr2 := info.storageAttributes()
	switch {
	case attribute == attr1 && info.Entity1LogicalName == entityType:
		return 1, nil
	case attribute == attr2 && info.Entity2LogicalName == entityType:
		return 2, nil
	case info.Entity1LogicalName == entityType && taken != 1:
		return 1, nil
	case info.Entity2LogicalName == entityType && taken != 2:
		return 2, nil
	}
	return 0, newFault(ErrRelationshipNotConfigured, CodeNotSupported,
		"%s is not a side of relationship %s joined through %s", entityType, info.RelationshipName, info.IntersectEntity)
}

func pick(side int, attr1, attr2 string) string {
	if side == 2 {
		return attr2
	}
	return attr1
}

func (info AssociationInfo) String() string {
	return fmt.Sprintf("%s(%s %s.%s, %s.%s)", info.RelationshipName, info.Kind, info.Entity1LogicalName, info.Entity1Attribute, info.Entity2LogicalName, info.Entity2Attribute)
}
