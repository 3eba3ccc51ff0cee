package orgsim

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// snapshot value kinds
const (
	kindString     = "string"
	kindInt        = "int"
	kindInt32      = "int32"
	kindInt64      = "int64"
	kindFloat      = "float"
	kindBool       = "bool"
	kindTime       = "datetime"
	kindUUID       = "uuid"
	kindOptionSet  = "optionset"
	kindMoney      = "money"
	kindReference  = "reference"
	kindCollection = "collection"
)

type snapshotDocument struct {
	Database string          `bson:"database"`
	TakenAt  time.Time       `bson:"taken_at"`
	Tables   []snapshotTable `bson:"tables"`
}

type snapshotTable struct {
	LogicalName string           `bson:"logical_name"`
	Records     []snapshotRecord `bson:"records"`
}

type snapshotRecord struct {
	ID          string                   `bson:"_id"`
	LogicalName string                   `bson:"logical_name"`
	Attributes  map[string]snapshotValue `bson:"attributes"`
}

type snapshotValue struct {
	Kind    string           `bson:"kind"`
	String  string           `bson:"s,omitempty"`
	Int     int64            `bson:"i,omitempty"`
	Float   float64          `bson:"f,omitempty"`
	Bool    bool             `bson:"b,omitempty"`
	Time    time.Time        `bson:"d,omitempty"`
	Entity  string           `bson:"entity,omitempty"`
	Records []snapshotRecord `bson:"records,omitempty"`
}

// ExportState encodes every table of the database as a bson document, used to
// capture a fixture once and restore it into fresh databases
func (db *DB) ExportState() ([]byte, error) {
	doc := snapshotDocument{Database: db.Name, TakenAt: db.now()}

	names := db.TableNames()
	sort.Strings(names)
	for _, name := range names {
		t := db.Table(name)
		table := snapshotTable{LogicalName: name}
		for _, e := range t.snapshot() {
			record, err := encodeRecord(e)
			if err != nil {
				return nil, err
			}
			table.Records = append(table.Records, record)
		}
		doc.Tables = append(doc.Tables, table)
	}
	return bson.Marshal(doc)
}

// ImportState replaces the records of every table named in the snapshot
func (db *DB) ImportState(data []byte) error {
	var doc snapshotDocument
	if err := bson.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	// decode everything first, so a bad snapshot leaves the database untouched
	type key struct {
		table string
		id    uuid.UUID
	}
	decoded := make(map[string][]*Entity, len(doc.Tables))
	seen := map[key]bool{}
	for _, table := range doc.Tables {
		for _, record := range table.Records {
			e, err := decodeRecord(record)
			if err != nil {
				return err
			}
			if seen[key{table.LogicalName, e.ID}] {
				return newFault(ErrDuplicateKey, CodeDuplicateRecord, "Cannot insert duplicate key. A record of type '%s' with id %s already exists.", table.LogicalName, e.ID)
			}
			seen[key{table.LogicalName, e.ID}] = true
			decoded[table.LogicalName] = append(decoded[table.LogicalName], e)
		}
	}

	for _, table := range doc.Tables {
		if err := db.Table(table.LogicalName).reset(decoded[table.LogicalName]); err != nil {
			return err
		}
	}
	return nil
}

func encodeRecord(e *Entity) (snapshotRecord, error) {
	record := snapshotRecord{ID: e.ID.String(), LogicalName: e.LogicalName, Attributes: make(map[string]snapshotValue, len(e.Attributes))}
	for k, v := range e.Attributes {
		value, err := encodeValue(v)
		if err != nil {
			return record, fmt.Errorf("%s.%s: %w", e.LogicalName, k, err)
		}
		record.Attributes[k] = value
	}
	return record, nil
}

func encodeValue(v interface{}) (snapshotValue, error) {
	switch value := v.(type) {
	case string:
		return snapshotValue{Kind: kindString, String: value}, nil
	case int:
		return snapshotValue{Kind: kindInt, Int: int64(value)}, nil
	case int32:
		return snapshotValue{Kind: kindInt32, Int: int64(value)}, nil
	case int64:
		return snapshotValue{Kind: kindInt64, Int: value}, nil
	case float64:
		return snapshotValue{Kind: kindFloat, Float: value}, nil
	case bool:
		return snapshotValue{Kind: kindBool, Bool: value}, nil
	case time.Time:
		return snapshotValue{Kind: kindTime, Time: value.UTC()}, nil
	case uuid.UUID:
		return snapshotValue{Kind: kindUUID, String: value.String()}, nil
	case OptionSetValue:
		return snapshotValue{Kind: kindOptionSet, Int: int64(value.Value)}, nil
	case Money:
		return snapshotValue{Kind: kindMoney, Float: value.Value}, nil
	case EntityReference:
		return snapshotValue{Kind: kindReference, Entity: value.LogicalName, String: value.ID.String()}, nil
	case *EntityCollection:
		encoded := snapshotValue{Kind: kindCollection, Entity: value.EntityName}
		for _, e := range value.Entities {
			record, err := encodeRecord(e)
			if err != nil {
				return encoded, err
			}
			encoded.Records = append(encoded.Records, record)
		}
		return encoded, nil
	}
	return snapshotValue{}, fmt.Errorf("%w: cannot snapshot value of type %T", ErrInvalidArgument, v)
}

func decodeRecord(record snapshotRecord) (*Entity, error) {
	e := NewEntity(record.LogicalName)
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return nil, fmt.Errorf("decode %s id: %w", record.LogicalName, err)
	}
	e.ID = id
	for k, v := range record.Attributes {
		value, err := decodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("decode %s.%s: %w", record.LogicalName, k, err)
		}
		e.Attributes[k] = value
	}
	return e, nil
}

func decodeValue(v snapshotValue) (interface{}, error) {
	switch v.Kind {
	case kindString:
		return v.String, nil
	case kindInt:
		return int(v.Int), nil
	case kindInt32:
		return int32(v.Int), nil
	case kindInt64:
		return v.Int, nil
	case kindFloat:
		return v.Float, nil
	case kindBool:
		return v.Bool, nil
	case kindTime:
		return v.Time.UTC(), nil
	case kindUUID:
		return uuid.Parse(v.String)
	case kindOptionSet:
		return OptionSetValue{Value: int(v.Int)}, nil
	case kindMoney:
		return Money{Value: v.Float}, nil
	case kindReference:
		id, err := uuid.Parse(v.String)
		if err != nil {
			return nil, err
		}
		return NewReference(v.Entity, id), nil
	case kindCollection:
		collection := &EntityCollection{EntityName: v.Entity}
		for _, record := range v.Records {
			e, err := decodeRecord(record)
			if err != nil {
				return nil, err
			}
			collection.Entities = append(collection.Entities, e)
		}
		return collection, nil
	}
	return nil, fmt.Errorf("%w: unknown snapshot value kind %q", ErrInvalidArgument, v.Kind)
}
