package orgsim

import (
	"errors"
	"fmt"

	"github.com/orgsim/orgsim/clause"
	"github.com/orgsim/orgsim/logger"
	"github.com/orgsim/orgsim/schema"
)

var (
	// ErrRecordNotFound record not found error
	ErrRecordNotFound = logger.ErrRecordNotFound
	// ErrSchema record type cannot be mapped to a schema
	ErrSchema = schema.ErrSchema
	// ErrFieldNotFound field not found on a record schema
	ErrFieldNotFound = schema.ErrFieldNotFound
	// ErrUnknownField attribute not declared by the record schema
	ErrUnknownField = errors.New("unknown field")
	// ErrReferencedRecordMissing a reference points at a record that does not exist
	ErrReferencedRecordMissing = errors.New("referenced record missing")
	// ErrDuplicateKey a record with the same key already exists
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrRuleViolation a business rule rejected the operation
	ErrRuleViolation = errors.New("rule violation")
	// ErrRelationshipNotConfigured relationship has no association metadata
	ErrRelationshipNotConfigured = errors.New("relationship not configured")
	// ErrEmptyAttributeList by attribute query without attributes
	ErrEmptyAttributeList = clause.ErrEmptyAttributeList
	// ErrAttributeValueCountMismatch by attribute query with different attribute and value counts
	ErrAttributeValueCountMismatch = clause.ErrAttributeValueCountMismatch
	// ErrUnsupportedQueryShape query cannot be reduced to a canonical query
	ErrUnsupportedQueryShape = errors.New("unsupported query shape")
	// ErrInvalidArgument malformed request
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnsupportedRequest request kind not in the execute catalog
	ErrUnsupportedRequest = errors.New("unsupported request")
)

// ErrorCode remote service error code carried by faults
type ErrorCode int32

const (
	CodeObjectDoesNotExist       ErrorCode = -2147220969
	CodeDuplicateRecord          ErrorCode = -2147220937
	CodeInvalidArgument          ErrorCode = -2147220989
	CodeQueryBuilderNoAttribute  ErrorCode = -2147217149
	CodeQueryBuilderInvalidQuery ErrorCode = -2147217118
	CodeBusinessRule             ErrorCode = -2147220891
	CodeUnexpected               ErrorCode = -2147220970
	CodeNotSupported             ErrorCode = -2147220715
)

// Fault a failure reported the way the remote service reports it
type Fault struct {
	Kind    error
	Code    ErrorCode
	Message string
	Err     error
}

func (f *Fault) Error() string {
	return f.Message
}

// FaultCode the error code as the logger reports it
func (f *Fault) FaultCode() int32 {
	return int32(f.Code)
}

// Unwrap exposes both the kind and the underlying cause to errors.Is
func (f *Fault) Unwrap() []error {
	errs := []error{f.Kind}
	if f.Err != nil {
		errs = append(errs, f.Err)
	}
	return errs
}

func newFault(kind error, code ErrorCode, format string, args ...interface{}) *Fault {
	return &Fault{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrapFault(kind error, code ErrorCode, err error) *Fault {
	return &Fault{Kind: kind, Code: code, Message: err.Error(), Err: err}
}

// AsFault returns the fault carried by err, if any
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

func errRecordNotFound(logicalName string, id interface{}) *Fault {
	return newFault(ErrRecordNotFound, CodeObjectDoesNotExist, "%s With Id = %v Does Not Exist", logicalName, id)
}

func errUnknownAttribute(logicalName, attribute string) *Fault {
	return newFault(ErrUnknownField, CodeQueryBuilderNoAttribute, "'%s' entity doesn't contain attribute with Name = '%s'.", logicalName, attribute)
}
