package orgsim

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Severity how a violation affects the operation
type Severity string

const (
	// SeverityBlock fails the operation with ErrRuleViolation
	SeverityBlock Severity = "block"
	// SeverityWarn logs the violation and lets the operation proceed
	SeverityWarn Severity = "warn"
)

// Violation a single rule finding
type Violation struct {
	Rule     string
	Severity Severity
	Code     ErrorCode
	Message  string
}

// RuleResult violations reported by one or more rules
type RuleResult struct {
	Violations []Violation
}

// Merge appends the violations of other
func (r *RuleResult) Merge(other RuleResult) {
	r.Violations = append(r.Violations, other.Violations...)
}

// Blocking returns the first blocking violation
func (r RuleResult) Blocking() (Violation, bool) {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return v, true
		}
	}
	return Violation{}, false
}

// Change the record state a rule is asked to judge. Before is nil on create,
// After is nil on delete, Incoming carries only the attributes the caller sent.
type Change struct {
	Operation Operation
	Before    *Entity
	After     *Entity
	Incoming  *Entity
}

// LogicalName record type of the change
func (c Change) LogicalName() string {
	switch {
	case c.After != nil:
		return c.After.LogicalName
	case c.Before != nil:
		return c.Before.LogicalName
	case c.Incoming != nil:
		return c.Incoming.LogicalName
	}
	return ""
}

// RuleView read only access to the database for rule evaluation
type RuleView interface {
	Find(logicalName string, id uuid.UUID) (*Entity, bool)
	List(logicalName string) []*Entity
}

// Rule simulates a server side business rule
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, change Change) (RuleResult, error)
}

type ruleFunc struct {
	name string
	fn   func(ctx context.Context, view RuleView, change Change) (RuleResult, error)
}

func (r ruleFunc) Name() string { return r.name }

func (r ruleFunc) Evaluate(ctx context.Context, view RuleView, change Change) (RuleResult, error) {
	return r.fn(ctx, view, change)
}

// NewRule creates a rule from a function
func NewRule(name string, fn func(ctx context.Context, view RuleView, change Change) (RuleResult, error)) Rule {
	return ruleFunc{name: name, fn: fn}
}

type dbRuleView struct {
	db *DB
}

func (v dbRuleView) Find(logicalName string, id uuid.UUID) (*Entity, bool) {
	t, ok := v.db.lookupTable(logicalName)
	if !ok {
		return nil, false
	}
	return t.Get(id)
}

func (v dbRuleView) List(logicalName string) []*Entity {
	t, ok := v.db.lookupTable(logicalName)
	if !ok {
		return nil
	}
	return t.Scan()
}

// evaluateRules runs every rule against the change and merges their findings
func (db *DB) evaluateRules(ctx context.Context, change Change) (RuleResult, error) {
	var (
		combined RuleResult
		view     = dbRuleView{db: db}
	)
	for _, rule := range db.rules {
		res, err := rule.Evaluate(ctx, view, change)
		if err != nil {
			return RuleResult{}, fmt.Errorf("rule %s: %w", rule.Name(), err)
		}
		for idx := range res.Violations {
			if res.Violations[idx].Rule == "" {
				res.Violations[idx].Rule = rule.Name()
			}
			if res.Violations[idx].Severity == "" {
				res.Violations[idx].Severity = SeverityBlock
			}
			if res.Violations[idx].Code == 0 {
				res.Violations[idx].Code = CodeBusinessRule
			}
		}
		combined.Merge(res)
	}
	return combined, nil
}

func defaultRules() []Rule {
	return []Rule{
		NewRule("incident_customer_required", incidentCustomerRequired),
		NewRule("opportunityproduct_uom_required", opportunityProductUnitRequired),
		NewRule("connection_roles", connectionRoles),
	}
}

func blocking(code ErrorCode, format string, args ...interface{}) RuleResult {
	return RuleResult{Violations: []Violation{{Severity: SeverityBlock, Code: code, Message: fmt.Sprintf(format, args...)}}}
}

func incidentCustomerRequired(_ context.Context, _ RuleView, change Change) (RuleResult, error) {
	if change.Operation != OperationCreate || change.LogicalName() != "incident" {
		return RuleResult{}, nil
	}
	if !change.After.Contains("customerid") {
		return blocking(CodeInvalidArgument, "You should specify a parent contact or account."), nil
	}
	return RuleResult{}, nil
}

func opportunityProductUnitRequired(_ context.Context, _ RuleView, change Change) (RuleResult, error) {
	if change.After == nil || change.LogicalName() != "opportunityproduct" {
		return RuleResult{}, nil
	}
	if !change.After.Contains("uomid") {
		return blocking(CodeInvalidArgument, "The unit is required for the opportunity product."), nil
	}
	return RuleResult{}, nil
}

const connectionRoleAssociation = "connectionroleassociation"

// connectionRoles both roles of a connection are set together, and a pair of
// roles must be declared in the connection role association table
func connectionRoles(_ context.Context, view RuleView, change Change) (RuleResult, error) {
	if change.After == nil || change.LogicalName() != "connection" {
		return RuleResult{}, nil
	}

	role1, has1 := roleID(change.After, "record1roleid")
	role2, has2 := roleID(change.After, "record2roleid")
	switch {
	case has1 && !has2:
		return blocking(CodeInvalidArgument, "The record2roleid is not specified. You must specify both record1roleid and record2roleid or neither."), nil
	case has2 && !has1:
		return blocking(CodeInvalidArgument, "The record1roleid is not specified. You must specify both record1roleid and record2roleid or neither."), nil
	case !has1 && !has2:
		return RuleResult{}, nil
	}

	for _, assoc := range view.List(connectionRoleAssociation) {
		a, _ := idOf(assoc.Attributes["connectionroleid"])
		b, _ := idOf(assoc.Attributes["associatedconnectionroleid"])
		if (a == role1 && b == role2) || (a == role2 && b == role1) {
			return RuleResult{}, nil
		}
	}
	return blocking(CodeBusinessRule, "The connection roles %s and %s are not related. Associate the two roles before connecting records with them.", roleName(view, change.After, "record1roleid", role1), roleName(view, change.After, "record2roleid", role2)), nil
}

func roleID(e *Entity, attr string) (uuid.UUID, bool) {
	v, ok := e.Get(attr)
	if !ok || v == nil {
		return uuid.Nil, false
	}
	return idOf(v)
}

func roleName(view RuleView, e *Entity, attr string, id uuid.UUID) string {
	if ref, ok := e.GetReference(attr); ok && ref.Name != "" {
		return ref.Name
	}
	if role, ok := view.Find("connectionrole", id); ok {
		if name := strings.TrimSpace(role.GetString("name")); name != "" {
			return name
		}
	}
	return id.String()
}
