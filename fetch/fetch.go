// Package fetch translates hierarchical fetch documents into clause.Query
package fetch

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/orgsim/orgsim/clause"
	"github.com/orgsim/orgsim/utils"
)

var (
	// ErrInvalidFetch the document is malformed
	ErrInvalidFetch = errors.New("invalid fetch document")
	// ErrUnknownOperator a condition uses an operator that is not supported
	ErrUnknownOperator = errors.New("unknown condition operator")
)

type fetchNode struct {
	XMLName                xml.Name    `xml:"fetch"`
	Distinct               string      `xml:"distinct,attr"`
	Top                    string      `xml:"top,attr"`
	Count                  string      `xml:"count,attr"`
	Page                   string      `xml:"page,attr"`
	Aggregate              string      `xml:"aggregate,attr"`
	ReturnTotalRecordCount string      `xml:"returntotalrecordcount,attr"`
	Entity                 *entityNode `xml:"entity"`
}

type entityNode struct {
	Name          string          `xml:"name,attr"`
	AllAttributes *struct{}       `xml:"all-attributes"`
	Attributes    []attributeNode `xml:"attribute"`
	Orders        []orderNode     `xml:"order"`
	Filters       []filterNode    `xml:"filter"`
	Links         []linkNode      `xml:"link-entity"`
}

type linkNode struct {
	entityNode
	From     string `xml:"from,attr"`
	To       string `xml:"to,attr"`
	Alias    string `xml:"alias,attr"`
	LinkType string `xml:"link-type,attr"`
}

type attributeNode struct {
	Name         string `xml:"name,attr"`
	Alias        string `xml:"alias,attr"`
	Aggregate    string `xml:"aggregate,attr"`
	GroupBy      string `xml:"groupby,attr"`
	DateGrouping string `xml:"dategrouping,attr"`
	Distinct     string `xml:"distinct,attr"`
}

type orderNode struct {
	Attribute  string `xml:"attribute,attr"`
	Alias      string `xml:"alias,attr"`
	Descending string `xml:"descending,attr"`
}

type filterNode struct {
	Type       string          `xml:"type,attr"`
	Conditions []conditionNode `xml:"condition"`
	Filters    []filterNode    `xml:"filter"`
}

type conditionNode struct {
	EntityName string   `xml:"entityname,attr"`
	Attribute  string   `xml:"attribute,attr"`
	Operator   string   `xml:"operator,attr"`
	Value      *string  `xml:"value,attr"`
	Values     []string `xml:"value"`
}

// translator carries the alias counter shared by the whole link tree
type translator struct {
	aliasCounter int
	aggregate    bool
}

// Parse translates a fetch document into a canonical query
func Parse(document string) (clause.Query, error) {
	var root fetchNode
	if err := xml.Unmarshal([]byte(document), &root); err != nil {
		return clause.Query{}, fmt.Errorf("%w: %v", ErrInvalidFetch, err)
	}
	if root.Entity == nil || strings.TrimSpace(root.Entity.Name) == "" {
		return clause.Query{}, fmt.Errorf("%w: missing entity name", ErrInvalidFetch)
	}

	tr := &translator{aggregate: utils.CheckTruth(root.Aggregate) && root.Aggregate != ""}
	query := clause.Query{
		EntityName: strings.ToLower(root.Entity.Name),
		Distinct:   root.Distinct != "" && utils.CheckTruth(root.Distinct),
		Aggregate:  tr.aggregate,
	}

	var err error
	if query.TopCount, err = parseInt("top", root.Top); err != nil {
		return clause.Query{}, err
	}

	count, err := parseInt("count", root.Count)
	if err != nil {
		return clause.Query{}, err
	}
	page, err := parseInt("page", root.Page)
	if err != nil {
		return clause.Query{}, err
	}
	if query.TopCount > 0 && count > 0 {
		return clause.Query{}, fmt.Errorf("%w: top and count cannot be combined", ErrInvalidFetch)
	}
	if count > 0 || page > 0 {
		if page == 0 {
			page = 1
		}
		query.PageInfo = &clause.PageInfo{
			Count:                  count,
			PageNumber:             page,
			ReturnTotalRecordCount: root.ReturnTotalRecordCount != "" && utils.CheckTruth(root.ReturnTotalRecordCount),
		}
	}

	if query.ColumnSet, query.Aggregates, err = tr.columns(*root.Entity, ""); err != nil {
		return clause.Query{}, err
	}
	if query.Criteria, err = tr.filters(root.Entity.Filters); err != nil {
		return clause.Query{}, err
	}
	query.Orders = tr.orders(root.Entity.Orders, "")

	for _, ln := range root.Entity.Links {
		link, err := tr.link(ln, query.EntityName)
		if err != nil {
			return clause.Query{}, err
		}
		query.LinkEntities = append(query.LinkEntities, link)
	}

	return query, nil
}

func (tr *translator) link(node linkNode, parent string) (clause.Link, error) {
	if node.Name == "" || node.From == "" || node.To == "" {
		return clause.Link{}, fmt.Errorf("%w: link-entity requires name, from and to", ErrInvalidFetch)
	}

	link := clause.Link{
		LinkFromEntityName:    parent,
		LinkFromAttributeName: strings.ToLower(node.To),
		LinkToEntityName:      strings.ToLower(node.Name),
		LinkToAttributeName:   strings.ToLower(node.From),
		EntityAlias:           strings.ToLower(node.Alias),
	}

	switch strings.ToLower(node.LinkType) {
	case "", "inner":
		link.JoinOperator = clause.Inner
	case "outer":
		link.JoinOperator = clause.LeftOuter
	default:
		return clause.Link{}, fmt.Errorf("%w: unsupported link-type %q", ErrInvalidFetch, node.LinkType)
	}

	if link.EntityAlias == "" {
		tr.aliasCounter++
		link.EntityAlias = link.LinkToEntityName + strconv.Itoa(tr.aliasCounter)
	}

	var err error
	if link.Columns, link.Aggregates, err = tr.columns(node.entityNode, link.EntityAlias); err != nil {
		return clause.Link{}, err
	}
	if link.LinkCriteria, err = tr.filters(node.Filters); err != nil {
		return clause.Link{}, err
	}
	link.Orders = tr.orders(node.Orders, link.EntityAlias)

	for _, child := range node.Links {
		nested, err := tr.link(child, link.EntityAlias)
		if err != nil {
			return clause.Link{}, err
		}
		link.LinkEntities = append(link.LinkEntities, nested)
	}
	return link, nil
}

func (tr *translator) columns(node entityNode, alias string) (clause.ColumnSet, []clause.AggregateColumn, error) {
	if node.AllAttributes != nil {
		return clause.AllColumns(), nil, nil
	}

	var (
		cs         = clause.ColumnSet{Columns: []string{}}
		aggregates []clause.AggregateColumn
	)
	for _, attr := range node.Attributes {
		if attr.Name == "" {
			return cs, nil, fmt.Errorf("%w: attribute without name", ErrInvalidFetch)
		}
		cs.AddColumns(attr.Name)

		if !tr.aggregate {
			continue
		}
		column, err := aggregateColumn(attr, alias)
		if err != nil {
			return cs, nil, err
		}
		aggregates = append(aggregates, column)
	}
	return cs, aggregates, nil
}

func aggregateColumn(attr attributeNode, alias string) (clause.AggregateColumn, error) {
	column := clause.AggregateColumn{
		Attribute: strings.ToLower(attr.Name),
		Alias:     strings.ToLower(attr.Alias),
		GroupBy:   attr.GroupBy != "" && utils.CheckTruth(attr.GroupBy),
		Distinct:  attr.Distinct != "" && utils.CheckTruth(attr.Distinct),
	}
	if alias != "" {
		column.Attribute = alias + "." + column.Attribute
	}
	if column.Alias == "" {
		return column, fmt.Errorf("%w: aggregate attribute %q requires an alias", ErrInvalidFetch, attr.Name)
	}

	if column.GroupBy {
		if attr.DateGrouping != "" {
			g, ok := clause.ParseDateGrouping(strings.ToLower(attr.DateGrouping))
			if !ok {
				return column, fmt.Errorf("%w: unsupported dategrouping %q", ErrInvalidFetch, attr.DateGrouping)
			}
			column.DateGrouping = g
		}
		return column, nil
	}

	fn, ok := clause.ParseAggregate(strings.ToLower(attr.Aggregate))
	if !ok {
		return column, fmt.Errorf("%w: attribute %q needs aggregate or groupby", ErrInvalidFetch, attr.Name)
	}
	column.Function = fn
	return column, nil
}

func (tr *translator) orders(nodes []orderNode, alias string) []clause.Order {
	var orders []clause.Order
	for _, node := range nodes {
		order := clause.Order{
			AttributeName: strings.ToLower(node.Attribute),
			Alias:         strings.ToLower(node.Alias),
			Descending:    node.Descending != "" && utils.CheckTruth(node.Descending),
		}
		if order.Alias == "" && alias != "" {
			order.EntityName = alias
		}
		orders = append(orders, order)
	}
	return orders
}

// filters merges sibling filters with AND
func (tr *translator) filters(nodes []filterNode) (clause.Filter, error) {
	switch len(nodes) {
	case 0:
		return clause.Filter{}, nil
	case 1:
		return tr.filter(nodes[0])
	}

	merged := clause.Filter{FilterOperator: clause.And}
	for _, node := range nodes {
		f, err := tr.filter(node)
		if err != nil {
			return clause.Filter{}, err
		}
		merged.AddFilter(f)
	}
	return merged, nil
}

func (tr *translator) filter(node filterNode) (clause.Filter, error) {
	f := clause.Filter{}
	switch strings.ToLower(node.Type) {
	case "", "and":
		f.FilterOperator = clause.And
	case "or":
		f.FilterOperator = clause.Or
	default:
		return f, fmt.Errorf("%w: unsupported filter type %q", ErrInvalidFetch, node.Type)
	}

	for _, cn := range node.Conditions {
		c, err := condition(cn)
		if err != nil {
			return f, err
		}
		f.Conditions = append(f.Conditions, c)
	}
	for _, child := range node.Filters {
		cf, err := tr.filter(child)
		if err != nil {
			return f, err
		}
		f.AddFilter(cf)
	}
	return f, nil
}

func condition(node conditionNode) (clause.Condition, error) {
	if node.Attribute == "" {
		return clause.Condition{}, fmt.Errorf("%w: condition without attribute", ErrInvalidFetch)
	}

	op, ok := clause.ParseOperator(node.Operator)
	if !ok {
		return clause.Condition{}, fmt.Errorf("%w: %q on attribute %q", ErrUnknownOperator, node.Operator, node.Attribute)
	}

	c := clause.Condition{
		EntityName:    strings.ToLower(node.EntityName),
		AttributeName: strings.ToLower(node.Attribute),
		Operator:      op,
	}
	if node.Value != nil {
		c.Values = append(c.Values, *node.Value)
	}
	for _, v := range node.Values {
		c.Values = append(c.Values, strings.TrimSpace(v))
	}

	switch want := op.ValueCount(); {
	case want == 0 && len(c.Values) > 0:
		return c, fmt.Errorf("%w: operator %s takes no value", ErrInvalidFetch, op)
	case want < 0 && len(c.Values) == 0:
		return c, fmt.Errorf("%w: operator %s needs at least one value", ErrInvalidFetch, op)
	case want > 0 && len(c.Values) != want:
		return c, fmt.Errorf("%w: operator %s needs %d value(s), got %d", ErrInvalidFetch, op, want, len(c.Values))
	}
	return c, nil
}

func parseInt(name, value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer, got %q", ErrInvalidFetch, name, value)
	}
	return n, nil
}
