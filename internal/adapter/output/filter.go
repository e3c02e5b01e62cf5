package output

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// FilterOp is a comparison operator in a filter expression.
type FilterOp string

const (
	FilterOpEqual     FilterOp = "="
	FilterOpNotEqual  FilterOp = "!="
	FilterOpContains  FilterOp = "~"
	FilterOpRegex     FilterOp = "~="
	FilterOpGreater   FilterOp = ">"
	FilterOpLess      FilterOp = "<"
	FilterOpGreaterEq FilterOp = ">="
	FilterOpLessEq    FilterOp = "<="
)

// Two-character operators come first so "~=" wins over "~".
var filterOps = []FilterOp{
	FilterOpNotEqual, FilterOpRegex, FilterOpGreaterEq, FilterOpLessEq,
	FilterOpEqual, FilterOpContains, FilterOpGreater, FilterOpLess,
}

type fieldType int

const (
	textField fieldType = iota
	flagField
	durationField
)

type recordField struct {
	typ      fieldType
	text     func(Record) string
	flag     func(Record) bool
	duration func(Record) time.Duration
}

var recordFields = map[string]recordField{
	"id":       {typ: textField, text: func(r Record) string { return r.ID }},
	"event":    {typ: textField, text: func(r Record) string { return r.Event }},
	"kind":     {typ: textField, text: func(r Record) string { return r.Kind }},
	"align":    {typ: textField, text: func(r Record) string { return r.Align }},
	"title":    {typ: textField, text: func(r Record) string { return r.Title }},
	"content":  {typ: textField, text: func(r Record) string { return r.Content }},
	"open":     {typ: flagField, flag: func(r Record) bool { return r.Open }},
	"modal":    {typ: flagField, flag: func(r Record) bool { return r.Modal }},
	"timespan": {typ: durationField, duration: func(r Record) time.Duration { return time.Duration(r.TimespanMS) * time.Millisecond }},
}

var fieldAliases = map[string]string{
	"body":    "content",
	"message": "content",
	"ts":      "timespan",
}

// FilterCondition is one "field op value" term.
type FilterCondition struct {
	Field    string
	Operator FilterOp
	Value    string

	match func(Record) bool
}

// FilterExpr is a conjunction of conditions.
type FilterExpr struct {
	Conditions []FilterCondition
}

// ParseFilter parses comma-separated conditions such as
// "kind=warning,align~top,content~=(?i)disk,timespan>=5s". All conditions
// must hold for a record to match.
//
// Text fields (id, event, kind, align, title, content) take =, !=, ~
// (case-insensitive substring) and ~= (regex). open and modal take = and !=.
// timespan takes a Go duration and every comparison operator.
func ParseFilter(expr string) (*FilterExpr, error) {
	f := &FilterExpr{}
	for term := range strings.SplitSeq(expr, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		cond, err := parseCondition(term)
		if err != nil {
			return nil, err
		}
		f.Conditions = append(f.Conditions, cond)
	}
	return f, nil
}

func parseCondition(term string) (FilterCondition, error) {
	at := strings.IndexAny(term, "=!~<>")
	if at <= 0 {
		return FilterCondition{}, fmt.Errorf("invalid filter condition %q: want field, operator and value", term)
	}

	var op FilterOp
	for _, candidate := range filterOps {
		if strings.HasPrefix(term[at:], string(candidate)) {
			op = candidate
			break
		}
	}
	if op == "" {
		return FilterCondition{}, fmt.Errorf("invalid filter condition %q: unknown operator", term)
	}

	name := strings.ToLower(strings.TrimSpace(term[:at]))
	if alias, ok := fieldAliases[name]; ok {
		name = alias
	}
	cond := FilterCondition{
		Field:    name,
		Operator: op,
		Value:    strings.TrimSpace(term[at+len(op):]),
	}

	field, ok := recordFields[name]
	if !ok {
		return FilterCondition{}, fmt.Errorf("unknown filter field: %s", name)
	}

	var err error
	switch field.typ {
	case textField:
		cond.match, err = textMatcher(field.text, op, cond.Value)
	case flagField:
		cond.match, err = flagMatcher(field.flag, op, cond.Value)
	case durationField:
		cond.match, err = durationMatcher(field.duration, op, cond.Value)
	}
	if err != nil {
		return FilterCondition{}, fmt.Errorf("filter %s: %w", name, err)
	}
	return cond, nil
}

func textMatcher(get func(Record) string, op FilterOp, value string) (func(Record) bool, error) {
	switch op {
	case FilterOpEqual:
		return func(r Record) bool { return get(r) == value }, nil
	case FilterOpNotEqual:
		return func(r Record) bool { return get(r) != value }, nil
	case FilterOpContains:
		needle := strings.ToLower(value)
		return func(r Record) bool { return strings.Contains(strings.ToLower(get(r)), needle) }, nil
	case FilterOpRegex:
		re, err := regexp.Compile(value)
		if err != nil {
			return nil, fmt.Errorf("invalid regex: %w", err)
		}
		return func(r Record) bool { return re.MatchString(get(r)) }, nil
	default:
		return nil, fmt.Errorf("operator %s does not apply to text", op)
	}
}

func flagMatcher(get func(Record) bool, op FilterOp, value string) (func(Record) bool, error) {
	var want bool
	switch strings.ToLower(value) {
	case "true", "yes", "y", "t", "1":
		want = true
	}

	switch op {
	case FilterOpEqual:
		return func(r Record) bool { return get(r) == want }, nil
	case FilterOpNotEqual:
		return func(r Record) bool { return get(r) != want }, nil
	default:
		return nil, fmt.Errorf("operator %s does not apply to flags", op)
	}
}

func durationMatcher(get func(Record) time.Duration, op FilterOp, value string) (func(Record) bool, error) {
	want, err := time.ParseDuration(value)
	if err != nil {
		return nil, fmt.Errorf("invalid timespan value: %w", err)
	}

	cmp := map[FilterOp]func(d time.Duration) bool{
		FilterOpEqual:     func(d time.Duration) bool { return d == want },
		FilterOpNotEqual:  func(d time.Duration) bool { return d != want },
		FilterOpGreater:   func(d time.Duration) bool { return d > want },
		FilterOpLess:      func(d time.Duration) bool { return d < want },
		FilterOpGreaterEq: func(d time.Duration) bool { return d >= want },
		FilterOpLessEq:    func(d time.Duration) bool { return d <= want },
	}[op]
	if cmp == nil {
		return nil, fmt.Errorf("operator %s does not apply to durations", op)
	}
	return func(r Record) bool { return cmp(get(r)) }, nil
}

// Match reports whether r satisfies every condition.
func (f *FilterExpr) Match(r Record) bool {
	for i := range f.Conditions {
		if !f.Conditions[i].Match(r) {
			return false
		}
	}
	return true
}

// Match reports whether r satisfies the condition.
func (c *FilterCondition) Match(r Record) bool {
	return c.match != nil && c.match(r)
}

// FilterRecords returns the records matching expr, keeping their order.
func FilterRecords(records []Record, expr *FilterExpr) []Record {
	if expr == nil || len(expr.Conditions) == 0 {
		return records
	}

	var kept []Record
	for _, r := range records {
		if expr.Match(r) {
			kept = append(kept, r)
		}
	}
	return kept
}
