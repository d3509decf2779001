package services

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"

	"gestops/internal/logger"
)

// operationOrdering is the stable ordering applied to every operation
// listing and export: newest date first, ties broken by newest id.
const operationOrdering = "date DESC, id DESC"

// predicate is one SQL condition with its bind arguments. A compiled filter
// set is AND-ed onto the base operation query.
type predicate struct {
	expr string
	args []interface{}
}

// relationHop names one step of a relation chain: the foreign key on the
// outer table and the table it points into. Filtering across a hop becomes
// a membership test, e.g. person_id IN (SELECT id FROM persons WHERE ...).
type relationHop struct {
	foreignKey string
	table      string
}

func (h relationHop) where(cond string, args ...interface{}) predicate {
	return predicate{
		expr: h.foreignKey + " IN (SELECT id FROM " + h.table + " WHERE " + cond + ")",
		args: args,
	}
}

// contains nests an already-built predicate one hop deeper.
func (h relationHop) contains(inner predicate) predicate {
	return h.where(inner.expr, inner.args...)
}

var (
	personHop      = relationHop{foreignKey: "person_id", table: "persons"}
	creatorHop     = relationHop{foreignKey: "user_id", table: "users"}
	subcategoryHop = relationHop{foreignKey: "subcategory_id", table: "subcategories"}
	categoryHop    = relationHop{foreignKey: "category_id", table: "categories"}
	conceptHop     = relationHop{foreignKey: "concept_id", table: "concepts"}
)

// operationFilterKeys fixes the recognized keys and the order predicates are
// emitted in. Keys absent from the request contribute nothing; keys outside
// this list are ignored.
var operationFilterKeys = []string{
	"id",
	"date",
	"type",
	"character",
	"nature",
	"document_kind",
	"document_code",
	"observations",
	"payment_method",
	"amount",
	"person",
	"tax_id",
	"concept",
	"category",
	"subcategory",
	"user",
	"global",
}

// CompileOperationFilters translates request query parameters into a
// predicate list. It is a pure function of its input: it holds no database
// handle and performs no I/O beyond logging. A key whose value cannot be
// compiled is logged and skipped, never failing the whole request.
func CompileOperationFilters(params url.Values) []predicate {
	preds := make([]predicate, 0, len(params))
	for _, key := range operationFilterKeys {
		value := params.Get(key)
		if value == "" {
			continue
		}
		p, err := compileOperationFilter(key, value)
		if err != nil {
			logger.Get().Warnw("skipping unusable operation filter",
				"key", key,
				"value", value,
				"error", err)
			continue
		}
		preds = append(preds, p)
	}
	return preds
}

func compileOperationFilter(key, value string) (predicate, error) {
	switch key {
	case "id":
		return predicate{expr: "CAST(id AS TEXT) LIKE ?", args: []interface{}{contains(value)}}, nil
	case "date":
		return compileDateFilter(value)
	case "type", "character", "nature", "document_kind", "document_code",
		"observations", "payment_method":
		return predicate{expr: key + " LIKE ?", args: []interface{}{contains(value)}}, nil
	case "amount":
		return predicate{expr: "CAST(amount AS TEXT) LIKE ?", args: []interface{}{contains(value)}}, nil
	case "person":
		return personHop.where("legal_name LIKE ? OR tax_id LIKE ?", contains(value), contains(value)), nil
	case "tax_id":
		return personHop.where("tax_id LIKE ?", contains(value)), nil
	case "subcategory":
		return subcategoryHop.where("name LIKE ?", contains(value)), nil
	case "category":
		return subcategoryHop.contains(categoryHop.where("name LIKE ?", contains(value))), nil
	case "concept":
		return subcategoryHop.contains(categoryHop.contains(conceptHop.where("name LIKE ?", contains(value)))), nil
	case "user":
		return creatorHop.where("(first_name || ' ' || last_name) LIKE ?", contains(value)), nil
	case "global":
		return compileGlobalFilter(value), nil
	}
	return predicate{}, fmt.Errorf("unknown filter key %q", key)
}

// compileGlobalFilter matches one term against every searchable column and
// relation, OR-ed together.
func compileGlobalFilter(value string) predicate {
	term := contains(value)
	return anyOf(
		predicate{expr: "CAST(id AS TEXT) LIKE ?", args: []interface{}{term}},
		predicate{expr: "CAST(date AS TEXT) LIKE ?", args: []interface{}{term}},
		predicate{expr: "type LIKE ?", args: []interface{}{term}},
		predicate{expr: "character LIKE ?", args: []interface{}{term}},
		predicate{expr: "nature LIKE ?", args: []interface{}{term}},
		predicate{expr: "document_kind LIKE ?", args: []interface{}{term}},
		predicate{expr: "document_code LIKE ?", args: []interface{}{term}},
		predicate{expr: "observations LIKE ?", args: []interface{}{term}},
		predicate{expr: "payment_method LIKE ?", args: []interface{}{term}},
		predicate{expr: "CAST(amount AS TEXT) LIKE ?", args: []interface{}{term}},
		personHop.where("legal_name LIKE ? OR tax_id LIKE ?", term, term),
		subcategoryHop.where("name LIKE ?", term),
		subcategoryHop.contains(categoryHop.where("name LIKE ?", term)),
		subcategoryHop.contains(categoryHop.contains(conceptHop.where("name LIKE ?", term))),
		creatorHop.where("(first_name || ' ' || last_name) LIKE ?", term),
	)
}

func anyOf(preds ...predicate) predicate {
	exprs := make([]string, 0, len(preds))
	var args []interface{}
	for _, p := range preds {
		exprs = append(exprs, p.expr)
		args = append(args, p.args...)
	}
	return predicate{expr: "(" + strings.Join(exprs, " OR ") + ")", args: args}
}

// compileDateFilter handles both forms of the date key: a "from:to" range
// with widening bounds, or a plain substring match on the stored date.
func compileDateFilter(value string) (predicate, error) {
	if !strings.Contains(value, ":") {
		return predicate{expr: "CAST(date AS TEXT) LIKE ?", args: []interface{}{contains(value)}}, nil
	}

	parts := strings.SplitN(value, ":", 2)
	from, err := parseDateBound(parts[0], false)
	if err != nil {
		return predicate{}, fmt.Errorf("lower bound: %w", err)
	}
	to, err := parseDateBound(parts[1], true)
	if err != nil {
		return predicate{}, fmt.Errorf("upper bound: %w", err)
	}
	if from.After(to) {
		return predicate{}, fmt.Errorf("range %q starts after it ends", value)
	}
	return predicate{expr: "date BETWEEN ? AND ?", args: []interface{}{from, to}}, nil
}

// parseDateBound accepts a day, a month, or a bare year and widens it to
// the period edge: lower bounds snap to the period start, upper bounds to
// the period end. So "2024-01:2024-03" covers Jan 1 through Mar 31.
func parseDateBound(s string, upper bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err != nil {
			continue
		}
		if !upper {
			return t, nil
		}
		switch layout {
		case "2006":
			return t.AddDate(1, 0, -1), nil
		case "2006-01":
			return t.AddDate(0, 1, -1), nil
		default:
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date bound %q", s)
}

func contains(value string) string {
	return "%" + value + "%"
}

// applyPredicates AND-s a compiled filter set onto a query.
func applyPredicates(query *gorm.DB, preds []predicate) *gorm.DB {
	for _, p := range preds {
		query = query.Where(p.expr, p.args...)
	}
	return query
}
