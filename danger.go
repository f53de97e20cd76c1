package knifesql

import "strings"

// Category names the kind of damage a query can do.
type Category string

const (
	CategorySafe                Category = ""
	CategorySchemaDestruction   Category = "schema_destruction"
	CategoryUnconditionedDelete Category = "unconditioned_delete"
	CategoryUnconditionedUpdate Category = "unconditioned_update"
)

// Verdict is the outcome of Classify. The zero Verdict is safe.
type Verdict struct {
	Category Category
	Message  string
}

func (v Verdict) Safe() bool { return v.Category == CategorySafe }

var dangerMessages = map[Category]string{
	CategorySchemaDestruction:   "Attention: this query will destroy a table or database!",
	CategoryUnconditionedDelete: "Attention: you are about to delete ALL rows from the table (no WHERE clause)!",
	CategoryUnconditionedUpdate: "Attention: you are about to update ALL rows in the table (no WHERE clause)!",
}

func verdictFor(c Category) Verdict {
	return Verdict{Category: c, Message: dangerMessages[c]}
}

// Classify inspects query with plain case-insensitive substring checks and
// returns the first matching danger, in order: DROP TABLE / DROP DATABASE,
// DELETE FROM without WHERE, UPDATE without WHERE. Keywords inside comments
// or string literals count like any other text.
func Classify(query string) Verdict {
	if strings.TrimSpace(query) == "" {
		return Verdict{}
	}

	upper := strings.ToUpper(query)
	hasWhere := strings.Contains(upper, "WHERE")

	switch {
	case strings.Contains(upper, "DROP TABLE") || strings.Contains(upper, "DROP DATABASE"):
		return verdictFor(CategorySchemaDestruction)
	case strings.Contains(upper, "DELETE FROM") && !hasWhere:
		return verdictFor(CategoryUnconditionedDelete)
	case strings.Contains(upper, "UPDATE") && !hasWhere:
		return verdictFor(CategoryUnconditionedUpdate)
	default:
		return Verdict{}
	}
}
