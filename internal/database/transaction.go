package database

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// TxBuilder builds atomic transaction queries with automatic variable namespacing.
// Two statements that both bind $id end up as $v1_id and $v2_id.
type TxBuilder struct {
	statements []string
	vars       map[string]interface{}
	varCounter int
}

// NewTxBuilder creates a new transaction builder
func NewTxBuilder() *TxBuilder {
	return &TxBuilder{
		vars: make(map[string]interface{}),
	}
}

// Add appends a statement, renaming its variables to unique names.
// Returns the old-to-new variable mapping.
func (tb *TxBuilder) Add(query string, vars map[string]interface{}) map[string]string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	// Longest first so $id never rewrites the prefix of $id_list.
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	mapping := make(map[string]string, len(vars))
	for _, name := range names {
		tb.varCounter++
		renamed := fmt.Sprintf("v%d_%s", tb.varCounter, name)
		pattern := regexp.MustCompile(`\$` + regexp.QuoteMeta(name) + `\b`)
		query = pattern.ReplaceAllLiteralString(query, "$"+renamed)
		tb.vars[renamed] = vars[name]
		mapping[name] = renamed
	}

	tb.statements = append(tb.statements, query)
	return mapping
}

// Build returns the complete transaction query and merged variables
func (tb *TxBuilder) Build() (string, map[string]interface{}) {
	if len(tb.statements) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range tb.statements {
		sb.WriteString(stmt)
		if !strings.HasSuffix(strings.TrimSpace(stmt), ";") {
			sb.WriteString(";")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")

	return sb.String(), tb.vars
}

// ExecuteTransaction executes a transaction built with TxBuilder
func ExecuteTransaction(ctx context.Context, db Database, tb *TxBuilder) ([]interface{}, error) {
	query, vars := tb.Build()
	if query == "" {
		return nil, nil
	}
	return db.Query(ctx, query, vars)
}

// Batch collects statements that must succeed or fail together.
type Batch struct {
	tb *TxBuilder
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{tb: NewTxBuilder()}
}

// Add appends a statement to the batch.
func (b *Batch) Add(query string, vars map[string]interface{}) *Batch {
	b.tb.Add(query, vars)
	return b
}

// Execute runs all statements as a single transaction. An empty batch is a no-op.
func (b *Batch) Execute(ctx context.Context, db Database) error {
	_, err := ExecuteTransaction(ctx, db, b.tb)
	return err
}

// Renumber appends the statements that give ids positions 1..n in order on a
// table with a unique position index. Every row first moves to -(i+1), which no
// live row can hold, and only then to i+1, so no intermediate state collides.
func (b *Batch) Renumber(table string, ids []string) *Batch {
	for i, id := range ids {
		b.Add(
			"UPDATE type::record($tb, $id) SET position = $pos, updated_on = time::now()",
			map[string]interface{}{"tb": table, "id": id, "pos": -(i + 1)},
		)
	}
	for i, id := range ids {
		b.Add(
			"UPDATE type::record($tb, $id) SET position = $pos, updated_on = time::now()",
			map[string]interface{}{"tb": table, "id": id, "pos": i + 1},
		)
	}
	return b
}
