package warehouse

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertOptions tunes the generic batch upsert. All rows in a batch must
// carry the same keys.
type UpsertOptions struct {
	// KeyColumns is the conflict target. Defaults to KeyColumns.
	KeyColumns []string
	// ShallowMergeJSONBColumns are merged top-level-key-wise into the
	// existing value instead of being overwritten.
	ShallowMergeJSONBColumns []string
	// NoDiffColumns update on conflict but are excluded from change
	// detection, so bookkeeping timestamps alone never dirty a row.
	NoDiffColumns []string
	// InsertOnlyColumns are written on insert and never touched again.
	InsertOnlyColumns []string
}

// Upsert writes one batch with INSERT ... ON CONFLICT DO UPDATE. The update
// fires only when at least one compared column actually changed, which keeps
// re-syncs of unchanged data from rewriting every row. Returns the number of
// rows inserted or updated.
func (d *Destination) Upsert(ctx context.Context, table string, rows []map[string]any, opts UpsertOptions) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	keys := opts.KeyColumns
	if len(keys) == 0 {
		keys = KeyColumns
	}
	cols := rowColumns(rows[0])
	updateCols := updateColumns(cols, keys, opts.InsertOnlyColumns)
	if len(updateCols) == 0 {
		// Key-only table: nothing to update, keep the existing row.
		res := d.db.WithContext(ctx).Table(table).Clauses(clause.OnConflict{
			Columns:   conflictColumns(keys),
			DoNothing: true,
		}).Create(rows)
		return res.RowsAffected, res.Error
	}

	assignments := make([]clause.Assignment, 0, len(updateCols))
	for _, c := range updateCols {
		assignments = append(assignments, clause.Assignment{
			Column: clause.Column{Name: c},
			Value:  gorm.Expr(assignmentExpr(table, c, opts.ShallowMergeJSONBColumns)),
		})
	}

	oc := clause.OnConflict{
		Columns:   conflictColumns(keys),
		DoUpdates: assignments,
	}
	if pred := diffPredicate(table, updateCols, opts.NoDiffColumns); pred != "" {
		oc.Where = clause.Where{Exprs: []clause.Expression{gorm.Expr(pred)}}
	}

	res := d.db.WithContext(ctx).Table(table).Clauses(oc).Create(rows)
	if res.Error != nil {
		return 0, fmt.Errorf("warehouse: upsert into %s: %w", table, res.Error)
	}
	d.logger.Debug("upserted batch",
		zap.String("table", table),
		zap.Int("rows", len(rows)),
		zap.Int64("affected", res.RowsAffected))
	return res.RowsAffected, nil
}

func rowColumns(row map[string]any) []string {
	cols := make([]string, 0, len(row))
	for c := range row {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

func conflictColumns(keys []string) []clause.Column {
	out := make([]clause.Column, 0, len(keys))
	for _, k := range keys {
		out = append(out, clause.Column{Name: k})
	}
	return out
}

// updateColumns is every row column minus the conflict target and the
// insert-only set, in sorted order.
func updateColumns(cols, keys, insertOnly []string) []string {
	skip := make(map[string]bool, len(keys)+len(insertOnly))
	for _, k := range keys {
		skip[k] = true
	}
	for _, c := range insertOnly {
		skip[c] = true
	}
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if !skip[c] {
			out = append(out, c)
		}
	}
	return out
}

// assignmentExpr renders the SET expression for one column. Shallow-merge
// jsonb columns fold the incoming keys over the existing ones so partial
// writers never erase each other's keys.
func assignmentExpr(table, col string, mergeCols []string) string {
	for _, m := range mergeCols {
		if m == col {
			return fmt.Sprintf("COALESCE(%s.%s, '{}'::jsonb) || excluded.%s", table, col, col)
		}
	}
	return "excluded." + col
}

// diffPredicate renders the DO UPDATE ... WHERE clause: the update runs when
// any compared column differs. IS DISTINCT FROM rather than <> so NULL
// transitions count as changes.
func diffPredicate(table string, updateCols, noDiff []string) string {
	skip := make(map[string]bool, len(noDiff))
	for _, c := range noDiff {
		skip[c] = true
	}
	parts := make([]string, 0, len(updateCols))
	for _, c := range updateCols {
		if skip[c] {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s.%s IS DISTINCT FROM excluded.%s", table, c, c))
	}
	return strings.Join(parts, " OR ")
}
