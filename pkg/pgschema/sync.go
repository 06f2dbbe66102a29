package pgschema

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog/log"

	"github.com/optics-team/prism-action-mapper/pkg/resource"
)

// TxBeginner is satisfied by *pgxpool.Pool and *pgx.Conn
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// DefaultSchema is the postgres schema inspected when none is given
const DefaultSchema = "public"

// SyncSchema generates a simplified representation of one postgres schema
// (namespace). Table names are only unique within a namespace, so tables in
// other namespaces are never returned. If includedTables is non-empty only
// those tables and views are returned, and it is an error for any of them to
// be missing.
func SyncSchema(ctx context.Context, conn TxBeginner, namespace string, includedTables ...string) (*Schema, error) {
	if namespace == "" {
		namespace = DefaultSchema
	}

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
			log.Warn().Err(err).Msg("failed to roll back schema sync")
		}
	}()

	tables, err := syncTables(ctx, tx, namespace, includedTables)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*Table, len(tables))
	for _, t := range tables {
		byName[t.Name] = t

		pks, err := syncPrimaryKeys(ctx, tx, t.ID)
		if err != nil {
			return nil, err
		}
		t.PrimaryKeys = *pks

		cols, err := syncCols(ctx, tx, t.ID)
		if err != nil {
			return nil, err
		}
		t.Cols = cols
	}

	fks, err := syncForeignKeys(ctx, tx, namespace)
	if err != nil {
		return nil, err
	}
	for name, keys := range fks {
		t, ok := byName[name]
		if !ok {
			continue
		}
		t.ForeignKeys = keys
	}

	return &Schema{Tables: tables}, nil
}

func syncTables(ctx context.Context, tx pgx.Tx, namespace string, includedTables []string) ([]*Table, error) {
	tables := make([]*Table, 0)

	expected := make(map[string]struct{}, len(includedTables))
	for _, t := range includedTables {
		expected[t] = struct{}{}
	}

	filter := len(expected) > 0
	includes := func(tableName string) bool {
		if !filter {
			return true
		}
		_, ok := expected[tableName]
		return ok
	}

	rows, err := tx.Query(ctx, querySelectTables, namespace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var oid uint32
		var schema, name, tableType string
		if err := rows.Scan(&oid, &schema, &name, &tableType); err != nil {
			return nil, err
		}
		if !includes(name) {
			continue
		}
		kind := resource.KindTable
		if tableType == "VIEW" {
			kind = resource.KindView
		}
		tables = append(tables, &Table{
			ID:          oid,
			Name:        name,
			Schema:      schema,
			Kind:        kind,
			PrimaryKeys: PrimaryKey{cols: make([]string, 0)},
			ForeignKeys: make([]ForeignKey, 0),
		})
		delete(expected, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(expected) > 0 {
		missing := make([]string, 0, len(expected))
		for name := range expected {
			missing = append(missing, name)
		}
		return nil, fmt.Errorf("not all expected tables found in schema %q. missing: %v", namespace, missing)
	}
	return tables, nil
}

func syncCols(ctx context.Context, tx pgx.Tx, oid uint32) ([]Col, error) {
	cols := make([]Col, 0)
	rows, err := tx.Query(ctx, querySelectCols, oid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var c Col
		if err := rows.Scan(&c.name, &c.id, &c.typ); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cols, nil
}

func syncPrimaryKeys(ctx context.Context, tx pgx.Tx, oid uint32) (*PrimaryKey, error) {
	pknums := make([]int, 0)
	pks := make([]string, 0)
	rows, err := tx.Query(ctx, querySelectPrimaryKeys, oid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var colnum int
		var col string
		if err := rows.Scan(&colnum, &col); err != nil {
			return nil, err
		}
		pks = append(pks, col)
		pknums = append(pknums, colnum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &PrimaryKey{colids: pknums, cols: pks}, nil
}

func syncForeignKeys(ctx context.Context, tx pgx.Tx, namespace string) (map[string][]ForeignKey, error) {
	fks := make(map[string][]ForeignKey, 0)
	rows, err := tx.Query(ctx, querySelectForeignKeys, namespace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var fk ForeignKey
		var colnums string
		var col string
		if err := rows.Scan(&col, &colnums, &fk.name, &fk.foreignTable, &fk.primaryTable); err != nil {
			return nil, err
		}
		fk.cols, fk.colids, err = parseKeyColumns(col, colnums)
		if err != nil {
			return nil, err
		}
		fks[fk.foreignTable] = append(fks[fk.foreignTable], fk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return fks, nil
}

// parseKeyColumns splits the comma separated column names and numbers
// returned by string_agg
func parseKeyColumns(names, nums string) ([]string, []int, error) {
	cols := strings.Split(names, ",")
	colids := make([]int, 0, len(cols))
	for _, c := range strings.Split(nums, ",") {
		n, err := strconv.Atoi(c)
		if err != nil {
			return nil, nil, err
		}
		colids = append(colids, n)
	}
	if len(cols) != len(colids) {
		return nil, nil, fmt.Errorf("foreign key has %d columns but %d column numbers", len(cols), len(colids))
	}
	return cols, colids, nil
}
