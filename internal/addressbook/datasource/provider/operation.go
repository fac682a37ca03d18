package provider

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

type OpKind int

const (
	OpInsert OpKind = iota
	OpUpdate
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Operation 一次待提交的写入意图
// BackRefs 中的列在提交时被替换为第 N 个操作插入得到的 id，N 为批次中的下标
type Operation struct {
	Kind      OpKind
	Table     string
	Values    map[string]any
	BackRefs  map[string]int
	Selection string
	Args      []any
}

func NewInsert(table string) *Operation {
	return &Operation{Kind: OpInsert, Table: table, Values: map[string]any{}, BackRefs: map[string]int{}}
}

func NewUpdate(table string) *Operation {
	return &Operation{Kind: OpUpdate, Table: table, Values: map[string]any{}, BackRefs: map[string]int{}}
}

func NewDelete(table string) *Operation {
	return &Operation{Kind: OpDelete, Table: table, Values: map[string]any{}, BackRefs: map[string]int{}}
}

func (o *Operation) WithValue(column string, value any) *Operation {
	o.Values[column] = value
	return o
}

// WithValueBackReference 列值取自批次中第 index 个操作的结果 id
func (o *Operation) WithValueBackReference(column string, index int) *Operation {
	o.BackRefs[column] = index
	return o
}

func (o *Operation) WithSelection(selection string, args ...any) *Operation {
	o.Selection = selection
	o.Args = args
	return o
}

// Result 插入操作为新行 id，更新和删除为影响行数
type Result struct {
	ID    int64
	Count int64
}

// Batch 按顺序暂存的操作，在一个事务中提交
type Batch struct {
	ops []*Operation
}

// Add 追加操作并返回其下标，供后续操作做反向引用
func (b *Batch) Add(op *Operation) int {
	b.ops = append(b.ops, op)
	return len(b.ops) - 1
}

// Apply 在一个事务中依次执行所有操作，after 在提交前于同一事务内执行
// 任一步失败整个批次回滚
func (b *Batch) Apply(ctx context.Context, db *sql.DB, after func(tx *sql.Tx, results []Result) error) ([]Result, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	results := make([]Result, 0, len(b.ops))
	for i, op := range b.ops {
		res, err := op.exec(ctx, tx, results)
		if err != nil {
			return nil, fmt.Errorf("operation %d (%s %s): %w", i, op.Kind, op.Table, err)
		}
		results = append(results, res)
	}

	if after != nil {
		if err := after(tx, results); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return results, nil
}

func (o *Operation) exec(ctx context.Context, tx *sql.Tx, results []Result) (Result, error) {
	values := make(map[string]any, len(o.Values)+len(o.BackRefs))
	for col, v := range o.Values {
		values[col] = v
	}
	for col, idx := range o.BackRefs {
		if idx < 0 || idx >= len(results) {
			return Result{}, fmt.Errorf("back reference %d for column %s out of range", idx, col)
		}
		values[col] = results[idx].ID
	}

	columns := make([]string, 0, len(values))
	for col := range values {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	args := make([]any, 0, len(columns)+len(o.Args))
	for _, col := range columns {
		args = append(args, values[col])
	}

	var query string
	switch o.Kind {
	case OpInsert:
		if len(columns) == 0 {
			query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", o.Table)
		} else {
			query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
				o.Table, strings.Join(columns, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "))
		}
	case OpUpdate:
		if len(columns) == 0 {
			return Result{}, fmt.Errorf("update without values")
		}
		sets := make([]string, len(columns))
		for i, col := range columns {
			sets[i] = col + " = ?"
		}
		query = fmt.Sprintf("UPDATE %s SET %s", o.Table, strings.Join(sets, ", "))
	case OpDelete:
		query = fmt.Sprintf("DELETE FROM %s", o.Table)
		args = args[:0]
	default:
		return Result{}, fmt.Errorf("unknown operation kind %d", o.Kind)
	}
	if o.Kind != OpInsert && o.Selection != "" {
		query += " WHERE " + o.Selection
		args = append(args, o.Args...)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, err
	}
	if o.Kind == OpInsert {
		id, err := res.LastInsertId()
		if err != nil {
			return Result{}, err
		}
		return Result{ID: id, Count: 1}, nil
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Result{}, err
	}
	return Result{Count: n}, nil
}
