package common

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// GetByID читает строку таблицы по первичному ключу. sql.ErrNoRows превращается в notFoundErr.
func GetByID[T any](ctx context.Context, q sqlx.QueryerContext, table string, id any, notFoundErr error) (*T, error) {
	var entity T
	if err := sqlx.GetContext(ctx, q, &entity, "SELECT * FROM "+table+" WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundErr
		}
		return nil, fmt.Errorf("get %s by id: %w", table, err)
	}
	return &entity, nil
}

// WithTransaction выполняет fn в транзакции: ошибка или паника откатывают её.
func WithTransaction(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// BatchInserter собирает строки и вставляет их многострочным INSERT.
type BatchInserter struct {
	tx          *sqlx.Tx
	query       string
	batchSize   int
	fieldsCount int
	values      []any
	rows        int
}

// NewBatchInserter принимает префикс вида "INSERT INTO t (a, b)".
func NewBatchInserter(tx *sqlx.Tx, baseQuery string, fieldsCount, batchSize int) *BatchInserter {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &BatchInserter{
		tx:          tx,
		query:       baseQuery,
		batchSize:   batchSize,
		fieldsCount: fieldsCount,
		values:      make([]any, 0, batchSize*fieldsCount),
	}
}

// Add добавляет строку и сбрасывает пачку при заполнении.
func (b *BatchInserter) Add(ctx context.Context, row ...any) error {
	if len(row) != b.fieldsCount {
		return fmt.Errorf("batch insert: expected %d fields, got %d", b.fieldsCount, len(row))
	}
	b.values = append(b.values, row...)
	b.rows++

	if b.rows >= b.batchSize {
		return b.Flush(ctx)
	}
	return nil
}

// Flush вставляет накопленные строки.
func (b *BatchInserter) Flush(ctx context.Context) error {
	if b.rows == 0 {
		return nil
	}

	query := b.query + " VALUES " + Placeholders(b.rows, b.fieldsCount)
	if _, err := b.tx.ExecContext(ctx, query, b.values...); err != nil {
		return fmt.Errorf("batch insert: %w", err)
	}

	b.values = b.values[:0]
	b.rows = 0
	return nil
}

// Placeholders строит "($1, $2), ($3, $4)" для rows строк по fields полей.
func Placeholders(rows, fields int) string {
	var sb strings.Builder
	n := 1
	for i := 0; i < rows; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j := 0; j < fields; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			n++
		}
		sb.WriteByte(')')
	}
	return sb.String()
}

// IsUniqueViolation сообщает о нарушении уникальности; пустой constraint подходит к любому.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// Where накапливает условия и аргументы динамического запроса.
type Where struct {
	clauses []string
	args    []any
}

// Add добавляет условие; "?" в cond заменяется номером следующего аргумента.
func (w *Where) Add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(w.args))))
}

// AddRaw добавляет условие без аргументов.
func (w *Where) AddRaw(cond string) {
	w.clauses = append(w.clauses, cond)
}

// SQL возвращает " WHERE ..." или пустую строку.
func (w *Where) SQL() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// Args возвращает накопленные аргументы.
func (w *Where) Args() []any {
	return w.args
}

// Next номер следующего плейсхолдера.
func (w *Where) Next() int {
	return len(w.args) + 1
}

// Page добавляет LIMIT/OFFSET к запросу с условиями w.
func (w *Where) Page(limit, offset int) (string, []any) {
	n := w.Next()
	args := append(append([]any{}, w.args...), limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n, n+1), args
}
