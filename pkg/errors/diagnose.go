package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// SQLSTATE classes for integrity violations.
const (
	SQLStateNotNull    = "23502"
	SQLStateForeignKey = "23503"
	SQLStateUnique     = "23505"
	SQLStateCheck      = "23514"
)

// sqlite reports constraint failures only as text.
var sqliteConstraintPrefixes = map[string]string{
	"UNIQUE constraint failed":      SQLStateUnique,
	"NOT NULL constraint failed":    SQLStateNotNull,
	"FOREIGN KEY constraint failed": SQLStateForeignKey,
	"CHECK constraint failed":       SQLStateCheck,
}

// Diagnosis is the log-side view of a failed request or job: its code, the
// wrap chain and whatever the database said about the failing constraint.
type Diagnosis struct {
	Message string
	Code    Code
	Chain   []string

	SQLState   string
	Constraint string
	Table      string
	Column     string
	Detail     string
}

// Diagnose inspects err for a typed code and a driver error from pgx, lib/pq
// or sqlite. Diagnose(nil) is the zero value.
func Diagnose(err error) Diagnosis {
	if err == nil {
		return Diagnosis{}
	}
	d := Diagnosis{Message: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.SQLState = pgxErr.Code
		d.Constraint = pgxErr.ConstraintName
		d.Table = pgxErr.TableName
		d.Column = pgxErr.ColumnName
		d.Detail = pgxErr.Detail
	case errors.As(err, &pqErr):
		d.SQLState = string(pqErr.Code)
		d.Constraint = pqErr.Constraint
		d.Table = pqErr.Table
		d.Column = pqErr.Column
		d.Detail = pqErr.Detail
	default:
		d.fromSQLiteMessage(d.Message)
	}
	return d
}

// fromSQLiteMessage parses "UNIQUE constraint failed: quotes.reference".
// Composite keys list every column; Table and Column come from the first.
func (d *Diagnosis) fromSQLiteMessage(msg string) {
	if strings.Contains(msg, "duplicate key value violates unique constraint") {
		d.SQLState = SQLStateUnique
		return
	}
	for prefix, state := range sqliteConstraintPrefixes {
		idx := strings.Index(msg, prefix)
		if idx < 0 {
			continue
		}
		d.SQLState = state
		rest := strings.TrimPrefix(msg[idx+len(prefix):], ":")
		d.Constraint = strings.TrimSpace(rest)
		first, _, _ := strings.Cut(d.Constraint, ",")
		if table, column, ok := strings.Cut(strings.TrimSpace(first), "."); ok {
			d.Table = table
			d.Column = column
		}
		return
	}
}

// UniqueViolation reports a duplicate key from any supported driver.
func (d Diagnosis) UniqueViolation() bool {
	return d.SQLState == SQLStateUnique
}

// Fields flattens the diagnosis for the request logger. Database keys are
// only present when a driver error was found.
func (d Diagnosis) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.Message,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if d.SQLState == "" {
		return fields
	}
	fields["sql_state"] = d.SQLState
	for key, value := range map[string]string{
		"db_constraint": d.Constraint,
		"db_table":      d.Table,
		"db_column":     d.Column,
		"db_detail":     d.Detail,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}
