package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// ErrorDump is the log-side view of an error: its chain plus whatever the
// database driver attached.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	Driver     string `json:"driver,omitempty"`
	DBCode     string `json:"db_code,omitempty"`
	Constraint string `json:"db_constraint,omitempty"`
	Table      string `json:"db_table,omitempty"`
	Column     string `json:"db_column,omitempty"`
	Detail     string `json:"db_detail,omitempty"`
	DBMessage  string `json:"db_message,omitempty"`
}

// Dump walks err and extracts postgres (pgx, lib/pq) or sqlite details.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	var liteErr sqlite3.Error
	switch {
	case errors.As(err, &pgxErr):
		d.Driver = "pgx"
		d.DBCode = pgxErr.Code
		d.Constraint = pgxErr.ConstraintName
		d.Table = pgxErr.TableName
		d.Column = pgxErr.ColumnName
		d.Detail = pgxErr.Detail
		d.DBMessage = pgxErr.Message
	case errors.As(err, &pqErr):
		d.Driver = "pq"
		d.DBCode = string(pqErr.Code)
		d.Constraint = pqErr.Constraint
		d.Table = pqErr.Table
		d.Column = pqErr.Column
		d.Detail = pqErr.Detail
		d.DBMessage = pqErr.Message
	case errors.As(err, &liteErr):
		d.Driver = "sqlite"
		d.DBCode = fmt.Sprintf("%d/%d", liteErr.Code, liteErr.ExtendedCode)
		d.DBMessage = liteErr.Error()
	}
	return d
}

// Fields flattens the dump for structured logging. Empty driver fields are
// left out.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if d.Driver == "" {
		return fields
	}
	fields["db_driver"] = d.Driver
	for key, value := range map[string]string{
		"db_code":       d.DBCode,
		"db_constraint": d.Constraint,
		"db_table":      d.Table,
		"db_column":     d.Column,
		"db_detail":     d.Detail,
		"db_message":    d.DBMessage,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}
