package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump flattens an error chain for structured logs.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	SQLState      string `json:"sql_state,omitempty"`
	SQLConstraint string `json:"sql_constraint,omitempty"`
	SQLTable      string `json:"sql_table,omitempty"`
	SQLDetail     string `json:"sql_detail,omitempty"`
}

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

	// the state persister can run on either postgres driver
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.SQLState = pgxErr.Code
		d.SQLConstraint = pgxErr.ConstraintName
		d.SQLTable = pgxErr.TableName
		d.SQLDetail = pgxErr.Detail
		return d
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.SQLState = string(pqErr.Code)
		d.SQLConstraint = pqErr.Constraint
		d.SQLTable = pqErr.Table
		d.SQLDetail = pqErr.Detail
	}
	return d
}

// Fields renders the dump as logger fields, omitting empty SQL attributes.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if d.SQLState != "" {
		fields["sql_state"] = d.SQLState
		fields["sql_constraint"] = d.SQLConstraint
		fields["sql_table"] = d.SQLTable
		fields["sql_detail"] = d.SQLDetail
	}
	return fields
}
