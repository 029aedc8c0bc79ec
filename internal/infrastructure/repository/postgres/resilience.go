package postgres

import (
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kirillkom/trial-balance-analyzer/internal/infrastructure/resilience"
)

// Transient SQLSTATE classes: connection exceptions, transaction rollbacks
// and operator intervention (server shutdown, too many connections).
var transientSQLStateClasses = []string{"08", "40", "53", "57"}

func classifyPostgresError(err error) resilience.Outcome {
	if err == nil {
		return resilience.Outcome{}
	}
	if out, ok := resilience.ContextOutcome(err); ok {
		return out
	}
	if errors.Is(err, driver.ErrBadConn) {
		return resilience.Transient()
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		for _, class := range transientSQLStateClasses {
			if strings.HasPrefix(pgErr.Code, class) {
				return resilience.Transient()
			}
		}
		return resilience.Outcome{}
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || pgconn.Timeout(err) {
		return resilience.Transient()
	}
	return resilience.Final(err)
}
