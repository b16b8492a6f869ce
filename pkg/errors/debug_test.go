package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDumpExtractsPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "users_contact_key", TableName: "users"}
	err := Wrap(CodeConflict, fmt.Errorf("insert user: %w", pgErr), "contact already registered")

	d := Dump(err)
	if d.Code != CodeConflict {
		t.Fatalf("expected conflict code got %s", d.Code)
	}
	if d.DBDriver != "pgx" || d.DBCode != "23505" || d.DBConstraint != "users_contact_key" {
		t.Fatalf("unexpected db fields %+v", d)
	}
	if len(d.Chain) < 2 {
		t.Fatalf("expected the unwrap chain, got %v", d.Chain)
	}
}

func TestDumpParsesSQLiteConstraint(t *testing.T) {
	d := Dump(stdErrors.New("create: UNIQUE constraint failed: categories.name"))
	if d.DBDriver != "sqlite" || d.DBTable != "categories" || d.DBColumn != "name" {
		t.Fatalf("unexpected sqlite fields %+v", d)
	}
	if _, ok := d.Fields()["db_table"]; !ok {
		t.Fatalf("expected db_table in log fields")
	}
}

func TestDumpOmitsEmptyDatabaseFields(t *testing.T) {
	d := Dump(stdErrors.New("plain"))
	fields := d.Fields()
	if _, ok := fields["db_code"]; ok {
		t.Fatalf("did not expect db fields for plain errors: %v", fields)
	}
	if fields["error"] != "plain" {
		t.Fatalf("unexpected top message %v", fields["error"])
	}
	if Dump(nil).TopMessage != "" {
		t.Fatalf("nil error should dump empty")
	}
}
