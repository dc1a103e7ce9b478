package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(CodeNetworkUnavailable, cause, "query clients")

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}
	if err.Code() != CodeNetworkUnavailable {
		t.Fatalf("expected network code, got %s", err.Code())
	}
}

func TestAsFindsTypedErrorInChain(t *testing.T) {
	typed := New(CodeInsufficientBalance, "balance 10, prize costs 50")
	wrapped := fmt.Errorf("redeem prize: %w", typed)

	got := As(wrapped)
	if got == nil {
		t.Fatal("expected typed error in chain")
	}
	if got.Code() != CodeInsufficientBalance {
		t.Fatalf("expected insufficient balance, got %s", got.Code())
	}
}

func TestMetadataForInconsistencyCodes(t *testing.T) {
	for _, code := range []Code{CodePartialSaleInconsistency, CodePartialRedemptionInconsistency} {
		meta := MetadataFor(code)
		if meta.Retryable {
			t.Fatalf("%s must never be marked retryable", code)
		}
		if meta.HTTPStatus != http.StatusInternalServerError {
			t.Fatalf("%s should surface as 500, got %d", code, meta.HTTPStatus)
		}
		if !IsInconsistency(code) {
			t.Fatalf("%s should be flagged as inconsistency", code)
		}
	}
	if IsInconsistency(CodeSaleFailed) {
		t.Fatal("clean sale failure is not an inconsistency")
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestDumpExtractsPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "clients_phone_key",
		TableName:      "clients",
		Detail:         "Key (phone)=(5550001) already exists.",
	}
	err := Wrap(CodeConflict, pgErr, "insert client")

	dump := Dump(err)
	if dump.Code != CodeConflict {
		t.Fatalf("expected conflict code, got %s", dump.Code)
	}
	if dump.PGCode != "23505" || dump.PGConstraint != "clients_phone_key" {
		t.Fatalf("postgres fields not extracted: %+v", dump)
	}
	if len(dump.Chain) < 2 {
		t.Fatalf("expected chain entries, got %v", dump.Chain)
	}
}
