package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpPartialWriteCarriesOrderID(t *testing.T) {
	err := New(CodePartialWrite, "order items not written").
		WithDetails(map[string]any{"order_id": "5b0c2a1e-4d0f-4b7e-9f43-8f1f3f0f2a11"})

	d := Dump(fmt.Errorf("place order: %w", err))
	if d.Code != CodePartialWrite {
		t.Fatalf("expected partial write code, got %s", d.Code)
	}
	if d.OrderID != "5b0c2a1e-4d0f-4b7e-9f43-8f1f3f0f2a11" {
		t.Fatalf("unexpected order id %q", d.OrderID)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %v", d.Chain)
	}
}

func TestDumpExtractsPostgresDetails(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "store_reviews_store_customer_key", TableName: "store_reviews"}
	d := Dump(Wrap(CodeRemoteUnavailable, pgErr, "insert store_reviews"))
	if d.PGCode != "23505" || d.PGTable != "store_reviews" {
		t.Fatalf("pgx details not extracted: %+v", d)
	}
	if !d.Retryable {
		t.Fatalf("remote unavailable should be retryable")
	}

	pqErr := &pq.Error{Code: "23503", Table: "order_items"}
	d = Dump(Wrap(CodeRemoteUnavailable, pqErr, "insert order_items"))
	if d.PGCode != "23503" || d.PGTable != "order_items" {
		t.Fatalf("pq details not extracted: %+v", d)
	}
}

func TestDumpNil(t *testing.T) {
	if d := Dump(nil); d.TopMessage != "" || d.Chain != nil {
		t.Fatalf("expected empty dump, got %+v", d)
	}
}
