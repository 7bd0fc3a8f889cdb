//go:build integration

package integration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"ratefeed/internal/repository"
)

// roleConn returns a dedicated connection switched to the given role. A
// dedicated conn keeps SET ROLE from leaking into the shared pool, and
// switching away from the superuser makes row level security actually apply.
func roleConn(t *testing.T, ctx context.Context, role string) *sql.Conn {
	t.Helper()

	conn, err := testDB.Conn(ctx)
	if err != nil {
		t.Fatalf("acquire conn: %v", err)
	}
	if _, err := conn.ExecContext(ctx, "SET ROLE "+role); err != nil {
		conn.Close()
		t.Fatalf("SET ROLE %s: %v", role, err)
	}
	t.Cleanup(func() {
		_, _ = conn.ExecContext(context.Background(), "RESET ROLE")
		conn.Close()
	})
	return conn
}

func seedRate(t *testing.T, ctx context.Context) repository.ExchangeRate {
	t.Helper()
	rec := rate(day(2024, time.June, 3), "USD", "EUR", "0.9210", "exchangerate.host")
	if err := newRepo().Insert(ctx, rec); err != nil {
		t.Fatalf("seed Insert: %v", err)
	}
	return rec
}

func TestRLS_AuthenticatedCanRead(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	rec := seedRate(t, ctx)

	conn := roleConn(t, ctx, "authenticated")

	var count int
	err := conn.QueryRowContext(ctx,
		`SELECT count(*) FROM exchange_rates WHERE rate_date=$1::date AND base_currency=$2 AND symbol=$3`,
		rec.RateDate, rec.BaseCurrency, rec.Symbol).Scan(&count)
	if err != nil {
		t.Fatalf("SELECT as authenticated: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 visible row, got %d", count)
	}
}

func TestRLS_AuthenticatedCannotWrite(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	seedRate(t, ctx)

	conn := roleConn(t, ctx, "authenticated")

	t.Run("insert denied", func(t *testing.T) {
		_, err := conn.ExecContext(ctx,
			`INSERT INTO exchange_rates (rate_date, symbol, rate) VALUES ('2024-06-04', 'GBP', 0.79)`)
		if err == nil {
			t.Fatal("expected permission denied for INSERT, got nil")
		}
	})

	t.Run("update denied", func(t *testing.T) {
		_, err := conn.ExecContext(ctx, `UPDATE exchange_rates SET rate = 1`)
		if err == nil {
			t.Fatal("expected permission denied for UPDATE, got nil")
		}
	})

	t.Run("delete denied", func(t *testing.T) {
		_, err := conn.ExecContext(ctx, `DELETE FROM exchange_rates`)
		if err == nil {
			t.Fatal("expected permission denied for DELETE, got nil")
		}
	})
}

func TestRLS_UngrantedRoleCannotRead(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	seedRate(t, ctx)

	// A role outside the grant list gets no access at all.
	if _, err := testDB.ExecContext(ctx, `
		DO $$ BEGIN
			IF NOT EXISTS (SELECT FROM pg_roles WHERE rolname = 'rate_outsider') THEN
				CREATE ROLE rate_outsider NOLOGIN;
			END IF;
		END $$`); err != nil {
		t.Fatalf("create outsider role: %v", err)
	}

	conn := roleConn(t, ctx, "rate_outsider")

	var count int
	err := conn.QueryRowContext(ctx, `SELECT count(*) FROM exchange_rates`).Scan(&count)
	if err == nil {
		t.Fatal("expected permission denied for SELECT without grant, got nil")
	}
}

func TestRLS_Enabled(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)

	var enabled bool
	err := testDB.QueryRowContext(ctx,
		`SELECT relrowsecurity FROM pg_class WHERE oid = 'public.exchange_rates'::regclass`).Scan(&enabled)
	if err != nil {
		t.Fatalf("query relrowsecurity: %v", err)
	}
	if !enabled {
		t.Fatal("expected row level security to be enabled on exchange_rates")
	}

	var policies int
	err = testDB.QueryRowContext(ctx,
		`SELECT count(*) FROM pg_policies
		 WHERE schemaname = 'public' AND tablename = 'exchange_rates'
		   AND cmd = 'SELECT' AND 'authenticated' = ANY(roles)`).Scan(&policies)
	if err != nil {
		t.Fatalf("query pg_policies: %v", err)
	}
	if policies != 1 {
		t.Fatalf("expected exactly one SELECT policy for authenticated, got %d", policies)
	}
}
