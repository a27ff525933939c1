package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/clubswap/clubswap-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestSaleTransactionsMigrationContainsSchemas(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_sale_transactions_and_payouts.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no sale transactions migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS sale_transactions",
		"CREATE TABLE IF NOT EXISTS payouts",
		"commission_rate NUMERIC(5,4) NOT NULL",
		"seller_receives NUMERIC(10,2) NOT NULL",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_sale_transactions_provider_ref",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_payouts_transaction_id",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
