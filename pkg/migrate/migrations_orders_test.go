package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/campus-kds/canteen-backend/pkg/migrate"
)

func TestMigrationDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CONSTRAINT orders_token_number_key UNIQUE (token_number)",
		"CHECK (token_number > 0)",
		"DROP TABLE IF EXISTS orders",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestLineItemsMigrationCascadesWithOrder(t *testing.T) {
	content := readMigration(t, "*_create_order_line_items.sql")

	checks := []string{
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"CHECK (quantity >= 1)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestTokenCountersMigrationSeedsSingletonRow(t *testing.T) {
	content := readMigration(t, "*_create_token_counters.sql")

	if !strings.Contains(content, "INSERT INTO token_counters (id, value) VALUES (1, 0)") {
		t.Errorf("token counter seed row missing")
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
