package logger

import "testing"

func TestOperationAndTableFromSQL(t *testing.T) {
	cases := []struct {
		sql       string
		operation string
		table     string
	}{
		{sql: `SELECT * FROM "pricing_versions" WHERE id = 1`, operation: "SELECT", table: "pricing_versions"},
		{sql: `INSERT INTO campaign_pricing_snapshots (id) VALUES (1)`, operation: "INSERT", table: "campaign_pricing_snapshots"},
		{sql: `UPDATE pricing_configs SET active_version_id = 2`, operation: "UPDATE", table: "pricing_configs"},
		{sql: `WITH x AS (SELECT 1) SELECT * FROM x`, operation: "SELECT", table: "x"},
		{sql: ``, operation: "UNKNOWN", table: ""},
	}

	for _, tc := range cases {
		if got := operationFromSQL(tc.sql); got != tc.operation {
			t.Fatalf("operationFromSQL(%q) = %q, want %q", tc.sql, got, tc.operation)
		}
		if got := tableFromSQL(tc.sql); got != tc.table {
			t.Fatalf("tableFromSQL(%q) = %q, want %q", tc.sql, got, tc.table)
		}
	}
}
