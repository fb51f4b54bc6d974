package ingest

import (
	"strings"
	"testing"
)

func TestPostgresStoreQuotesAlarmColumn(t *testing.T) {
	s := NewPostgresStore(nil, "alram_led")

	for name, q := range map[string]string{
		"schema": s.schemaSQL(),
		"insert": s.insertSQL(),
		"list":   s.listSQL(),
	} {
		if !strings.Contains(q, `"alram_led"`) {
			t.Errorf("%s: alarm column not quoted: %s", name, q)
		}
	}
}

func TestPostgresStoreSanitizesIdentifier(t *testing.T) {
	s := NewPostgresStore(nil, `x"; DROP TABLE sensor_data; --`)
	if strings.Contains(s.insertSQL(), `x"; DROP`) {
		t.Errorf("identifier not escaped: %s", s.insertSQL())
	}
}

func TestPostgresStoreListOrdersByCreation(t *testing.T) {
	s := NewPostgresStore(nil, "alram_led")
	if !strings.HasSuffix(strings.TrimSpace(s.listSQL()), "ORDER BY created_at") {
		t.Errorf("list query: %s", s.listSQL())
	}
}

func TestOpenPostgresRejectsEmptyDSN(t *testing.T) {
	if _, err := OpenPostgres("  "); err == nil {
		t.Error("expected error for empty DSN")
	}
}
