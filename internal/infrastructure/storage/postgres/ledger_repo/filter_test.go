package ledger_repo

import (
	"testing"
)

func TestParseOrderBy(t *testing.T) {
	allowed := []string{"number", "date", "status"}

	tests := []struct {
		name    string
		orderBy string
		want    string
		wantErr bool
	}{
		{"empty falls back", "", "date DESC", false},
		{"plain ascending", "number", "number ASC", false},
		{"plus prefix", "+date", "date ASC", false},
		{"minus prefix", "-date", "date DESC", false},
		{"unknown column", "password", "", true},
		{"injection attempt", "date; DROP TABLE journals", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOrderBy(tt.orderBy, allowed, "date DESC")
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseOrderBy(%q) = %q, want error", tt.orderBy, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseOrderBy(%q): %v", tt.orderBy, err)
			}
			if got != tt.want {
				t.Errorf("parseOrderBy(%q) = %q, want %q", tt.orderBy, got, tt.want)
			}
		})
	}
}
