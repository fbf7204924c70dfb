package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"", FormatTable, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON, false).(*JSONFormatter); !ok {
		t.Error("json: expected JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML, false).(*YAMLFormatter); !ok {
		t.Error("yaml: expected YAMLFormatter")
	}
	tf, ok := NewFormatter(FormatTable, true).(*TableFormatter)
	if !ok || !tf.Wide {
		t.Error("table: expected wide TableFormatter")
	}
	if _, ok := NewFormatter("unknown", false).(*TableFormatter); !ok {
		t.Error("unknown: expected TableFormatter fallback")
	}
}

func TestJSONFormatter_RawMessage(t *testing.T) {
	var buf bytes.Buffer
	raw := json.RawMessage(`{"dealerId":"D1","balance":100.10}`)
	if err := (&JSONFormatter{}).Format(&buf, raw); err != nil {
		t.Fatalf("Format: %v", err)
	}
	want := "{\n  \"dealerId\": \"D1\",\n  \"balance\": 100.10\n}\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestYAMLFormatter_KeepsOrderAndNumbers(t *testing.T) {
	var buf bytes.Buffer
	raw := json.RawMessage(`{"dealerId":"D1","balance":100.10,"count":3,"active":true,"note":null,"tags":["a","b"]}`)
	if err := (&YAMLFormatter{}).Format(&buf, raw); err != nil {
		t.Fatalf("Format: %v", err)
	}
	want := strings.Join([]string{
		"dealerId: D1",
		"balance: 100.10",
		"count: 3",
		"active: true",
		"note: null",
		"tags:",
		"  - a",
		"  - b",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestYAMLFormatter_Struct(t *testing.T) {
	var buf bytes.Buffer
	data := struct {
		Message       string `json:"message"`
		TransactionID string `json:"transaction_id"`
	}{"Asset created successfully!", "tx1"}
	if err := (&YAMLFormatter{}).Format(&buf, data); err != nil {
		t.Fatalf("Format: %v", err)
	}
	want := "message: Asset created successfully!\ntransaction_id: tx1\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestNormalize_RejectsTrailingData(t *testing.T) {
	if _, err := normalize(json.RawMessage(`{} {}`)); err == nil {
		t.Error("expected error for trailing data")
	}
	if _, err := normalize(json.RawMessage(``)); err == nil {
		t.Error("expected error for empty input")
	}
}
