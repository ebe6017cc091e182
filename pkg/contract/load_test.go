package contract

import (
	"os"
	"path/filepath"
	"testing"
)

const jsonContract = `{
  "clients": {"id": "int64", "account_id": "object"},
  "stores": {"id": "int64", "latlng": "object"},
  "products": {"id": "int64", "name": "object"},
  "transactions": {"client_id": "int64", "date": "object", "hour": "int64", "minute": "int64"}
}`

const yamlContract = `
clients: {id: int64, account_id: object}
stores: {id: int64, latlng: object}
products: {id: int64, name: object}
transactions: {client_id: int64, date: object, hour: int64, minute: int64}
`

const tomlContract = `
[clients]
id = "int64"
account_id = "object"
[stores]
id = "int64"
latlng = "object"
[products]
id = "int64"
name = "object"
[transactions]
client_id = "int64"
date = "object"
hour = "int64"
minute = "int64"
`

func TestLoadFormats(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{"c.json": jsonContract, "c.yaml": yamlContract, "c.toml": tomlContract} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		s, err := Load(p)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		tx, err := s.For(Transactions)
		if err != nil {
			t.Fatal(err)
		}
		got := tx.Columns()
		want := []string{"client_id", "date", "hour", "minute"}
		if len(got) != len(want) {
			t.Fatalf("%s: columns %v", name, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s: columns %v, want %v", name, got, want)
			}
		}
	}
}

func TestParseRejects(t *testing.T) {
	if _, err := Parse([]byte(`{"clients": {"id": "int64"}}`), ".json"); err == nil {
		t.Fatal("expected error for missing kinds")
	}
	bad := `{"clients": {"id": "int32"}, "stores": {"a": "object"}, "products": {"a": "object"}, "transactions": {"a": "object"}}`
	if _, err := Parse([]byte(bad), ".json"); err == nil {
		t.Fatal("expected error for unknown tag")
	}
	if _, err := Parse([]byte(jsonContract), ".xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestSchemaOrder(t *testing.T) {
	s, err := Contract{"b": "float64", "a": "datetime64[ns]"}.Schema()
	if err != nil {
		t.Fatal(err)
	}
	if s.Columns[0].Name != "a" || s.Columns[1].Type.Tag() != "float64" {
		t.Fatalf("unexpected schema %+v", s)
	}
}
