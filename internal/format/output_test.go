package format

import (
	"bytes"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type sample struct {
	NodeID  string `json:"nodeId"`
	Address string `json:"address,omitempty"`
	Depth   int    `json:"depth"`
}

func TestWrite_JSONCompactAndPretty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{"data": sample{NodeID: "n1", Depth: 2}}, "json", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != `{"data":{"nodeId":"n1","depth":2}}` {
		t.Fatalf("unexpected json: %s", got)
	}

	buf.Reset()
	if err := Write(&buf, sample{NodeID: "n1"}, "", true); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"nodeId\": \"n1\"") {
		t.Fatalf("expected indented json, got %s", buf.String())
	}
}

func TestWrite_YAMLUsesJSONFieldNames(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sample{NodeID: "n1", Address: "root-0", Depth: 1}, "yaml", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	var got map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("yaml: %v\n%s", err, buf.String())
	}
	if got["nodeId"] != "n1" || got["address"] != "root-0" || got["depth"] != 1 {
		t.Fatalf("unexpected yaml: %#v", got)
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, 1, "edn", false); err == nil {
		t.Fatalf("expected error")
	}
	if Valid("edn") || !Valid("yaml") {
		t.Fatalf("unexpected Valid results")
	}
}
