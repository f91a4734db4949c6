package docs

import "testing"

func TestTopicsHaveTitles(t *testing.T) {
	topics := Topics()
	if len(topics) == 0 {
		t.Fatalf("expected embedded topics")
	}
	seen := map[string]bool{}
	for _, tp := range topics {
		seen[tp.Name] = true
		if tp.Title == "" || tp.Title == tp.Name {
			t.Fatalf("topic %q has no heading title", tp.Name)
		}
	}
	for _, want := range []string{"addresses", "layout", "reconcile", "storage"} {
		if !seen[want] {
			t.Fatalf("missing topic %q in %v", want, topics)
		}
	}
}

func TestGet(t *testing.T) {
	body, ok := Get(" Addresses ")
	if !ok || body == "" {
		t.Fatalf("expected addresses topic")
	}
	for _, bad := range []string{"", "nope", "../docs", "content/addresses"} {
		if _, ok := Get(bad); ok {
			t.Fatalf("Get(%q) should fail", bad)
		}
	}
}
