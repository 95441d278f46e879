package route

import "testing"

func TestNormalizePathAcceptsValidRoutes(t *testing.T) {
	valid := []string{"/info/node", "/1", "/1/2/3/", "/1/2/3/4"}
	for _, p := range valid {
		if _, ok := normalizePath(p); !ok {
			t.Errorf("normalizePath(%q) = invalid, want valid", p)
		}
	}
}

func TestNormalizePathRejectsInvalidRoutes(t *testing.T) {
	invalid := []string{
		"", "/", "///", "/.", `\query\data`, "/query/*", "/query/:",
		"/query//", "/query?", "/query/data//", "/query/_/data",
		"/query//data", `"/query"`,
	}
	for _, p := range invalid {
		if _, ok := normalizePath(p); ok {
			t.Errorf("normalizePath(%q) = valid, want invalid", p)
		}
	}
}

func TestNormalizePathStripsSingleTrailingSlash(t *testing.T) {
	canonical, ok := normalizePath("/1/2/3/")
	if !ok || canonical != "/1/2/3" {
		t.Fatalf("got (%q, %v), want (\"/1/2/3\", true)", canonical, ok)
	}
}
