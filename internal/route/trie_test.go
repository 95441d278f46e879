package route

import (
	"testing"

	"github.com/brypt-community/brypt-node/internal/wire"
)

type stubHandler struct{ name string }

func (s *stubHandler) OnFetchServices(ServiceProvider) bool { return true }
func (s *stubHandler) OnMessage(*wire.ApplicationParcel, *Next) bool { return true }

func TestTrieInsertAndLookupExactMatch(t *testing.T) {
	tr := newTrie()
	h := &stubHandler{name: "info-node"}
	tr.insert("/info/node", h)

	got, ok := tr.lookup("/info/node")
	if !ok || got != h {
		t.Fatalf("lookup failed: got %v, %v", got, ok)
	}

	if _, ok := tr.lookup("/info"); ok {
		t.Fatal("partial prefix must not match")
	}
	if _, ok := tr.lookup("/info/nodes"); ok {
		t.Fatal("longer route must not match a shorter registered prefix")
	}
}

func TestTrieSplitsSharedPrefix(t *testing.T) {
	tr := newTrie()
	infoNode := &stubHandler{name: "info-node"}
	one := &stubHandler{name: "one"}

	tr.insert("/info/node", infoNode)
	tr.insert("/1", one)

	got, ok := tr.lookup("/info/node")
	if !ok || got != infoNode {
		t.Fatalf("lost handler after split: %v %v", got, ok)
	}
	got, ok = tr.lookup("/1")
	if !ok || got != one {
		t.Fatalf("new sibling not reachable: %v %v", got, ok)
	}
}

func TestTrieSplitAttachesHandlerToParentOnFullConsumption(t *testing.T) {
	tr := newTrie()
	longer := &stubHandler{name: "longer"}
	shorter := &stubHandler{name: "shorter"}

	tr.insert("/12", longer)
	tr.insert("/1", shorter)

	got, ok := tr.lookup("/1")
	if !ok || got != shorter {
		t.Fatalf("parent handler after split: %v %v", got, ok)
	}
	got, ok = tr.lookup("/12")
	if !ok || got != longer {
		t.Fatalf("child handler after split: %v %v", got, ok)
	}
}

func TestTrieReplaceReportsReplacement(t *testing.T) {
	tr := newTrie()
	tr.insert("/1", &stubHandler{name: "a"})
	replaced := tr.insert("/1", &stubHandler{name: "b"})
	if !replaced {
		t.Fatal("expected replace to report true")
	}

	got, ok := tr.lookup("/1")
	if !ok || got.(*stubHandler).name != "b" {
		t.Fatalf("expected handler b to win, got %v", got)
	}
}

func TestTrieMultipleChildrenBinarySearch(t *testing.T) {
	tr := newTrie()
	tr.insert("/1", &stubHandler{name: "1"})
	tr.insert("/2", &stubHandler{name: "2"})
	tr.insert("/3", &stubHandler{name: "3"})

	for _, route := range []string{"/1", "/2", "/3"} {
		if _, ok := tr.lookup(route); !ok {
			t.Fatalf("lookup(%q) failed", route)
		}
	}
	if _, ok := tr.lookup("/4"); ok {
		t.Fatal("unregistered sibling route must not match")
	}
}

func TestTrieWalkVisitsEveryHandler(t *testing.T) {
	tr := newTrie()
	tr.insert("/1", &stubHandler{name: "1"})
	tr.insert("/2", &stubHandler{name: "2"})
	tr.insert("/1/2/3/4", &stubHandler{name: "deep"})

	var names []string
	tr.walk(func(h Handler) {
		names = append(names, h.(*stubHandler).name)
	})
	if len(names) != 3 {
		t.Fatalf("expected 3 handlers visited, got %d: %v", len(names), names)
	}
}
