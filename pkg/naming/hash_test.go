package naming

import (
	"testing"

	"github.com/parasol-run/parasol/pkg/sweep"
)

func TestHashDefaultLength(t *testing.T) {
	h := NewHash()
	set := sweep.MakeParams(sweep.Param{Name: "x", Value: 1})
	id, err := h.GenerateID(set, "sweep")
	if err != nil {
		t.Fatalf("GenerateID() error = %v", err)
	}
	if len(id) != 8 {
		t.Fatalf("len(id) = %d, want 8", len(id))
	}
	for _, r := range id {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			t.Fatalf("id %q contains non-hex rune %q", id, r)
		}
	}
}

func TestHashDeterministic(t *testing.T) {
	h := NewHash()
	set := sweep.MakeParams(
		sweep.Param{Name: "x", Value: 1.5},
		sweep.Param{Name: "solver", Value: "cg"},
	)
	a, err := h.GenerateID(set, "trial")
	if err != nil {
		t.Fatalf("GenerateID() error = %v", err)
	}
	b, err := h.GenerateID(set.Clone(), "trial")
	if err != nil {
		t.Fatalf("GenerateID() error = %v", err)
	}
	if a != b {
		t.Errorf("same set, same sweep: %q != %q", a, b)
	}
}

func TestHashOrderIndependent(t *testing.T) {
	h := NewHash()
	forward := sweep.MakeParams(
		sweep.Param{Name: "a", Value: 1},
		sweep.Param{Name: "b", Value: 2},
	)
	backward := sweep.MakeParams(
		sweep.Param{Name: "b", Value: 2},
		sweep.Param{Name: "a", Value: 1},
	)
	fid, err := h.GenerateID(forward, "sweep")
	if err != nil {
		t.Fatalf("GenerateID() error = %v", err)
	}
	bid, err := h.GenerateID(backward, "sweep")
	if err != nil {
		t.Fatalf("GenerateID() error = %v", err)
	}
	if fid != bid {
		t.Errorf("declaration order changed the ID: %q != %q", fid, bid)
	}
}

func TestHashSweepDistinct(t *testing.T) {
	h := NewHash()
	set := sweep.MakeParams(sweep.Param{Name: "x", Value: 1})
	a, err := h.GenerateID(set, "sweep-a")
	if err != nil {
		t.Fatalf("GenerateID() error = %v", err)
	}
	b, err := h.GenerateID(set, "sweep-b")
	if err != nil {
		t.Fatalf("GenerateID() error = %v", err)
	}
	if a == b {
		t.Errorf("distinct sweeps share the ID %q", a)
	}
}

func TestHashValueDistinct(t *testing.T) {
	h := NewHash()
	a, err := h.GenerateID(sweep.MakeParams(sweep.Param{Name: "x", Value: 1}), "sweep")
	if err != nil {
		t.Fatalf("GenerateID() error = %v", err)
	}
	b, err := h.GenerateID(sweep.MakeParams(sweep.Param{Name: "x", Value: 2}), "sweep")
	if err != nil {
		t.Fatalf("GenerateID() error = %v", err)
	}
	if a == b {
		t.Errorf("distinct values share the ID %q", a)
	}
}

func TestHashDigits(t *testing.T) {
	set := sweep.MakeParams(sweep.Param{Name: "x", Value: 1})
	tests := []struct {
		digits int
		want   int
	}{
		{4, 4},
		{40, 40},
		{100, 40},
	}
	for _, tt := range tests {
		h := &Hash{Digits: tt.digits}
		id, err := h.GenerateID(set, "sweep")
		if err != nil {
			t.Fatalf("Digits %d: GenerateID() error = %v", tt.digits, err)
		}
		if len(id) != tt.want {
			t.Errorf("Digits %d: len(id) = %d, want %d", tt.digits, len(id), tt.want)
		}
	}
}

func TestHashDigitsPrefix(t *testing.T) {
	set := sweep.MakeParams(sweep.Param{Name: "x", Value: 1})
	long, err := (&Hash{Digits: 40}).GenerateID(set, "sweep")
	if err != nil {
		t.Fatalf("GenerateID() error = %v", err)
	}
	short, err := NewHash().GenerateID(set, "sweep")
	if err != nil {
		t.Fatalf("GenerateID() error = %v", err)
	}
	if long[:8] != short {
		t.Errorf("short ID %q is not a prefix of %q", short, long)
	}
}

func TestHashUnmarshalableValue(t *testing.T) {
	set := sweep.MakeParams(sweep.Param{Name: "x", Value: make(chan int)})
	if _, err := NewHash().GenerateID(set, "sweep"); err == nil {
		t.Fatal("GenerateID() with an unmarshalable value should fail")
	}
}
