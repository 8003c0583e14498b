package bitfield

import "testing"

func TestPackBools(t *testing.T) {
	type flags struct {
		A bool `bitfield:",1"`
		B bool `bitfield:",1"`
	}

	cases := []struct {
		name string
		in   flags
		want uint64
	}{
		{"both false", flags{false, false}, 0},
		{"A only", flags{true, false}, 0x1},
		{"B only", flags{false, true}, 0x2},
		{"both true", flags{true, true}, 0x3},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Pack(&c.in, &Config{NumBits: 8})
			if err != nil {
				t.Fatalf("Pack returned error: %v", err)
			}
			if got != c.want {
				t.Errorf("Pack(%+v) = %#x, want %#x", c.in, got, c.want)
			}
		})
	}
}

func TestPackIgnoresUntaggedFields(t *testing.T) {
	type mixed struct {
		Tagged   bool `bitfield:",1"`
		Untagged bool
	}

	got, err := Pack(&mixed{Tagged: true, Untagged: true}, &Config{NumBits: 8})
	if err != nil {
		t.Fatalf("Pack returned error: %v", err)
	}
	if got != 0x1 {
		t.Errorf("Pack = %#x, want 0x1 (untagged field should not contribute bits)", got)
	}
}

func TestPackRejectsNonStruct(t *testing.T) {
	_, err := Pack(42, nil)
	if err == nil {
		t.Fatal("expected an error packing a non-struct value")
	}
}

func TestPackRejectsOverflow(t *testing.T) {
	type tooWide struct {
		A uint32 `bitfield:",1"`
	}

	_, err := Pack(&tooWide{A: 2}, &Config{NumBits: 8})
	if err == nil {
		t.Fatal("expected an error packing a value that doesn't fit its declared bit width")
	}
}
