package goal

import "testing"

func TestFlags(t *testing.T) {
	cases := []struct {
		name      string
		a, b      Flags
		conflicts bool
	}{
		{"disjoint", FlagMovement, FlagLook, false},
		{"identical", FlagAttack, FlagAttack, true},
		{"partial_overlap", FlagMovement | FlagLook, FlagLook | FlagJump, true},
		{"empty_never_conflicts", 0, FlagMovement | FlagLook | FlagJump | FlagAttack | FlagTarget, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.a.Conflicts(c.b); got != c.conflicts {
				t.Fatalf("%s.Conflicts(%s) = %v, want %v", c.a, c.b, got, c.conflicts)
			}
			if got := c.b.Conflicts(c.a); got != c.conflicts {
				t.Fatalf("conflicts should be symmetric")
			}
		})
	}
}

func TestFlagsHas(t *testing.T) {
	fl := FlagMovement | FlagAttack
	if !fl.Has(FlagMovement) || !fl.Has(FlagAttack) || !fl.Has(FlagMovement|FlagAttack) {
		t.Fatalf("Has should report every set bit")
	}
	if fl.Has(FlagLook) || fl.Has(FlagMovement|FlagLook) {
		t.Fatalf("Has should require every bit in the query")
	}
}

func TestFlagsString(t *testing.T) {
	cases := []struct {
		fl   Flags
		want string
	}{
		{0, "none"},
		{FlagJump, "jump"},
		{FlagMovement | FlagLook, "movement|look"},
		{FlagMovement | FlagLook | FlagJump | FlagAttack | FlagTarget, "movement|look|jump|attack|target"},
	}

	for _, c := range cases {
		if got := c.fl.String(); got != c.want {
			t.Errorf("Flags(%d).String() = %q, want %q", c.fl, got, c.want)
		}
	}
}
