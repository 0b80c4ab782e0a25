package goal

import "testing"

func TestResultTerminal(t *testing.T) {
	cases := []struct {
		res      Result
		terminal bool
	}{
		{Running(), false},
		{Succeed("done"), true},
		{Fail("broke"), true},
		{Cancelled(), true},
	}

	for _, c := range cases {
		if got := c.res.Terminal(); got != c.terminal {
			t.Errorf("%v.Terminal() = %v, want %v", c.res, got, c.terminal)
		}
	}
}

func TestResultString(t *testing.T) {
	cases := []struct {
		res  Result
		want string
	}{
		{Running(), "running"},
		{Succeed("target down"), "success: target down"},
		{Fail("no path"), "failure: no path"},
		{Cancelled(), "cancelled"},
		{Result{Status: Status(42)}, "status(42)"},
	}

	for _, c := range cases {
		if got := c.res.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}
