package identity

import "testing"

func TestNormalizeUsername(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "Alice", want: "alice"},
		{in: "  Alice  ", want: "alice"},
		{in: "ALICE42", want: "alice42"},
		{in: "", want: ""},
	}

	for _, tc := range cases {
		if got := NormalizeUsername(tc.in); got != tc.want {
			t.Fatalf("NormalizeUsername(%q)=%q want=%q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	if got := NormalizeEmail("  A@X.Com "); got != "a@x.com" {
		t.Fatalf("NormalizeEmail=%q want=%q", got, "a@x.com")
	}
}
