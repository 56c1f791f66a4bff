package payment

import "testing"

func TestIntentIDFromSecret(t *testing.T) {
	cases := []struct {
		secret string
		want   string
		ok     bool
	}{
		{"pi_3abc_secret_xyz", "pi_3abc", true},
		{"pi_3abc", "", false},
		{"_secret_xyz", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, err := intentIDFromSecret(c.secret)
		if c.ok && (err != nil || got != c.want) {
			t.Fatalf("secret %q: got %q, %v", c.secret, got, err)
		}
		if !c.ok && err == nil {
			t.Fatalf("secret %q: expected error", c.secret)
		}
	}
}
