package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                        "/",
		"/metrics":                "/metrics",
		"/rpc/posts.list":         "/rpc/posts.list",
		"/auth/login":             "/auth/login",
		"/auth/login?next=home":   "/auth/login",
		"/payments/intent":        "/payments/intent",
		"/healthz":                "/healthz",
		"/wp-admin/setup.php":     "/other",
		"/blog/first-trip-report": "/other",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
