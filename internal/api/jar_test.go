package api

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
)

func TestPersistentJarRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	origin, _ := url.Parse("https://loomon.example.com")

	jar, err := NewPersistentJar(path, origin)
	if err != nil {
		t.Fatalf("NewPersistentJar: %v", err)
	}
	jar.SetCookies(origin, []*http.Cookie{{Name: "sessionid", Value: "abc123", Path: "/"}})

	// A second jar built from the same file sees the cookie.
	jar2, err := NewPersistentJar(path, origin)
	if err != nil {
		t.Fatalf("NewPersistentJar (reload): %v", err)
	}
	cookies := jar2.Cookies(origin)
	if len(cookies) != 1 {
		t.Fatalf("len(cookies) = %d, want 1", len(cookies))
	}
	if cookies[0].Name != "sessionid" || cookies[0].Value != "abc123" {
		t.Errorf("cookie = %s=%s, want sessionid=abc123", cookies[0].Name, cookies[0].Value)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat cookie file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("cookie file mode = %o, want 600", perm)
	}
}

func TestPersistentJarClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	origin, _ := url.Parse("https://loomon.example.com")

	jar, err := NewPersistentJar(path, origin)
	if err != nil {
		t.Fatalf("NewPersistentJar: %v", err)
	}
	jar.SetCookies(origin, []*http.Cookie{{Name: "sessionid", Value: "abc123", Path: "/"}})

	if err := jar.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got := jar.Cookies(origin); len(got) != 0 {
		t.Errorf("cookies after Clear = %v, want none", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("cookie file still present after Clear")
	}
}

func TestPersistentJarCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	origin, _ := url.Parse("https://loomon.example.com")

	jar, err := NewPersistentJar(path, origin)
	if err != nil {
		t.Fatalf("NewPersistentJar: %v", err)
	}
	if got := jar.Cookies(origin); len(got) != 0 {
		t.Errorf("cookies from corrupt file = %v, want none", got)
	}
}
