package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// storedCookie is the on-disk form of one cookie. Only name/value survive a
// round trip through the jar; the session cookie is re-seeded with a long
// expiry on load and the backend decides whether it is still valid.
type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PersistentJar is an http.CookieJar that mirrors the cookies for one
// backend origin into a JSON file, so the session cookie set by login
// survives across CLI invocations.
type PersistentJar struct {
	mu     sync.Mutex
	inner  *cookiejar.Jar
	path   string
	origin *url.URL
}

// NewPersistentJar creates a jar persisting cookies for origin at path.
// A missing or unreadable file starts the jar empty.
func NewPersistentJar(path string, origin *url.URL) (*PersistentJar, error) {
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	j := &PersistentJar{inner: inner, path: path, origin: origin}

	data, err := os.ReadFile(path)
	if err != nil {
		return j, nil
	}
	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return j, nil
	}

	cookies := make([]*http.Cookie, len(stored))
	for i, sc := range stored {
		cookies[i] = &http.Cookie{
			Name:    sc.Name,
			Value:   sc.Value,
			Path:    "/",
			Expires: time.Now().Add(365 * 24 * time.Hour),
		}
	}
	inner.SetCookies(origin, cookies)
	return j, nil
}

// Cookies implements http.CookieJar.
func (j *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

// SetCookies implements http.CookieJar and snapshots the origin's cookies
// to disk after every update.
func (j *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.inner.SetCookies(u, cookies)
	j.save()
}

// Clear drops all cookies for the origin and removes the on-disk snapshot.
// Used on logout.
func (j *PersistentJar) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	// Expire every current cookie on the inner jar.
	current := j.inner.Cookies(j.origin)
	expired := make([]*http.Cookie, len(current))
	for i, c := range current {
		expired[i] = &http.Cookie{Name: c.Name, Value: "", Path: "/", MaxAge: -1}
	}
	j.inner.SetCookies(j.origin, expired)

	if err := os.Remove(j.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cookie file: %w", err)
	}
	return nil
}

func (j *PersistentJar) save() {
	current := j.inner.Cookies(j.origin)
	stored := make([]storedCookie, len(current))
	for i, c := range current {
		stored[i] = storedCookie{Name: c.Name, Value: c.Value}
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return
	}
	// Best effort: a failed save costs re-login, nothing more.
	_ = os.WriteFile(j.path, data, 0o600)
}
