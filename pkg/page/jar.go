package page

import (
	"net/http"
	"net/url"
	"sort"
	"time"
)

// Compile-time check that *Document implements http.CookieJar.
var _ http.CookieJar = (*Document)(nil)

// SetCookies stores cookies set by a server response. Deleted or expired
// cookies are removed.
func (d *Document) SetCookies(
	u *url.URL,
	cookies []*http.Cookie,
) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	for _, c := range cookies {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(now)) {
			delete(d.cookies, c.Name)
			continue
		}
		d.cookies[c.Name] = c.Value
	}
}

// Cookies returns every cookie. A document models a single origin, so the
// URL is not consulted.
func (d *Document) Cookies(u *url.URL) []*http.Cookie {
	d.mu.Lock()
	defer d.mu.Unlock()

	names := make([]string, 0, len(d.cookies))
	for name := range d.cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	cookies := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		cookies = append(cookies, &http.Cookie{Name: name, Value: d.cookies[name]})
	}
	return cookies
}
