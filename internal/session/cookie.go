package session

import (
	"net/http"
	"strings"
)

// CookieName is the fixed name of the session cookie.
const CookieName = "speakeasy_session"

// CookiePolicy decides cookie attributes from the inbound request. The site
// runs either as a single origin (local development) or as split static
// hosting + API hosting, where the cookie must be Secure and SameSite=None or
// cross-site auth silently breaks.
type CookiePolicy struct {
	// CrossSiteOrigins lists frontend origins served from a different host
	// than the API. A request bearing one of these origins gets cross-site
	// cookie attributes.
	CrossSiteOrigins []string
}

// Options returns the cookie template for this request. Value and MaxAge are
// filled in by the caller.
func (p CookiePolicy) Options(r *http.Request) http.Cookie {
	cookie := http.Cookie{
		Name:     CookieName,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if p.crossSite(r) || requestIsTLS(r) {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	}
	return cookie
}

// Set writes the session cookie carrying token with the given max age.
func (p CookiePolicy) Set(w http.ResponseWriter, r *http.Request, token string, maxAge int) {
	cookie := p.Options(r)
	cookie.Value = token
	cookie.MaxAge = maxAge
	http.SetCookie(w, &cookie)
}

// Clear overwrites the session cookie with an already-expired one.
func (p CookiePolicy) Clear(w http.ResponseWriter, r *http.Request) {
	cookie := p.Options(r)
	cookie.Value = ""
	cookie.MaxAge = -1
	http.SetCookie(w, &cookie)
}

func (p CookiePolicy) crossSite(r *http.Request) bool {
	origin := strings.TrimRight(strings.TrimSpace(r.Header.Get("Origin")), "/")
	if origin == "" {
		return false
	}
	for _, allowed := range p.CrossSiteOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

func requestIsTLS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	// Behind a reverse proxy only the forwarded proto header tells.
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
