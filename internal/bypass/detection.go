// Package bypass recognizes bot-protection challenge pages so that a blocked
// fetch is reported as a failure instead of being parsed as an article.
package bypass

import (
	"bytes"
	"net/http"
	"strings"
)

// Response is the part of an HTTP answer the detectors look at.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Signature describes one vendor's challenge page. A response matches when
// its status is listed and any of the header, server or body markers hit.
type Signature struct {
	Vendor      string
	Statuses    []int
	Server      []string
	Headers     []string
	BodyMarkers []string
	// BodyAll requires every body marker instead of any one of them.
	BodyAll bool
}

// DefaultSignatures covers the vendors news sites commonly sit behind.
var DefaultSignatures = []Signature{
	{
		Vendor:      "Cloudflare",
		Statuses:    []int{http.StatusForbidden, http.StatusServiceUnavailable},
		Server:      []string{"cloudflare"},
		BodyMarkers: []string{"cf-browser-verification", "cloudflare-nginx", "cf-turnstile", "Attention Required! | Cloudflare"},
	},
	{
		Vendor:   "Akamai",
		Statuses: []int{http.StatusForbidden},
		Server:   []string{"akamai"},
	},
	{
		Vendor:      "Akamai",
		Statuses:    []int{http.StatusForbidden},
		BodyMarkers: []string{"Reference #", "Access Denied"},
		BodyAll:     true,
	},
	{
		Vendor:      "DataDome",
		Statuses:    []int{http.StatusForbidden},
		Server:      []string{"datadome"},
		Headers:     []string{"X-DataDome", "X-DataDome-Response"},
		BodyMarkers: []string{"geo.captcha-delivery.com", "datadome"},
	},
	{
		Vendor:      "PerimeterX",
		Statuses:    []int{http.StatusForbidden},
		Headers:     []string{"X-Px-Captcha"},
		BodyMarkers: []string{"client.perimeterx.net", "px-captcha", "_pxBlock"},
	},
}

// Match reports whether res carries this signature.
func (s Signature) Match(res *Response) bool {
	if !containsStatus(s.Statuses, res.StatusCode) {
		return false
	}

	server := strings.ToLower(res.Headers.Get("Server"))
	for _, marker := range s.Server {
		if strings.Contains(server, marker) {
			return true
		}
	}
	for _, h := range s.Headers {
		if res.Headers.Get(h) != "" {
			return true
		}
	}

	if len(s.BodyMarkers) == 0 {
		return false
	}
	hits := 0
	for _, marker := range s.BodyMarkers {
		if bytes.Contains(res.Body, []byte(marker)) {
			hits++
		}
	}
	if s.BodyAll {
		return hits == len(s.BodyMarkers)
	}
	return hits > 0
}

// Detect returns the vendor of the first matching signature, or "" when the
// response looks like a normal page.
func Detect(res *Response, signatures []Signature) string {
	if res == nil {
		return ""
	}
	for _, sig := range signatures {
		if sig.Match(res) {
			return sig.Vendor
		}
	}
	return ""
}

func containsStatus(statuses []int, code int) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == code {
			return true
		}
	}
	return false
}
