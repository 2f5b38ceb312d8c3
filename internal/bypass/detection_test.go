package bypass

import (
	"net/http"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		res  *Response
		want string
	}{
		{
			name: "normal page",
			res:  &Response{StatusCode: 200, Headers: http.Header{"Server": {"nginx"}}, Body: []byte("<p>OK</p>")},
			want: "",
		},
		{
			name: "cloudflare server header",
			res:  &Response{StatusCode: 403, Headers: http.Header{"Server": {"cloudflare"}}, Body: []byte("Access Denied")},
			want: "Cloudflare",
		},
		{
			name: "cloudflare turnstile body",
			res:  &Response{StatusCode: 503, Headers: http.Header{}, Body: []byte("<html>... cf-turnstile ...</html>")},
			want: "Cloudflare",
		},
		{
			name: "cloudflare marker on 200 is ignored",
			res:  &Response{StatusCode: 200, Headers: http.Header{}, Body: []byte("cf-turnstile")},
			want: "",
		},
		{
			name: "akamai server",
			res:  &Response{StatusCode: 403, Headers: http.Header{"Server": {"AkamaiGHost"}}},
			want: "Akamai",
		},
		{
			name: "akamai reference page needs both markers",
			res:  &Response{StatusCode: 403, Headers: http.Header{}, Body: []byte("Access Denied. Reference #18.abc")},
			want: "Akamai",
		},
		{
			name: "access denied alone",
			res:  &Response{StatusCode: 403, Headers: http.Header{}, Body: []byte("Access Denied")},
			want: "",
		},
		{
			name: "datadome header",
			res:  &Response{StatusCode: 403, Headers: http.Header{"X-Datadome": {"protected"}}},
			want: "DataDome",
		},
		{
			name: "perimeterx body",
			res:  &Response{StatusCode: 403, Headers: http.Header{}, Body: []byte(`<div id="px-captcha"></div>`)},
			want: "PerimeterX",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.res, DefaultSignatures); got != tt.want {
				t.Errorf("Detect() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetect_Nil(t *testing.T) {
	if got := Detect(nil, DefaultSignatures); got != "" {
		t.Errorf("expected empty vendor for nil response, got %q", got)
	}
}
