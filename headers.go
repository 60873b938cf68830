package ninekw

import stealth "github.com/anatolykoptev/go-stealth"

const formContentType = "application/x-www-form-urlencoded"

// apiHeaders returns the headers sent with every 9kw request.
func apiHeaders(userAgent string, form bool) map[string]string {
	h := map[string]string{
		"user-agent":      userAgent,
		"accept":          "application/json, text/plain, */*",
		"accept-language": "en-US,en;q=0.9",
		"accept-encoding": "gzip, deflate, br",
	}
	if form {
		h["content-type"] = formContentType
	}
	if ch := stealth.ClientHintsHeaders(userAgent); ch != nil {
		for k, v := range ch {
			h[k] = v
		}
	}
	return h
}

// apiHeaderOrder keeps the header order consistent with the TLS profile.
var apiHeaderOrder = []string{
	"content-type",
	"sec-ch-ua",
	"sec-ch-ua-mobile",
	"sec-ch-ua-platform",
	"user-agent",
	"accept",
	"accept-language",
	"accept-encoding",
}
