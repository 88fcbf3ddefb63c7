package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

const signatureHeader = "X-Twilio-Signature"

// ComputeSignature implements Twilio's request signing scheme: HMAC-SHA1 over
// the full request URL with all POST parameters appended in lexicographic
// order (name then value, no separators), base64-encoded.
// Ref: https://www.twilio.com/docs/usage/security#validating-requests
func ComputeSignature(authToken, requestURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(requestURL)
	for _, k := range keys {
		for _, v := range form[k] {
			b.WriteString(k)
			b.WriteString(v)
		}
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ValidateSignature checks the X-Twilio-Signature header of a parsed request.
// The request's form must already be populated (ParseForm).
//
// publicBaseURL is the externally visible scheme+host the provider signed
// against; behind a proxy the request's own Host header cannot be trusted.
func ValidateSignature(r *http.Request, authToken, publicBaseURL string) bool {
	got := r.Header.Get(signatureHeader)
	if got == "" {
		return false
	}
	requestURL := strings.TrimRight(publicBaseURL, "/") + r.URL.RequestURI()
	want := ComputeSignature(authToken, requestURL, r.PostForm)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
