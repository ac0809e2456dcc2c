package mws

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"sort"
	"strings"
)

const (
	// signatureMethod is the HMAC algorithm declared in signed requests.
	signatureMethod = "HmacSHA256"
	// signatureVersion is the request signing scheme this client implements.
	signatureVersion = "2"
)

// percentEncode applies the RFC 3986 encoding the signing scheme requires.
// Spaces encode as %20, never +.
func percentEncode(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}

// canonicalQuery builds the canonical query string: parameters sorted by key
// in byte order, percent-encoded, joined with & in key=value form.
func canonicalQuery(params url.Values) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		for _, value := range params[key] {
			pairs = append(pairs, percentEncode(key)+"="+percentEncode(value))
		}
	}

	return strings.Join(pairs, "&")
}

// stringToSign assembles the four-line signing payload: HTTP method,
// lowercased host, request path, canonical query.
func stringToSign(method, host, path string, params url.Values) string {
	if path == "" {
		path = "/"
	}

	return strings.Join([]string{method, strings.ToLower(host), path, canonicalQuery(params)}, "\n")
}

// sign computes the base64 HMAC-SHA256 signature over the canonical request.
func sign(secretKey, method, host, path string, params url.Values) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	_, _ = mac.Write([]byte(stringToSign(method, host, path, params))) // HMAC Write never returns an error
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
