package mws

import (
	"crypto/md5" // #nosec G501 -- Content-MD5 response validation is part of the API contract
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"net/http"
)

// Response is the outcome of one marketplace API call. The body is kept as
// raw bytes, interpretation is left to the caller.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Valid reports whether the response passed the generic validity check: an
// HTTP 200 status and, when the service sent a Content-MD5 header, a body
// digest that matches it.
func (r *Response) Valid() bool {
	return r != nil && r.StatusCode == http.StatusOK && r.VerifyContentMD5() == nil
}

// VerifyContentMD5 checks the body digest against the Content-MD5 response
// header. Responses without the header pass.
func (r *Response) VerifyContentMD5() error {
	if r == nil || len(r.Header) == 0 {
		return nil
	}

	want := r.Header.Get("Content-MD5")
	if want == "" {
		return nil
	}

	sum := md5.Sum(r.Body) // #nosec G401 -- the service publishes body digests as MD5
	got := base64.StdEncoding.EncodeToString(sum[:])
	if got != want {
		return fmt.Errorf("content-md5 mismatch: header %s, body %s", want, got)
	}

	return nil
}

// remoteError is one Error element of the service's error envelope.
type remoteError struct {
	Type    string `xml:"Type"`
	Code    string `xml:"Code"`
	Message string `xml:"Message"`
}

// errorResponse mirrors the service's error envelope.
type errorResponse struct {
	XMLName   xml.Name      `xml:"ErrorResponse"`
	Errors    []remoteError `xml:"Error"`
	RequestID string        `xml:"RequestID"`
}

// DecodeRemoteError extracts the first error code and message from an error
// response body. ok is false when the body is not an error envelope.
func DecodeRemoteError(body []byte) (code, message string, ok bool) {
	var envelope errorResponse
	if err := xml.Unmarshal(body, &envelope); err != nil {
		return "", "", false
	}

	if len(envelope.Errors) == 0 {
		return "", "", false
	}

	return envelope.Errors[0].Code, envelope.Errors[0].Message, true
}
