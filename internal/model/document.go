package model

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// MaxDocumentSize is the default limit on how much of a response body the
// extractor reads. Anything beyond it is never read.
const MaxDocumentSize = 5 * 1024 * 1024 // 5 MB

// RawDocument is a fetched web page.
// It only lives for the duration of a single extraction call and is owned
// by the extractor; nothing else holds on to it.
type RawDocument struct {
	// URL is the URL that was requested.
	URL string

	// FinalURL is the URL after following redirects.
	// Relative links on the page are resolved against it.
	FinalURL string

	// StatusCode is the HTTP response status code.
	StatusCode int

	// ContentType is the MIME type of the response.
	ContentType string

	// Raw contains the response body bytes.
	Raw []byte

	// Hash is the SHA3-256 hash of Raw, hex encoded.
	// Used to tell whether a cached extraction is still current.
	Hash string
}

// ComputeHash calculates and sets the SHA3-256 hash of the raw content.
//
// Design decision: We use SHA3 rather than SHA-256 because golang.org/x/crypto
// is already part of our dependency set and SHA3 has no length-extension
// weakness; the choice is otherwise arbitrary for change detection.
func (d *RawDocument) ComputeHash() {
	if len(d.Raw) == 0 {
		d.Hash = ""
		return
	}

	sum := sha3.Sum256(d.Raw)
	d.Hash = hex.EncodeToString(sum[:])
}

// BaseURL returns the URL that relative links should be resolved against.
func (d *RawDocument) BaseURL() string {
	if d.FinalURL != "" {
		return d.FinalURL
	}
	return d.URL
}

// IsHTML reports whether the content type indicates HTML.
// An empty content type is treated as HTML because many school sites
// omit the header entirely.
func (d *RawDocument) IsHTML() bool {
	if d.ContentType == "" {
		return true
	}
	ct := strings.ToLower(d.ContentType)
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

