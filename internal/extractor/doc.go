// Package extractor pulls candidate strategy statements and an inspection
// report link out of a single school web page.
//
// The extractor performs exactly one GET per call. It never follows links
// found on the page, never executes JavaScript and makes no attempt to be
// exhaustive. Pages are parsed with github.com/PuerkitoBio/goquery on top of
// golang.org/x/net/html, which recovers from malformed markup the way a
// browser does.
//
// Extraction runs in three passes over the parsed document:
//
//  1. Report link discovery. Anchors are visited in document order; the first
//     whose text or href mentions a report keyword is kept. A later link on the
//     canonical report host replaces it and ends the scan.
//  2. Heading pass. For every heading that mentions a strategy keyword, the
//     next five element siblings are inspected and paragraphs, list items and
//     divisions with enough text are collected.
//  3. Paragraph fallback. Only if the heading pass found nothing, long
//     paragraphs and list items that mention a strategy keyword are collected.
//
// Collected text is whitespace-normalized, short fragments are dropped and
// fragments that contain, or are contained in, an earlier fragment are
// discarded. At most five statements are kept, in discovery order.
//
// Failures never propagate as errors. A page that cannot be fetched or parsed
// yields an empty Extraction whose Err wraps ErrSourceUnavailable.
package extractor
