// Package parse turns raw log text into structured LogLines.
//
// # Overview
//
// Each log dialect is handled by one Parser. Parsers are held by a Registry
// in priority order (specific formats before generic ones) and share a small
// set of extraction utilities for content classification, level detection,
// and component detection.
//
// # Parser contract
//
// TryParse never fails loudly: it reports no-match through its boolean
// result, so a malformed line can never abort ingestion. Lines that match no
// parser at all still come back from ParseLine as plain text carrying the
// original raw input.
//
// # Auto-detection
//
// Registry.Detect scores a leading sample of the source and selects the
// first parser whose match rate exceeds the configured threshold (50% by
// default, over a 20-line sample). When no parser qualifies, which is
// typical for merged multi-component streams mixing several formats, the
// registry parses each line independently against every parser instead.
//
// Detection is deterministic for a fixed sample and a fixed registration
// order.
package parse
