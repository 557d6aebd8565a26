package normalize

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

/*
Responsibilities
- Parse raw input lines (URLs or bare IDs) into canonical video keys
- Deduplicate keys while preserving first-seen order

Accepted shapes
- Bare 11-character video ID
- youtube.com/watch?v=<id> (with or without www/m/music subdomain)
- youtu.be/<id>
- youtube.com/embed/<id>
- youtube.com/shorts/<id>
- youtube.com/live/<id>
- youtube.com/v/<id>

Pure functions; no network, no cache, no side effects.
*/

// keyPattern matches a canonical 11-character video identifier.
var keyPattern = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)

// path prefixes that carry the video key as the following segment
var keyPathPrefixes = []string{"/embed/", "/shorts/", "/live/", "/v/"}

// ExtractKey normalizes one raw input into a VideoKey.
func ExtractKey(raw string) (VideoKey, *NormalizeError) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &NormalizeError{
			Message: "input is empty after trimming whitespace",
			Cause:   ErrCauseEmptyInput,
		}
	}

	// Bare ID short-circuit
	if keyPattern.MatchString(trimmed) {
		return VideoKey(trimmed), nil
	}

	// Scheme-less URLs like "youtube.com/watch?v=..." parse as a bare
	// path; force a scheme so the host is populated.
	candidate := trimmed
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}

	parsed, err := url.Parse(candidate)
	if err != nil || parsed.Host == "" {
		return "", &NormalizeError{
			Message: fmt.Sprintf("cannot parse %q as a video URL", trimmed),
			Cause:   ErrCauseUnrecognizedShape,
		}
	}

	host := strings.ToLower(parsed.Hostname())
	switch {
	case host == "youtu.be":
		return keyFromPathSegment(trimmed, strings.TrimPrefix(parsed.Path, "/"))

	case host == "youtube.com" || strings.HasSuffix(host, ".youtube.com"):
		if v := parsed.Query().Get("v"); v != "" {
			return validateKey(trimmed, v)
		}
		for _, prefix := range keyPathPrefixes {
			if strings.HasPrefix(parsed.Path, prefix) {
				return keyFromPathSegment(trimmed, strings.TrimPrefix(parsed.Path, prefix))
			}
		}
	}

	return "", &NormalizeError{
		Message: fmt.Sprintf("no video key found in %q", trimmed),
		Cause:   ErrCauseUnrecognizedShape,
	}
}

// NormalizeBatch resolves every raw input in order and deduplicates
// successfully extracted keys, preserving first-seen order. Inputs that
// fail normalization keep their position with an attached error; raw
// inputs that are pure whitespace are skipped entirely, matching the
// behavior of pasting a list with blank lines.
func NormalizeBatch(inputs []string) []Resolution {
	seen := NewSet[VideoKey]()
	resolutions := make([]Resolution, 0, len(inputs))

	for _, raw := range inputs {
		if strings.TrimSpace(raw) == "" {
			continue
		}

		key, err := ExtractKey(raw)
		if err != nil {
			resolutions = append(resolutions, Resolution{raw: raw, err: err})
			continue
		}
		if seen.Contains(key) {
			continue
		}
		seen.Add(key)
		resolutions = append(resolutions, Resolution{raw: raw, key: key})
	}

	return resolutions
}

func keyFromPathSegment(raw string, segment string) (VideoKey, *NormalizeError) {
	// Drop anything after the first slash: /embed/<id>/extra
	if idx := strings.IndexByte(segment, '/'); idx >= 0 {
		segment = segment[:idx]
	}
	return validateKey(raw, segment)
}

func validateKey(raw string, candidate string) (VideoKey, *NormalizeError) {
	if !keyPattern.MatchString(candidate) {
		return "", &NormalizeError{
			Message: fmt.Sprintf("candidate key %q in %q is not a valid video id", candidate, raw),
			Cause:   ErrCauseMalformedKey,
		}
	}
	return VideoKey(candidate), nil
}
