// Package validation holds input rules shared by the services and tools.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"unicode/utf8"
)

// MaxContentLength bounds post and comment bodies, in characters.
const MaxContentLength = 10000

var (
	ErrContentRequired = errors.New("Content is required")
	ErrContentTooLong  = fmt.Errorf("Content too long (max %d characters)", MaxContentLength)
	ErrInvalidMediaURL = errors.New("Invalid media URL")
	ErrInvalidFilename = errors.New("Invalid file name")
)

// Content trims raw and checks it is non-empty and within MaxContentLength.
func Content(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", ErrContentRequired
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return "", ErrContentTooLong
	}
	return content, nil
}

// MediaURLs trims the list, drops blanks and requires absolute http(s) URLs.
// An all-blank list yields nil.
func MediaURLs(raw []string, limit int) ([]string, error) {
	if len(raw) > limit {
		return nil, fmt.Errorf("Too many media attachments (max %d)", limit)
	}
	var out []string
	for _, u := range raw {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		parsed, err := url.Parse(u)
		if err != nil || (parsed.Scheme != "https" && parsed.Scheme != "http") || parsed.Host == "" {
			return nil, ErrInvalidMediaURL
		}
		out = append(out, u)
	}
	return out, nil
}

// FileExtension returns the lower-cased extension of a client supplied file
// name, or "" when it has none. Names containing path separators or control
// characters are rejected.
func FileExtension(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 255 || strings.ContainsAny(name, "/\\") {
		return "", ErrInvalidFilename
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return "", ErrInvalidFilename
		}
	}
	return strings.ToLower(path.Ext(name)), nil
}
