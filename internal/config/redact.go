package config

import (
	"net/url"
	"regexp"
	"strings"
)

// dsnPassword matches password=... in a keyword/value connection string.
var dsnPassword = regexp.MustCompile(`(?i)(password\s*=\s*)('(?:[^'\\]|\\.)*'|\S+)`) //nolint:gochecknoglobals // compiled once

// RedactURL hides the password in a PostgreSQL connection string, in either
// URL form (postgres://user:pw@host/db) or keyword/value form
// (host=... password=pw). Anything it cannot recognise is returned unchanged.
func RedactURL(raw string) string {
	if raw == "" {
		return ""
	}

	if !strings.Contains(raw, "://") {
		return dsnPassword.ReplaceAllString(raw, "${1}***")
	}

	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}

	if _, hasPassword := u.User.Password(); !hasPassword {
		return raw
	}

	// Splice the raw string rather than re-encoding the URL, so the output
	// differs from the input only in the password.
	afterScheme := strings.Index(raw, "://") + len("://")

	authority := raw[afterScheme:]
	if end := strings.IndexAny(authority, "/?"); end >= 0 {
		authority = authority[:end]
	}

	at := strings.LastIndex(authority, "@")
	if at < 0 {
		return raw
	}

	userinfo := raw[afterScheme : afterScheme+at]

	colon := strings.Index(userinfo, ":")
	if colon < 0 {
		return raw
	}

	return raw[:afterScheme] + userinfo[:colon+1] + "***" + raw[afterScheme+at:]
}
