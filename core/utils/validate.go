package utils

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var (
	usernameRe        = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,32}$`)
	passwordMinLength = 6
	passwordMaxLength = 128
)

func ValidateUsername(s string) error {
	if !usernameRe.MatchString(s) {
		return errors.New("invalid username")
	}
	return nil
}

func ValidatePassword(s string) error {
	if len(s) < passwordMinLength {
		return errors.New("password too short (min 6 chars)")
	}
	if len(s) > passwordMaxLength {
		return errors.New("password too long (max 128 chars)")
	}
	return nil
}

// ValidateRedirectURL accepts absolute http(s) URLs only.
func ValidateRedirectURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("redirect_url is required")
	}
	u, err := url.Parse(s)
	if err != nil {
		return errors.New("redirect_url is not a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("redirect_url must use http or https")
	}
	if u.Host == "" {
		return errors.New("redirect_url must be absolute")
	}
	return nil
}
