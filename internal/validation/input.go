// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxTitleLen   = 300
	maxContentLen = 100000
	maxExcerptLen = 1000
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\p{Han}]+$`)

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if len([]rune(username)) < 3 {
		return fmt.Errorf("username must be at least 3 characters long")
	}

	if len([]rune(username)) > 30 {
		return fmt.Errorf("username must not exceed 30 characters")
	}

	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers, underscores, and hyphens")
	}

	if username[0] == '_' || username[0] == '-' || username[len(username)-1] == '_' || username[len(username)-1] == '-' {
		return fmt.Errorf("username cannot start or end with underscore or hyphen")
	}

	return nil
}

// ValidatePassword checks if a password meets minimum requirements
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters long")
	}

	if len(password) > 128 {
		return fmt.Errorf("password must not exceed 128 characters")
	}

	return nil
}

// ValidateWorkFields checks title/content/excerpt of a submission or edit.
func ValidateWorkFields(title, content, excerpt string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required")
	}
	if len([]rune(title)) > maxTitleLen {
		return fmt.Errorf("title must not exceed %d characters", maxTitleLen)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content is required")
	}
	if len([]rune(content)) > maxContentLen {
		return fmt.Errorf("content must not exceed %d characters", maxContentLen)
	}
	if len([]rune(excerpt)) > maxExcerptLen {
		return fmt.Errorf("excerpt must not exceed %d characters", maxExcerptLen)
	}
	return nil
}

// ValidateCommentContent checks the body of a comment.
func ValidateCommentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content is required")
	}
	if len([]rune(content)) > 5000 {
		return fmt.Errorf("comment must not exceed 5000 characters")
	}
	return nil
}
