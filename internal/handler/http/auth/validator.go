package auth

import (
	"fmt"
	"os"
	"strings"
)

// minPasswordLength is the floor for the editor password.
const minPasswordLength = 12

// weakPasswordList holds common passwords rejected outright, plus
// prefixes that catch lazy variations like "editor1234567890".
var weakPasswordList = []string{
	"admin",
	"password",
	"123456",
	"secret",
	"admin123",
	"password123",
	"123456789",
	"12345678",
	"qwerty",
	"abc123",
	"letmein",
	"welcome",
	"monkey",
	"1234567890",
	"password1",
	"admin1",
	"test",
	"test123",
	"default",
	"root",
	"editor",
	"editor123",
}

var keyboardPatterns = []string{
	"qwertyuiop",
	"asdfghjkl",
	"zxcvbnm",
	"qwerty",
	"asdfgh",
	"zxcvb",
}

// ValidateEditorCredentials checks EDITOR_EMAIL and EDITOR_PASSWORD at
// startup, before the server accepts traffic. It rejects empty values,
// passwords under 12 characters, numeric and keyboard patterns, and
// anything on the weak password list. Error messages are safe to log:
// they never echo the password itself.
func ValidateEditorCredentials() error {
	email := os.Getenv("EDITOR_EMAIL")
	pass := os.Getenv("EDITOR_PASSWORD")

	if email == "" {
		return fmt.Errorf("editor credentials validation failed: EDITOR_EMAIL must not be empty")
	}
	if pass == "" {
		return fmt.Errorf("editor credentials validation failed: EDITOR_PASSWORD must not be empty")
	}
	if len(pass) < minPasswordLength {
		return fmt.Errorf("editor credentials validation failed: EDITOR_PASSWORD must be at least %d characters (current length: %d)", minPasswordLength, len(pass))
	}

	// pattern checks run before the blacklist so a numeric sequence or
	// keyboard walk gets its specific message rather than the generic
	// weak-prefix one
	if isSimpleNumericPattern(pass) {
		return fmt.Errorf("editor credentials validation failed: EDITOR_PASSWORD must not be a simple numeric pattern")
	}
	if isKeyboardPattern(pass) {
		return fmt.Errorf("editor credentials validation failed: EDITOR_PASSWORD must not be a keyboard pattern")
	}

	lowerPass := strings.ToLower(pass)
	for _, weak := range weakPasswordList {
		if lowerPass == weak {
			return fmt.Errorf("editor credentials validation failed: EDITOR_PASSWORD must not be a weak password")
		}
		// a weak word plus a short suffix is still weak
		if strings.HasPrefix(lowerPass, weak) && len(pass) < minPasswordLength+5 {
			return fmt.Errorf("editor credentials validation failed: EDITOR_PASSWORD must not be based on common weak passwords")
		}
	}

	return nil
}

// isSimpleNumericPattern reports whether pass is a repeated character
// or an all-digit ascending/descending sequence (with 9->0 wraparound),
// e.g. "111111111111" or "123456789012".
func isSimpleNumericPattern(pass string) bool {
	if len(pass) < minPasswordLength {
		return false
	}

	if isRepeatedChar(pass) {
		return true
	}

	for _, ch := range pass {
		if ch < '0' || ch > '9' {
			return false
		}
	}

	isAscending := true
	isDescending := true
	for i := 1; i < len(pass); i++ {
		diff := int(pass[i]) - int(pass[i-1])
		if diff != 1 && diff != -9 {
			isAscending = false
		}
		if diff != -1 && diff != 9 {
			isDescending = false
		}
	}

	return isAscending || isDescending
}

// isRepeatedChar reports whether pass is one character repeated.
func isRepeatedChar(pass string) bool {
	if len(pass) == 0 {
		return false
	}

	first := pass[0]
	for i := 1; i < len(pass); i++ {
		if pass[i] != first {
			return false
		}
	}
	return true
}

// isKeyboardPattern reports whether pass contains a keyboard walk like
// "qwertyuiop" or its reverse.
func isKeyboardPattern(pass string) bool {
	lowerPass := strings.ToLower(pass)

	for _, pattern := range keyboardPatterns {
		if strings.Contains(lowerPass, pattern) || strings.Contains(lowerPass, reverse(pattern)) {
			return true
		}
	}
	return false
}

func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
