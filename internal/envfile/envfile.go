// ABOUTME: In-place patching of KEY=VALUE environment files
// ABOUTME: Replaces the first existing KEY= line or appends a new one; other bytes are untouched

package envfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

// Errors returned by Set
var (
	ErrInvalidKey   = errors.New("invalid env key")
	ErrInvalidValue = errors.New("invalid env value")
)

// Set returns content with key set to value.
//
// The first line matching ^KEY=.* is replaced by KEY=value. When no line
// matches, "\nKEY=value" is appended to the content as-is. Everything else
// in content is preserved byte for byte.
func Set(content, key, value string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	if strings.ContainsAny(value, "\r\n") {
		return "", fmt.Errorf("%w: values must fit on one line", ErrInvalidValue)
	}

	line := key + "=" + value
	re := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(key) + `=.*`)
	loc := re.FindStringIndex(content)
	if loc == nil {
		return content + "\n" + line, nil
	}

	end := loc[1]
	// Keep a CRLF terminator intact.
	if end > loc[0] && content[end-1] == '\r' {
		end--
	}
	return content[:loc[0]] + line + content[end:], nil
}

// SetFile applies Set to the file at path and writes it back. A missing
// file is treated as empty and created.
func SetFile(path, key, value string) error {
	var content string
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		content = string(data)
	case errors.Is(err, fs.ErrNotExist):
	default:
		return fmt.Errorf("reading %s: %w", path, err)
	}

	updated, err := Set(content, key, value)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(updated), 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Get returns the value of the first KEY= line in content.
func Get(content, key string) (string, bool) {
	prefix := key + "="
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.HasPrefix(line, prefix) {
			return strings.TrimPrefix(line, prefix), true
		}
	}
	return "", false
}

// CopyIfMissing copies src to dst unless dst already exists.
// Reports whether a copy was made.
func CopyIfMissing(src, dst string) (bool, error) {
	if _, err := os.Stat(dst); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("checking %s: %w", dst, err)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", src, err)
	}
	if err := os.WriteFile(dst, data, 0600); err != nil {
		return false, fmt.Errorf("writing %s: %w", dst, err)
	}
	return true, nil
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if strings.ContainsAny(key, "=\n\r \t#") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
