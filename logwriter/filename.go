// File: logwriter/filename.go
// Author: momentics <momentics@gmail.com>
//
// Filename template per spec §4.6:
// {prefix_}{YYYYMMDD}_{HHMMSS}{_partNNN}.{ext}
// Prefixes are sanitized by stripping the characters illegal on common
// filesystems and any path-traversal sequences.

package logwriter

import (
	"fmt"
	"strings"
	"time"
)

var illegalChars = []string{"<", ">", ":", "\"", "/", "\\", "|", "?", "*"}

// SanitizePrefix strips filesystem-illegal characters and path-traversal
// sequences from a user-supplied filename prefix.
func SanitizePrefix(prefix string) string {
	s := strings.ReplaceAll(prefix, "..", "")
	for _, c := range illegalChars {
		s = strings.ReplaceAll(s, c, "")
	}
	return s
}

// BuildFilename constructs one part's filename from the session start
// time, a sanitized prefix, a 1-based part number, and the format's file
// extension.
func BuildFilename(prefix string, start time.Time, part int, ext string) string {
	clean := SanitizePrefix(prefix)
	var b strings.Builder
	if clean != "" {
		b.WriteString(clean)
		b.WriteByte('_')
	}
	b.WriteString(start.UTC().Format("20060102_150405"))
	fmt.Fprintf(&b, "_part%03d", part)
	b.WriteByte('.')
	b.WriteString(ext)
	return b.String()
}
