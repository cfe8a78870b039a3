package video

import (
	"fmt"
	"strings"
)

// Staged file names used inside the engine's filesystem
const (
	TrimInputName          = "input.mp4"
	ConcatManifestName     = "concat.txt"
	ConcatIntermediateName = "temp_concat.mp4"
)

// ConcatInputName returns the staged name of the i-th concat input
func ConcatInputName(i int) string {
	return fmt.Sprintf("input%d.mp4", i)
}

// ValidateStagedName checks that name is a plain file name that stays inside the staging area
func ValidateStagedName(name string) error {
	switch {
	case name == "":
		return &ValidationError{Field: "name", Message: "must not be empty"}
	case name == "." || name == "..":
		return &ValidationError{Field: "name", Message: fmt.Sprintf("%q is not a file name", name)}
	case strings.ContainsAny(name, `/\`):
		return &ValidationError{Field: "name", Message: fmt.Sprintf("%q must not contain path separators", name)}
	case strings.ContainsAny(name, "\x00\n\r'"):
		return &ValidationError{Field: "name", Message: fmt.Sprintf("%q contains unsupported characters", name)}
	}
	return nil
}
