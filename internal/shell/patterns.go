package shell

import "strings"

// ErrorCategory names a class of shell failure recognised from output text.
type ErrorCategory string

const (
	CategoryCommandNotFound  ErrorCategory = "COMMAND_NOT_FOUND"
	CategoryPermissionDenied ErrorCategory = "PERMISSION_DENIED"
)

// ErrorPattern maps a category to the substrings that identify it.
// Matching is case-insensitive.
type ErrorPattern struct {
	Category ErrorCategory
	Patterns []string
}

// DefaultErrorPatterns returns the patterns recognised across bash, zsh,
// fish, cmd.exe and PowerShell.
func DefaultErrorPatterns() []ErrorPattern {
	return []ErrorPattern{
		{
			Category: CategoryCommandNotFound,
			Patterns: []string{
				"command not found",           // bash, zsh
				"is not recognized",           // cmd.exe
				": No such file or directory", // common unix
				"CommandNotFoundException",    // powershell
				"Unknown command",             // fish
				"not found in PATH",
				"not an executable",
				"cannot find the path",
			},
		},
		{
			Category: CategoryPermissionDenied,
			Patterns: []string{
				"Permission denied",
				"Access is denied",
			},
		},
	}
}

// MatchError returns the first category whose pattern occurs in output.
// Categories are tried in order.
func MatchError(patterns []ErrorPattern, output string) (ErrorCategory, bool) {
	if output == "" {
		return "", false
	}
	lower := strings.ToLower(output)
	for _, p := range patterns {
		for _, pattern := range p.Patterns {
			if pattern == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(pattern)) {
				return p.Category, true
			}
		}
	}
	return "", false
}
