package styles

import (
	"os"

	"github.com/muesli/termenv"
)

var (
	stdout = termenv.NewOutput(os.Stdout)
	stderr = termenv.NewOutput(os.Stderr)

	ERROR = func(s string) string {
		return stderr.String(s).
			Foreground(stderr.Color("9")).
			String()
	}
	TITLE = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("12")).
			Bold().
			String()
	}
	PROMPT = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("11")).
			String()
	}
	LOG = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("8")).
			String()
	}
)

// OUTCOME colours an execution outcome. Failures such as "failed",
// "timeout", "exited" and "error" are red.
func OUTCOME(outcome string) string {
	color := "9"
	switch outcome {
	case "ok":
		color = "10"
	case "empty", "denied":
		color = "11"
	case "disabled", "closed", "canceled":
		color = "8"
	}
	return stdout.String(outcome).
		Foreground(stdout.Color(color)).
		String()
}
