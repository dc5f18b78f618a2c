package shell

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertQuotes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no quotes", "ls -la", "ls -la"},
		{"double quotes become single", `echo "hello world"`, `echo 'hello world'`},
		{"escaped quotes are preserved", `echo \"hi\"`, `echo \"hi\"`},
		{"mixed", `grep "a" \"b\"`, `grep 'a' \"b\"`},
		{"leading quote", `"ls"`, `'ls'`},
		{"single quotes untouched", `echo 'x'`, `echo 'x'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ConvertQuotes(tt.input))
		})
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"trims whitespace", "  ls -la \n", "ls -la"},
		{"strips semicolons", "ls; whoami", "ls whoami"},
		{"strips backticks", "echo `id`", "echo id"},
		{"strips lone ampersand", "sleep 1 & echo hi", "sleep 1  echo hi"},
		{"keeps double ampersand", "make && make test", "make && make test"},
		{"keeps pipes", "git log | head -n 5", "git log | head -n 5"},
		{"keeps stderr redirection", "ls 2>&1", "ls 2>&1"},
		{"keeps redirect to stderr", "echo oops >&2", "echo oops >&2"},
		{"keeps combined redirection", "ls &> out.txt", "ls &> out.txt"},
		{"keeps characters inside double quotes", `echo "a; b & c"`, `echo "a; b & c"`},
		{"keeps characters inside single quotes", `echo 'a; b'`, `echo 'a; b'`},
		{"keeps escaped semicolon", `find . -exec ls {} \;`, `find . -exec ls {} \;`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sanitize(tt.input))
		})
	}
}

func TestLeadingTokens(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"simple command", "ls -la", []string{"ls"}},
		{"absolute path", "/bin/rm -rf x", []string{"rm"}},
		{"env assignment", "FOO=1 rm x", []string{"rm"}},
		{"chained commands", "git status && rm x", []string{"git", "rm"}},
		{"pipeline", "ps aux | grep go", []string{"ps", "grep"}},
		{"quoted command name", `'sudo' ls`, []string{"sudo"}},
		{"subshell", "(cd /tmp && ls)", []string{"cd", "ls"}},
		{"empty", "", nil},
		{"backslash escapes are removed", `\rm x && tou\ch y`, []string{"rm", "touch"}},
		{"ansi-c quoting", `$'rm' x`, []string{"rm"}},
		{"concatenated quotes", `"r"'m' x`, []string{"rm"}},
		{"command substitution", "echo $(whoami)", []string{"echo", "whoami"}},
		{"wrapped command", "env FOO=1 nice -n 5 rm x", []string{"env", "nice", "5", "rm", "x"}},
		{"script passed to a shell", "bash -lc 'cd /tmp && rm x'", []string{"bash", "cd", "rm"}},
		{"eval", "eval rm x", []string{"eval", "rm"}},
		{"dynamic names are skipped", "$cmd x", nil},
		{"unparseable", "echo 'unterminated", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, LeadingTokens(tt.input))
		})
	}
}

func TestLeadingToken(t *testing.T) {
	assert.Equal(t, "git", LeadingToken("git log --oneline"))
	assert.Equal(t, "", LeadingToken("   "))
}

func TestParseCommands(t *testing.T) {
	t.Run("dynamic names keep their source text", func(t *testing.T) {
		tests := []struct {
			input string
			word  string
		}{
			{"$cmd x", "$cmd"},
			{"$(echo rm) x", "$(echo rm)"},
			{"/bin/r? x", "/bin/r?"},
			{"{rm,x}", "{rm,x}"},
			{"env $cmd", "$cmd"},
			{`bash -c "$script"`, `"$script"`},
		}
		for _, tt := range tests {
			names, err := ParseCommands(tt.input)
			require.NoError(t, err, tt.input)

			dynamic := lo.Filter(names, func(n CommandName, _ int) bool { return n.Dynamic })
			require.Len(t, dynamic, 1, tt.input)
			assert.Equal(t, tt.word, dynamic[0].Name, tt.input)
		}
	})

	t.Run("test brackets are a plain command", func(t *testing.T) {
		names, err := ParseCommands("[ -f go.mod ] && echo yes")
		require.NoError(t, err)
		assert.Equal(t, []CommandName{{Name: "["}, {Name: "echo"}}, names)
	})

	t.Run("unbalanced braces do not parse", func(t *testing.T) {
		_, err := ParseCommands("echo hi\n}\ntouch x\n{")
		assert.Error(t, err)
	})

	t.Run("arguments are not commands", func(t *testing.T) {
		names, err := ParseCommands("ls *.go $HOME")
		require.NoError(t, err)
		assert.Equal(t, []CommandName{{Name: "ls"}}, names)
	})
}
