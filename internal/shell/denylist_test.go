package shell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDenylist(t *testing.T) {
	d := DefaultDenylist()

	for _, token := range DefaultDeniedCommands() {
		assert.True(t, d.Contains(token), "expected %q to be denied", token)
	}
	assert.False(t, d.Contains("ls"))
	assert.False(t, d.Contains("git"))
}

func TestDenylistCheck(t *testing.T) {
	d := DefaultDenylist()

	t.Run("rejects denied leading token", func(t *testing.T) {
		err := d.Check("rm -rf /tmp/x")
		require.Error(t, err)

		var denied *DeniedError
		require.True(t, errors.As(err, &denied))
		assert.Equal(t, "rm", denied.Token)
		assert.Equal(t, "rm -rf /tmp/x", denied.Command)
	})

	t.Run("rejects denied command later in a chain", func(t *testing.T) {
		var denied *DeniedError
		require.ErrorAs(t, d.Check("ls && sudo reboot"), &denied)
		assert.Equal(t, "sudo", denied.Token)
	})

	t.Run("compares whole tokens only", func(t *testing.T) {
		assert.NoError(t, d.Check("rmdir build"))
		assert.NoError(t, d.Check("users"))
		assert.NoError(t, d.Check("killall -0 nothing"))
	})

	t.Run("denied word as argument is fine", func(t *testing.T) {
		assert.NoError(t, d.Check("echo rm"))
		assert.NoError(t, d.Check("man sudo"))
	})

	t.Run("allows ordinary commands", func(t *testing.T) {
		assert.NoError(t, d.Check("git log --oneline -n 5"))
		assert.NoError(t, d.Check("ls *.go | wc -l"))
		assert.NoError(t, d.Check("echo $HOME $(date)"))
		assert.NoError(t, d.Check("[ -d .git ] && git status"))
	})

	t.Run("rejects escaped and quoted names", func(t *testing.T) {
		for _, command := range []string{`\rm -rf x`, `r\m -rf x`, `$'rm' -rf x`, `"r"m x`, `'/bin/rm' x`} {
			var denied *DeniedError
			require.ErrorAs(t, d.Check(command), &denied, command)
			assert.Equal(t, "rm", denied.Token, command)
		}
	})

	t.Run("rejects wrapped commands", func(t *testing.T) {
		for _, command := range []string{
			"command rm x",
			"env FOO=1 rm x",
			"nice -n 5 rm x",
			"find . -print0 | xargs -0 rm",
			"bash -c 'rm -rf x'",
			"sh -lc 'echo hi && sudo ls'",
			"eval rm x",
			"trap 'rm x' EXIT",
			"echo $(rm x)",
		} {
			var denied *DeniedError
			assert.ErrorAs(t, d.Check(command), &denied, command)
		}
	})

	t.Run("rejects names only known at run time", func(t *testing.T) {
		for _, command := range []string{"$cmd -rf x", "$(echo rm) x", "/bin/r? x", "{rm,x}", "env $cmd x"} {
			var denied *DeniedError
			require.ErrorAs(t, d.Check(command), &denied, command)
			assert.Contains(t, denied.Error(), "only known at run time", command)
		}
	})

	t.Run("rejects input that does not parse", func(t *testing.T) {
		for _, command := range []string{"echo hi\n}\ntouch x\n{", "echo 'unterminated"} {
			var denied *DeniedError
			require.ErrorAs(t, d.Check(command), &denied, command)
			assert.Contains(t, denied.Error(), "could not be parsed", command)
		}
	})
}

func TestDenylistWith(t *testing.T) {
	base := NewDenylist("rm", " rm ", "", "sudo")
	assert.Equal(t, []string{"rm", "sudo"}, base.Tokens())

	extended := base.With("curl")
	assert.Equal(t, []string{"curl", "rm", "sudo"}, extended.Tokens())
	assert.False(t, base.Contains("curl"), "With must not mutate the receiver")
}
