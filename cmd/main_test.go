package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()

	for _, name := range []string{"serve", "migrate", "create-user"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
		assert.NotNil(t, cmd.PreRunE)
	}
}

func TestCreateUser_RejectsInput(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")

	tests := []struct {
		name     string
		args     []string
		errorMsg string
	}{
		{
			name:     "unknown role",
			args:     []string{"--username", "root", "--email", "root@example.com", "--password", "secret1", "--role", "wizard"},
			errorMsg: "unknown role",
		},
		{
			name:     "invalid email",
			args:     []string{"--username", "root", "--email", "root", "--password", "secret1"},
			errorMsg: "invalid user",
		},
		{
			name:     "missing username",
			args:     []string{"--email", "root@example.com", "--password", "secret1"},
			errorMsg: "username",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newRootCommand()
			root.SilenceErrors = true
			root.SetArgs(append([]string{"create-user"}, tt.args...))

			err := root.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}
