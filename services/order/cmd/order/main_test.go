package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace_admin/pkg/tokens"
)

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "--env-file", "", "--sub", "V1", "--role", "vendor", "--ttl", "5m"})
	require.NoError(t, rootCmd.Execute())

	claims, err := tokens.AccessClaimsFromToken(strings.TrimSpace(out.String()), []byte("cli-secret"))
	require.NoError(t, err)
	require.Equal(t, "V1", claims.Subject)
	require.Equal(t, "vendor", claims.Role)
}

func TestTokenCommand_UnknownRole(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"token", "--env-file", "", "--sub", "V1", "--role", "root"})
	require.Error(t, rootCmd.Execute())
}
