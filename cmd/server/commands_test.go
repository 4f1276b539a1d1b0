package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutesCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"routes"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "module-name-here")
	assert.Contains(t, out.String(), "/module-specific-root/:id")
	assert.Contains(t, out.String(), "usuarios.controller.usuarios::index")
}

func TestServeCommandBadConfig(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"serve", "--config", "/nonexistent/usuarios.yaml"})
	assert.Error(t, root.Execute())
}
