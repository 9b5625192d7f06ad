package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanvas-io/kanvas/pkg/domain"
)

const shopDoc = `
name: shop
component:
  - name: settings
    type: config
    properties:
      conf:
        app.yaml: "mode: prod"
  - name: db
    type: store
    image: postgres:16
  - name: api
    type: webservice
    image: shop/api:1
    dependsOn: [settings, db]
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "none.yaml")))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCompileFile_JSON(t *testing.T) {
	path := writeDoc(t, "shop.yaml", shopDoc)

	out, err := run(t, "compile", "--json", "--file", path)
	require.NoError(t, err)

	var steps []domain.Step
	require.NoError(t, json.Unmarshal([]byte(out), &steps))
	require.Len(t, steps, 2)
	assert.ElementsMatch(t, []string{"settings", "db"}, steps[0].Components)
	assert.Equal(t, []string{"api"}, steps[1].Components)
}

func TestGraphFile(t *testing.T) {
	path := writeDoc(t, "shop.yaml", shopDoc)

	out, err := run(t, "graph", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "graph LR")
	assert.Contains(t, out, `subgraph step1["step-1"]`)
}

func TestValidate(t *testing.T) {
	out, err := run(t, "validate", writeDoc(t, "shop.yaml", shopDoc))
	require.NoError(t, err)
	assert.Contains(t, out, "3 components, 2 dependencies")

	_, err = run(t, "validate", writeDoc(t, "bad.yaml", "component:\n  - type: store\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidDescriptor)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "kanvas version")
}
