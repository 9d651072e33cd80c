package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	output = "text"
	classifyMedia = false
	processStorage = "memory"
	processMock = false

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return buf.String()
}

func TestClassifyText(t *testing.T) {
	out := execute(t, "classify", "SUPPRIMER", "149041830")
	assert.Contains(t, out, "DELETE (rule: delete)")
	assert.Contains(t, out, "149041830")
}

func TestClassifyAmbiguous(t *testing.T) {
	out := execute(t, "classify", "bonjour tout le monde")
	assert.Contains(t, out, "ambiguous")
}

func TestClassifyJSON(t *testing.T) {
	out := execute(t, "classify", "-o", "json", "Rac immeuble 149041830")

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "CREATE_ONE", got["action"])
	assert.Equal(t, "create_one", got["detector"])
	payload := got["payload"].(map[string]any)
	assert.Equal(t, "RAC IMMEUBLE", payload["type"])
	assert.Equal(t, "149041830", payload["reference"])
}

func TestProcessSharesStoreAcrossMessages(t *testing.T) {
	out := execute(t, "process", "SAV 149041830", "149041830 : client absent")
	assert.Contains(t, out, "> SAV 149041830\n✅ Intervention créée : SAV 149041830")
	assert.Contains(t, out, "💬 Commentaire ajouté sur 149041830")
}

func TestProcessYAML(t *testing.T) {
	out := execute(t, "process", "-o", "yaml", "CHERCHER 149041830")

	var got []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "rules", got[0]["source"])
	resp := got[0]["response"].(map[string]any)
	assert.Equal(t, "ERROR", resp["action"])
}

func TestProcessSQLitePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.db")

	execute(t, "process", "--storage", "sqlite", "--sqlite-path", path, "RECO 149041830")
	out := execute(t, "process", "--storage", "sqlite", "--sqlite-path", path, "CHERCHER 149041830")
	assert.Contains(t, out, "🔍 RECO 149041830")
}
