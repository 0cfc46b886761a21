package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestWriteSummary(t *testing.T) {
	in := importSummary{DatasetID: "d1", FileID: "f1", Name: "a.csv", RowCount: 2, Columns: []string{"x", "y"}, Hash: "h"}

	var buf bytes.Buffer
	require.NoError(t, writeSummary(&buf, in, false))
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Equal(t, "d1", fromYAML["dataset_id"])
	assert.Equal(t, 2, fromYAML["row_count"])

	buf.Reset()
	require.NoError(t, writeSummary(&buf, in, true))
	var fromJSON map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fromJSON))
	assert.Equal(t, "f1", fromJSON["fileId"])
	assert.Equal(t, []any{"x", "y"}, fromJSON["columns"])
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
	assert.True(t, names["import"])
	assert.Error(t, importCmd.Args(importCmd, nil))
}
