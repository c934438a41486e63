package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()
	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	assert.ElementsMatch(t, []string{"workbook", "report", "bulk"}, names)
	require.NotNil(t, root.PersistentFlags().Lookup("term"))
	require.NotNil(t, root.PersistentFlags().Lookup("class"))
}

func TestReportRequiresStudent(t *testing.T) {
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"report", "--term", "t1", "--class", "c3"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--student")
}

func TestBulkRejectsUnknownFormat(t *testing.T) {
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"bulk", "--term", "t1", "--class", "c3", "--format", "docx"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "docx")
}
