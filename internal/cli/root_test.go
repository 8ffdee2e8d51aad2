package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "cartkeeper", cmd.Use)
	assert.Contains(t, cmd.Long, "order you walk the store")
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"store", "list"}, {"store", "add"}, {"store", "rename"}, {"store", "delete"}, {"store", "use"},
		{"aisle", "list"}, {"aisle", "add"}, {"aisle", "rename"}, {"aisle", "delete"}, {"aisle", "reorder"},
		{"section", "list"}, {"section", "add"}, {"section", "rename"}, {"section", "move"},
		{"section", "delete"}, {"section", "reorder"},
		{"item", "list"}, {"item", "add"}, {"item", "update"}, {"item", "delete"}, {"item", "find"},
		{"list", "show"}, {"list", "all"}, {"list", "new"}, {"list", "add"}, {"list", "check"},
		{"list", "uncheck"}, {"list", "remove"}, {"list", "clear"}, {"list", "complete"},
		{"list", "rename"}, {"list", "delete"},
		{"import"},
		{"layout", "apply"}, {"layout", "export"},
		{"reset"},
		{"migrate"}, {"migrate", "status"},
		{"setting", "list"}, {"setting", "get"}, {"setting", "set"}, {"setting", "delete"},
		{"secret", "set"}, {"secret", "remove"}, {"secret", "list"}, {"secret", "check"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "db", "store"} {
		f := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, "", f.DefValue)
	}
}

func TestImportCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	importCmd, _, err := cmd.Find([]string{"import"})
	require.NoError(t, err)

	for _, name := range []string{"parser", "list", "image"} {
		require.NotNil(t, importCmd.Flags().Lookup(name), name)
	}
}

func TestListAddFlags(t *testing.T) {
	cmd := NewRootCommand()
	addCmd, _, err := cmd.Find([]string{"list", "add"})
	require.NoError(t, err)

	qty := addCmd.Flags().Lookup("qty")
	require.NotNil(t, qty)
	assert.Equal(t, "1", qty.DefValue)
	require.NotNil(t, addCmd.Flags().Lookup("unit"))
	require.NotNil(t, addCmd.Flags().Lookup("notes"))
	require.NotNil(t, addCmd.InheritedFlags().Lookup("list"))
}

func TestResetCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	resetCmd, _, err := cmd.Find([]string{"reset"})
	require.NoError(t, err)

	yes := resetCmd.Flags().Lookup("yes")
	require.NotNil(t, yes)
	assert.Equal(t, "false", yes.DefValue)
	require.NotNil(t, resetCmd.Flags().Lookup("keep"))
}

func TestLayoutExportFlags(t *testing.T) {
	cmd := NewRootCommand()
	exportCmd, _, err := cmd.Find([]string{"layout", "export"})
	require.NoError(t, err)

	output := exportCmd.Flags().Lookup("output")
	require.NotNil(t, output)
	assert.Equal(t, "o", output.Shorthand)
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))
	assert.False(t, isValidFormat("yaml"))
	assert.False(t, isValidFormat(""))
}
