package plugin_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabscript-lang/tabscript/internal/plugin"
)

func TestRegisterAndCall(t *testing.T) {
	table := plugin.NewTable()
	called := false
	table.Register("parseStatement", func() (bool, error) {
		called = true
		return true, nil
	})

	ok, err := table.Call("parseStatement")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, called)
}

func TestCallPanicsOnUnknownSlot(t *testing.T) {
	table := plugin.NewTable()
	require.Panics(t, func() {
		table.Call("parseNothing")
	})
}

func TestReplaceReturnsPreviousAndAllowsDelegation(t *testing.T) {
	table := plugin.NewTable()
	baseCalls := 0
	table.Register("parseExpression", func() (bool, error) {
		baseCalls++
		return true, nil
	})

	var prev plugin.Func
	prev = table.Replace("parseExpression", func() (bool, error) {
		return prev()
	})

	ok, err := table.Call("parseExpression")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, baseCalls, "the replaced slot should have delegated through to the original")
}

func TestGetReturnsNilForUnregisteredSlot(t *testing.T) {
	table := plugin.NewTable()
	require.Nil(t, table.Get("parseStatement"))
}

func TestNames(t *testing.T) {
	table := plugin.NewTable()
	table.Register("a", func() (bool, error) { return true, nil })
	table.Register("b", func() (bool, error) { return true, nil })
	require.ElementsMatch(t, []string{"a", "b"}, table.Names())
}
