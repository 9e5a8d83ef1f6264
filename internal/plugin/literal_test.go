package plugin_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabscript-lang/tabscript/internal/plugin"
)

func TestEvalLiteralObject(t *testing.T) {
	v, err := plugin.EvalLiteral(`{a: 1, b: "two", c: true, d: null}`)
	require.NoError(t, err)
	obj, ok := v.(map[string]any)
	require.True(t, ok)
	require.Equal(t, float64(1), obj["a"])
	require.Equal(t, "two", obj["b"])
	require.Equal(t, true, obj["c"])
	require.Nil(t, obj["d"])
}

func TestEvalLiteralArray(t *testing.T) {
	v, err := plugin.EvalLiteral(`[1, 2, 3]`)
	require.NoError(t, err)
	arr, ok := v.([]any)
	require.True(t, ok)
	require.Equal(t, []any{float64(1), float64(2), float64(3)}, arr)
}

func TestEvalLiteralNestedAndQuotedKeys(t *testing.T) {
	v, err := plugin.EvalLiteral(`{"nested": {x: [1, -2.5]}}`)
	require.NoError(t, err)
	obj := v.(map[string]any)
	nested := obj["nested"].(map[string]any)
	require.Equal(t, []any{float64(1), float64(-2.5)}, nested["x"])
}

func TestEvalLiteralRejectsTrailingGarbage(t *testing.T) {
	_, err := plugin.EvalLiteral(`{a: 1} garbage`)
	require.Error(t, err)
}

func TestEvalLiteralRejectsUnterminatedObject(t *testing.T) {
	_, err := plugin.EvalLiteral(`{a: 1`)
	require.Error(t, err)
}

func TestEvalLiteralEscapedString(t *testing.T) {
	v, err := plugin.EvalLiteral(`"line1\nline2"`)
	require.NoError(t, err)
	require.Equal(t, "line1\nline2", v)
}
