package yamlutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"pgdeclare/pkg/yamlutil"
)

func parse(t *testing.T, doc string) *yaml.Node {
	t.Helper()
	var root yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(doc), &root))
	require.Equal(t, yaml.DocumentNode, root.Kind)
	return root.Content[0]
}

func TestStrStripsTrailingComment(t *testing.T) {
	node := parse(t, `name: "varchar(64) -- a comment"`)
	assert.Equal(t, "varchar(64)", yamlutil.Str(node, "name", ""))
}

func TestStrReturnsDefaultWhenAbsent(t *testing.T) {
	node := parse(t, `other: 1`)
	assert.Equal(t, "fallback", yamlutil.Str(node, "missing", "fallback"))
}

func TestBoolParsesYamlBoolAndTruthyString(t *testing.T) {
	node := parse(t, "a: true\nb: \"yes\"\nc: \"no\"\nd: 1")
	assert.True(t, yamlutil.Bool(node, "a", false))
	assert.True(t, yamlutil.Bool(node, "b", false))
	assert.False(t, yamlutil.Bool(node, "c", true))
	assert.True(t, yamlutil.Bool(node, "d", false))
}

func TestTruthy(t *testing.T) {
	for _, v := range []string{"true", "yes", "+", "Y", "OK", "ok", "1"} {
		assert.True(t, yamlutil.Truthy(v, false), v)
	}
	for _, v := range []string{"false", "no"} {
		assert.False(t, yamlutil.Truthy(v, true), v)
	}
	assert.True(t, yamlutil.Truthy("", true))
	assert.False(t, yamlutil.Truthy("", false))
}

func TestRows(t *testing.T) {
	node := parse(t, "data:\n  - [\"1\", \"a@example.com\"]\n  - [\"2\", \"b@example.com\"]\n")
	rows := yamlutil.Rows(node, "data")
	assert.Equal(t, [][]string{{"1", "a@example.com"}, {"2", "b@example.com"}}, rows)
}

func TestSafeName(t *testing.T) {
	cases := map[string]string{
		"a;":   "a",
		"a":    "a",
		"a ":   "a",
		"":     "",
		"a. ":  "a",
		"a\n ": "a",
		"a\t ": "a",
	}
	for in, want := range cases {
		assert.Equal(t, want, yamlutil.SafeName(in), in)
	}
}
