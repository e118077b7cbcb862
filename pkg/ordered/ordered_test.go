package ordered_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgdeclare/pkg/ordered"
)

type item struct {
	name  string
	value int
}

func (i item) GetName() string { return i.name }

func TestAppendPreservesInsertionOrder(t *testing.T) {
	m := ordered.New[item]()
	require.NoError(t, m.Append(item{name: "c", value: 3}))
	require.NoError(t, m.Append(item{name: "a", value: 1}))
	require.NoError(t, m.Append(item{name: "b", value: 2}))

	var names []string
	for _, v := range m.Values() {
		names = append(names, v.name)
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}

func TestAppendRejectsDuplicateName(t *testing.T) {
	m := ordered.New[item]()
	require.NoError(t, m.Append(item{name: "a"}))
	assert.Error(t, m.Append(item{name: "a"}))
}

func TestAppendRejectsEmptyName(t *testing.T) {
	m := ordered.New[item]()
	assert.Error(t, m.Append(item{name: ""}))
}

func TestSetOverwritesInPlace(t *testing.T) {
	m := ordered.New[item]()
	require.NoError(t, m.Append(item{name: "a", value: 1}))
	require.NoError(t, m.Append(item{name: "b", value: 2}))

	m.Set(item{name: "a", value: 99})

	var values []int
	for _, v := range m.Values() {
		values = append(values, v.value)
	}
	assert.Equal(t, []int{99, 2}, values)
}

func TestGetAndHas(t *testing.T) {
	m := ordered.New[item]()
	require.NoError(t, m.Append(item{name: "a", value: 1}))

	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v.value)

	assert.True(t, m.Has("a"))
	assert.False(t, m.Has("missing"))

	_, ok = m.Get("missing")
	assert.False(t, ok)
}
