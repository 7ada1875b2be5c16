package sdjwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedMap_PreservesInsertionOrder(t *testing.T) {
	m := NewOrderedMap[int]()
	m.Set("z", 1)
	m.Set("a", 2)
	m.Set("m", 3)
	assert.Equal(t, []string{"z", "a", "m"}, m.Keys())

	m.Set("a", 20)
	assert.Equal(t, []string{"z", "a", "m"}, m.Keys())
	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 20, v)
}

// Fold walks every leaf exactly once and concatenates their names in
// object-content order, demonstrating single-dispatch per node.
func TestFold_VisitsEveryLeafOnce(t *testing.T) {
	content := NewOrderedMap[DisclosableElement]()
	content.Set("a", NSD("1"))
	content.Set("b", SD("2"))
	root := Obj(false, content, nil)

	var visited []string
	leaf := func(path []*string, key string, node *IDNode) Folded {
		visited = append(visited, key)
		return Folded{Result: node.Value}
	}
	handlers := ObjHandlers{
		NeverID:  leaf,
		AlwaysID: leaf,
	}
	ops := FoldOps{
		Initial: Folded{},
		Combine: func(a, b Folded) Folded { return b },
	}

	Fold(root, handlers, ArrHandlers{}, ops)
	assert.Equal(t, []string{"a", "b"}, visited)
}

func TestFold_DeepNesting_NoOverflow(t *testing.T) {
	var leaf DisclosableElement = NSD("leaf")
	for i := 0; i < maxFoldDepth; i++ {
		wrapper := NewOrderedMap[DisclosableElement]()
		wrapper.Set("child", leaf)
		leaf = Obj(false, wrapper, nil)
	}
	root, ok := leaf.(*ObjNode)
	require.True(t, ok)

	var depth int
	leafHandler := func(path []*string, key string, node *IDNode) Folded {
		depth = len(path)
		return Folded{Result: node.Value}
	}
	passthroughObj := func(path []*string, key string, child Folded) Folded { return child }

	handlers := ObjHandlers{
		NeverID:  leafHandler,
		AlwaysID: leafHandler,
		NeverObj: passthroughObj,
		AlwaysObj: passthroughObj,
	}
	ops := FoldOps{Combine: func(a, b Folded) Folded { return b }}

	Fold(root, handlers, ArrHandlers{}, ops)
	assert.Equal(t, maxFoldDepth, depth)
}
