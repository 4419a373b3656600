package dag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/protoswift/internal/builderr"
	"github.com/vk/protoswift/internal/config"
	"github.com/vk/protoswift/internal/label"
)

var (
	a = label.MustParse("//x:a")
	b = label.MustParse("//x:b")
	c = label.MustParse("//x:c")
	d = label.MustParse("//x:d")
)

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.NotNil(t, g.nodes)
	assert.Empty(t, g.nodes)
}

func TestAddNode(t *testing.T) {
	g := New()

	g.AddNode(a)
	assert.Len(t, g.nodes, 1)
	nodeA, ok := g.nodes[a]
	require.True(t, ok)
	assert.Equal(t, a, nodeA.id)

	g.AddNode(a) // Test idempotency
	assert.Len(t, g.nodes, 1)

	g.AddNode(b)
	assert.Equal(t, 2, g.Len())
	assert.True(t, g.Has(b))
	assert.False(t, g.Has(c))
}

func TestAddEdge(t *testing.T) {
	t.Run("success case keeps declared order", func(t *testing.T) {
		g := New()
		g.AddNode(a)
		g.AddNode(b)
		g.AddNode(c)

		require.NoError(t, g.AddEdge(c, a)) // a depends on c
		require.NoError(t, g.AddEdge(b, a)) // then on b
		require.NoError(t, g.AddEdge(c, a)) // duplicate is ignored

		deps, err := g.Dependencies(a)
		require.NoError(t, err)
		assert.Equal(t, []label.Label{c, b}, deps)

		dependents, err := g.Dependents(c)
		require.NoError(t, err)
		assert.Equal(t, []label.Label{a}, dependents)
	})

	t.Run("error cases", func(t *testing.T) {
		g := New()
		g.AddNode(a)
		g.AddNode(b)

		err := g.AddEdge(d, a)
		assert.ErrorContains(t, err, "source node not found")

		err = g.AddEdge(a, d)
		assert.ErrorContains(t, err, "destination node not found")

		err = g.AddEdge(a, a)
		assert.ErrorIs(t, err, builderr.ErrCycle)

		_, err = g.Dependencies(d)
		assert.ErrorContains(t, err, "node not found")
		_, err = g.Dependents(d)
		assert.ErrorContains(t, err, "node not found")
	})
}

func TestDetectCycles(t *testing.T) {
	t.Run("empty graph has no cycles", func(t *testing.T) {
		assert.NoError(t, New().DetectCycles())
	})

	t.Run("diamond has no cycles", func(t *testing.T) {
		g := New()
		for _, l := range []label.Label{a, b, c, d} {
			g.AddNode(l)
		}
		require.NoError(t, g.AddEdge(b, a))
		require.NoError(t, g.AddEdge(c, a))
		require.NoError(t, g.AddEdge(d, b))
		require.NoError(t, g.AddEdge(d, c))
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("cycle is reported with its path", func(t *testing.T) {
		g := New()
		for _, l := range []label.Label{a, b, c} {
			g.AddNode(l)
		}
		require.NoError(t, g.AddEdge(b, a))
		require.NoError(t, g.AddEdge(c, b))
		require.NoError(t, g.AddEdge(a, c))

		err := g.DetectCycles()
		require.Error(t, err)
		assert.ErrorIs(t, err, builderr.ErrCycle)
		assert.True(t, builderr.IsKind(err, builderr.KindConfiguration))
		assert.Contains(t, err.Error(), "//x:a -> //x:b -> //x:c -> //x:a")
	})
}

func TestTopologicalOrderAndSubgraph(t *testing.T) {
	g := New()
	for _, l := range []label.Label{a, b, c, d} {
		g.AddNode(l)
	}
	require.NoError(t, g.AddEdge(c, b)) // b -> c
	require.NoError(t, g.AddEdge(b, a)) // a -> b

	assert.Equal(t, []label.Label{c, b, a, d}, g.TopologicalOrder())

	sub, err := g.Subgraph(b)
	require.NoError(t, err)
	assert.Equal(t, []label.Label{b, c}, sub.Nodes())
	deps, err := sub.Dependencies(b)
	require.NoError(t, err)
	assert.Equal(t, []label.Label{c}, deps)
	dependents, err := sub.Dependents(c)
	require.NoError(t, err)
	assert.Equal(t, []label.Label{b}, dependents)

	_, err = g.Subgraph(label.MustParse("//nope:x"))
	assert.ErrorIs(t, err, builderr.ErrUnknownTarget)
}

func TestBuild(t *testing.T) {
	m := config.NewModel()
	m.ProtoLibraries[b] = &config.ProtoLibrary{Label: b, Deps: []label.Label{c}}
	m.ProtoLibraries[c] = &config.ProtoLibrary{Label: c}
	m.SwiftProtoLibraries[a] = &config.SwiftProtoLibrary{Label: a, Deps: []label.Label{b}}

	g, err := Build(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, []label.Label{c, b, a}, g.TopologicalOrder())

	t.Run("unknown dependency", func(t *testing.T) {
		m.ProtoLibraries[c].Deps = []label.Label{d}
		_, err := Build(context.Background(), m)
		assert.ErrorIs(t, err, builderr.ErrUnknownTarget)
		m.ProtoLibraries[c].Deps = nil
	})

	t.Run("cycle", func(t *testing.T) {
		m.ProtoLibraries[c].Deps = []label.Label{b}
		_, err := Build(context.Background(), m)
		assert.ErrorIs(t, err, builderr.ErrCycle)
		assert.ErrorContains(t, err, "error validating dependency graph")
		m.ProtoLibraries[c].Deps = nil
	})
}
