package graphs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/qdo/internal/modules/graph"
	testutil "github.com/aristath/qdo/internal/testing"
)

func TestDecode_JSONDefaultsWeight(t *testing.T) {
	doc, err := Decode([]byte(testutil.SampleJSON), FormatJSON)
	require.NoError(t, err)
	require.Len(t, doc.Edges, 6)
	assert.Nil(t, doc.Edges[0].Weight)

	g, err := doc.Graph()
	require.NoError(t, err)
	assert.Equal(t, testutil.SampleEdges(), g.Edges())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, g.Nodes())
}

func TestDecode_YAML(t *testing.T) {
	data := []byte(`
nodes: [9]
edges:
  - {u: 1, v: 2, weight: 2.5}
  - {u: 2, v: 3}
`)
	doc, err := Decode(data, FormatYAML)
	require.NoError(t, err)

	g, err := doc.Graph()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 9}, g.Nodes())
	assert.Equal(t, 3.5, g.TotalWeight())
}

func TestEncodeDecode_Msgpack(t *testing.T) {
	g, err := graph.FromEdges([]graph.Edge{{U: 0, V: 1, Weight: 0.5}, {U: 1, V: 2, Weight: 4}}, 7)
	require.NoError(t, err)

	data, err := Encode(DocumentOf(g), FormatMsgpack)
	require.NoError(t, err)
	doc, err := Decode(data, FormatMsgpack)
	require.NoError(t, err)

	back, err := doc.Graph()
	require.NoError(t, err)
	assert.Equal(t, g.Nodes(), back.Nodes())
	assert.Equal(t, g.Edges(), back.Edges())
}

func TestDecode_SyntaxErrorIsInvalidGraph(t *testing.T) {
	_, err := Decode([]byte(`{"edges": [`), FormatJSON)
	assert.ErrorIs(t, err, graph.ErrInvalidGraph)

	_, err = Decode([]byte("edges: [:"), FormatYAML)
	assert.ErrorIs(t, err, graph.ErrInvalidGraph)
}

func TestDocument_RejectsBadEdges(t *testing.T) {
	zero := 0.0
	_, err := Document{Edges: []EdgeSpec{{U: 0, V: 1, Weight: &zero}}}.Graph()
	assert.ErrorIs(t, err, graph.ErrInvalidGraph)

	_, err = Document{Edges: []EdgeSpec{{U: 2, V: 2}}}.Graph()
	assert.ErrorIs(t, err, graph.ErrInvalidGraph)

	_, err = Document{Edges: []EdgeSpec{{U: 0, V: 1}, {U: 1, V: 0}}}.Graph()
	assert.ErrorIs(t, err, graph.ErrInvalidGraph)
}

func TestDocumentOf_KeepsIsolatedNodes(t *testing.T) {
	g, err := graph.New([]int{1, 2, 5}, []graph.Edge{{U: 1, V: 2, Weight: 3}})
	require.NoError(t, err)

	doc := DocumentOf(g)
	assert.Equal(t, []int{5}, doc.Nodes)
	require.Len(t, doc.Edges, 1)
	require.NotNil(t, doc.Edges[0].Weight)
	assert.Equal(t, 3.0, *doc.Edges[0].Weight)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFromPath("data/sample_graph.json"))
	assert.Equal(t, FormatYAML, FormatFromPath("g.YML"))
	assert.Equal(t, FormatYAML, FormatFromPath("g.yaml"))
	assert.Equal(t, FormatMsgpack, FormatFromPath("g.msgpack"))
	assert.Equal(t, FormatJSON, FormatFromPath("noext"))
}
