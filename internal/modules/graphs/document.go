// Package graphs loads weighted graphs from files, object storage and the graph store.
package graphs

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/aristath/qdo/internal/modules/graph"
)

// Format is a graph document encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

// FormatFromPath picks the encoding from a file extension; anything unknown is JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".msgpack", ".mpk":
		return FormatMsgpack
	default:
		return FormatJSON
	}
}

// EdgeSpec is an edge as written in a document. A missing weight means graph.DefaultWeight.
type EdgeSpec struct {
	U      int      `json:"u" yaml:"u" msgpack:"u"`
	V      int      `json:"v" yaml:"v" msgpack:"v"`
	Weight *float64 `json:"weight,omitempty" yaml:"weight,omitempty" msgpack:"weight,omitempty"`
}

// Document is the on-disk graph format: an edge list plus optional isolated nodes.
type Document struct {
	Nodes []int      `json:"nodes,omitempty" yaml:"nodes,omitempty" msgpack:"nodes,omitempty"`
	Edges []EdgeSpec `json:"edges" yaml:"edges" msgpack:"edges"`
}

// Graph validates the document and builds the graph.
func (d Document) Graph() (*graph.WeightedGraph, error) {
	edges := make([]graph.Edge, len(d.Edges))
	for i, e := range d.Edges {
		w := graph.DefaultWeight
		if e.Weight != nil {
			w = *e.Weight
		}
		edges[i] = graph.Edge{U: e.U, V: e.V, Weight: w}
	}
	return graph.FromEdges(edges, d.Nodes...)
}

// DocumentOf converts a graph back to document form with explicit weights.
func DocumentOf(g *graph.WeightedGraph) Document {
	edges := g.Edges()
	d := Document{Edges: make([]EdgeSpec, len(edges))}
	touched := make(map[int]bool, g.NumNodes())
	for i, e := range edges {
		w := e.Weight
		d.Edges[i] = EdgeSpec{U: e.U, V: e.V, Weight: &w}
		touched[e.U] = true
		touched[e.V] = true
	}
	for _, id := range g.Nodes() {
		if !touched[id] {
			d.Nodes = append(d.Nodes, id)
		}
	}
	return d
}

// Decode parses a document. Syntax errors are reported as invalid graphs.
func Decode(data []byte, format Format) (Document, error) {
	var d Document
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &d)
	case FormatMsgpack:
		err = msgpack.Unmarshal(data, &d)
	case FormatJSON, "":
		err = json.Unmarshal(data, &d)
	default:
		return Document{}, fmt.Errorf("unsupported graph format %q", format)
	}
	if err != nil {
		return Document{}, graph.NewInvalidGraphError("cannot parse %s document: %v", format, err)
	}
	return d, nil
}

// Encode serializes a document.
func Encode(d Document, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(d)
	case FormatMsgpack:
		return msgpack.Marshal(d)
	case FormatJSON, "":
		return json.MarshalIndent(d, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported graph format %q", format)
	}
}
