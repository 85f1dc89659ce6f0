package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/voxflow/voxflow/pkg/trie"
)

// NodeSpec describes a node to the host runtime: its registry name and
// the JSON Schema of its parameters.
type NodeSpec struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Params      *jsonschema.Schema `json:"params"`
}

// Node is one workflow operation.
type Node interface {
	// Describe returns the node's name and parameter schema.
	Describe() *NodeSpec

	// Run executes the node. Params is the raw JSON parameter object
	// from the workflow; failures are always *NodeError.
	Run(ctx context.Context, rt *Runtime, params json.RawMessage) (*Output, error)
}

// Func is the body of a node with typed parameters.
type Func[P any] func(ctx context.Context, rt *Runtime, params P) (*Output, error)

type node[P any] struct {
	spec *NodeSpec
	fn   Func[P]
}

func (n *node[P]) Describe() *NodeSpec { return n.spec }

func (n *node[P]) Run(ctx context.Context, rt *Runtime, raw json.RawMessage) (*Output, error) {
	var params P
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, failValidation("decode %s params: %v", n.spec.Name, err)
		}
	}
	out, err := n.fn(ctx, rt, params)
	if err != nil {
		return nil, Failure(err)
	}
	return out, nil
}

// NewNode builds a node whose parameter schema is derived from P's
// struct tags, with the closed enums from this package substituted for
// their types.
func NewNode[P any](name, description string, fn Func[P]) (Node, error) {
	schema, err := jsonschema.For[P](&jsonschema.ForOptions{TypeSchemas: paramTypeSchemas})
	if err != nil {
		return nil, fmt.Errorf("flow: derive schema for %s: %w", name, err)
	}
	return &node[P]{
		spec: &NodeSpec{Name: name, Description: description, Params: schema},
		fn:   fn,
	}, nil
}

// MustNode is NewNode that panics on schema derivation failure.
func MustNode[P any](name, description string, fn Func[P]) Node {
	n, err := NewNode(name, description, fn)
	if err != nil {
		panic(err)
	}
	return n
}

// Registry maps node names to implementations.
type Registry struct {
	mux *trie.Trie[Node]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		mux: trie.New[Node](),
	}
}

// Handle registers a node under the given name.
func (r *Registry) Handle(name string, n Node) error {
	return r.mux.Set(name, func(ptr *Node, existed bool) error {
		*ptr = n
		if existed {
			slog.Warn("flow: node already registered", "name", name)
		}
		return nil
	})
}

// Lookup returns the node registered under name.
func (r *Registry) Lookup(name string) (Node, bool) {
	n, ok := r.mux.GetValue(name)
	if !ok || n == nil {
		return nil, false
	}
	return n, true
}

// Nodes returns the registered nodes sorted by name.
func (r *Registry) Nodes() []Node {
	var out []Node
	r.mux.Walk(func(path string, n Node, set bool) {
		if set && n != nil {
			out = append(out, n)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].Describe().Name < out[j].Describe().Name
	})
	return out
}

// Run invokes the node registered under name.
func (r *Registry) Run(ctx context.Context, rt *Runtime, name string, params json.RawMessage) (*Output, error) {
	n, ok := r.Lookup(name)
	if !ok {
		return nil, &NodeError{
			Kind:        KindNotFound,
			Message:     fmt.Sprintf("node not found for %s", name),
			Remediation: "list the registry's nodes and check the name",
		}
	}
	return n.Run(ctx, rt, params)
}

// Builtin returns a registry holding every node in this package.
func Builtin() *Registry {
	r := NewRegistry()
	for _, n := range []Node{
		ttsNode,
		convertNode,
		cloneNode,
		designNode,
		saveVoiceNode,
		soundEffectsNode,
		musicNode,
		listVoicesNode,
	} {
		if err := r.Handle(n.Describe().Name, n); err != nil {
			panic(err)
		}
	}
	return r
}
