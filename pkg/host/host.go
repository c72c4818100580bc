// Package host is elfe's embeddable API, the counterpart of the
// teacher's pkg/embed: it wires together a reader, an evaluator, a root
// scope, an opcode registry and a diagnostic sink into the one object an
// embedding program actually needs, the way pkg/embed.VM does for funxy.
//
// Unlike pkg/embed, elfe has no Go-struct/reflect marshalling layer —
// the language has no host-object concept (§1 Non-goals) — so Eval
// trades the struct-in/struct-out convenience of funxy.VM.Bind for the
// plain tree-in/tree-out contract the evaluator itself exposes.
package host

import (
	"fmt"

	"github.com/pombredanne/elfe/internal/ast"
	"github.com/pombredanne/elfe/internal/builtin"
	"github.com/pombredanne/elfe/internal/config"
	"github.com/pombredanne/elfe/internal/diag"
	"github.com/pombredanne/elfe/internal/evaluator"
	"github.com/pombredanne/elfe/internal/opcode"
	"github.com/pombredanne/elfe/internal/reader"
	"github.com/pombredanne/elfe/internal/rpcopcode"
	"github.com/pombredanne/elfe/internal/safepoint"
)

// Host is one evaluation environment: a root scope plus the evaluator
// bound to it. Create one per independent program; call Fork to get a
// second Host for another goroutine sharing the same opcode registry.
type Host struct {
	eval *evaluator.Evaluator
	root *evaluator.Scope
	sink diag.Sink
	rpc  *rpcopcode.Client
}

// Option configures a Host at construction time.
type Option func(*options)

type options struct {
	registry   opcode.Registry
	sink       diag.Sink
	hook       safepoint.Hook
	depthLimit int
	rpcTarget  string
}

// WithRegistry overrides the default in-process builtin.StaticRegistry.
func WithRegistry(r opcode.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithSink overrides the default in-memory diagnostic sink.
func WithSink(s diag.Sink) Option {
	return func(o *options) { o.sink = s }
}

// WithSafePoint installs a safepoint.Hook (e.g. safepoint.NewCounting for
// a GC nudge after every top-level evaluation).
func WithSafePoint(h safepoint.Hook) Option {
	return func(o *options) { o.hook = h }
}

// WithDepthLimit overrides evaluator.DefaultDepthLimit.
func WithDepthLimit(n int) Option {
	return func(o *options) { o.depthLimit = n }
}

// WithRemoteOpcodes dials target and layers a rpcopcode.Client behind
// the in-process registry: an opcode not found locally is delegated to
// the remote host, so a host can host some opcodes locally and delegate
// the rest.
func WithRemoteOpcodes(target string) Option {
	return func(o *options) { o.rpcTarget = target }
}

// FromConfig applies a loaded config.Config as Host options.
func FromConfig(cfg config.Config) Option {
	return func(o *options) {
		if cfg.DepthLimit > 0 {
			o.depthLimit = cfg.DepthLimit
		}
		if cfg.OpcodeEndpoint != "" {
			o.rpcTarget = cfg.OpcodeEndpoint
		}
	}
}

// New builds a Host ready to Eval source.
func New(opts ...Option) (*Host, error) {
	o := &options{registry: builtin.NewStaticRegistry(), sink: diag.NewMemory()}
	for _, apply := range opts {
		apply(o)
	}

	h := &Host{sink: o.sink}

	if o.rpcTarget != "" {
		client, err := rpcopcode.Dial(o.rpcTarget)
		if err != nil {
			return nil, fmt.Errorf("host: dialing remote opcode endpoint: %w", err)
		}
		h.rpc = client
		o.registry = &fallbackRegistry{local: o.registry, remote: client}
	}

	h.eval = evaluator.New(o.registry, o.sink, o.hook, o.depthLimit)
	h.root = evaluator.NewScope(nil)
	return h, nil
}

// Close releases any remote opcode connection the Host opened.
func (h *Host) Close() error {
	if h.rpc != nil {
		return h.rpc.Close()
	}
	return nil
}

// Fork returns a second Host for use on another goroutine, sharing the
// opcode registry but with its own evaluator state and a fresh root
// scope (scopes, like evaluators, are not meant to cross goroutines).
func (h *Host) Fork() *Host {
	ev := h.eval.Fork()
	return &Host{
		eval: ev,
		root: evaluator.NewScope(nil),
		sink: ev.Sink,
	}
}

// Eval parses source and evaluates it against the Host's root scope,
// accumulating any declarations it makes for subsequent Eval calls —
// the same "one program, many top-level forms" model a REPL needs.
func (h *Host) Eval(source string) (ast.Node, error) {
	tree, err := reader.Read(source)
	if err != nil {
		return nil, fmt.Errorf("host: %w", err)
	}
	return h.eval.Evaluate(h.root, tree), nil
}

// EvalString is Eval followed by a closure-stripping ast.String, for
// callers that only want the rendered result.
func (h *Host) EvalString(source string) (string, error) {
	result, err := h.Eval(source)
	if err != nil {
		return "", err
	}
	return ast.String(evaluator.Deref(result)), nil
}

// Diagnostics returns whatever non-fatal/fatal records the sink
// collected during the most recent Eval (cleared at the start of each
// top-level Evaluate call per evaluator.Evaluate's own contract).
func (h *Host) Diagnostics() []diag.Record {
	return h.sink.Records()
}

// Root exposes the root scope directly, for embedders that want to
// Define rules ahead of any Eval call (the equivalent of funxy's
// VM.Bind, minus the Go-value marshalling).
func (h *Host) Root() *evaluator.Scope { return h.root }

// fallbackRegistry checks the local registry before the remote one —
// used when WithRemoteOpcodes is combined with the default
// builtin.StaticRegistry. rpcopcode.Client.Find always succeeds
// optimistically (only Run can discover a name is unknown remotely), so
// it must be tried last or it would shadow every local opcode.
type fallbackRegistry struct {
	local  opcode.Registry
	remote opcode.Registry
}

func (f *fallbackRegistry) Find(name string) (opcode.Opcode, bool) {
	if op, ok := f.local.Find(name); ok {
		return op, ok
	}
	return f.remote.Find(name)
}
