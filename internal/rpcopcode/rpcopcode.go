// Package rpcopcode is a second opcode.Registry implementation, backed by
// a single generic gRPC method on a remote process rather than an
// in-process Go map (internal/builtin.StaticRegistry). It resolves and
// invokes opcodes dynamically, using protoreflect's dynamic messages, so
// no generated .pb.go stubs are required — adapted from
// internal/evaluator/builtins_grpc.go's dynamic-invoke pattern, repurposed
// from "call an arbitrary gRPC service" to "resolve and run an
// out-of-process opcode".
package rpcopcode

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/pombredanne/elfe/internal/ast"
	"github.com/pombredanne/elfe/internal/opcode"
	"github.com/pombredanne/elfe/internal/reader"
)

// opcodeProto is the generic service every remote opcode host implements:
// one RPC taking an opcode name and its arguments (each rendered through
// ast.String, the core's minimal debug form) and returning a rendered
// result plus an ok flag. A single method suffices because every opcode
// already exposes the same uniform Frame-shaped contract (internal/opcode
// Frame) — there is no need for one .proto message per opcode.
const opcodeProto = `
syntax = "proto3";
package elfe;

message OpcodeRequest {
  string opcode = 1;
  repeated string args = 2;
}

message OpcodeResponse {
  bool ok = 1;
  string result = 2;
  string error = 3;
}

service OpcodeService {
  rpc Invoke(OpcodeRequest) returns (OpcodeResponse);
}
`

// Client is an opcode.Registry that dispatches every lookup to a single
// remote OpcodeService.Invoke call, deferring the "does this opcode
// actually exist" question to invocation time (the server answers with
// ok=false for an unknown name).
type Client struct {
	conn     *grpc.ClientConn
	method   *desc.MethodDescriptor
	reqType  *desc.MessageDescriptor
	respType *desc.MessageDescriptor
}

// Dial connects to target and parses the embedded opcode service
// descriptor. It never touches the filesystem: the .proto source is
// compiled from the constant above via an in-memory protoparse accessor.
func Dial(target string) (*Client, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("rpcopcode: dialing %s: %w", target, err)
	}

	parser := protoparse.Parser{
		Accessor: func(filename string) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(opcodeProto)), nil
		},
	}
	fds, err := parser.ParseFiles("opcode.proto")
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rpcopcode: parsing service descriptor: %w", err)
	}
	svc := fds[0].FindService("elfe.OpcodeService")
	if svc == nil {
		conn.Close()
		return nil, fmt.Errorf("rpcopcode: elfe.OpcodeService not found in descriptor")
	}
	method := svc.FindMethodByName("Invoke")
	if method == nil {
		conn.Close()
		return nil, fmt.Errorf("rpcopcode: Invoke method not found")
	}

	return &Client{
		conn:     conn,
		method:   method,
		reqType:  method.GetInputType(),
		respType: method.GetOutputType(),
	}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

// Find implements opcode.Registry: it always succeeds optimistically,
// since whether opid is actually hosted remotely can only be answered by
// the server, at invocation time.
func (c *Client) Find(name string) (opcode.Opcode, bool) {
	return &remoteOpcode{client: c, name: name}, true
}

// remoteOpcode is the opcode.Opcode (not TypeCheckOpcode — remote type
// predicates are out of scope) bound to one opcode name on one Client.
type remoteOpcode struct {
	client *Client
	name   string
}

func (r *remoteOpcode) OpID() string { return r.name }

func (r *remoteOpcode) Clone() opcode.Opcode {
	c := *r
	return &c
}

func (r *remoteOpcode) Run(f *opcode.Frame) {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = ast.String(a)
	}

	req := dynamic.NewMessage(r.client.reqType)
	req.SetFieldByName("opcode", r.name)
	req.SetFieldByName("args", args)

	resp := dynamic.NewMessage(r.client.respType)
	methodPath := fmt.Sprintf("/elfe.OpcodeService/%s", r.client.method.GetName())
	if err := r.client.conn.Invoke(context.Background(), methodPath, req, resp); err != nil {
		f.Result = ast.NewEvaluationError(fmt.Sprintf("rpcopcode: %s: %v", r.name, err))
		return
	}

	ok, _ := resp.GetFieldByName("ok").(bool)
	if !ok {
		errMsg, _ := resp.GetFieldByName("error").(string)
		f.Result = ast.NewEvaluationError(fmt.Sprintf("rpcopcode: %s: %s", r.name, errMsg))
		return
	}

	resultText, _ := resp.GetFieldByName("result").(string)
	tree, err := reader.Read(resultText)
	if err != nil {
		f.Result = ast.NewEvaluationError(fmt.Sprintf("rpcopcode: %s: malformed result %q", r.name, resultText))
		return
	}
	f.Result = tree
}
