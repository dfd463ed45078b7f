package server

import (
	"context"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client is a Connect client for the compile service.
type Client struct {
	compile        *connect.Client[structpb.Struct, structpb.Struct]
	evaluate       *connect.Client[structpb.Struct, structpb.Struct]
	dump           *connect.Client[structpb.Struct, structpb.Struct]
	createSession  *connect.Client[structpb.Struct, structpb.Struct]
	destroySession *connect.Client[structpb.Struct, structpb.Struct]
}

// NewClient creates a client for the server at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	newClient := func(procedure string) *connect.Client[structpb.Struct, structpb.Struct] {
		return connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+procedure, opts...)
	}
	return &Client{
		compile:        newClient(CompileProcedure),
		evaluate:       newClient(EvaluateProcedure),
		dump:           newClient(DumpProcedure),
		createSession:  newClient(CreateSessionProcedure),
		destroySession: newClient(DestroySessionProcedure),
	}
}

// call sends fields as a request message and returns the response fields.
func call(ctx context.Context, c *connect.Client[structpb.Struct, structpb.Struct], fields map[string]interface{}) (map[string]interface{}, error) {
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	res, err := c.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return res.Msg.AsMap(), nil
}

// Compile compiles source. mode may be empty to keep the document's kind.
func (c *Client) Compile(ctx context.Context, source, mode string) (map[string]interface{}, error) {
	fields := map[string]interface{}{"source": source}
	if mode != "" {
		fields["mode"] = mode
	}
	return call(ctx, c.compile, fields)
}

// Evaluate compiles source as an evaluation in a session. An empty
// sessionID asks the server to open a new session.
func (c *Client) Evaluate(ctx context.Context, sessionID, source string) (map[string]interface{}, error) {
	fields := map[string]interface{}{"source": source}
	if sessionID != "" {
		fields["session_id"] = sessionID
	}
	return call(ctx, c.evaluate, fields)
}

// Dump returns the s-expression form of source.
func (c *Client) Dump(ctx context.Context, source string) (string, error) {
	res, err := call(ctx, c.dump, map[string]interface{}{"source": source})
	if err != nil {
		return "", err
	}
	dump, _ := res["dump"].(string)
	return dump, nil
}

// CreateSession opens a session whose frame sees the named enclosing locals.
func (c *Client) CreateSession(ctx context.Context, name string, locals []string) (string, error) {
	res, err := call(ctx, c.createSession, map[string]interface{}{
		"name":   name,
		"locals": list(locals),
	})
	if err != nil {
		return "", err
	}
	id, _ := res["session_id"].(string)
	return id, nil
}

// DestroySession closes a session.
func (c *Client) DestroySession(ctx context.Context, sessionID string) error {
	_, err := call(ctx, c.destroySession, map[string]interface{}{"session_id": sessionID})
	return err
}
