package debugger

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client calls a remote debug Service.
type Client struct {
	pause           *connect.Client[emptypb.Empty, emptypb.Empty]
	resume          *connect.Client[emptypb.Empty, emptypb.Empty]
	status          *connect.Client[emptypb.Empty, structpb.Struct]
	setBreakpoint   *connect.Client[structpb.Struct, wrapperspb.StringValue]
	clearBreakpoint *connect.Client[wrapperspb.StringValue, emptypb.Empty]
	listBreakpoints *connect.Client[emptypb.Empty, structpb.Struct]
	enable          *connect.Client[structpb.Struct, emptypb.Empty]
	clearAll        *connect.Client[emptypb.Empty, wrapperspb.Int64Value]
}

// NewClient creates a client for the service at baseURL
// (e.g. "http://127.0.0.1:1880"). A nil httpClient uses http.DefaultClient.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL = strings.TrimRight(baseURL, "/")

	return &Client{
		pause:           connect.NewClient[emptypb.Empty, emptypb.Empty](httpClient, baseURL+PauseProcedure, opts...),
		resume:          connect.NewClient[emptypb.Empty, emptypb.Empty](httpClient, baseURL+ResumeProcedure, opts...),
		status:          connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+StatusProcedure, opts...),
		setBreakpoint:   connect.NewClient[structpb.Struct, wrapperspb.StringValue](httpClient, baseURL+SetBreakpointProcedure, opts...),
		clearBreakpoint: connect.NewClient[wrapperspb.StringValue, emptypb.Empty](httpClient, baseURL+ClearBreakpointProcedure, opts...),
		listBreakpoints: connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+ListBreakpointsProcedure, opts...),
		enable:          connect.NewClient[structpb.Struct, emptypb.Empty](httpClient, baseURL+EnableBreakpointProcedure, opts...),
		clearAll:        connect.NewClient[emptypb.Empty, wrapperspb.Int64Value](httpClient, baseURL+ClearBreakpointsProcedure, opts...),
	}
}

func (c *Client) Pause(ctx context.Context) error {
	_, err := c.pause.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	return err
}

func (c *Client) Resume(ctx context.Context) error {
	_, err := c.resume.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	return err
}

// Status returns the router status as a plain map (JSON numbers are float64).
func (c *Client) Status(ctx context.Context) (map[string]any, error) {
	res, err := c.status.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return nil, err
	}
	return res.Msg.AsMap(), nil
}

// SetBreakpoint installs a rule and returns its id. Use AnyPort for Port to
// match every port.
func (c *Client) SetBreakpoint(ctx context.Context, bp Breakpoint) (string, error) {
	res, err := c.setBreakpoint.CallUnary(ctx, connect.NewRequest(breakpointToStruct(bp)))
	if err != nil {
		return "", err
	}
	return res.Msg.GetValue(), nil
}

func (c *Client) ClearBreakpoint(ctx context.Context, id string) error {
	_, err := c.clearBreakpoint.CallUnary(ctx, connect.NewRequest(wrapperspb.String(id)))
	return err
}

func (c *Client) ListBreakpoints(ctx context.Context) ([]Breakpoint, error) {
	res, err := c.listBreakpoints.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return nil, err
	}
	return breakpointsFromStruct(res.Msg)
}

// EnableBreakpoint turns a rule on or off without removing it.
func (c *Client) EnableBreakpoint(ctx context.Context, id string, enabled bool) error {
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":      structpb.NewStringValue(id),
		"enabled": structpb.NewBoolValue(enabled),
	}}
	_, err := c.enable.CallUnary(ctx, connect.NewRequest(req))
	return err
}

// ClearBreakpoints removes every rule and returns how many were removed.
func (c *Client) ClearBreakpoints(ctx context.Context) (int, error) {
	res, err := c.clearAll.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return 0, err
	}
	return int(res.Msg.GetValue()), nil
}
