package debugger

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/tailored-agentic-units/flow/router"
)

const ServiceName = "flow.debug.v1.DebugService"

const (
	PauseProcedure            = "/" + ServiceName + "/Pause"
	ResumeProcedure           = "/" + ServiceName + "/Resume"
	StatusProcedure           = "/" + ServiceName + "/Status"
	SetBreakpointProcedure    = "/" + ServiceName + "/SetBreakpoint"
	ClearBreakpointProcedure  = "/" + ServiceName + "/ClearBreakpoint"
	ListBreakpointsProcedure  = "/" + ServiceName + "/ListBreakpoints"
	EnableBreakpointProcedure = "/" + ServiceName + "/EnableBreakpoint"
	ClearBreakpointsProcedure = "/" + ServiceName + "/ClearBreakpoints"
)

// Controller is the router surface the service drives.
type Controller interface {
	Pause()
	Resume()
	Status() router.Status
}

// Service serves the debug procedures for one router.
type Service struct {
	controller  Controller
	breakpoints *Breakpoints
	logger      *slog.Logger
}

func NewService(controller Controller, breakpoints *Breakpoints, opts ...Option) *Service {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{
		controller:  controller,
		breakpoints: breakpoints,
		logger:      o.logger,
	}
}

// Handler returns the path prefix and handler to mount on an http.ServeMux.
func (s *Service) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(PauseProcedure, connect.NewUnaryHandler(PauseProcedure, s.pause, opts...))
	mux.Handle(ResumeProcedure, connect.NewUnaryHandler(ResumeProcedure, s.resume, opts...))
	mux.Handle(StatusProcedure, connect.NewUnaryHandler(StatusProcedure, s.status, opts...))
	mux.Handle(SetBreakpointProcedure, connect.NewUnaryHandler(SetBreakpointProcedure, s.setBreakpoint, opts...))
	mux.Handle(ClearBreakpointProcedure, connect.NewUnaryHandler(ClearBreakpointProcedure, s.clearBreakpoint, opts...))
	mux.Handle(ListBreakpointsProcedure, connect.NewUnaryHandler(ListBreakpointsProcedure, s.listBreakpoints, opts...))
	mux.Handle(EnableBreakpointProcedure, connect.NewUnaryHandler(EnableBreakpointProcedure, s.enableBreakpoint, opts...))
	mux.Handle(ClearBreakpointsProcedure, connect.NewUnaryHandler(ClearBreakpointsProcedure, s.clearBreakpoints, opts...))
	return "/" + ServiceName + "/", mux
}

func (s *Service) pause(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[emptypb.Empty], error) {
	s.controller.Pause()
	s.logger.InfoContext(ctx, "router paused by debugger")
	return connect.NewResponse(&emptypb.Empty{}), nil
}

func (s *Service) resume(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[emptypb.Empty], error) {
	s.controller.Resume()
	s.logger.InfoContext(ctx, "router resumed by debugger")
	return connect.NewResponse(&emptypb.Empty{}), nil
}

func (s *Service) status(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	var last *Hit
	if hit, ok := s.breakpoints.LastHit(); ok {
		last = &hit
	}
	return connect.NewResponse(statusToStruct(s.controller.Status(), last)), nil
}

func (s *Service) setBreakpoint(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[wrapperspb.StringValue], error) {
	bp, err := breakpointFromStruct(req.Msg)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	id, err := s.breakpoints.Set(bp)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	s.logger.InfoContext(
		ctx,
		"breakpoint set",
		slog.String("breakpoint_id", id),
		slog.String("source", bp.Source),
		slog.Int("port", bp.Port),
		slog.String("destination", bp.Destination),
	)
	return connect.NewResponse(wrapperspb.String(id)), nil
}

func (s *Service) clearBreakpoint(ctx context.Context, req *connect.Request[wrapperspb.StringValue]) (*connect.Response[emptypb.Empty], error) {
	if err := s.breakpoints.Clear(req.Msg.GetValue()); err != nil {
		if errors.Is(err, ErrBreakpointNotFound) {
			return nil, connect.NewError(connect.CodeNotFound, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.InfoContext(ctx, "breakpoint cleared", slog.String("breakpoint_id", req.Msg.GetValue()))
	return connect.NewResponse(&emptypb.Empty{}), nil
}

func (s *Service) listBreakpoints(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	return connect.NewResponse(breakpointsToStruct(s.breakpoints.List())), nil
}

// enableBreakpoint takes {"id": string, "enabled": bool}.
func (s *Service) enableBreakpoint(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[emptypb.Empty], error) {
	fields := req.Msg.GetFields()
	id := fields["id"].GetStringValue()
	enabled, ok := fields["enabled"].GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("enabled must be a bool"))
	}

	if err := s.breakpoints.Enable(id, enabled.BoolValue); err != nil {
		if errors.Is(err, ErrBreakpointNotFound) {
			return nil, connect.NewError(connect.CodeNotFound, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.InfoContext(ctx, "breakpoint toggled", slog.String("breakpoint_id", id), slog.Bool("enabled", enabled.BoolValue))
	return connect.NewResponse(&emptypb.Empty{}), nil
}

func (s *Service) clearBreakpoints(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[wrapperspb.Int64Value], error) {
	n := s.breakpoints.ClearAll()
	s.logger.InfoContext(ctx, "breakpoints cleared", slog.Int("count", n))
	return connect.NewResponse(wrapperspb.Int64(int64(n))), nil
}
