package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mcdev12/nexora/go/internal/focus"
	"github.com/mcdev12/nexora/go/internal/models"
	"github.com/mcdev12/nexora/go/internal/timer"
	"github.com/mcdev12/nexora/go/internal/validation"
)

// TimerServiceName is the fully-qualified name of the timer service.
const TimerServiceName = "nexora.timer.v1.TimerService"

// Procedure paths of the timer service
const (
	TimerServiceGetStateProcedure = "/" + TimerServiceName + "/GetState"
	TimerServiceSelectProcedure   = "/" + TimerServiceName + "/Select"
	TimerServiceStartProcedure    = "/" + TimerServiceName + "/Start"
	TimerServicePauseProcedure    = "/" + TimerServiceName + "/Pause"
	TimerServiceStopProcedure     = "/" + TimerServiceName + "/Stop"
)

// TimerApp defines what the service layer needs from the focus application
type TimerApp interface {
	Select(ctx context.Context, mode models.FocusMode) (timer.Snapshot, error)
	Snapshot() (timer.Snapshot, error)
	Start(ctx context.Context) (timer.Snapshot, error)
	Pause(ctx context.Context) (timer.Snapshot, error)
	Stop(ctx context.Context) (timer.Snapshot, error)
}

// TimerService serves the timer over Connect using well-known message types
type TimerService struct {
	app TimerApp
}

// NewTimerService creates a new timer RPC service
func NewTimerService(app TimerApp) *TimerService {
	return &TimerService{app: app}
}

// Handler returns the path prefix and handler to mount on the server mux
func (s *TimerService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	getState := connect.NewUnaryHandler(TimerServiceGetStateProcedure, s.GetState, opts...)
	selectMode := connect.NewUnaryHandler(TimerServiceSelectProcedure, s.Select, opts...)
	start := connect.NewUnaryHandler(TimerServiceStartProcedure, s.Start, opts...)
	pause := connect.NewUnaryHandler(TimerServicePauseProcedure, s.Pause, opts...)
	stop := connect.NewUnaryHandler(TimerServiceStopProcedure, s.Stop, opts...)

	return "/" + TimerServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case TimerServiceGetStateProcedure:
			getState.ServeHTTP(w, r)
		case TimerServiceSelectProcedure:
			selectMode.ServeHTTP(w, r)
		case TimerServiceStartProcedure:
			start.ServeHTTP(w, r)
		case TimerServicePauseProcedure:
			pause.ServeHTTP(w, r)
		case TimerServiceStopProcedure:
			stop.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// GetState returns the timer snapshot
func (s *TimerService) GetState(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	snap, err := s.app.Snapshot()
	return respond(snap, err)
}

// Select picks a mode. The request carries "type" and, for custom timers,
// "name", "hours" and "minutes".
func (s *TimerService) Select(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	fields := req.Msg.GetFields()
	modeType := models.FocusModeType(fields["type"].GetStringValue())

	var (
		mode models.FocusMode
		err  error
	)
	if modeType == models.FocusModeCustom {
		mode, err = focus.ValidateCustomMode(
			fields["name"].GetStringValue(),
			int(fields["hours"].GetNumberValue()),
			int(fields["minutes"].GetNumberValue()),
		)
	} else {
		mode, err = focus.ModeByType(modeType)
	}
	if err != nil {
		return nil, toConnectError(err)
	}
	snap, err := s.app.Select(ctx, mode)
	return respond(snap, err)
}

// Start starts or resumes the timer
func (s *TimerService) Start(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	return respond(s.app.Start(ctx))
}

// Pause pauses the timer
func (s *TimerService) Pause(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	return respond(s.app.Pause(ctx))
}

// Stop stops the session
func (s *TimerService) Stop(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	return respond(s.app.Stop(ctx))
}

func respond(snap timer.Snapshot, err error) (*connect.Response[structpb.Struct], error) {
	if err != nil {
		return nil, toConnectError(err)
	}
	msg, err := SnapshotToStruct(snap)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

// SnapshotToStruct converts a snapshot to its JSON-shaped struct
func SnapshotToStruct(snap timer.Snapshot) (*structpb.Struct, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return structpb.NewStruct(m)
}

// StructToSnapshot is the inverse of SnapshotToStruct
func StructToSnapshot(s *structpb.Struct) (timer.Snapshot, error) {
	var snap timer.Snapshot
	data, err := s.MarshalJSON()
	if err != nil {
		return snap, fmt.Errorf("failed to marshal struct: %w", err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, nil
}

func toConnectError(err error) error {
	if _, ok := validation.As(err); ok {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	switch {
	case errors.Is(err, focus.ErrUnknownMode):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, focus.ErrNoActiveSession),
		errors.Is(err, focus.ErrSessionInProgress),
		errors.Is(err, timer.ErrAlreadyRunning),
		errors.Is(err, timer.ErrNotRunning),
		errors.Is(err, timer.ErrClosed):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
