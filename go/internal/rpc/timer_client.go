package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mcdev12/nexora/go/internal/models"
	"github.com/mcdev12/nexora/go/internal/timer"
)

// TimerClient drives the timer of a running server
type TimerClient struct {
	getState   *connect.Client[emptypb.Empty, structpb.Struct]
	selectMode *connect.Client[structpb.Struct, structpb.Struct]
	start      *connect.Client[emptypb.Empty, structpb.Struct]
	pause      *connect.Client[emptypb.Empty, structpb.Struct]
	stop       *connect.Client[emptypb.Empty, structpb.Struct]
}

// NewTimerClient creates a client for the server at baseURL
func NewTimerClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *TimerClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TimerClient{
		getState:   connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+TimerServiceGetStateProcedure, opts...),
		selectMode: connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+TimerServiceSelectProcedure, opts...),
		start:      connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+TimerServiceStartProcedure, opts...),
		pause:      connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+TimerServicePauseProcedure, opts...),
		stop:       connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+TimerServiceStopProcedure, opts...),
	}
}

func unwrap(resp *connect.Response[structpb.Struct], err error) (timer.Snapshot, error) {
	if err != nil {
		return timer.Snapshot{}, err
	}
	return StructToSnapshot(resp.Msg)
}

func (c *TimerClient) GetState(ctx context.Context) (timer.Snapshot, error) {
	return unwrap(c.getState.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{})))
}

// Select picks a built-in mode, or a custom one when modeType is custom.
func (c *TimerClient) Select(ctx context.Context, modeType models.FocusModeType, name string, hours, minutes int) (timer.Snapshot, error) {
	req, err := structpb.NewStruct(map[string]any{
		"type":    string(modeType),
		"name":    name,
		"hours":   hours,
		"minutes": minutes,
	})
	if err != nil {
		return timer.Snapshot{}, err
	}
	return unwrap(c.selectMode.CallUnary(ctx, connect.NewRequest(req)))
}

func (c *TimerClient) Start(ctx context.Context) (timer.Snapshot, error) {
	return unwrap(c.start.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{})))
}

func (c *TimerClient) Pause(ctx context.Context) (timer.Snapshot, error) {
	return unwrap(c.pause.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{})))
}

func (c *TimerClient) Stop(ctx context.Context) (timer.Snapshot, error) {
	return unwrap(c.stop.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{})))
}
