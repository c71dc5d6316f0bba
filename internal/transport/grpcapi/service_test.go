package grpcapi

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/dicestats/internal/app"
	"github.com/xtding233/dicestats/internal/config"
	"github.com/xtding233/dicestats/internal/dice"
	"github.com/xtding233/dicestats/internal/preset"
	"github.com/xtding233/dicestats/internal/storage/memory"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, _ := newTestClientWithLimits(t, app.Limits{MaxRollCount: 500, MaxDiceCount: 20, MaxSides: 100})
	return c
}

func newTestClientWithLimits(t *testing.T, limits app.Limits) (*Client, *app.Session) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	session, err := app.NewSession(context.Background(), memory.New(), app.Options{
		Limits: limits,
		RNG:    dice.NewSeededRNG(3),
		Logger: logger,
	})
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	Register(srv, NewService(session, logger))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn), session
}

func rollsHeld(t *testing.T, s *structpb.Struct) int {
	t.Helper()
	m := s.AsMap()
	assert.NotContains(t, m, "rolls")
	n, ok := m["rollsHeld"].(float64)
	require.True(t, ok, "rollsHeld missing from snapshot")
	return int(n)
}

func histogramTotal(t *testing.T, s *structpb.Struct) int {
	t.Helper()
	total := 0
	for _, bin := range s.AsMap()["histogram"].([]any) {
		pair := bin.([]any)
		total += int(pair[1].(float64))
	}
	return total
}

func TestSnapshotInitial(t *testing.T) {
	c := newTestClient(t)
	snap, err := c.Snapshot(context.Background())
	require.NoError(t, err)

	m := snap.AsMap()
	cfg := m["config"].(map[string]any)
	assert.Equal(t, "none", cfg["modifier"])
	assert.Equal(t, 100.0, cfg["rollCount"])
	assert.Zero(t, rollsHeld(t, snap))
	assert.Nil(t, m["expectedValue"])
}

func TestDispatchBatch(t *testing.T) {
	c := newTestClient(t)
	snap, err := c.Dispatch(context.Background(),
		app.UpdateModifier{Modifier: dice.ModifierChooseLowest},
		app.UpdateRollCount{Value: 25},
		app.GenerateRollResult{},
		app.SavePreset{},
	)
	require.NoError(t, err)

	m := snap.AsMap()
	assert.Equal(t, 25, rollsHeld(t, snap))
	assert.Equal(t, 25, histogramTotal(t, snap))
	assert.Len(t, m["histogram"], 6)
	ev, ok := m["expectedValue"].(float64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, ev, 1.0)
	assert.LessOrEqual(t, ev, 6.0)
	assert.Len(t, m["presets"], 1)
}

func TestDispatchErrors(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.Dispatch(ctx, app.UpdateSidesPerDie{Value: 101})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.ErrorContains(t, err, "limit")

	_, err = c.Dispatch(ctx, app.LoadPreset{Preset: preset.Preset{Modifier: "median"}})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	bad, err := structpb.NewStruct(map[string]any{"actions": []any{map[string]any{"type": "shuffle"}}})
	require.NoError(t, err)
	err = c.cc.Invoke(ctx, methodDispatch, bad, new(structpb.Struct))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.ErrorContains(t, err, "unknown action type")

	empty, err := structpb.NewStruct(nil)
	require.NoError(t, err)
	err = c.cc.Invoke(ctx, methodDispatch, empty, new(structpb.Struct))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestWatchStreamsBatches(t *testing.T) {
	c := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	next, err := c.Watch(ctx)
	require.NoError(t, err)
	first, err := next()
	require.NoError(t, err)
	assert.Zero(t, rollsHeld(t, first))

	_, err = c.Dispatch(ctx, app.UpdateRollCount{Value: 4}, app.GenerateRollResult{})
	require.NoError(t, err)
	got, err := next()
	require.NoError(t, err)
	assert.Equal(t, 4, rollsHeld(t, got))
}

func TestLargeSnapshotsFitMessage(t *testing.T) {
	tests := []struct {
		name    string
		actions []app.Action
		rolls   int
		bins    int
	}{
		{"many rolls", []app.Action{app.UpdateRollCount{Value: 500_000}, app.GenerateRollResult{}}, 500_000, 11},
		{"widest domain", []app.Action{
			app.UpdateRollCount{Value: 1_000_000},
			app.UpdateDiceCount{Value: 1},
			app.UpdateSidesPerDie{Value: 10_000},
			app.GenerateRollResult{},
		}, 1_000_000, 10_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, session := newTestClientWithLimits(t, config.DefaultServer().SessionLimits())
			ctx := context.Background()

			snap, err := c.Dispatch(ctx, tt.actions...)
			require.NoError(t, err)
			assert.Equal(t, tt.rolls, rollsHeld(t, snap))
			assert.Equal(t, tt.rolls, histogramTotal(t, snap))
			assert.Len(t, snap.AsMap()["histogram"], tt.bins)
			assert.Len(t, session.State().Rolls, tt.rolls)

			again, err := c.Snapshot(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.rolls, histogramTotal(t, again))
		})
	}
}
