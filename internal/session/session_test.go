package session

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/DoyleJ11/connect-four/internal/engine"
	"github.com/DoyleJ11/connect-four/internal/protocol"
	"github.com/DoyleJ11/connect-four/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

const waitFor = 2 * time.Second

func testLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	t.Cleanup(cancel)
	return ctx
}

// newPair wires a host and a guest session through an in-process pipe.
func newPair(t *testing.T, cfg engine.Config) (*Session, *Session) {
	t.Helper()
	log := testLogger(t)
	a, b := transport.Pipe(log)

	host, err := New(context.Background(), a, engine.Red, cfg, log.Named("host"))
	require.NoError(t, err)
	guest, err := New(context.Background(), b, engine.Yellow, cfg, log.Named("guest"))
	require.NoError(t, err)

	t.Cleanup(func() {
		host.Close()
		guest.Close()
	})
	return host, guest
}

// newGuestWithRawHost runs a guest session against a bare channel the test
// drives by hand.
func newGuestWithRawHost(t *testing.T, cfg engine.Config) (*Session, *transport.Conn) {
	t.Helper()
	a, b := transport.Pipe(nil)
	guest, err := New(context.Background(), b, engine.Yellow, cfg, testLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		guest.Close()
		a.Close()
	})
	return guest, a
}

func mustState(t *testing.T, s *Session) View {
	t.Helper()
	v, err := s.State(testCtx(t))
	require.NoError(t, err)
	return v
}

func waitMyTurn(t *testing.T, s *Session) View {
	t.Helper()
	require.Eventually(t, func() bool {
		v, err := s.State(context.Background())
		return err == nil && v.MyTurn()
	}, waitFor, 5*time.Millisecond, "peer never got the turn")
	return mustState(t, s)
}

// move performs a local action on from and waits until to has replayed it.
func move(t *testing.T, from, to *Session, do func(*Session, context.Context) error) {
	t.Helper()
	require.NoError(t, do(from, testCtx(t)))
	waitMyTurn(t, to)
}

func drop(col int) func(*Session, context.Context) error {
	return func(s *Session, ctx context.Context) error { return s.Drop(ctx, col) }
}

func restart(s *Session, ctx context.Context) error { return s.Restart(ctx) }
func forfeit(s *Session, ctx context.Context) error { return s.Forfeit(ctx) }

func subscribe(t *testing.T, s *Session, id string) chan Event {
	t.Helper()
	out := make(chan Event, 256)
	require.NoError(t, s.Subscribe(testCtx(t), id, out))
	first := recvEvent(t, out, waitFor)
	require.Equal(t, EvtSnapshot, first.Type)
	return out
}

func recvEvent(t *testing.T, ch <-chan Event, within time.Duration) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatalf("outbox closed unexpectedly")
		}
		return ev
	case <-time.After(within):
		t.Fatalf("timed out waiting for event")
		return Event{}
	}
}

func drain(ch <-chan Event) []Event {
	var out []Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func countType(evs []Event, typ EventType) int {
	n := 0
	for _, ev := range evs {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func TestNew_InitialPhases(t *testing.T) {
	host, guest := newPair(t, engine.DefaultConfig())

	hv := mustState(t, host)
	gv := mustState(t, guest)
	assert.Equal(t, engine.Red, hv.Color)
	assert.Equal(t, engine.PhaseAwaitingLocalMove, hv.Phase)
	assert.Equal(t, engine.Yellow, gv.Color)
	assert.Equal(t, engine.PhaseAwaitingRemoteMove, gv.Phase)
	assert.NotEmpty(t, hv.GameID)
	assert.Equal(t, 0, hv.Version)
}

func TestNew_RejectsBadInput(t *testing.T) {
	a, b := transport.Pipe(nil)
	defer a.Close()
	defer b.Close()

	_, err := New(context.Background(), a, engine.Empty, engine.DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrInvalidColor)

	_, err = New(context.Background(), a, engine.Red, engine.Config{Rows: 0, Columns: 7, WinRun: 4}, nil)
	assert.ErrorIs(t, err, engine.ErrInvalidConfig)
}

func TestDrop_ReplicatesToOpponent(t *testing.T) {
	host, guest := newPair(t, engine.DefaultConfig())

	move(t, host, guest, drop(3))
	gv := mustState(t, guest)
	assert.Equal(t, engine.Red, gv.Cells[5][3], "guest shows the host's chip")
	assert.Equal(t, engine.PhaseAwaitingRemoteMove, mustState(t, host).Phase)

	move(t, guest, host, drop(3))
	hv := mustState(t, host)
	assert.Equal(t, engine.Red, hv.Cells[5][3])
	assert.Equal(t, engine.Yellow, hv.Cells[4][3], "host shows the guest's chip")

	assert.Equal(t, hv.Cells, mustState(t, guest).Cells)
}

func TestAct_NotYourTurn(t *testing.T) {
	host, guest := newPair(t, engine.DefaultConfig())
	ctx := testCtx(t)

	assert.ErrorIs(t, guest.Drop(ctx, 0), ErrNotYourTurn)
	assert.ErrorIs(t, guest.Restart(ctx), ErrNotYourTurn)
	assert.ErrorIs(t, guest.Forfeit(ctx), ErrNotYourTurn)

	move(t, host, guest, drop(0))
	assert.ErrorIs(t, host.Drop(ctx, 1), ErrNotYourTurn)
	assert.Equal(t, engine.Empty, mustState(t, host).Cells[5][1])
}

func TestDrop_LocalFullColumnSendsNothing(t *testing.T) {
	cfg := engine.Config{Rows: 2, Columns: 3, WinRun: 3}
	host, guest := newPair(t, cfg)

	move(t, host, guest, drop(0))
	move(t, guest, host, drop(0))
	guestVersion := mustState(t, guest).Version

	err := host.Drop(testCtx(t), 0)
	assert.ErrorIs(t, err, engine.ErrColumnFull)
	assert.ErrorIs(t, host.Drop(testCtx(t), 9), engine.ErrColumnOutOfRange)

	hv := mustState(t, host)
	assert.True(t, hv.MyTurn(), "a rejected drop keeps the turn")
	assert.Equal(t, []int{1, 2}, hv.LegalColumns)

	move(t, host, guest, drop(1))
	gv := mustState(t, guest)
	assert.Equal(t, guestVersion+1, gv.Version, "guest saw exactly one more action")
	assert.Equal(t, engine.Red, gv.Cells[1][1])
}

func TestForfeit_DoesNotTouchBoard(t *testing.T) {
	host, guest := newPair(t, engine.DefaultConfig())
	hostEvents := subscribe(t, host, "host-ui")
	guestEvents := subscribe(t, guest, "guest-ui")

	move(t, host, guest, drop(2))
	before := mustState(t, guest).Cells

	move(t, guest, host, forfeit)
	assert.Equal(t, before, mustState(t, guest).Cells)
	assert.Equal(t, before, mustState(t, host).Cells)
	assert.True(t, mustState(t, host).MyTurn())

	hostSwaps := drain(hostEvents)
	guestSwaps := drain(guestEvents)
	require.Equal(t, 1, countType(hostSwaps, EvtTurnSwap))
	require.Equal(t, 1, countType(guestSwaps, EvtTurnSwap))
	for _, ev := range hostSwaps {
		if ev.Type == EvtTurnSwap {
			assert.True(t, ev.Remote, "host was handed the turn by the opponent")
		}
	}
	for _, ev := range guestSwaps {
		if ev.Type == EvtTurnSwap {
			assert.False(t, ev.Remote)
		}
	}
}

func TestGameOver_LatchedUntilRestart(t *testing.T) {
	host, guest := newPair(t, engine.DefaultConfig())
	hostEvents := subscribe(t, host, "host-ui")
	guestEvents := subscribe(t, guest, "guest-ui")

	// Red stacks column 0 while yellow answers in column 1.
	for i := 0; i < 3; i++ {
		move(t, host, guest, drop(0))
		move(t, guest, host, drop(1))
	}
	assert.Zero(t, countType(drain(hostEvents), EvtGameOver))
	move(t, host, guest, drop(0))

	hv := mustState(t, host)
	require.True(t, hv.Terminal)
	require.Equal(t, engine.Red, hv.Winner)
	require.Equal(t, engine.Red, mustState(t, guest).Winner)

	// Play continues after the win, silently.
	move(t, guest, host, drop(2))
	move(t, host, guest, drop(2))
	move(t, guest, host, drop(3))

	hostAll := drain(hostEvents)
	guestAll := drain(guestEvents)
	assert.Equal(t, 1, countType(hostAll, EvtGameOver))
	assert.Equal(t, 1, countType(guestAll, EvtGameOver))
	for _, ev := range hostAll {
		if ev.Type == EvtGameOver {
			assert.Equal(t, engine.Red, ev.Winner)
			assert.False(t, ev.Remote, "the host made the winning move")
		}
	}

	oldHostGame := mustState(t, host).GameID
	move(t, host, guest, restart)
	hv = mustState(t, host)
	gv := mustState(t, guest)
	assert.False(t, hv.Terminal)
	assert.Len(t, gv.LegalColumns, 7)
	assert.Equal(t, hv.Cells, gv.Cells)
	assert.NotEqual(t, oldHostGame, hv.GameID)
	assert.Equal(t, 1, countType(drain(hostEvents), EvtRestart))
	assert.Equal(t, 1, countType(drain(guestEvents), EvtRestart))

	// A new game, yellow wins this one.
	for i := 0; i < 3; i++ {
		move(t, guest, host, drop(6))
		move(t, host, guest, drop(5))
	}
	move(t, guest, host, drop(6))

	hostAll = drain(hostEvents)
	guestAll = drain(guestEvents)
	require.Equal(t, 1, countType(hostAll, EvtGameOver))
	require.Equal(t, 1, countType(guestAll, EvtGameOver))
	for _, ev := range guestAll {
		if ev.Type == EvtGameOver {
			assert.Equal(t, engine.Yellow, ev.Winner)
		}
	}
}

func TestGameOver_DrawNotification(t *testing.T) {
	cfg := engine.Config{Rows: 1, Columns: 2, WinRun: 2}
	host, guest := newPair(t, cfg)
	guestEvents := subscribe(t, guest, "guest-ui")

	move(t, host, guest, drop(0))
	move(t, guest, host, drop(1))

	gv := mustState(t, guest)
	require.True(t, gv.Draw)
	require.Equal(t, engine.Empty, gv.Winner)

	var over []Event
	for _, ev := range drain(guestEvents) {
		if ev.Type == EvtGameOver {
			over = append(over, ev)
		}
	}
	require.Len(t, over, 1)
	assert.Equal(t, engine.Empty, over[0].Winner)
	assert.True(t, over[0].View.Draw)
}

func TestRemote_FullColumnIsNoOp(t *testing.T) {
	cfg := engine.Config{Rows: 1, Columns: 3, WinRun: 3}
	guest, raw := newGuestWithRawHost(t, cfg)

	require.NoError(t, raw.Send(protocol.ColumnDrop(0)))
	gv := waitMyTurn(t, guest)
	assert.Equal(t, []string{"R.."}, gv.Rows)

	got := make(chan protocol.Message, 1)
	go func() {
		m, err := raw.Receive()
		if err == nil {
			got <- m
		}
	}()
	require.NoError(t, guest.Forfeit(testCtx(t)))
	select {
	case m := <-got:
		assert.Equal(t, protocol.ForfeitTurn(), m)
	case <-time.After(waitFor):
		t.Fatalf("host never saw the forfeit")
	}

	require.NoError(t, raw.Send(protocol.ColumnDrop(0)))
	gv = waitMyTurn(t, guest)
	assert.Equal(t, []string{"R.."}, gv.Rows, "full column replay leaves the board alone")
	assert.NoError(t, guest.Err())

	select {
	case <-guest.Done():
		t.Fatalf("session stopped on a full column replay: %v", guest.Err())
	default:
	}
}

func TestRemote_OutOfRangeColumnIsFatal(t *testing.T) {
	guest, raw := newGuestWithRawHost(t, engine.DefaultConfig())
	events := subscribe(t, guest, "ui")

	require.NoError(t, raw.Send(protocol.ColumnDrop(7)))

	select {
	case <-guest.Done():
	case <-time.After(waitFor):
		t.Fatalf("session kept running after a desync")
	}
	assert.ErrorIs(t, guest.Err(), ErrDesync)
	assert.ErrorIs(t, guest.Err(), engine.ErrColumnOutOfRange)

	_, ok := <-events
	assert.False(t, ok, "subscribers are released when the session stops")
}

func TestRemote_MalformedIsFatal(t *testing.T) {
	rawEnd, sessEnd := net.Pipe()
	guest, err := New(context.Background(), transport.NewConn(sessEnd, nil), engine.Yellow, engine.DefaultConfig(), testLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		guest.Close()
		rawEnd.Close()
	})

	_, err = rawEnd.Write([]byte("seven\x00"))
	require.NoError(t, err)

	select {
	case <-guest.Done():
	case <-time.After(waitFor):
		t.Fatalf("session kept running after a malformed message")
	}
	assert.ErrorIs(t, guest.Err(), protocol.ErrMalformedMessage)
}

func TestTransportFailure_EndsSession(t *testing.T) {
	host, guest := newPair(t, engine.DefaultConfig())

	host.Close()
	select {
	case <-guest.Done():
	case <-time.After(waitFor):
		t.Fatalf("guest kept running after the host went away")
	}

	var terr *transport.TransportError
	require.True(t, errors.As(guest.Err(), &terr), "got %v", guest.Err())
	assert.Equal(t, transport.OpReceive, terr.Op)

	assert.NoError(t, host.Err(), "a requested shutdown is not a failure")
	assert.ErrorIs(t, host.Drop(context.Background(), 0), ErrSessionClosed)
	_, err := guest.State(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSubscribe_SnapshotOnJoinAndLeave(t *testing.T) {
	host, guest := newPair(t, engine.DefaultConfig())
	out := subscribe(t, guest, "ui")

	move(t, host, guest, drop(4))
	ev := recvEvent(t, out, waitFor)
	assert.Equal(t, EvtSnapshot, ev.Type)
	assert.True(t, ev.Remote)
	assert.Equal(t, 1, ev.View.Version)
	assert.Equal(t, "....R..", ev.View.Rows[5])

	require.NoError(t, guest.Unsubscribe(testCtx(t), "ui"))
	move(t, guest, host, drop(4))
	assert.Empty(t, drain(out))
}

func TestSubscribe_SlowClientDropped(t *testing.T) {
	host, guest := newPair(t, engine.DefaultConfig())
	out := make(chan Event, 1)
	require.NoError(t, host.Subscribe(testCtx(t), "slow", out))

	// The join snapshot fills the buffer; the next event cannot be delivered.
	move(t, host, guest, drop(0))

	<-out
	_, ok := <-out
	assert.False(t, ok, "slow subscriber's outbox is closed")
}

func TestView_Snapshot(t *testing.T) {
	host, guest := newPair(t, engine.DefaultConfig())
	move(t, host, guest, drop(3))

	snap := mustState(t, guest).Snapshot()
	assert.Equal(t, "yellow", snap.Color)
	assert.True(t, snap.MyTurn)
	assert.Equal(t, "awaiting_local_move", snap.Phase)
	assert.Equal(t, 7, snap.Columns)
	assert.Equal(t, "...R...", snap.Board[5])
	assert.Empty(t, snap.Winner)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, snap.LegalColumns)
}

func TestSubscribe_AfterShutdownQueued(t *testing.T) {
	host, _ := newPair(t, engine.DefaultConfig())

	host.inbox <- Shutdown{}
	out := make(chan Event, 4)
	err := host.Subscribe(context.Background(), "late", out)
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, host.Drop(context.Background(), 0), ErrSessionClosed)

	<-host.Done()
	assert.Empty(t, drain(out), "an unregistered outbox gets no events")
}

func TestSubscribe_RequestsQueuedBehindShutdownAreAnswered(t *testing.T) {
	host, _ := newPair(t, engine.DefaultConfig())

	joinReply := make(chan error, 1)
	actReply := make(chan error, 1)
	host.inbox <- Shutdown{}
	host.inbox <- Join{ClientID: "queued", Outbox: make(chan Event, 1), Reply: joinReply}
	host.inbox <- Act{Action: protocol.ColumnDrop(0), Reply: actReply}

	<-host.Done()
	assert.ErrorIs(t, <-joinReply, ErrSessionClosed)
	assert.ErrorIs(t, <-actReply, ErrSessionClosed)
}

func TestSubscribe_SameIDReplacesOutbox(t *testing.T) {
	host, guest := newPair(t, engine.DefaultConfig())
	first := subscribe(t, host, "ui")
	second := subscribe(t, host, "ui")

	_, ok := <-first
	assert.False(t, ok, "the replaced outbox is released")

	move(t, host, guest, drop(0))
	ev := recvEvent(t, second, waitFor)
	assert.Equal(t, 1, ev.View.Version)
}
