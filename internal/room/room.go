// Package room runs one actor goroutine per room. The actor is the sole
// owner of the room's GameSession: every command, timer fire and departure
// is serialized through its inbox, so state transitions never interleave.
// Different rooms run fully in parallel.
package room

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/blackjack-live/backend/internal/blackjack"
)

var ErrRoomFull = errors.New("room is full")

// Accounts is the balance collaborator. Calls are atomic and serialize
// mutations touching the same balance.
type Accounts interface {
	Debit(ctx context.Context, playerID string, amount int64) error
	Credit(ctx context.Context, playerID string, amount int64) error
}

// Payouts is the external payout collaborator. Calls can be slow or fail;
// the room bounds each with a timeout and never retries inline.
type Payouts interface {
	Win(ctx context.Context, playerID string, amount int64) error
	Push(ctx context.Context, playerID string, amount int64) error
	Blackjack(ctx context.Context, playerID string, amount int64) error
}

// Snapshots persists crash-recovery state and failed payout legs. May be
// nil when running without a database.
type Snapshots interface {
	SaveSnapshot(ctx context.Context, state *blackjack.State) error
	RecordPendingPayout(ctx context.Context, roomID, playerID, leg string, amount int64, cause error) error
}

type Config struct {
	BetWindow     time.Duration
	TurnTimeout   time.Duration
	PayoutTimeout time.Duration
	Capacity      int
}

func (c Config) withDefaults() Config {
	if c.BetWindow <= 0 {
		c.BetWindow = 60 * time.Second
	}
	if c.TurnTimeout <= 0 {
		c.TurnTimeout = 60 * time.Second
	}
	if c.PayoutTimeout <= 0 {
		c.PayoutTimeout = 10 * time.Second
	}
	if c.Capacity <= 0 {
		c.Capacity = 7
	}
	return c
}

type Msg interface{ isRoomMsg() }

type Join struct {
	ClientID string
	Outbox   chan Envelope
	Reply    chan JoinReply
}

// JoinReply carries the connection token the transport must present on
// Leave. A reconnect under the same client ID gets a fresh token, so the
// old connection's cleanup can no longer touch the live session.
type JoinReply struct {
	Conn uint64
	Err  error
}

// Leave is connection cleanup, sent when the socket closes.
type Leave struct {
	ClientID string
	Conn     uint64
}

// WithdrawSeat pulls a player out of the round (refunding an open-window
// stake) but keeps them in the room as a spectator.
type WithdrawSeat struct{ PlayerID string }

type PlaceBet struct {
	PlayerID string
	Amount   int64
	Reply    chan error
}

type SubmitMove struct {
	PlayerID string
	Move     blackjack.Move
	TurnGen  uint64
	Reply    chan error
}

type GetView struct{ Reply chan View }

type Shutdown struct{}

// Timer fires re-enter the same serialized stream as client commands.
type windowExpired struct{}

type turnExpired struct{ gen uint64 }

func (Join) isRoomMsg()          {}
func (Leave) isRoomMsg()         {}
func (WithdrawSeat) isRoomMsg()  {}
func (PlaceBet) isRoomMsg()      {}
func (SubmitMove) isRoomMsg()    {}
func (GetView) isRoomMsg()       {}
func (Shutdown) isRoomMsg()      {}
func (windowExpired) isRoomMsg() {}
func (turnExpired) isRoomMsg()   {}

// Envelope is what clients receive on every accepted mutation: the events
// it produced plus a redacted view of the session.
type Envelope struct {
	Version int               `json:"version"`
	Events  []blackjack.Event `json:"events,omitempty"`
	View    View              `json:"view"`
}

// member is one connected client. conn distinguishes connections so a
// stale Leave from a superseded socket is dropped.
type member struct {
	outbox chan Envelope
	conn   uint64
}

type Room struct {
	id       string
	inbox    chan Msg
	state    *blackjack.State
	members  map[string]member
	connSeq  uint64
	version  int
	cfg      Config
	accounts Accounts
	payouts  Payouts
	snaps    Snapshots
	log      *zap.Logger

	windowTimer *time.Timer
	turnTimer   *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
}

// New starts the room actor. state may be a snapshot restored at startup;
// pass nil for a fresh session.
func New(parent context.Context, id string, state *blackjack.State, cfg Config,
	accounts Accounts, payouts Payouts, snaps Snapshots, log *zap.Logger) *Room {

	ctx, cancel := context.WithCancel(parent)
	if state == nil {
		state = blackjack.NewState(id)
	}
	r := &Room{
		id:       id,
		inbox:    make(chan Msg, 64),
		state:    state,
		members:  make(map[string]member),
		cfg:      cfg.withDefaults(),
		accounts: accounts,
		payouts:  payouts,
		snaps:    snaps,
		log:      log.With(zap.String("room", id)),
		ctx:      ctx,
		cancel:   cancel,
	}
	// A snapshot restored mid-round carries no running timers: re-arm the
	// deadline the previous process was holding so the session cannot stall
	// against an unresponsive player.
	switch state.Phase {
	case blackjack.PhaseBetting:
		r.armWindowTimer()
	case blackjack.PhasePlaying:
		r.armTurnTimer(state.TurnGen)
	}
	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) ID() string { return r.id }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				msg.Reply <- r.join(msg)

			case Leave:
				r.leave(msg)

			case WithdrawSeat:
				r.withdrawSeat(msg.PlayerID)

			case PlaceBet:
				msg.Reply <- r.placeBet(msg)

			case SubmitMove:
				msg.Reply <- r.submitMove(msg)

			case windowExpired:
				r.apply(blackjack.Command{Type: blackjack.CmdWindowExpired})

			case turnExpired:
				r.apply(blackjack.Command{Type: blackjack.CmdTurnExpired, TurnGen: msg.gen})

			case GetView:
				msg.Reply <- r.view()

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) join(msg Join) JoinReply {
	if old, ok := r.members[msg.ClientID]; ok {
		// Reconnect: the new connection supersedes the old one.
		close(old.outbox)
	} else if len(r.members) >= r.cfg.Capacity {
		return JoinReply{Err: ErrRoomFull}
	}
	r.connSeq++
	r.members[msg.ClientID] = member{outbox: msg.Outbox, conn: r.connSeq}
	// New members get the current view right away.
	msg.Outbox <- Envelope{Version: r.version, View: r.view()}
	return JoinReply{Conn: r.connSeq}
}

func (r *Room) leave(msg Leave) {
	m, ok := r.members[msg.ClientID]
	if !ok || m.conn != msg.Conn {
		// Cleanup from a connection that was already superseded or dropped.
		return
	}
	close(m.outbox)
	delete(r.members, msg.ClientID)
	r.withdrawSeat(msg.ClientID)
}

// withdrawSeat refunds an open-window stake and pulls the seat out of the
// round. A departure mid-turn plays out exactly like a decision timeout.
func (r *Room) withdrawSeat(playerID string) {
	betting := r.state.Phase == blackjack.PhaseBetting
	stake := r.state.CurrentBet(playerID)
	ok := r.apply(blackjack.Command{Type: blackjack.CmdLeaveRound, PlayerID: playerID})
	if ok && betting && stake > 0 {
		go r.refund(playerID, stake)
	}
	r.maybeCloseEarly()
}

func (r *Room) placeBet(msg PlaceBet) error {
	if msg.Amount <= 0 {
		return blackjack.ErrBadAmount
	}
	if !r.state.BetsOpen() {
		return blackjack.ErrBetsClosed
	}
	// Balance is checked and debited at accept time, not at settlement.
	if err := r.accounts.Debit(r.ctx, msg.PlayerID, msg.Amount); err != nil {
		return err
	}

	events, err := blackjack.Apply(r.state, blackjack.Command{
		Type:     blackjack.CmdPlaceBet,
		PlayerID: msg.PlayerID,
		Amount:   msg.Amount,
	})
	if err != nil {
		go r.refund(msg.PlayerID, msg.Amount)
		return err
	}
	r.publish(events)
	r.maybeCloseEarly()
	return nil
}

func (r *Room) submitMove(msg SubmitMove) error {
	cmd := blackjack.Command{
		Type:     blackjack.CmdSubmitMove,
		PlayerID: msg.PlayerID,
		Move:     msg.Move,
		TurnGen:  msg.TurnGen,
	}

	if msg.Move == blackjack.MoveDoubleDown {
		// The doubled stake is debited before the move enters the session,
		// mirroring the bet-time debit.
		if r.state.ActivePlayerID() != msg.PlayerID {
			return blackjack.ErrWrongTurn
		}
		if msg.TurnGen != r.state.TurnGen {
			return blackjack.ErrStaleCommand
		}
		stake := r.state.CurrentBet(msg.PlayerID)
		if err := r.accounts.Debit(r.ctx, msg.PlayerID, stake); err != nil {
			return err
		}
		events, err := blackjack.Apply(r.state, cmd)
		if err != nil {
			if errors.Is(err, blackjack.ErrDeckExhausted) {
				r.abortRound()
				return err
			}
			go r.refund(msg.PlayerID, stake)
			return err
		}
		r.publish(events)
		return nil
	}

	events, err := blackjack.Apply(r.state, cmd)
	if err != nil {
		if errors.Is(err, blackjack.ErrDeckExhausted) {
			r.abortRound()
		}
		return err
	}
	r.publish(events)
	return nil
}

// apply runs a command whose rejection needs no caller report (timer fires,
// departures). Stale commands are dropped quietly. Returns whether the
// command was accepted.
func (r *Room) apply(cmd blackjack.Command) bool {
	events, err := blackjack.Apply(r.state, cmd)
	switch {
	case err == nil:
		r.publish(events)
		return true
	case errors.Is(err, blackjack.ErrDeckExhausted):
		r.abortRound()
		return false
	case errors.Is(err, blackjack.ErrStaleCommand):
		return false
	default:
		r.log.Warn("command rejected", zap.String("cmd", string(cmd.Type)), zap.Error(err))
		return false
	}
}

// publish reacts to events (timers, settlement, snapshots) and broadcasts
// them with a fresh view.
func (r *Room) publish(events []blackjack.Event) {
	for i := range events {
		switch events[i].Type {
		case blackjack.EvtWindowOpened:
			deadline := time.Now().Add(r.cfg.BetWindow)
			events[i].Deadline = &deadline
			r.armWindowTimer()
		case blackjack.EvtPlayerTurn:
			r.armTurnTimer(events[i].TurnGen)
		case blackjack.EvtRoundConcluded:
			r.stopTurnTimer()
			r.stopWindowTimer()
			go r.settleRound(events[i].Outcomes)
			r.saveSnapshot()
		}
	}
	r.version++
	env := Envelope{Version: r.version, Events: events, View: r.view()}
	r.broadcast(env)
}

func (r *Room) broadcast(env Envelope) {
	for id, m := range r.members {
		select {
		case m.outbox <- env:
		default:
			// Slow or dead client, drop it.
			close(m.outbox)
			delete(r.members, id)
		}
	}
}

// maybeCloseEarly closes the betting window as soon as every connected
// member has a stake down. An optimization; the fixed deadline is what
// guarantees liveness.
func (r *Room) maybeCloseEarly() {
	if r.state.Phase != blackjack.PhaseBetting || len(r.members) == 0 {
		return
	}
	for id := range r.members {
		if r.state.CurrentBet(id) == 0 {
			return
		}
	}
	r.stopWindowTimer()
	r.apply(blackjack.Command{Type: blackjack.CmdWindowExpired})
}

// settleRound runs off the actor loop so payout latency never blocks state
// progression. Balance credits stay serialized by the account collaborator
// itself. A failed leg is recorded for reconciliation, never retried here.
func (r *Room) settleRound(outcomes []blackjack.Outcome) {
	for _, o := range outcomes {
		if o.Payout == 0 {
			continue // loss, stake was debited at bet time
		}
		var leg string
		var err error
		ctx, cancel := context.WithTimeout(r.ctx, r.cfg.PayoutTimeout)
		switch o.Kind {
		case blackjack.OutcomeWin:
			leg = "win"
			err = r.payouts.Win(ctx, o.PlayerID, o.Bet)
		case blackjack.OutcomePush:
			leg = "push"
			err = r.payouts.Push(ctx, o.PlayerID, o.Bet)
		case blackjack.OutcomeBlackjack:
			leg = "blackjack"
			err = r.payouts.Blackjack(ctx, o.PlayerID, o.Bet)
		}
		cancel()

		if err != nil {
			r.log.Error("payout failed, queued for reconciliation",
				zap.String("player", o.PlayerID),
				zap.String("leg", leg),
				zap.Int64("amount", o.Payout),
				zap.Error(err))
			r.recordPending(o.PlayerID, leg, o.Payout, err)
			continue
		}

		ctx, cancel = context.WithTimeout(r.ctx, r.cfg.PayoutTimeout)
		err = r.accounts.Credit(ctx, o.PlayerID, o.Payout)
		cancel()
		if err != nil {
			r.log.Error("balance credit failed after successful payout",
				zap.String("player", o.PlayerID),
				zap.Int64("amount", o.Payout),
				zap.Error(err))
			r.recordPending(o.PlayerID, leg+"-credit", o.Payout, err)
		}
	}
}

func (r *Room) refund(playerID string, amount int64) {
	ctx, cancel := context.WithTimeout(r.ctx, r.cfg.PayoutTimeout)
	defer cancel()
	if err := r.accounts.Credit(ctx, playerID, amount); err != nil {
		r.log.Error("refund failed",
			zap.String("player", playerID),
			zap.Int64("amount", amount),
			zap.Error(err))
		r.recordPending(playerID, "refund", amount, err)
	}
}

func (r *Room) recordPending(playerID, leg string, amount int64, cause error) {
	if r.snaps == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.snaps.RecordPendingPayout(ctx, r.id, playerID, leg, amount, cause); err != nil {
		r.log.Error("failed to record pending payout", zap.Error(err))
	}
}

// abortRound handles a fatal invariant violation: refund every stake,
// reset the session, and log loudly. Must never happen if invariants hold.
func (r *Room) abortRound() {
	r.log.DPanic("fatal invariant violation, aborting round")
	refunds := r.state.Refunds()
	r.state.Reset()
	r.stopWindowTimer()
	r.stopTurnTimer()
	go func() {
		for _, o := range refunds {
			r.refund(o.PlayerID, o.Payout)
		}
	}()
	r.version++
	r.broadcast(Envelope{Version: r.version, View: r.view()})
}

func (r *Room) armWindowTimer() {
	r.stopWindowTimer()
	r.windowTimer = time.AfterFunc(r.cfg.BetWindow, func() {
		select {
		case r.inbox <- windowExpired{}:
		case <-r.ctx.Done():
		}
	})
}

func (r *Room) armTurnTimer(gen uint64) {
	r.stopTurnTimer()
	r.turnTimer = time.AfterFunc(r.cfg.TurnTimeout, func() {
		select {
		case r.inbox <- turnExpired{gen: gen}:
		case <-r.ctx.Done():
		}
	})
}

func (r *Room) stopWindowTimer() {
	if r.windowTimer != nil {
		r.windowTimer.Stop()
		r.windowTimer = nil
	}
}

func (r *Room) stopTurnTimer() {
	if r.turnTimer != nil {
		r.turnTimer.Stop()
		r.turnTimer = nil
	}
}

func (r *Room) saveSnapshot() {
	if r.snaps == nil {
		return
	}
	state := r.state.Clone()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.snaps.SaveSnapshot(ctx, state); err != nil {
			r.log.Error("snapshot save failed", zap.Error(err))
		}
	}()
}

func (r *Room) shutdown() {
	r.stopWindowTimer()
	r.stopTurnTimer()
	if r.snaps != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.snaps.SaveSnapshot(ctx, r.state); err != nil {
			r.log.Error("snapshot save on shutdown failed", zap.Error(err))
		}
		cancel()
	}
	for id, m := range r.members {
		close(m.outbox)
		delete(r.members, id)
	}
	r.cancel()
}
