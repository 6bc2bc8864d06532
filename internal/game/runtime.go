// Package game holds the server-side authoritative session state: who is
// online, who is banned, what every player's controls are set to, and the
// queue of control events waiting for the game to consume them.
package game

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/netpad-project/netpad/internal/mailbox"
	"github.com/netpad-project/netpad/internal/model"
	"github.com/netpad-project/netpad/internal/protocol"
)

// ControlEvent is one discrete input event attributed to its source.
type ControlEvent struct {
	Account model.Account
	Message protocol.ControlMessage
}

// Vec2 is a two-dimensional direction value.
type Vec2 struct {
	X, Y float64
}

// Runtime is shared by the accept loop, every per-player read/write task
// and the owning application. One coarse mutex guards the registries and
// control tables; the lock is never held across I/O. The locked and closed
// flags are atomics so transport loops can poll them cheaply.
type Runtime struct {
	info model.GameInfo
	keys model.ControlKeys

	mu         sync.Mutex
	online     map[model.Account]model.Player
	banned     map[model.Account]model.Player
	transports map[model.Account]protocol.Transport
	buttons    map[uint8]map[model.Account]bool
	axes       map[uint8]map[model.Account]float64
	directions map[uint8]map[model.Account]Vec2
	events     []ControlEvent

	locked atomic.Bool
	closed atomic.Bool

	box *mailbox.Mailbox[ControlEvent, protocol.GameMessage, model.Account]

	// Liveness counters for the transport tasks; diagnostic only.
	readers atomic.Int32
	writers atomic.Int32

	logger *slog.Logger
}

// NewRuntime builds a runtime from game data. The archive's banned
// accounts are seeded into the banned registry.
func NewRuntime(data *model.GameData, logger *slog.Logger) *Runtime {
	r := &Runtime{
		info:       data.Info,
		keys:       data.Keys,
		online:     make(map[model.Account]model.Player),
		banned:     make(map[model.Account]model.Player),
		transports: make(map[model.Account]protocol.Transport),
		buttons:    make(map[uint8]map[model.Account]bool),
		axes:       make(map[uint8]map[model.Account]float64),
		directions: make(map[uint8]map[model.Account]Vec2),
		box:        mailbox.New[ControlEvent, protocol.GameMessage, model.Account](),
		logger:     logger.With(slog.String("component", "game_runtime")),
	}
	r.LoadArchive(data.Archive)
	return r
}

// Info returns the advertised game info map.
func (r *Runtime) Info() model.GameInfo {
	return r.info
}

// Keys returns the registered control key tables.
func (r *Runtime) Keys() model.ControlKeys {
	return r.keys
}

// TryJoin checks eligibility and marks the player online in one critical
// section, so two concurrent joins for the same account cannot both pass.
// A refusal comes back as a *protocol.JoinError.
func (r *Runtime) TryJoin(player model.Player, transport protocol.Transport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var refusal protocol.JoinRefusal
	switch {
	case r.locked.Load():
		refusal = protocol.RefusalGameLocked
	case r.bannedLocked(player.Account):
		refusal = protocol.RefusalPlayerBanned
	case r.onlineLocked(player.Account):
		refusal = protocol.RefusalContainIdenticalPlayer
	default:
		r.online[player.Account] = player
		r.transports[player.Account] = transport
		r.logger.Info("player joined",
			slog.String("account", player.Account.String()),
			slog.String("transport", transport.String()))
		return nil
	}

	r.logger.Warn("player join refused",
		slog.String("account", player.Account.String()),
		slog.String("reason", refusal.String()))
	return &protocol.JoinError{Refusal: refusal}
}

// SignOffline removes an account from the online registry and drops its
// pending queues. No-op for accounts that are not online.
func (r *Runtime) SignOffline(account model.Account) {
	r.mu.Lock()
	_, wasOnline := r.online[account]
	if wasOnline {
		delete(r.online, account)
	}
	transport, hadTransport := r.transports[account]
	delete(r.transports, account)
	r.mu.Unlock()

	if !wasOnline {
		return
	}
	if hadTransport {
		r.box.Clear(account, transport)
	}
	r.logger.Info("player signed offline", slog.String("account", account.String()))
}

// LetExit asks an online account to disconnect for the given reason. The
// transport is not torn down here; the client is expected to hang up.
func (r *Runtime) LetExit(account model.Account, reason protocol.ExitReason, transport protocol.Transport) {
	if !r.IsOnline(account) {
		return
	}
	r.box.Send(protocol.GameMessage{Kind: protocol.GameLetExit, Reason: reason}, account, transport)
}

// Kick requests an online player to leave.
func (r *Runtime) Kick(player model.Player, transport protocol.Transport) {
	r.LetExit(player.Account, protocol.ReasonYouAreKicked, transport)
}

// Ban adds the player to the banned registry (idempotent, online or not)
// and kicks them with YouAreBanned if currently online.
func (r *Runtime) Ban(player model.Player, transport protocol.Transport) {
	r.mu.Lock()
	_, already := r.banned[player.Account]
	if !already {
		r.banned[player.Account] = player
	}
	_, isOnline := r.online[player.Account]
	r.mu.Unlock()

	if !already {
		r.logger.Info("player banned", slog.String("account", player.Account.String()))
	}
	if isOnline {
		r.box.Send(protocol.GameMessage{Kind: protocol.GameLetExit, Reason: protocol.ReasonYouAreBanned}, player.Account, transport)
	}
}

// Pardon removes the player from the banned registry.
func (r *Runtime) Pardon(player model.Player) {
	r.mu.Lock()
	_, was := r.banned[player.Account]
	delete(r.banned, player.Account)
	r.mu.Unlock()

	if was {
		r.logger.Info("player pardoned", slog.String("account", player.Account.String()))
	}
}

// Lock stops further joins. Logs on the first transition only.
func (r *Runtime) Lock() {
	if r.locked.CompareAndSwap(false, true) {
		r.logger.Info("game locked")
	}
}

// Unlock allows joins again.
func (r *Runtime) Unlock() {
	if r.locked.CompareAndSwap(true, false) {
		r.logger.Info("game unlocked")
	}
}

// Locked reports whether joins are currently refused.
func (r *Runtime) Locked() bool {
	return r.locked.Load()
}

// Close marks the game as shutting down. One-way; transport loops observe
// the flag and wind the session down.
func (r *Runtime) Close() {
	if r.closed.CompareAndSwap(false, true) {
		r.logger.Info("game closed")
	}
}

// Closed reports whether Close has been called.
func (r *Runtime) Closed() bool {
	return r.closed.Load()
}

// SendGameMessage queues an arbitrary game message for an online account.
func (r *Runtime) SendGameMessage(account model.Account, msg protocol.GameMessage, transport protocol.Transport) {
	if !r.IsOnline(account) {
		return
	}
	r.box.Send(msg, account, transport)
}

// SendEvent queues an event trigger for an online account.
func (r *Runtime) SendEvent(account model.Account, key uint8, transport protocol.Transport) {
	r.SendGameMessage(account, protocol.GameMessage{Kind: protocol.GameEventTrigger, Key: key}, transport)
}

// SendText queues a plain text message for an online account.
func (r *Runtime) SendText(account model.Account, text string, transport protocol.Transport) {
	r.SendGameMessage(account, protocol.GameMessage{Kind: protocol.GameMsg, Text: text}, transport)
}

// Broadcast queues a game message for every online account.
func (r *Runtime) Broadcast(msg protocol.GameMessage) {
	r.mu.Lock()
	targets := make(map[model.Account]protocol.Transport, len(r.online))
	for account := range r.online {
		targets[account] = r.transports[account]
	}
	r.mu.Unlock()

	for account, transport := range targets {
		r.box.Send(msg, account, transport)
	}
}

// BroadcastText queues a text message for every online account.
func (r *Runtime) BroadcastText(text string) {
	r.Broadcast(protocol.GameMessage{Kind: protocol.GameMsg, Text: text})
}

// BroadcastEvent queues an event trigger for every online account.
func (r *Runtime) BroadcastEvent(key uint8) {
	r.Broadcast(protocol.GameMessage{Kind: protocol.GameEventTrigger, Key: key})
}

// PopControlEvent pops the oldest pending control event. Events whose
// source went offline in the meantime are discarded.
func (r *Runtime) PopControlEvent() (ControlEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for len(r.events) > 0 {
		ev := r.events[0]
		r.events = r.events[1:]
		if _, online := r.online[ev.Account]; online {
			return ev, true
		}
		r.logger.Warn("dropping event from offline player",
			slog.String("account", ev.Account.String()))
	}
	return ControlEvent{}, false
}

// IsOnline reports whether the account is in the online registry.
func (r *Runtime) IsOnline(account model.Account) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.onlineLocked(account)
}

// IsBanned reports whether the account is in the banned registry.
func (r *Runtime) IsBanned(account model.Account) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bannedLocked(account)
}

// OnlineAccounts returns a snapshot of the online registry's keys.
func (r *Runtime) OnlineAccounts() []model.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	accounts := make([]model.Account, 0, len(r.online))
	for account := range r.online {
		accounts = append(accounts, account)
	}
	return accounts
}

// BannedAccounts returns a snapshot of the banned registry's keys.
func (r *Runtime) BannedAccounts() []model.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	accounts := make([]model.Account, 0, len(r.banned))
	for account := range r.banned {
		accounts = append(accounts, account)
	}
	return accounts
}

// TransportOf reports how an online account is connected.
func (r *Runtime) TransportOf(account model.Account) (protocol.Transport, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transports[account]
	return t, ok
}

// LoadArchive seeds the banned registry from a saved archive.
func (r *Runtime) LoadArchive(archive model.Archive) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range archive.Banned {
		if _, ok := r.banned[account]; !ok {
			r.banned[account] = model.PlayerFromAccount(account)
		}
	}
}

// ExportArchive snapshots the banned registry for persistence.
func (r *Runtime) ExportArchive() model.Archive {
	r.mu.Lock()
	defer r.mu.Unlock()
	archive := model.Archive{Banned: make([]model.Account, 0, len(r.banned))}
	for account := range r.banned {
		archive.Banned = append(archive.Banned, account)
	}
	return archive
}

// PopOutbound dequeues one outbound game message for an account. Used by
// the per-player write task.
func (r *Runtime) PopOutbound(account model.Account, transport protocol.Transport) (protocol.GameMessage, bool) {
	return r.box.PopOutbound(account, transport)
}

// EnqueueOutbound queues an outbound game message without the online
// check. The transport loops use this for End sentinels during teardown,
// when the account may already be on its way out.
func (r *Runtime) EnqueueOutbound(account model.Account, msg protocol.GameMessage, transport protocol.Transport) {
	r.box.Send(msg, account, transport)
}

// PendingOutbound reports the queued outbound count for an account.
func (r *Runtime) PendingOutbound(account model.Account, transport protocol.Transport) int {
	return r.box.PendingOutbound(account, transport)
}

// ReaderStarted/ReaderStopped and WriterStarted/WriterStopped track
// transport task liveness for shutdown and health inspection.
func (r *Runtime) ReaderStarted() { r.readers.Add(1) }
func (r *Runtime) ReaderStopped() { r.readers.Add(-1) }
func (r *Runtime) WriterStarted() { r.writers.Add(1) }
func (r *Runtime) WriterStopped() { r.writers.Add(-1) }

// Readers returns the live reader task count.
func (r *Runtime) Readers() int { return int(r.readers.Load()) }

// Writers returns the live writer task count.
func (r *Runtime) Writers() int { return int(r.writers.Load()) }

func (r *Runtime) onlineLocked(account model.Account) bool {
	_, ok := r.online[account]
	return ok
}

func (r *Runtime) bannedLocked(account model.Account) bool {
	_, ok := r.banned[account]
	return ok
}
