// internal/commands/service.go
package commands

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/lobbyd/internal/events"
	"github.com/jason-s-yu/lobbyd/internal/lobby"
	"github.com/jason-s-yu/lobbyd/internal/store"
	"github.com/sirupsen/logrus"
)

var (
	ErrLobbyNotFound  = errors.New("lobby not found")
	ErrCannotKickSelf = errors.New("cannot kick yourself")
	ErrUnknownAction  = errors.New("unknown game action")
	// ErrSystem wraps unexpected faults: storage failures and recovered panics.
	ErrSystem = errors.New("system error")
)

// Repository is the storage the service needs: the lobby repository plus the
// move into durable storage performed on game start.
type Repository interface {
	store.Repository
	Migrate(ctx context.Context, agg *lobby.Aggregate) error
}

// Publisher delivers committed events. *events.Bus satisfies it.
type Publisher interface {
	PublishAll(ctx context.Context, evs []events.Event)
}

// Service runs lobby commands. Each command on an existing lobby holds that
// lobby's lock from load until its events are published.
type Service struct {
	repo      Repository
	publisher Publisher
	locks     *KeyedMutex
	factory   *events.Factory
	logger    logrus.FieldLogger
	newGameID func() uuid.UUID
	newCode   func() string

	// held from picking an invitation code until the new lobby is saved
	codeMu sync.Mutex
}

// invitationCodeAttempts bounds the retries when a fresh code is already taken.
const invitationCodeAttempts = 8

type Option func(*Service)

func WithFactory(f *events.Factory) Option {
	return func(s *Service) { s.factory = f }
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithGameIDGenerator sets the source of game ids for StartGame commands that carry none.
func WithGameIDGenerator(gen func() uuid.UUID) Option {
	return func(s *Service) { s.newGameID = gen }
}

// WithInvitationCodeGenerator sets the source of invitation codes for new lobbies.
func WithInvitationCodeGenerator(gen func() string) Option {
	return func(s *Service) { s.newCode = gen }
}

func NewService(repo Repository, publisher Publisher, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		publisher: publisher,
		locks:     NewKeyedMutex(),
		factory:   events.DefaultFactory(),
		logger:    logrus.StandardLogger(),
		newGameID: uuid.New,
		newCode:   lobby.NewInvitationCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateLobby(ctx context.Context, cmd CreateLobby) (snap lobby.Snapshot, err error) {
	defer s.recoverPanic("create_lobby", &err)

	settings, err := lobby.NewSettings(cmd.Name, cmd.MaxPlayers, cmd.MinPlayers, cmd.IsPrivate, cmd.GameType)
	if err != nil {
		return lobby.Snapshot{}, err
	}

	s.codeMu.Lock()
	defer s.codeMu.Unlock()
	code, err := s.invitationCode(ctx)
	if err != nil {
		return lobby.Snapshot{}, fmt.Errorf("%w: %w", ErrSystem, err)
	}
	agg, err := lobby.Create(cmd.OwnerID, cmd.Username, settings, lobby.WithFactory(s.factory), lobby.WithInvitationCode(code))
	if err != nil {
		return lobby.Snapshot{}, err
	}

	unlock := s.locks.Lock(agg.ID())
	defer unlock()
	if err := s.repo.Save(ctx, agg); err != nil {
		return lobby.Snapshot{}, fmt.Errorf("%w: save lobby %s: %w", ErrSystem, agg.ID(), err)
	}
	s.publish(ctx, agg, cmd.OwnerID)
	return agg.Snapshot(), nil
}

// invitationCode draws codes until one is not held by any stored lobby.
func (s *Service) invitationCode(ctx context.Context) (string, error) {
	for i := 0; i < invitationCodeAttempts; i++ {
		code := lobby.NormalizeInvitationCode(s.newCode())
		_, err := s.repo.FindByInvitationCode(ctx, code)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return code, nil
		case err != nil:
			return "", fmt.Errorf("check invitation code: %w", err)
		}
		s.logger.WithField("attempt", i+1).Debug("invitation code taken; drawing another")
	}
	return "", fmt.Errorf("no free invitation code after %d attempts", invitationCodeAttempts)
}

// JoinLobby admits a player. A private lobby only admits callers presenting
// its invitation code.
func (s *Service) JoinLobby(ctx context.Context, cmd JoinLobby) (lobby.Snapshot, error) {
	return s.execute(ctx, "join_lobby", cmd.LobbyID, cmd.UserID, func(agg *lobby.Aggregate) error {
		if _, member := agg.Player(cmd.UserID); !member && !agg.Lobby().Admits(cmd.InvitationCode) {
			return lobby.ErrInvitationRequired
		}
		return agg.AddPlayer(cmd.UserID, cmd.Username)
	}, nil)
}

// LeaveLobby removes the player. When the last player leaves the returned
// snapshot has no players and the lobby is deleted, unless it started a game:
// that record stays in durable storage in a terminal status.
func (s *Service) LeaveLobby(ctx context.Context, cmd LeaveLobby) (lobby.Snapshot, error) {
	return s.execute(ctx, "leave_lobby", cmd.LobbyID, cmd.UserID, func(agg *lobby.Aggregate) error {
		return agg.RemovePlayer(cmd.UserID, events.LeaveReasonLeft)
	}, nil)
}

func (s *Service) KickPlayer(ctx context.Context, cmd KickPlayer) (lobby.Snapshot, error) {
	return s.execute(ctx, "kick_player", cmd.LobbyID, cmd.KickerID, func(agg *lobby.Aggregate) error {
		if cmd.KickerID != agg.OwnerID() {
			return fmt.Errorf("%w: only the lobby creator can kick players", lobby.ErrNotOwner)
		}
		if cmd.TargetUserID == cmd.KickerID {
			return ErrCannotKickSelf
		}
		return agg.RemovePlayer(cmd.TargetUserID, events.LeaveReasonKicked)
	}, nil)
}

// StartGame starts the game and moves the lobby into durable storage. If that
// move fails the lobby stays in memory, unchanged, and the error is returned.
func (s *Service) StartGame(ctx context.Context, cmd StartGame) (lobby.Snapshot, error) {
	gameID := cmd.GameID
	if gameID == uuid.Nil {
		gameID = s.newGameID()
	}
	return s.execute(ctx, "start_game", cmd.LobbyID, cmd.UserID, func(agg *lobby.Aggregate) error {
		return agg.StartGame(cmd.UserID, gameID)
	}, s.repo.Migrate)
}

func (s *Service) UpdateSettings(ctx context.Context, cmd UpdateSettings) (lobby.Snapshot, error) {
	return s.execute(ctx, "update_settings", cmd.LobbyID, cmd.UpdaterID, func(agg *lobby.Aggregate) error {
		return agg.UpdateSettings(cmd.UpdaterID, cmd.Settings)
	}, nil)
}

func (s *Service) SetReady(ctx context.Context, cmd SetReady) (lobby.Snapshot, error) {
	return s.execute(ctx, "set_ready", cmd.LobbyID, cmd.UserID, func(agg *lobby.Aggregate) error {
		return agg.SetPlayerReady(cmd.UserID, cmd.Ready)
	}, nil)
}

func (s *Service) CancelLobby(ctx context.Context, cmd CancelLobby) (lobby.Snapshot, error) {
	return s.execute(ctx, "cancel_lobby", cmd.LobbyID, cmd.UserID, func(agg *lobby.Aggregate) error {
		return agg.Cancel(cmd.UserID)
	}, nil)
}

// AdvanceGame applies a lifecycle step reported by the owner or the game server.
func (s *Service) AdvanceGame(ctx context.Context, cmd AdvanceGame) (lobby.Snapshot, error) {
	return s.execute(ctx, "advance_game", cmd.LobbyID, cmd.RequesterID, func(agg *lobby.Aggregate) error {
		if cmd.RequesterID != uuid.Nil && cmd.RequesterID != agg.OwnerID() {
			return fmt.Errorf("%w: only the lobby creator can report game progress", lobby.ErrNotOwner)
		}
		switch cmd.Action {
		case ActionInGame:
			return agg.MarkInGame()
		case ActionPause:
			return agg.Pause()
		case ActionResume:
			return agg.Resume()
		case ActionFinish:
			return agg.Finish()
		default:
			return fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
		}
	}, nil)
}

type persistFunc func(ctx context.Context, agg *lobby.Aggregate) error

// execute runs one command against an existing lobby: lock, load, mutate,
// persist, publish. Domain errors are returned untouched and leave storage
// and subscribers alone.
func (s *Service) execute(
	ctx context.Context,
	name string,
	lobbyID, actorID uuid.UUID,
	mutate func(*lobby.Aggregate) error,
	persist persistFunc,
) (snap lobby.Snapshot, err error) {
	unlock := s.locks.Lock(lobbyID)
	defer unlock()
	defer s.recoverPanic(name, &err)

	agg, err := s.repo.FindByID(ctx, lobbyID)
	if errors.Is(err, store.ErrNotFound) {
		return lobby.Snapshot{}, fmt.Errorf("%w: %s", ErrLobbyNotFound, lobbyID)
	}
	if err != nil {
		return lobby.Snapshot{}, fmt.Errorf("%w: load lobby %s: %w", ErrSystem, lobbyID, err)
	}

	if err := mutate(agg); err != nil {
		s.logger.WithFields(logrus.Fields{
			"command":  name,
			"lobby_id": lobbyID,
			"user_id":  actorID,
		}).WithError(err).Debug("command rejected")
		return lobby.Snapshot{}, err
	}

	switch {
	// a lobby that started a game keeps its record for history
	case closes(agg.Events()) && !agg.Lobby().GameStarted():
		err = s.repo.Delete(ctx, lobbyID)
		if errors.Is(err, store.ErrNotFound) {
			err = nil
		}
	case persist != nil:
		err = persist(ctx, agg)
	default:
		err = s.repo.Save(ctx, agg)
	}
	if err != nil {
		return lobby.Snapshot{}, fmt.Errorf("%w: persist lobby %s: %w", ErrSystem, lobbyID, err)
	}

	s.publish(ctx, agg, actorID)
	return agg.Snapshot(), nil
}

func (s *Service) publish(ctx context.Context, agg *lobby.Aggregate, actorID uuid.UUID) {
	evs := events.Stamp(ctx, agg.PullEvents(), actorID)
	if len(evs) == 0 {
		return
	}
	s.publisher.PublishAll(ctx, evs)
}

func (s *Service) recoverPanic(name string, err *error) {
	r := recover()
	if r == nil {
		return
	}
	s.logger.WithFields(logrus.Fields{
		"command": name,
		"panic":   r,
		"stack":   string(debug.Stack()),
	}).Error("command panicked")
	*err = fmt.Errorf("%w: %s: %v", ErrSystem, name, r)
}

func closes(evs []events.Event) bool {
	for _, ev := range evs {
		if ev.Type == events.TypeLobbyClosed {
			return true
		}
	}
	return false
}

// Get returns the current state of a lobby.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (lobby.Snapshot, error) {
	agg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return lobby.Snapshot{}, s.queryError(err, id.String())
	}
	return agg.Snapshot(), nil
}

// ListAvailable returns the public lobbies that can still be joined, oldest first.
func (s *Service) ListAvailable(ctx context.Context) ([]lobby.Snapshot, error) {
	aggs, err := s.repo.FindAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list lobbies: %w", ErrSystem, err)
	}
	return snapshots(aggs), nil
}

// ListByStatus returns the lobbies in status that viewerID may see: every
// public lobby plus the private ones viewerID plays in.
func (s *Service) ListByStatus(ctx context.Context, status lobby.Status, viewerID uuid.UUID) ([]lobby.Snapshot, error) {
	aggs, err := s.repo.FindByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("%w: list lobbies: %w", ErrSystem, err)
	}
	out := make([]lobby.Snapshot, 0, len(aggs))
	for _, snap := range snapshots(aggs) {
		if snap.VisibleTo(viewerID) {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (s *Service) FindByInvitationCode(ctx context.Context, code string) (lobby.Snapshot, error) {
	agg, err := s.repo.FindByInvitationCode(ctx, code)
	if err != nil {
		return lobby.Snapshot{}, s.queryError(err, code)
	}
	return agg.Snapshot(), nil
}

func (s *Service) queryError(err error, key string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrLobbyNotFound, key)
	}
	return fmt.Errorf("%w: %w", ErrSystem, err)
}

func snapshots(aggs []*lobby.Aggregate) []lobby.Snapshot {
	out := make([]lobby.Snapshot, len(aggs))
	for i, agg := range aggs {
		out[i] = agg.Snapshot()
	}
	return out
}
