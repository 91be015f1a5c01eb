package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/wricardo/seabattle/game/engine"
)

var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrConfigNotFound     = errors.New("configuration not found")
	ErrComputerControlled = errors.New("side is controlled by the computer")
)

// Option configures the game service
type Option func(*gameServiceImpl)

// WithLogger sets the logger used for match activity
func WithLogger(logger *log.Logger) Option {
	return func(s *gameServiceImpl) {
		s.logger = logger
	}
}

// WithMetrics enables Prometheus counters
func WithMetrics(metrics *Metrics) Option {
	return func(s *gameServiceImpl) {
		s.metrics = metrics
	}
}

// WithPublisher sends every match event to p
func WithPublisher(p EventPublisher) Option {
	return func(s *gameServiceImpl) {
		s.publisher = p
	}
}

// WithRandSource sets the randomness used for automatic fleet placement
func WithRandSource(newRand func() engine.Rand) Option {
	return func(s *gameServiceImpl) {
		s.newRand = newRand
	}
}

// WithClock sets the clock used to timestamp events
func WithClock(clock quartz.Clock) Option {
	return func(s *gameServiceImpl) {
		s.clock = clock
	}
}

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions  SessionManager
	configs   ConfigManager
	logger    *log.Logger
	metrics   *Metrics
	publisher EventPublisher
	newRand   func() engine.Rand
	clock     quartz.Clock
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   log.New(io.Discard),
		clock:    quartz.NewReal(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.newRand == nil {
		clock := s.clock
		s.newRand = func() engine.Rand {
			return engine.NewRand(clock.Now().UnixNano())
		}
	}
	return s
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// session looks up a match and marks it as accessed
func (s *gameServiceImpl) session(matchID string) (*Session, error) {
	sess, err := s.sessions.Get(matchID)
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", matchID, err)
	}
	s.sessions.UpdateLastAccessed(matchID)
	return sess, nil
}

// humanSide rejects sides that are unknown or played by the computer
func humanSide(sess *Session, side engine.Side) error {
	if _, err := engine.ParseSide(string(side)); err != nil {
		return err
	}
	if sess.Opponent != nil && side == engine.SidePlayer2 {
		return fmt.Errorf("%w: %s", ErrComputerControlled, side)
	}
	return nil
}

func viewerSide(viewer engine.Side) error {
	if viewer == "" {
		return nil
	}
	_, err := engine.ParseSide(string(viewer))
	return err
}

// CreateMatch creates a new match from a preset
func (s *gameServiceImpl) CreateMatch(ctx context.Context, configName string) (*MatchInfo, error) {
	var config *engine.MatchConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
		configName = s.getConfigID(config.Name)
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", configName, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	if s.metrics != nil {
		s.metrics.MatchesCreated.WithLabelValues(string(config.Type)).Inc()
	}
	s.publish(sess, []engine.Event{{Type: engine.EventMatchCreated}})
	s.logger.Info("match created", "match", sess.ID, "config", configName, "type", config.Type, "difficulty", config.Difficulty)

	return matchInfo(sess, engine.SidePlayer1), nil
}

func matchInfo(sess *Session, viewer engine.Side) *MatchInfo {
	return &MatchInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigName,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessed(),
		State:          sess.Match.Snapshot(viewer),
		MatchConfig:    sess.Config,
	}
}

// GetMatch retrieves match information as seen by viewer
func (s *gameServiceImpl) GetMatch(ctx context.Context, matchID string, viewer engine.Side) (*MatchInfo, error) {
	if err := viewerSide(viewer); err != nil {
		return nil, err
	}
	sess, err := s.session(matchID)
	if err != nil {
		return nil, err
	}
	return matchInfo(sess, viewer), nil
}

// ListMatches returns all active matches, oldest first, with both fleets hidden
func (s *gameServiceImpl) ListMatches(ctx context.Context) ([]*MatchInfo, error) {
	sessions := s.sessions.List()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	result := make([]*MatchInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, matchInfo(sess, ""))
	}
	return result, nil
}

// DeleteMatch removes a match
func (s *gameServiceImpl) DeleteMatch(ctx context.Context, matchID string) error {
	if err := s.sessions.Delete(matchID); err != nil {
		return fmt.Errorf("match %s: %w", matchID, err)
	}
	s.logger.Info("match deleted", "match", matchID)
	return nil
}

// PlaceShip places one ship for side
func (s *gameServiceImpl) PlaceShip(ctx context.Context, matchID string, side engine.Side, req ShipRequest) (*ActionResult, error) {
	return s.PlaceShips(ctx, matchID, side, []ShipRequest{req})
}

// PlaceShips places ships in order and stops at the first rejected one. Ships
// placed before the rejection stay on the board.
func (s *gameServiceImpl) PlaceShips(ctx context.Context, matchID string, side engine.Side, reqs []ShipRequest) (*ActionResult, error) {
	sess, err := s.session(matchID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := humanSide(sess, side); err != nil {
		return nil, err
	}

	var events []engine.Event
	var placeErr error
	for i, req := range reqs {
		placed, err := sess.Match.PlaceShip(side, req.Ship())
		if err != nil {
			placeErr = err
			if len(reqs) > 1 {
				placeErr = fmt.Errorf("ship %d: %w", i+1, err)
			}
			break
		}
		events = append(events, placed...)
	}

	if len(events) > 0 {
		s.persist(sess)
	}
	published := s.publish(sess, events)
	if placeErr != nil {
		s.rejected("place_ship", sess.ID, side, placeErr)
		return nil, placeErr
	}

	remaining, _ := sess.Match.RemainingSizes(side)
	msg := fmt.Sprintf("Placed %d ship(s); %d left to place", len(reqs), len(remaining))
	if len(remaining) == 0 && !sess.Match.Ready(side) {
		msg = "Fleet complete. Confirm ready to start."
	}
	return s.actionResult(sess, side, published, msg, remaining), nil
}

// AutoPlaceFleet places every ship side still needs at random positions
func (s *gameServiceImpl) AutoPlaceFleet(ctx context.Context, matchID string, side engine.Side) (*ActionResult, error) {
	sess, err := s.session(matchID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := humanSide(sess, side); err != nil {
		return nil, err
	}
	if status := sess.Match.Status(); status != engine.StatusPlacingShips || sess.Match.Ready(side) {
		err := fmt.Errorf("%w: cannot place ships now", engine.ErrInvalidState)
		s.rejected("auto_place", sess.ID, side, err)
		return nil, err
	}

	events, err := engine.PlaceFleetRandomly(sess.Match, side, s.newRand())
	if len(events) > 0 {
		s.persist(sess)
	}
	published := s.publish(sess, events)
	if err != nil {
		s.rejected("auto_place", sess.ID, side, err)
		return nil, err
	}

	remaining, _ := sess.Match.RemainingSizes(side)
	return s.actionResult(sess, side, published, fmt.Sprintf("Placed %d ship(s) automatically", len(events)), remaining), nil
}

// ConfirmReady marks side's fleet as final
func (s *gameServiceImpl) ConfirmReady(ctx context.Context, matchID string, side engine.Side) (*ActionResult, error) {
	sess, err := s.session(matchID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := humanSide(sess, side); err != nil {
		return nil, err
	}

	events, err := sess.Match.ConfirmReady(side)
	if err != nil {
		s.rejected("ready", sess.ID, side, err)
		return nil, err
	}
	s.persist(sess)
	published := s.publish(sess, events)

	msg := fmt.Sprintf("%s is ready. Waiting for %s.", side, side.Opponent())
	if sess.Match.Status() == engine.StatusInProgress {
		msg = fmt.Sprintf("Match started. %s fires first.", sess.Match.Turn())
	}
	return s.actionResult(sess, side, published, msg, nil), nil
}

// Fire resolves side's shot. In single-player matches the computer answers
// right away when the turn passes to it.
func (s *gameServiceImpl) Fire(ctx context.Context, matchID string, side engine.Side, x, y int) (*FireResult, error) {
	sess, err := s.session(matchID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := humanSide(sess, side); err != nil {
		return nil, err
	}

	shot, events, err := sess.Match.Fire(side, x, y)
	if err != nil {
		s.rejected("fire", sess.ID, side, err)
		return nil, err
	}
	s.logger.Debug("shot fired", "match", sess.ID, "side", side, "x", x, "y", y, "outcome", shot.Outcome)

	var replies []engine.ShotResult
	if sess.Opponent != nil {
		replyShots, replyEvents, err := s.computerTurn(sess)
		if err != nil {
			s.logger.Error("computer turn failed", "match", sess.ID, "err", err)
		}
		replies = replyShots
		events = append(events, replyEvents...)
	}

	s.persist(sess)
	published := s.publish(sess, events)

	result := &FireResult{
		Shot:          shot,
		ComputerShots: replies,
		Events:        published,
		State:         sess.Match.Snapshot(side),
		GameOver:      sess.Match.IsOver(),
		Winner:        sess.Match.Winner(),
	}
	result.Message = s.shotMessage(sess, side, shot, replies)
	return result, nil
}

// computerTurn lets the opponent fire for as long as it holds the turn
func (s *gameServiceImpl) computerTurn(sess *Session) ([]engine.ShotResult, []engine.Event, error) {
	var shots []engine.ShotResult
	var events []engine.Event

	for !sess.Match.IsOver() && sess.Match.Turn() == engine.SidePlayer2 {
		target, err := sess.Opponent.NextShot()
		if err != nil {
			return shots, events, err
		}
		shot, shotEvents, err := sess.Match.Fire(engine.SidePlayer2, target.X, target.Y)
		if err != nil {
			return shots, events, fmt.Errorf("computer shot at (%d,%d): %w", target.X, target.Y, err)
		}
		sess.Opponent.Observe(engine.FeedbackFrom(shot))
		s.logger.Debug("computer fired", "match", sess.ID, "x", target.X, "y", target.Y, "outcome", shot.Outcome, "mode", sess.Opponent.Mode())

		shots = append(shots, shot)
		events = append(events, shotEvents...)
	}
	return shots, events, nil
}

func (s *gameServiceImpl) shotMessage(sess *Session, side engine.Side, shot engine.ShotResult, replies []engine.ShotResult) string {
	msg := describeShot(side, shot)
	for _, reply := range replies {
		msg += " " + describeShot(engine.SidePlayer2, reply)
	}
	if sess.Match.IsOver() {
		msg += " " + finishMessage(sess.Config, sess.Match.Winner(), engine.ReasonFleetDestroyed)
	}
	return msg
}

// Surrender ends the match in the opponent's favour
func (s *gameServiceImpl) Surrender(ctx context.Context, matchID string, side engine.Side) (*ActionResult, error) {
	sess, err := s.session(matchID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := humanSide(sess, side); err != nil {
		return nil, err
	}

	events, err := sess.Match.Surrender(side)
	if err != nil {
		s.rejected("surrender", sess.ID, side, err)
		return nil, err
	}
	s.persist(sess)
	published := s.publish(sess, events)
	s.logger.Info("side surrendered", "match", sess.ID, "side", side)

	return s.actionResult(sess, side, published, finishMessage(sess.Config, side.Opponent(), engine.ReasonSurrender), nil), nil
}

// GetState returns the match as seen by viewer
func (s *gameServiceImpl) GetState(ctx context.Context, matchID string, viewer engine.Side) (*engine.Snapshot, error) {
	if err := viewerSide(viewer); err != nil {
		return nil, err
	}
	sess, err := s.session(matchID)
	if err != nil {
		return nil, err
	}
	snap := sess.Match.Snapshot(viewer)
	return &snap, nil
}

// GetShotHistory returns paginated shot history for a match
func (s *gameServiceImpl) GetShotHistory(ctx context.Context, matchID string, opts HistoryOptions) (*HistoryResponse, error) {
	sess, err := s.session(matchID)
	if err != nil {
		return nil, err
	}

	history := sess.Match.History()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var shots []engine.ShotRecord
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			shots = append(shots, history[i])
		}
	} else if start < total {
		shots = history[start:end]
	}
	if shots == nil {
		shots = []engine.ShotRecord{}
	}

	return &HistoryResponse{
		Shots:       shots,
		TotalShots:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available match presets
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific match preset
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.MatchConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a match preset to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.MatchConfig) error {
	return s.configs.SaveConfig(configName, config)
}

func (s *gameServiceImpl) actionResult(sess *Session, side engine.Side, events []GameEvent, msg string, remaining []int) *ActionResult {
	return &ActionResult{
		Success:        true,
		Message:        msg,
		Events:         events,
		State:          sess.Match.Snapshot(side),
		RemainingShips: remaining,
	}
}

func (s *gameServiceImpl) persist(sess *Session) {
	if err := s.sessions.Save(sess.ID); err != nil {
		s.logger.Warn("failed to persist match", "match", sess.ID, "err", err)
	}
}

func (s *gameServiceImpl) rejected(operation, matchID string, side engine.Side, err error) {
	if s.metrics != nil {
		s.metrics.Rejected.WithLabelValues(operation).Inc()
	}
	s.logger.Debug("command rejected", "match", matchID, "operation", operation, "side", side, "err", err)
}

// publish stamps engine events, records metrics and hands them to the publisher
func (s *gameServiceImpl) publish(sess *Session, events []engine.Event) []GameEvent {
	now := s.clock.Now()
	stamped := make([]GameEvent, 0, len(events))
	for _, ev := range events {
		ge := GameEvent{
			Event:     ev,
			MatchID:   sess.ID,
			Message:   describeEvent(sess.Config, ev),
			Timestamp: now,
		}
		stamped = append(stamped, ge)

		if s.metrics != nil {
			switch ev.Type {
			case engine.EventShotResult:
				s.metrics.Shots.WithLabelValues(string(ev.Outcome)).Inc()
			case engine.EventMatchFinished:
				s.metrics.MatchesFinished.WithLabelValues(string(ev.Reason)).Inc()
			}
		}
		if ev.Type == engine.EventMatchFinished {
			s.logger.Info("match finished", "match", sess.ID, "winner", ev.Winner, "reason", ev.Reason, "turns", ev.TurnNumber)
		}
		if s.publisher != nil {
			s.publisher.Publish(ge)
		}
	}
	return stamped
}
