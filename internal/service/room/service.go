package room

import (
	"context"
	"fmt"
	"sync"
	"time"

	appErr "landlord-service/pkg/errors"
	"landlord-service/pkg/logger"
	"landlord-service/pkg/utils/random"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Settler receives finished rounds for persistence.
type Settler interface {
	SettleRound(ctx context.Context, result RoundResult) error
}

type ServiceConfig struct {
	CodeLength    int
	CodeTTL       time.Duration
	GCInterval    time.Duration
	IdleTimeout   time.Duration
	SettleTimeout time.Duration
	Runtime       Config
}

func defaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		CodeLength:    6,
		CodeTTL:       24 * time.Hour,
		GCInterval:    time.Minute,
		IdleTimeout:   30 * time.Minute,
		SettleTimeout: 10 * time.Second,
		Runtime:       Config{TurnSeconds: 30},
	}
}

// Service is the process-wide room registry: explicit lifecycle, entries
// inserted by Create and removed by the GC loop or Remove. Room codes are
// additionally reserved in redis so a restart does not mint a code some
// client still has bookmarked.
type Service struct {
	rdb     *redis.Client
	settler Settler
	cfg     ServiceConfig

	rooms sync.Map // code -> *Runtime

	startOnce sync.Once
}

func NewService(rdb *redis.Client, settler Settler) *Service {
	return &Service{
		rdb:     rdb,
		settler: settler,
		cfg:     defaultServiceConfig(),
	}
}

// SetTurnSeconds overrides the per-turn countdown, 0 disables the clock.
func (s *Service) SetTurnSeconds(seconds int) {
	s.cfg.Runtime.TurnSeconds = seconds
}

// SetBaseScore overrides the per-round stake.
func (s *Service) SetBaseScore(base int64) {
	s.cfg.Runtime.BaseScore = base
}

func (s *Service) Start(ctx context.Context) error {
	s.startOnce.Do(func() {
		go s.gcLoop(ctx)
	})
	return nil
}

const codeAttempts = 5

// Create allocates a room and seats the creator.
func (s *Service) Create(ctx context.Context, userID int64, name string) (*Runtime, error) {
	for i := 0; i < codeAttempts; i++ {
		code := random.Code(s.cfg.CodeLength)
		reserved, err := s.rdb.SetNX(ctx, buildRoomCodeKey(code), userID, s.cfg.CodeTTL).Result()
		if err != nil {
			return nil, err
		}
		if !reserved {
			continue
		}

		rt := NewRuntime(code, s.cfg.Runtime, s.handleRoundEnd)
		if _, loaded := s.rooms.LoadOrStore(code, rt); loaded {
			// Reservation succeeded but the local map disagrees; try a
			// fresh code.
			s.rdb.Del(ctx, buildRoomCodeKey(code))
			continue
		}
		if err := rt.Join(userID, name); err != nil {
			s.remove(ctx, code)
			return nil, err
		}

		logger.Log.Info("room created",
			zap.String("room", code),
			zap.Int64("userID", userID),
		)
		return rt, nil
	}
	return nil, appErr.ErrRoomCodeExhausted
}

func (s *Service) Get(code string) (*Runtime, error) {
	if v, ok := s.rooms.Load(code); ok {
		return v.(*Runtime), nil
	}
	return nil, appErr.ErrRoomNotFound
}

func (s *Service) Join(ctx context.Context, code string, userID int64, name string) (*Runtime, error) {
	rt, err := s.Get(code)
	if err != nil {
		return nil, err
	}
	if err := rt.Join(userID, name); err != nil {
		return nil, err
	}
	logger.Log.Info("player joined room",
		zap.String("room", code),
		zap.Int64("userID", userID),
	)
	return rt, nil
}

// Leave removes the caller from a room and drops the room once the last
// seat empties.
func (s *Service) Leave(ctx context.Context, code string, userID int64) error {
	rt, err := s.Get(code)
	if err != nil {
		return err
	}
	if err := rt.Leave(userID); err != nil {
		return err
	}
	if rt.PlayerCount() == 0 {
		s.remove(ctx, code)
	}
	logger.Log.Info("player left room",
		zap.String("room", code),
		zap.Int64("userID", userID),
	)
	return nil
}

type Summary struct {
	Code        string `json:"code"`
	Status      Status `json:"status"`
	PlayerCount int    `json:"playerCount"`
}

func (s *Service) List() []Summary {
	result := make([]Summary, 0)
	s.rooms.Range(func(_, v interface{}) bool {
		rt := v.(*Runtime)
		result = append(result, Summary{
			Code:        rt.Code(),
			Status:      rt.Status(),
			PlayerCount: rt.PlayerCount(),
		})
		return true
	})
	return result
}

func (s *Service) handleRoundEnd(result RoundResult) {
	if s.settler == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SettleTimeout)
	defer cancel()

	if err := s.settler.SettleRound(ctx, result); err != nil {
		logger.Log.Error("round settlement failed",
			zap.String("room", result.RoomCode),
			zap.Error(err),
		)
	}
}

func (s *Service) remove(ctx context.Context, code string) {
	s.rooms.Delete(code)
	s.rdb.Del(ctx, buildRoomCodeKey(code))
	logger.Log.Info("room removed", zap.String("room", code))
}

func (s *Service) gcLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.collect(ctx)
		}
	}
}

// collect drops rooms where every seat dropped, plus rooms nobody ever
// connected to within the idle window.
func (s *Service) collect(ctx context.Context) {
	s.rooms.Range(func(key, v interface{}) bool {
		rt := v.(*Runtime)
		idle := time.Since(rt.CreatedAt()) > s.cfg.IdleTimeout
		if rt.AllDisconnected() || (rt.SubscriberCount() == 0 && idle) {
			s.remove(ctx, key.(string))
		}
		return true
	})
}

func buildRoomCodeKey(code string) string {
	return fmt.Sprintf("room:code:%s", code)
}
