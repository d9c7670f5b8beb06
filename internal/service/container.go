package service

import (
	"context"

	"landlord-service/internal/config"
	"landlord-service/internal/service/auth"
	"landlord-service/internal/service/record"
	"landlord-service/internal/service/room"
	"landlord-service/internal/service/user"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Auth   *auth.Service
	User   *user.Service
	Room   *room.Service
	Record *record.Service
}

func NewContainer(db *gorm.DB, rdb *redis.Client) *Container {
	recordSvc := record.NewService(db)
	roomSvc := room.NewService(rdb, recordSvc)
	if cfg := config.GlobalConfig; cfg != nil {
		if cfg.Game.TurnSeconds > 0 {
			roomSvc.SetTurnSeconds(cfg.Game.TurnSeconds)
		}
		if cfg.Game.BaseScore > 0 {
			roomSvc.SetBaseScore(cfg.Game.BaseScore)
		}
	}

	return &Container{
		Auth:   auth.NewService(db, rdb),
		User:   user.NewService(db),
		Room:   roomSvc,
		Record: recordSvc,
	}
}

func (c *Container) Start(ctx context.Context) error {
	return c.Room.Start(ctx)
}
