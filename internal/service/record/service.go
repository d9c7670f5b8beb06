package record

import (
	"context"
	"encoding/json"
	"time"

	"landlord-service/internal/model"
	"landlord-service/internal/service/room"
	"landlord-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service persists finished rounds and applies score deltas.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type playerDelta struct {
	UserID int64 `json:"userId"`
	Delta  int64 `json:"delta"`
}

// SettleRound writes the round record and bumps every participant's score
// and counters in one transaction.
func (s *Service) SettleRound(ctx context.Context, result room.RoundResult) error {
	now := time.Now()

	deltas := make([]playerDelta, 0, len(result.Deltas))
	for userID, delta := range result.Deltas {
		deltas = append(deltas, playerDelta{UserID: userID, Delta: delta})
	}
	resultJSON, err := json.Marshal(deltas)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := model.GameRecord{
			RoomCode:    result.RoomCode,
			LandlordID:  result.LandlordID,
			WinnerID:    result.WinnerID,
			LandlordWon: result.LandlordWon,
			ResultJSON:  datatypes.JSON(resultJSON),
			CreatedAt:   now,
		}
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}

		for userID, delta := range result.Deltas {
			updates := map[string]interface{}{
				"score":        gorm.Expr("score + ?", delta),
				"games_played": gorm.Expr("games_played + 1"),
				"updated_at":   now,
			}
			if delta > 0 {
				updates["games_won"] = gorm.Expr("games_won + 1")
			}
			if err := tx.Model(&model.User{}).
				Where("id = ?", userID).
				Updates(updates).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Log.Info("round settled",
		zap.String("room", result.RoomCode),
		zap.Int64("winner", result.WinnerID),
		zap.Bool("landlordWon", result.LandlordWon),
	)
	return nil
}

// History returns the latest settled rounds for a room.
func (s *Service) History(ctx context.Context, roomCode string, limit int) ([]model.GameRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	records := make([]model.GameRecord, 0, limit)
	err := s.db.WithContext(ctx).
		Where("room_code = ?", roomCode).
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
