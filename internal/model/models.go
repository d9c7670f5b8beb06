package model

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id,string"`
	Nickname    string    `gorm:"size:64;not null" json:"nickname"`
	Avatar      string    `json:"avatar"`
	Status      string    `gorm:"default:normal;not null" json:"status"` // normal/banned
	Score       int64     `gorm:"default:0" json:"score"`
	GamesPlayed int       `gorm:"default:0" json:"gamesPlayed"`
	GamesWon    int       `gorm:"default:0" json:"gamesWon"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// GameRecord is one settled round.
type GameRecord struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id,string"`
	RoomCode    string         `gorm:"size:16;index" json:"roomCode"`
	LandlordID  int64          `json:"landlordId,string"`
	WinnerID    int64          `json:"winnerId,string"`
	LandlordWon bool           `json:"landlordWon"`
	ResultJSON  datatypes.JSON `gorm:"type:jsonb" json:"resultJson"`
	CreatedAt   time.Time      `json:"createdAt"`
}
