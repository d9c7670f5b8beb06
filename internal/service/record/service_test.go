package record_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"landlord-service/internal/model"
	"landlord-service/internal/service/record"
	"landlord-service/internal/service/room"
	"landlord-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func newRecordService(t *testing.T) (*gorm.DB, *record.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.GameRecord{}); err != nil {
		t.Fatalf("failed to migrate models: %v", err)
	}

	return db, record.NewService(db)
}

func seedUsers(t *testing.T, db *gorm.DB, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		u := model.User{ID: id, Nickname: "player", Status: "normal", Score: 1000}
		if err := db.Create(&u).Error; err != nil {
			t.Fatalf("seed user %d failed: %v", id, err)
		}
	}
}

func TestSettleRound(t *testing.T) {
	ctx := context.Background()
	db, svc := newRecordService(t)
	seedUsers(t, db, 1, 2, 3)

	result := room.RoundResult{
		RoomCode:    "ABC123",
		LandlordID:  1,
		WinnerID:    1,
		LandlordWon: true,
		Deltas:      map[int64]int64{1: 200, 2: -100, 3: -100},
	}
	if err := svc.SettleRound(ctx, result); err != nil {
		t.Fatalf("settle round failed: %v", err)
	}

	var rec model.GameRecord
	if err := db.Where("room_code = ?", "ABC123").First(&rec).Error; err != nil {
		t.Fatalf("record not written: %v", err)
	}
	if rec.LandlordID != 1 || rec.WinnerID != 1 || !rec.LandlordWon {
		t.Fatalf("unexpected record: %+v", rec)
	}
	var deltas []struct {
		UserID int64 `json:"userId"`
		Delta  int64 `json:"delta"`
	}
	if err := json.Unmarshal(rec.ResultJSON, &deltas); err != nil {
		t.Fatalf("result json invalid: %v", err)
	}
	if len(deltas) != 3 {
		t.Fatalf("expected 3 deltas, got %d", len(deltas))
	}

	var landlord model.User
	if err := db.First(&landlord, 1).Error; err != nil {
		t.Fatalf("load landlord failed: %v", err)
	}
	if landlord.Score != 1200 || landlord.GamesPlayed != 1 || landlord.GamesWon != 1 {
		t.Fatalf("landlord not credited: score=%d played=%d won=%d",
			landlord.Score, landlord.GamesPlayed, landlord.GamesWon)
	}

	var farmer model.User
	if err := db.First(&farmer, 2).Error; err != nil {
		t.Fatalf("load farmer failed: %v", err)
	}
	if farmer.Score != 900 || farmer.GamesPlayed != 1 || farmer.GamesWon != 0 {
		t.Fatalf("farmer not debited: score=%d played=%d won=%d",
			farmer.Score, farmer.GamesPlayed, farmer.GamesWon)
	}
}

func TestHistoryOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	db, svc := newRecordService(t)
	seedUsers(t, db, 1, 2, 3)

	for i := 0; i < 3; i++ {
		result := room.RoundResult{
			RoomCode:    "ABC123",
			LandlordID:  1,
			WinnerID:    2,
			LandlordWon: false,
			Deltas:      map[int64]int64{1: -200, 2: 100, 3: 100},
		}
		if err := svc.SettleRound(ctx, result); err != nil {
			t.Fatalf("settle round %d failed: %v", i, err)
		}
	}
	other := room.RoundResult{
		RoomCode:   "OTHER1",
		LandlordID: 1, WinnerID: 1, LandlordWon: true,
		Deltas: map[int64]int64{1: 200, 2: -100, 3: -100},
	}
	if err := svc.SettleRound(ctx, other); err != nil {
		t.Fatalf("settle other room failed: %v", err)
	}

	records, err := svc.History(ctx, "ABC123", 2)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected limit 2, got %d", len(records))
	}
	if records[0].ID < records[1].ID {
		t.Fatalf("expected newest first, got ids %d, %d", records[0].ID, records[1].ID)
	}
	for _, rec := range records {
		if rec.RoomCode != "ABC123" {
			t.Fatalf("history leaked another room: %+v", rec)
		}
	}
}
