package repository

import (
	"context"
	"testing"

	familydomain "famsync-backend/internal/family/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMemberRepository(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()
	if err := db.AutoMigrate(&familydomain.FamilyMember{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	ctx := context.Background()
	repo := NewMemberRepository(db)

	if err := repo.AddMember(ctx, "fam-1", "alice", familydomain.RoleParent); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	// adding twice is a no-op
	if err := repo.AddMember(ctx, "fam-1", "alice", familydomain.RoleChild); err != nil {
		t.Fatalf("second AddMember() error = %v", err)
	}

	tests := []struct {
		family, user string
		want         bool
	}{
		{"fam-1", "alice", true},
		{"fam-1", "bob", false},
		{"fam-2", "alice", false},
	}
	for _, tt := range tests {
		got, err := repo.IsMember(ctx, tt.family, tt.user)
		if err != nil {
			t.Fatalf("IsMember(%s, %s) error = %v", tt.family, tt.user, err)
		}
		if got != tt.want {
			t.Errorf("IsMember(%s, %s) = %v, want %v", tt.family, tt.user, got, tt.want)
		}
	}
}
