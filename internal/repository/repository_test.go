package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/terraed/terra-api/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Quest{},
		&models.Submission{},
		&models.WalletTransaction{},
		&models.Voucher{},
	))

	return db
}

func seedUser(t *testing.T, db *gorm.DB, name, role string, points int) models.User {
	t.Helper()
	user := models.User{
		Name:   name,
		Email:  fmt.Sprintf("%s@test.local", name),
		Role:   role,
		Points: points,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedQuest(t *testing.T, db *gorm.DB, title, category, difficulty string, expiry time.Time) models.Quest {
	t.Helper()
	quest := models.Quest{
		Title:      title,
		Category:   category,
		Difficulty: difficulty,
		Points:     models.DifficultyPoints[difficulty],
		Expiry:     expiry,
	}
	require.NoError(t, db.Create(&quest).Error)
	return quest
}

func seedSubmission(t *testing.T, db *gorm.DB, questID, userID uint, status string) models.Submission {
	t.Helper()
	submission := models.Submission{
		QuestID: questID,
		UserID:  userID,
		Status:  status,
	}
	require.NoError(t, db.Create(&submission).Error)
	return submission
}

func TestQuestRepositoryFilters(t *testing.T) {
	db := testDB(t)
	repo := NewQuestRepository(db)
	ctx := context.Background()

	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)

	seedQuest(t, db, "Bottle Swap", models.CategoryWaste, models.DifficultyEasy, future)
	seedQuest(t, db, "Sapling", models.CategoryBiodiversity, models.DifficultyMedium, future)
	seedQuest(t, db, "Old Cleanup", models.CategoryWaste, models.DifficultyEasy, past)

	all, err := repo.List(ctx, QuestFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	category := models.CategoryWaste
	waste, err := repo.List(ctx, QuestFilter{Category: &category})
	require.NoError(t, err)
	require.Len(t, waste, 2)

	now := time.Now()
	active, err := repo.List(ctx, QuestFilter{Category: &category, ActiveAt: &now})
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "Bottle Swap", active[0].Title)

	difficulty := models.DifficultyMedium
	medium, err := repo.List(ctx, QuestFilter{Difficulty: &difficulty})
	require.NoError(t, err)
	require.Len(t, medium, 1)
	require.Equal(t, "Sapling", medium[0].Title)
}

func TestQuestRepositoryGetByIDMissing(t *testing.T) {
	db := testDB(t)
	repo := NewQuestRepository(db)

	_, err := repo.GetByID(context.Background(), 42)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSubmissionRepositoryListFiltersAndPreloads(t *testing.T) {
	db := testDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "aini", models.RoleStudent, 0)
	other := seedUser(t, db, "bram", models.RoleStudent, 0)
	quest := seedQuest(t, db, "Sapling", models.CategoryBiodiversity, models.DifficultyMedium, time.Now().Add(24*time.Hour))

	seedSubmission(t, db, quest.ID, user.ID, models.SubmissionStatusPending)
	seedSubmission(t, db, quest.ID, user.ID, models.SubmissionStatusAutoPass)
	seedSubmission(t, db, quest.ID, other.ID, models.SubmissionStatusReview)

	mine, err := repo.List(ctx, SubmissionFilter{UserID: &user.ID})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, "Sapling", mine[0].Quest.Title)
	require.Equal(t, "aini", mine[0].User.Name)

	status := models.SubmissionStatusReview
	flagged, err := repo.List(ctx, SubmissionFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	require.Equal(t, other.ID, flagged[0].UserID)

	byQuest, err := repo.ListByQuest(ctx, quest.ID)
	require.NoError(t, err)
	require.Len(t, byQuest, 3)
}

func TestSubmissionRepositoryUpdatePersistsReport(t *testing.T) {
	db := testDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "aini", models.RoleStudent, 0)
	quest := seedQuest(t, db, "Sapling", models.CategoryBiodiversity, models.DifficultyMedium, time.Now().Add(24*time.Hour))
	submission := seedSubmission(t, db, quest.ID, user.ID, models.SubmissionStatusPending)

	submission.Status = models.SubmissionStatusAutoPass
	submission.Report = &models.VerificationReport{
		Confidence:   0.92,
		Labels:       []string{"plant", "sapling"},
		Reasons:      []string{},
		AutoDecision: models.DecisionPass,
	}
	require.NoError(t, repo.Update(ctx, &submission))

	reloaded, err := repo.GetByID(ctx, submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusAutoPass, reloaded.Status)
	require.NotNil(t, reloaded.Report)
	require.InDelta(t, 0.92, reloaded.Report.Confidence, 1e-9)
	require.Equal(t, []string{"plant", "sapling"}, reloaded.Report.Labels)
}

func TestSubmissionRepositoryApprovedCounts(t *testing.T) {
	db := testDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	aini := seedUser(t, db, "aini", models.RoleStudent, 0)
	bram := seedUser(t, db, "bram", models.RoleStudent, 0)
	waste := seedQuest(t, db, "Bottle Swap", models.CategoryWaste, models.DifficultyEasy, time.Now().Add(24*time.Hour))
	garden := seedQuest(t, db, "Sapling", models.CategoryBiodiversity, models.DifficultyMedium, time.Now().Add(24*time.Hour))

	seedSubmission(t, db, waste.ID, aini.ID, models.SubmissionStatusAutoPass)
	seedSubmission(t, db, waste.ID, aini.ID, models.SubmissionStatusApproved)
	seedSubmission(t, db, garden.ID, aini.ID, models.SubmissionStatusRejected)
	seedSubmission(t, db, garden.ID, bram.ID, models.SubmissionStatusAutoPass)

	byCategory, err := repo.CountApprovedByCategory(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), byCategory[models.CategoryWaste])
	require.Equal(t, int64(1), byCategory[models.CategoryBiodiversity])

	perUser, err := repo.CountApprovedByUserAndCategory(ctx, aini.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), perUser[models.CategoryWaste])
	require.NotContains(t, perUser, models.CategoryBiodiversity)

	byUsers, err := repo.CountApprovedByUsers(ctx, []uint{aini.ID, bram.ID})
	require.NoError(t, err)
	require.Equal(t, int64(2), byUsers[aini.ID])
	require.Equal(t, int64(1), byUsers[bram.ID])

	empty, err := repo.CountApprovedByUsers(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestUserRepositoryListByPoints(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	seedUser(t, db, "aini", models.RoleStudent, 310)
	seedUser(t, db, "bram", models.RoleStudent, 140)
	seedUser(t, db, "citra", models.RoleStudent, 220)
	seedUser(t, db, "rivera", models.RoleTeacher, 999)

	top, err := repo.ListByPoints(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, "aini", top[0].Name)
	require.Equal(t, "citra", top[1].Name)
}

func TestWalletRepositoryBalance(t *testing.T) {
	db := testDB(t)
	repo := NewWalletRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "aini", models.RoleStudent, 0)

	// An empty ledger sums to zero, not an error.
	balance, err := repo.Balance(ctx, user.ID)
	require.NoError(t, err)
	require.Zero(t, balance)

	require.NoError(t, repo.CreateTransaction(ctx, &models.WalletTransaction{
		UserID: user.ID, Type: models.TransactionEarned, Amount: 120,
	}))
	require.NoError(t, repo.CreateTransaction(ctx, &models.WalletTransaction{
		UserID: user.ID, Type: models.TransactionBonus, Amount: 10,
	}))
	require.NoError(t, repo.CreateTransaction(ctx, &models.WalletTransaction{
		UserID: user.ID, Type: models.TransactionRedeemed, Amount: -100, VoucherCode: "TERRA-2026-ABCD1234",
	}))

	balance, err = repo.Balance(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 30, balance)

	transactions, err := repo.ListTransactions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, transactions, 3)
}

func TestWalletRepositoryCountRedemptionsSince(t *testing.T) {
	db := testDB(t)
	repo := NewWalletRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "aini", models.RoleStudent, 0)

	old := models.WalletTransaction{
		UserID: user.ID, Type: models.TransactionRedeemed, Amount: -100,
		CreatedAt: time.Now().Add(-10 * 24 * time.Hour),
	}
	require.NoError(t, db.Create(&old).Error)
	recent := models.WalletTransaction{
		UserID: user.ID, Type: models.TransactionRedeemed, Amount: -100,
		CreatedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(&recent).Error)
	earned := models.WalletTransaction{
		UserID: user.ID, Type: models.TransactionEarned, Amount: 50,
	}
	require.NoError(t, db.Create(&earned).Error)

	count, err := repo.CountRedemptionsSince(ctx, user.ID, time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestWalletRepositoryVouchers(t *testing.T) {
	db := testDB(t)
	repo := NewWalletRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "aini", models.RoleStudent, 0)

	voucher := models.Voucher{
		Code:      "TERRA-2026-ABCD1234",
		UserID:    user.ID,
		Value:     100,
		Type:      models.VoucherCanteen,
		ExpiresAt: time.Now().Add(90 * 24 * time.Hour),
	}
	require.NoError(t, repo.CreateVoucher(ctx, &voucher))

	// Voucher codes are unique.
	dup := models.Voucher{Code: "TERRA-2026-ABCD1234", UserID: user.ID, Value: 50, Type: models.VoucherCanteen}
	require.Error(t, repo.CreateVoucher(ctx, &dup))

	vouchers, err := repo.ListVouchers(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, vouchers, 1)
	require.Equal(t, "TERRA-2026-ABCD1234", vouchers[0].Code)
	require.False(t, vouchers[0].Used)
}
