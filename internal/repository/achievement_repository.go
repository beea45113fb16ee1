package repository

import (
	"errors"

	"llm_tutor_backend/internal/model"

	"gorm.io/gorm"
)

type AchievementRepository struct {
	DB *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) *AchievementRepository {
	return &AchievementRepository{DB: db}
}

// FindAllDefinitions 成就目录（只读）。tx 为 nil 时走默认连接，
// 事务内调用传入 tx 以保证读到一致的目录视图。
func (r *AchievementRepository) FindAllDefinitions(tx *gorm.DB) ([]model.AchievementDefinition, error) {
	if tx == nil {
		tx = r.DB
	}
	var definitions []model.AchievementDefinition
	err := tx.Order("category ASC, threshold ASC").Find(&definitions).Error
	if err != nil {
		return nil, err
	}
	return definitions, nil
}

// LockProgress 在事务内锁定用户某成就的进度行，不存在时懒创建
func (r *AchievementRepository) LockProgress(tx *gorm.DB, userID, achievementID uint) (*model.UserAchievement, error) {
	var progress model.UserAchievement
	err := lockForUpdate(tx).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		progress = model.UserAchievement{UserID: userID, AchievementID: achievementID}
		if err := tx.Create(&progress).Error; err != nil {
			return nil, err
		}
		return &progress, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *AchievementRepository) SaveProgress(tx *gorm.DB, progress *model.UserAchievement) error {
	return tx.Save(progress).Error
}

// FindByUserID 用户全部成就进度，带目录定义
func (r *AchievementRepository) FindByUserID(userID uint) ([]model.UserAchievement, error) {
	var achievements []model.UserAchievement
	err := r.DB.Preload("Definition").
		Where("user_id = ?", userID).
		Find(&achievements).Error
	if err != nil {
		return nil, err
	}
	return achievements, nil
}
