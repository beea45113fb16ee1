package repository

import (
	"errors"
	"time"

	"llm_tutor_backend/internal/model"

	"gorm.io/gorm"
)

type SnapshotRepository struct {
	DB *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{DB: db}
}

// LockByUserAndDay 在事务内锁定某日快照，不存在时返回 nil
func (r *SnapshotRepository) LockByUserAndDay(tx *gorm.DB, userID uint, day time.Time) (*model.ProgressSnapshot, error) {
	var snapshot model.ProgressSnapshot
	err := lockForUpdate(tx).Where("user_id = ? AND day = ?", userID, day).First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *SnapshotRepository) Create(tx *gorm.DB, snapshot *model.ProgressSnapshot) error {
	return tx.Create(snapshot).Error
}

func (r *SnapshotRepository) Save(tx *gorm.DB, snapshot *model.ProgressSnapshot) error {
	return tx.Save(snapshot).Error
}

// FindByUserBetween 区间内的快照（含边界），按日期升序
func (r *SnapshotRepository) FindByUserBetween(userID uint, from, to time.Time) ([]model.ProgressSnapshot, error) {
	var snapshots []model.ProgressSnapshot
	err := r.DB.Where("user_id = ? AND day BETWEEN ? AND ?", userID, from, to).
		Order("day ASC").
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

// FindByUserSince 从指定日期起的全部快照，按日期升序
func (r *SnapshotRepository) FindByUserSince(userID uint, from time.Time) ([]model.ProgressSnapshot, error) {
	var snapshots []model.ProgressSnapshot
	err := r.DB.Where("user_id = ? AND day >= ?", userID, from).
		Order("day ASC").
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

// FindAllByUser 用户全部快照，按日期升序
func (r *SnapshotRepository) FindAllByUser(userID uint) ([]model.ProgressSnapshot, error) {
	var snapshots []model.ProgressSnapshot
	err := r.DB.Where("user_id = ?", userID).Order("day ASC").Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

// FindRecent 最近 limit 个有快照的日期，按日期升序返回
func (r *SnapshotRepository) FindRecent(userID uint, limit int) ([]model.ProgressSnapshot, error) {
	var snapshots []model.ProgressSnapshot
	err := r.DB.Where("user_id = ?", userID).
		Order("day DESC").
		Limit(limit).
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	// 倒序查询取最近 N 天，再翻转为升序
	for i, j := 0, len(snapshots)-1; i < j; i, j = i+1, j-1 {
		snapshots[i], snapshots[j] = snapshots[j], snapshots[i]
	}
	return snapshots, nil
}
