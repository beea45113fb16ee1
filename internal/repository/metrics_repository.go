package repository

import (
	"errors"

	"llm_tutor_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MetricsRepository struct {
	DB *gorm.DB
}

func NewMetricsRepository(db *gorm.DB) *MetricsRepository {
	return &MetricsRepository{DB: db}
}

// lockForUpdate 行级锁，保证同一用户的变更串行化
// SQLite 的写事务本身串行，不支持 FOR UPDATE 语法
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// LockForUpdate 在事务内锁定用户的指标行，不存在时创建零值行
func (r *MetricsRepository) LockForUpdate(tx *gorm.DB, userID uint) (*model.UserMetrics, error) {
	var metrics model.UserMetrics
	err := lockForUpdate(tx).Where("user_id = ?", userID).First(&metrics).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics = model.UserMetrics{UserID: userID}
		if err := tx.Create(&metrics).Error; err != nil {
			// 并发首次写入时可能撞唯一索引，重读并加锁
			if err2 := lockForUpdate(tx).Where("user_id = ?", userID).First(&metrics).Error; err2 != nil {
				return nil, err
			}
		}
		return &metrics, nil
	}
	if err != nil {
		return nil, err
	}
	return &metrics, nil
}

func (r *MetricsRepository) FindByUserID(userID uint) (*model.UserMetrics, error) {
	var metrics model.UserMetrics
	err := r.DB.Where("user_id = ?", userID).First(&metrics).Error
	if err != nil {
		return nil, err
	}
	return &metrics, nil
}

func (r *MetricsRepository) Save(tx *gorm.DB, metrics *model.UserMetrics) error {
	return tx.Save(metrics).Error
}
