package repository

import (
	"time"

	"llm_tutor_backend/internal/model"

	"gorm.io/gorm"
)

type EventRepository struct {
	DB *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{DB: db}
}

func (r *EventRepository) Create(tx *gorm.DB, event *model.ExerciseEvent) error {
	return tx.Create(event).Error
}

// FindByUserAndDay 某用户在指定日期的全部练习事件
func (r *EventRepository) FindByUserAndDay(userID uint, day time.Time) ([]model.ExerciseEvent, error) {
	var events []model.ExerciseEvent
	err := r.DB.Where("user_id = ? AND occurred_on = ?", userID, day).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// FindByUserSince 从指定日期起的事件，按发生日升序
func (r *EventRepository) FindByUserSince(userID uint, from time.Time) ([]model.ExerciseEvent, error) {
	var events []model.ExerciseEvent
	err := r.DB.Where("user_id = ? AND occurred_on >= ?", userID, from).
		Order("occurred_on ASC, created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// FindAllByUser 用户的完整事件历史，按发生日升序（表格导出用）
func (r *EventRepository) FindAllByUser(userID uint) ([]model.ExerciseEvent, error) {
	var events []model.ExerciseEvent
	err := r.DB.Where("user_id = ?", userID).
		Order("occurred_on ASC, created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
