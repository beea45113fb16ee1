package repository

import (
	"errors"

	"llm_tutor_backend/internal/model"

	"gorm.io/gorm"
)

type SkillRepository struct {
	DB *gorm.DB
}

func NewSkillRepository(db *gorm.DB) *SkillRepository {
	return &SkillRepository{DB: db}
}

// LockByUserAndTopic 在事务内锁定用户某主题的技能行，不存在时创建
func (r *SkillRepository) LockByUserAndTopic(tx *gorm.DB, userID uint, topic string) (*model.TopicSkill, error) {
	var skill model.TopicSkill
	err := lockForUpdate(tx).Where("user_id = ? AND topic = ?", userID, topic).First(&skill).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		skill = model.TopicSkill{
			UserID: userID,
			Topic:  topic,
			Level:  model.SkillBeginner,
		}
		if err := tx.Create(&skill).Error; err != nil {
			return nil, err
		}
		return &skill, nil
	}
	if err != nil {
		return nil, err
	}
	return &skill, nil
}

func (r *SkillRepository) FindByUserID(userID uint) ([]model.TopicSkill, error) {
	var skills []model.TopicSkill
	err := r.DB.Where("user_id = ?", userID).Order("topic ASC").Find(&skills).Error
	if err != nil {
		return nil, err
	}
	return skills, nil
}

func (r *SkillRepository) Save(tx *gorm.DB, skill *model.TopicSkill) error {
	return tx.Save(skill).Error
}

// CountAtOrAbove 用户达到（含超过）指定等级的主题数
func (r *SkillRepository) CountAtOrAbove(tx *gorm.DB, userID uint, level model.SkillLevel) (int64, error) {
	levels := levelsAtOrAbove(level)
	if len(levels) == 0 {
		return 0, nil
	}

	var count int64
	err := tx.Model(&model.TopicSkill{}).
		Where("user_id = ? AND level IN ?", userID, levels).
		Count(&count).Error
	return count, err
}

// CountByUser 用户已开始练习的主题数
func (r *SkillRepository) CountByUser(tx *gorm.DB, userID uint) (int64, error) {
	var count int64
	err := tx.Model(&model.TopicSkill{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// SumTimeSpent 用户全部主题的累计练习时长（秒）
func (r *SkillRepository) SumTimeSpent(tx *gorm.DB, userID uint) (int64, error) {
	var total int64
	err := tx.Model(&model.TopicSkill{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(time_spent_seconds), 0)").
		Scan(&total).Error
	return total, err
}

func levelsAtOrAbove(level model.SkillLevel) []model.SkillLevel {
	rank := level.Rank()
	if rank < 0 {
		return nil
	}
	all := []model.SkillLevel{model.SkillBeginner, model.SkillIntermediate, model.SkillAdvanced, model.SkillExpert}
	var result []model.SkillLevel
	for _, l := range all {
		if l.Rank() >= rank {
			result = append(result, l)
		}
	}
	return result
}
