package database

import (
	"fmt"
	"log"

	"llm_tutor_backend/internal/config"
	"llm_tutor_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	return db, nil
}

// Migrate 建表并播种默认成就目录
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.UserMetrics{},
		&model.ExerciseEvent{},
		&model.TopicSkill{},
		&model.AchievementDefinition{},
		&model.UserAchievement{},
		&model.ProgressSnapshot{},
	)
	if err != nil {
		return err
	}

	return seedAchievementCatalog(db)
}

// seedAchievementCatalog 成就目录为空时插入默认定义（运行时只读）
func seedAchievementCatalog(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.AchievementDefinition{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []model.AchievementDefinition{
		{Code: "streak_3", Name: "初窥门径", Description: "连续学习 3 天", Category: model.CategoryStreakLength, Threshold: 3, Points: 10},
		{Code: "streak_7", Name: "坚持一周", Description: "连续学习 7 天", Category: model.CategoryStreakLength, Threshold: 7, Points: 25},
		{Code: "streak_30", Name: "月度达人", Description: "连续学习 30 天", Category: model.CategoryStreakLength, Threshold: 30, Points: 100},
		{Code: "longest_streak_100", Name: "百日百炼", Description: "历史最长连续学习达到 100 天", Category: model.CategoryLongestStreak, Threshold: 100, Points: 500},
		{Code: "exercises_1", Name: "第一步", Description: "完成第一道练习", Category: model.CategoryExercisesCompleted, Threshold: 1, Points: 5},
		{Code: "exercises_50", Name: "勤学苦练", Description: "累计完成 50 道练习", Category: model.CategoryExercisesCompleted, Threshold: 50, Points: 50},
		{Code: "exercises_500", Name: "千锤百炼", Description: "累计完成 500 道练习", Category: model.CategoryExercisesCompleted, Threshold: 500, Points: 200},
		{Code: "advanced_topic", Name: "渐入佳境", Description: "任一主题达到 Advanced", Category: model.CategorySkillLevelReached, Threshold: 1, TargetLevel: model.SkillAdvanced, Points: 50},
		{Code: "expert_topic", Name: "登峰造极", Description: "任一主题达到 Expert", Category: model.CategorySkillLevelReached, Threshold: 1, TargetLevel: model.SkillExpert, Points: 150},
		{Code: "topics_5", Name: "博览群书", Description: "开始学习 5 个不同主题", Category: model.CategoryTopicsStarted, Threshold: 5, Points: 30},
		{Code: "time_10h", Name: "持之以恒", Description: "累计练习 10 小时", Category: model.CategoryTimeSpent, Threshold: 36000, Points: 40},
	}

	for i := range defaults {
		if err := db.Create(&defaults[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
