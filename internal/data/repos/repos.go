package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/personapost-backend/internal/data/repos/social"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

type PersonaRepo = social.PersonaRepo
type AccountRepo = social.AccountRepo
type PostRepo = social.PostRepo
type ScheduleRepo = social.ScheduleRepo
type TopicRepo = social.TopicRepo

type PostFilter = social.PostFilter

func NewPersonaRepo(db *gorm.DB, baseLog *logger.Logger) PersonaRepo {
	return social.NewPersonaRepo(db, baseLog)
}
func NewAccountRepo(db *gorm.DB, baseLog *logger.Logger) AccountRepo {
	return social.NewAccountRepo(db, baseLog)
}
func NewPostRepo(db *gorm.DB, baseLog *logger.Logger) PostRepo {
	return social.NewPostRepo(db, baseLog)
}
func NewScheduleRepo(db *gorm.DB, baseLog *logger.Logger) ScheduleRepo {
	return social.NewScheduleRepo(db, baseLog)
}
func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
	return social.NewTopicRepo(db, baseLog)
}
