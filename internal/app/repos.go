package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/personapost-backend/internal/data/repos"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

type Repos struct {
	Persona  repos.PersonaRepo
	Account  repos.AccountRepo
	Post     repos.PostRepo
	Schedule repos.ScheduleRepo
	Topic    repos.TopicRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Persona:  repos.NewPersonaRepo(db, log),
		Account:  repos.NewAccountRepo(db, log),
		Post:     repos.NewPostRepo(db, log),
		Schedule: repos.NewScheduleRepo(db, log),
		Topic:    repos.NewTopicRepo(db, log),
	}
}
