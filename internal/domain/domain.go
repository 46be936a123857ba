package domain

import "github.com/yungbote/personapost-backend/internal/domain/social"

type (
	Persona  = social.Persona
	Account  = social.Account
	Post     = social.Post
	Schedule = social.Schedule
	Topic    = social.Topic
)

const (
	PostStatusDraft     = social.PostStatusDraft
	PostStatusPending   = social.PostStatusPending
	PostStatusApproved  = social.PostStatusApproved
	PostStatusScheduled = social.PostStatusScheduled
	PostStatusPublished = social.PostStatusPublished
	PostStatusRejected  = social.PostStatusRejected
	PostStatusFailed    = social.PostStatusFailed

	TopicTypeManual   = social.TopicTypeManual
	TopicTypeTrending = social.TopicTypeTrending
)

// PostStatuses lists every post status in lifecycle order.
var PostStatuses = social.PostStatuses

func IsPostStatus(s string) bool { return social.IsPostStatus(s) }

// Models lists every persisted model, in migration order.
func Models() []any {
	return []any{
		&social.Persona{},
		&social.Account{},
		&social.Schedule{},
		&social.Post{},
		&social.Topic{},
	}
}
