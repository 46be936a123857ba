package social

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	perr "github.com/yungbote/personapost-backend/internal/pkg/errors"
)

// translate maps storage errors onto the domain taxonomy. what names the entity for messages.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return perr.NotFoundf("%s not found", what)
	}
	if isUniqueViolation(err) {
		return &perr.Error{Kind: perr.ErrConflict, Msg: what + " already exists", Err: err}
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint failed")
}
