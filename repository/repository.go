// Package repository holds the gorm-backed stores for conversations, messages,
// blocks, bans, sessions and users.
package repository

import (
	"sort"

	"github.com/Top-Pesinde/backend-sub001/apperror"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func notFound(err error, msg, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(msg)
	}
	return errors.Wrap(err, op)
}

func sortByUpdatedDesc(s []ConversationSummary) {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].UpdatedAt.After(s[j].UpdatedAt)
	})
}
