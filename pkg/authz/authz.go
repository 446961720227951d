// Package authz holds the ownership rule for posts and comments: only the
// author may change or delete what they wrote.
package authz

import (
	"fmt"

	"blog/pkg/common"
)

func IsOwner(actorId, authorId string) bool {
	return actorId != "" && actorId == authorId
}

// Check returns an error wrapping common.ErrForbidden when actorId is not
// the author.
func Check(actorId, authorId string) error {
	if !IsOwner(actorId, authorId) {
		return fmt.Errorf("authz: user %q is not the author: %w", actorId, common.ErrForbidden)
	}
	return nil
}
