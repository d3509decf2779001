package services

import (
	"gestops/internal/errors"
	"gestops/internal/models"
)

// ResolveMutation decides whether an actor may mutate an operation created
// by creatorID. Creators may always mutate their own operations. Supervisors
// may mutate anyone's, but touching someone else's flags the operation as
// modified by a non-creator; a creator mutating their own clears that flag.
//
// The returned markModified is the value the modified-by-other flag must be
// set to when the mutation is applied.
func ResolveMutation(actorID uint, actorRole models.Role, creatorID uint) (markModified bool, err error) {
	isCreator := actorID == creatorID
	isSupervisor := actorRole == models.RoleSupervisor

	if !isCreator && !isSupervisor {
		return false, errors.ErrNotOperationOwner
	}
	return isSupervisor && !isCreator, nil
}
