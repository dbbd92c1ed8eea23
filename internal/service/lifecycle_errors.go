package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrSessionAlreadyActive indicates the candidate already has an in-progress session for the assessment.
	ErrSessionAlreadyActive = errors.New("a session is already in progress for this assessment")
	// ErrNotInvited indicates no pending or accepted invitation exists for the pair.
	ErrNotInvited = errors.New("candidate is not invited to this assessment")
	// ErrSessionNotFound indicates no in-progress session matches the id, candidate and token.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvitationExpired indicates the invitation passed its expiry date.
	ErrInvitationExpired = errors.New("invitation has expired")
	// ErrInvalidTransition indicates the invitation cannot move to the requested state.
	ErrInvalidTransition = errors.New("invalid invitation transition")
	// ErrInvitationNotFound indicates the invitation does not exist.
	ErrInvitationNotFound = errors.New("invitation not found")
	// ErrDuplicateInvitation indicates a non-terminal invitation already exists for the pair.
	ErrDuplicateInvitation = errors.New("candidate already has an open invitation for this assessment")
	// ErrAssessmentNotFound indicates the assessment does not exist.
	ErrAssessmentNotFound = errors.New("assessment not found")
	// ErrQuestionNotFound indicates the question does not exist.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrQuestionAlreadyLinked indicates the question is already part of the assessment.
	ErrQuestionAlreadyLinked = errors.New("question already linked to assessment")
	// ErrQuestionNotInAssessment indicates the question is not linked to the assessment.
	ErrQuestionNotInAssessment = errors.New("question is not part of this assessment")
	// ErrSubmissionNotFound indicates a submission could not be found.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrStorageUnavailable wraps every storage failure other than a missing record.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// storageError tags err as ErrStorageUnavailable while keeping the driver message.
func storageError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

// lookupError maps a missing record to notFound and any other failure to ErrStorageUnavailable.
func lookupError(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return storageError(err)
}
