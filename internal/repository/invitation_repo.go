package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/codeassess-api/internal/models"
)

// InvitationRepository defines data operations for invitations.
// Transition is the only way to change an invitation's status: it applies the updates only when
// the stored status is one of from, and reports whether a row changed.
type InvitationRepository interface {
	Create(ctx context.Context, invitation *models.Invitation) error
	GetByID(ctx context.Context, id uint) (models.Invitation, error)
	FindLatestForPair(ctx context.Context, candidateID, assessmentID uint) (models.Invitation, error)
	Transition(ctx context.Context, id uint, from []string, updates map[string]interface{}) (bool, error)
	ListStarted(ctx context.Context) ([]models.Invitation, error)
}

type invitationRepository struct {
	db *gorm.DB
}

// NewInvitationRepository instantiates the repository.
func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &invitationRepository{db: db}
}

func (r *invitationRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Invitation{}).Preload("Assessment")
}

func (r *invitationRepository) Create(ctx context.Context, invitation *models.Invitation) error {
	return r.db.WithContext(ctx).Omit("Assessment").Create(invitation).Error
}

func (r *invitationRepository) GetByID(ctx context.Context, id uint) (models.Invitation, error) {
	var invitation models.Invitation
	if err := r.baseQuery(ctx).First(&invitation, id).Error; err != nil {
		return models.Invitation{}, err
	}
	return invitation, nil
}

func (r *invitationRepository) FindLatestForPair(ctx context.Context, candidateID, assessmentID uint) (models.Invitation, error) {
	var invitation models.Invitation
	err := r.baseQuery(ctx).
		Where("candidate_id = ? AND assessment_id = ?", candidateID, assessmentID).
		Order("id DESC").
		First(&invitation).Error
	if err != nil {
		return models.Invitation{}, err
	}
	return invitation, nil
}

func (r *invitationRepository) Transition(ctx context.Context, id uint, from []string, updates map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *invitationRepository) ListStarted(ctx context.Context) ([]models.Invitation, error) {
	var invitations []models.Invitation
	err := r.baseQuery(ctx).
		Where("status = ?", models.InvitationStatusStarted).
		Order("started_at ASC").
		Find(&invitations).Error
	if err != nil {
		return nil, err
	}
	return invitations, nil
}
