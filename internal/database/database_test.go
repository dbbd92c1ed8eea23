package database

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/codeassess-api/internal/models"
)

func TestConnectSQLiteTranslatesUniqueViolations(t *testing.T) {
	db, err := ConnectSQLite("sqlite://file:database_unique?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	key := models.PairKey(1, 2)
	require.NoError(t, db.Create(&models.Invitation{CandidateID: 1, AssessmentID: 2, Status: models.InvitationStatusPending, ActiveKey: &key}).Error)

	err = db.Create(&models.Invitation{CandidateID: 1, AssessmentID: 2, Status: models.InvitationStatusPending, ActiveKey: &key}).Error
	require.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)

	require.NoError(t, db.Create(&models.Invitation{CandidateID: 1, AssessmentID: 2, Status: models.InvitationStatusCompleted}).Error)
	require.NoError(t, db.Create(&models.Invitation{CandidateID: 1, AssessmentID: 2, Status: models.InvitationStatusExpired}).Error)
}

func TestConnectRejectsEmptyDSN(t *testing.T) {
	_, err := ConnectPostgres("")
	require.Error(t, err)

	_, err = ConnectSQLite("")
	require.Error(t, err)

	_, err = ConnectRedis(context.Background(), "")
	require.Error(t, err)

	_, err = ConnectNATS("", "test")
	require.Error(t, err)
}

func TestConnectRedis(t *testing.T) {
	mini := miniredis.RunT(t)
	addr := "redis://" + mini.Addr()

	client, err := ConnectRedis(context.Background(), addr)
	require.NoError(t, err)
	defer client.Close()

	mini.Close()
	_, err = ConnectRedis(context.Background(), addr)
	require.Error(t, err)
}
