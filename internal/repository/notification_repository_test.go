package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/consultancy-crm-api/internal/models"
)

func TestNotificationRepositoryCreateAndList(t *testing.T) {
	db, mock, cleanup := newRegexpRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	n := &models.Notification{UserID: "user-2", Title: "Records transferred", Type: models.NotificationTypeTransfer, CompanyID: "co-1"}
	require.NoError(t, repo.Create(context.Background(), n))
	assert.NotEmpty(t, n.ID)

	rows := sqlmock.NewRows([]string{"id", "user_id", "title", "message", "type", "action_url", "is_read", "company_id", "created_at"}).
		AddRow(n.ID, "user-2", "Records transferred", "", "transfer", "", false, "co-1", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND is_read = FALSE ORDER BY created_at DESC LIMIT 50")).
		WithArgs("user-2").
		WillReturnRows(rows)

	items, err := repo.ListForUser(context.Background(), "user-2", true, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.NotificationTypeTransfer, items[0].Type)
	require.NoError(t, mock.ExpectationsWereMet())
}
