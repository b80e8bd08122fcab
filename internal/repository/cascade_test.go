package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*EventRepo, *LocationRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewEventRepo(db), NewLocationRepo(db), mock
}

func eventRow(id, ownerID, locationID int64) *sqlmock.Rows {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "title", "description", "category", "starts_at", "ends_at",
		"type", "capacity", "img", "owner_id", "location_id", "created_at", "updated_at",
	}).AddRow(id, "launch", "", "", now, now.Add(2*time.Hour), "private", 10, "", ownerID, locationID, now, now)
}

func locationRow(id, ownerID int64) *sqlmock.Rows {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "name", "address", "capacity", "owner_id", "created_at", "updated_at",
	}).AddRow(id, "hall", "1 main st", 100, ownerID, now, now)
}

func TestEventDeleteCascadesReservationsInOneTransaction(t *testing.T) {
	events, _, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT "+eventCols+" FROM events WHERE id=? LIMIT 1").
		WithArgs(int64(1)).WillReturnRows(eventRow(1, 7, 3))
	mock.ExpectExec("DELETE FROM reservations WHERE event_id=?").
		WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("DELETE FROM events WHERE id=?").
		WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, events.DeleteByIDAndOwner(context.Background(), 1, 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventDeleteByNonOwnerRollsBack(t *testing.T) {
	events, _, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT "+eventCols+" FROM events WHERE id=? LIMIT 1").
		WithArgs(int64(1)).WillReturnRows(eventRow(1, 99, 3))
	mock.ExpectRollback()

	err := events.DeleteByIDAndOwner(context.Background(), 1, 7)
	require.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventDeleteMissingEvent(t *testing.T) {
	events, _, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT " + eventCols + " FROM events WHERE id=? LIMIT 1").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "description", "category", "starts_at", "ends_at",
			"type", "capacity", "img", "owner_id", "location_id", "created_at", "updated_at",
		}))
	mock.ExpectRollback()

	err := events.DeleteByIDAndOwner(context.Background(), 1, 7)
	require.ErrorIs(t, err, ErrEventNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationDeleteCascadesEventsAndReservations(t *testing.T) {
	_, locations, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT "+locationCols+" FROM locations WHERE id=? LIMIT 1").
		WithArgs(int64(3)).WillReturnRows(locationRow(3, 7))
	mock.ExpectExec("DELETE FROM reservations WHERE event_id IN (SELECT id FROM events WHERE location_id=?)").
		WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 6))
	mock.ExpectExec("DELETE FROM events WHERE location_id=?").
		WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM locations WHERE id=?").
		WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, locations.DeleteByIDAndOwner(context.Background(), 3, 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationDeleteByNonOwnerRollsBack(t *testing.T) {
	_, locations, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT "+locationCols+" FROM locations WHERE id=? LIMIT 1").
		WithArgs(int64(3)).WillReturnRows(locationRow(3, 99))
	mock.ExpectRollback()

	err := locations.DeleteByIDAndOwner(context.Background(), 3, 7)
	require.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}
