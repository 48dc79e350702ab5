package session

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/corehaven/agentcore/pkg/models"
)

func TestSQLStoreAppendAndLoadRoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS session_entries")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	store, err := NewSQLStore(db, nil)
	if err != nil {
		t.Fatalf("new sql store: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO session_entries")).
		WithArgs("s1", "s1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	ctx := context.Background()
	if err := store.AppendEntry(ctx, "s1", models.SessionEntry{Messages: []models.Message{models.NewUserText("hi")}}); err != nil {
		t.Fatalf("append: %v", err)
	}

	rows := sqlmock.NewRows([]string{"seq", "payload"}).
		AddRow(0, `{"type":"user","user":{"content":[{"type":"text","text":{"text":"hi"}}]}}`)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT seq, payload FROM session_entries")).
		WithArgs("s1").
		WillReturnRows(rows)

	state, err := store.LoadState(ctx, "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(state.Messages) != 1 || models.MessageText(state.Messages[0]) != "hi" {
		t.Fatalf("unexpected state: %+v", state)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
