package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/rozklad/domain"
)

func TestDispatcherExecute(t *testing.T) {
	d := NewDispatcher()
	d.RegisterCommand("login", "login <user>", true, func(ctx context.Context, args []string) (interface{}, error) {
		return "hello " + args[0], nil
	})
	d.RegisterQuery("today", "today", func(ctx context.Context, args []string) (interface{}, error) {
		return len(args), nil
	})

	out, err := d.Execute(context.Background(), "login", []string{"olena"})
	require.NoError(t, err)
	assert.Equal(t, "hello olena", out)

	out, err = d.Execute(context.Background(), "today", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, out)

	_, err = d.Execute(context.Background(), "teleport", nil)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestDispatcherEntries(t *testing.T) {
	d := NewDispatcher()
	noop := func(context.Context, []string) (interface{}, error) { return nil, nil }
	d.RegisterQuery("week", "", noop)
	d.RegisterCommand("approve", "", false, noop)
	d.RegisterCommand("login", "", true, noop)

	entries := d.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "approve", entries[0].Name)
	assert.Equal(t, "login", entries[1].Name)
	assert.Equal(t, "week", entries[2].Name)

	login, ok := d.Lookup("login")
	require.True(t, ok)
	assert.True(t, login.Public)
	assert.False(t, login.Query)

	week, _ := d.Lookup("week")
	assert.True(t, week.Query)
}

func TestQueryAndPath(t *testing.T) {
	q := NewQuery().Int("group_id", 0).Int("teacher_id", 4).String("status", "").Bool("unread_only", true)
	assert.Equal(t, "teacher_id=4&unread_only=true", q.Values().Encode())
	assert.Nil(t, NewQuery().Values())

	assert.Equal(t, "/schedule/9", Path("/schedule", 9))
	assert.Equal(t, "/notifications/3/read", Path("/notifications", 3, "read"))
}
