package mongo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type mockCounter struct{ mock.Mock }

func (m *mockCounter) CountDocuments(ctx context.Context, filter interface{}, _ ...options.Lister[options.CountOptions]) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func TestUserRegistry_Exists(t *testing.T) {
	c := &mockCounter{}
	c.On("CountDocuments", mock.Anything, bson.D{{Key: "email", Value: "a@x.com"}}).Return(int64(1), nil)
	c.On("CountDocuments", mock.Anything, bson.D{{Key: "email", Value: "ghost@x.com"}}).Return(int64(0), nil)

	reg := &UserRegistry{users: c}

	ok, err := reg.Exists(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = reg.Exists(context.Background(), "ghost@x.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserRegistry_Error(t *testing.T) {
	c := &mockCounter{}
	c.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), errors.New("server selection timeout"))

	_, err := (&UserRegistry{users: c}).Exists(context.Background(), "a@x.com")
	assert.ErrorContains(t, err, "server selection timeout")
}
