package mongo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/mock/gomock"

	"billify.site/pkg/billify/logging"
)

func newTestClient(t *testing.T) (*Client, *MockMetrics, *logging.MockLogger) {
	t.Helper()

	metrics := NewMockMetrics(gomock.NewController(t))
	logger := logging.NewMockLogger(logging.DEBUG)

	cl := New(Config{Database: "billify"})
	cl.UseLogger(logger)
	cl.UseMetrics(metrics)

	return cl, metrics, logger
}

func Test_ConnectError(t *testing.T) {
	cl, _, _ := newTestClient(t)

	err := cl.Connect(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
	assert.Nil(t, cl.Database)
	assert.NoError(t, cl.Close(context.Background()))
}

func Test_InsertOne(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	cl, metrics, logger := newTestClient(t)

	metrics.EXPECT().RecordHistogram(gomock.Any(), "app_mongo_stats", gomock.Any(), "type", "insertOne").Times(2)

	mt.Run("insertOneSuccess", func(mt *mtest.T) {
		cl.Database = mt.DB
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		id, err := cl.InsertOne(context.Background(), mt.Coll.Name(), bson.M{"_id": "u-1", "email": "a@b.co"})

		require.NoError(t, err)
		assert.Equal(t, "u-1", id)
	})

	mt.Run("insertOneDuplicate", func(mt *mtest.T) {
		cl.Database = mt.DB
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		id, err := cl.InsertOne(context.Background(), mt.Coll.Name(), bson.M{"email": "a@b.co"})

		assert.Nil(t, id)
		require.Error(t, err)
		assert.True(t, IsDuplicateKey(err))
	})

	entries := logger.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, logging.DEBUG, entries[0].Level)
	assert.Contains(t, entries[0].Message, "MONGO insertOne")
}

func Test_FindOne(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	cl, metrics, _ := newTestClient(t)

	metrics.EXPECT().RecordHistogram(gomock.Any(), "app_mongo_stats", gomock.Any(), "type", "findOne").Times(2)

	type user struct {
		ID    primitive.ObjectID `bson:"_id"`
		Email string             `bson:"email"`
	}

	mt.Run("findOneSuccess", func(mt *mtest.T) {
		cl.Database = mt.DB

		expected := user{ID: primitive.NewObjectID(), Email: "john.doe@test.com"}

		mt.AddMockResponses(mtest.CreateCursorResponse(1, "billify.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: expected.ID},
			{Key: "email", Value: expected.Email},
		}))

		var found user

		err := cl.FindOne(context.Background(), mt.Coll.Name(), bson.M{"email": expected.Email}, &found)

		require.NoError(t, err)
		assert.Equal(t, expected, found)
	})

	mt.Run("findOneNoDocuments", func(mt *mtest.T) {
		cl.Database = mt.DB
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "billify.users", mtest.FirstBatch))

		var found user

		err := cl.FindOne(context.Background(), mt.Coll.Name(), bson.M{"email": "x"}, &found)

		require.ErrorIs(t, err, ErrNoDocuments)
	})
}

func Test_UpdateAndDelete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	cl, metrics, _ := newTestClient(t)

	metrics.EXPECT().RecordHistogram(gomock.Any(), "app_mongo_stats", gomock.Any(), "type", "updateByID")
	metrics.EXPECT().RecordHistogram(gomock.Any(), "app_mongo_stats", gomock.Any(), "type", "deleteOne").Times(2)

	mt.Run("updateByID", func(mt *mtest.T) {
		cl.Database = mt.DB
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}, {Key: "nModified", Value: 1}})

		modified, err := cl.UpdateByID(context.Background(), mt.Coll.Name(), primitive.NewObjectID(),
			bson.M{"$set": bson.M{"isEmailVerified": true}})

		require.NoError(t, err)
		assert.Equal(t, int64(1), modified)
	})

	mt.Run("deleteOne", func(mt *mtest.T) {
		cl.Database = mt.DB
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}})

		deleted, err := cl.DeleteOne(context.Background(), mt.Coll.Name(), bson.M{"token": "abc"})

		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)
	})

	mt.Run("deleteOneError", func(mt *mtest.T) {
		cl.Database = mt.DB
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad filter"}))

		deleted, err := cl.DeleteOne(context.Background(), mt.Coll.Name(), bson.M{"token": "abc"})

		require.Error(t, err)
		assert.Zero(t, deleted)
	})
}

func Test_CreateIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	cl, metrics, _ := newTestClient(t)

	metrics.EXPECT().RecordHistogram(gomock.Any(), "app_mongo_stats", gomock.Any(), "type", "createIndexes")

	mt.Run("createIndexes", func(mt *mtest.T) {
		cl.Database = mt.DB
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		names, err := cl.CreateIndexes(context.Background(), mt.Coll.Name(), []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"email_1"}, names)
	})
}

func Test_HealthCheck(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	cl, metrics, _ := newTestClient(t)

	gomock.InOrder(
		metrics.EXPECT().SetGauge("app_mongo_up", float64(0)),
		metrics.EXPECT().SetGauge("app_mongo_up", float64(1)),
		metrics.EXPECT().SetGauge("app_mongo_up", float64(0)),
	)

	health := cl.HealthCheck(context.Background())
	assert.Equal(t, StatusDown, health.Status)

	mt.Run("up", func(mt *mtest.T) {
		cl.Database = mt.DB
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		health := cl.HealthCheck(context.Background())

		assert.Equal(t, StatusUp, health.Status)
		assert.Equal(t, "billify", health.Details["database"])
	})

	mt.Run("down", func(mt *mtest.T) {
		cl.Database = mt.DB
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Message: "unauthorized"}))

		health := cl.HealthCheck(context.Background())

		assert.Equal(t, StatusDown, health.Status)
		assert.Contains(t, health.Details["error"], "unauthorized")
	})
}

func Test_QueriesWithoutConnection(t *testing.T) {
	cl, metrics, _ := newTestClient(t)

	metrics.EXPECT().RecordHistogram(gomock.Any(), "app_mongo_stats", gomock.Any(), "type", gomock.Any()).Times(5)

	ctx := context.Background()

	_, err := cl.InsertOne(ctx, "users", bson.M{"_id": "u-1"})
	require.ErrorIs(t, err, ErrNotConnected)

	err = cl.FindOne(ctx, "users", bson.M{"_id": "u-1"}, &bson.M{})
	require.ErrorIs(t, err, ErrNotConnected)

	_, err = cl.UpdateByID(ctx, "users", "u-1", bson.M{"$set": bson.M{"a": 1}})
	require.ErrorIs(t, err, ErrNotConnected)

	_, err = cl.DeleteOne(ctx, "users", bson.M{"_id": "u-1"})
	require.ErrorIs(t, err, ErrNotConnected)

	_, err = cl.CreateIndexes(ctx, "users", nil)
	require.ErrorIs(t, err, ErrNotConnected)
}
