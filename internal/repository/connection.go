package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

var ErrTransactionsUnsupported = errors.New("mongodb deployment does not support transactions, use a replica set or sharded cluster")

// helloReply carries the fields of the hello command that tell a standalone
// server apart from a replica set member or mongos.
type helloReply struct {
	SetName string `bson:"setName"`
	Msg     string `bson:"msg"`
}

// ConnectMongoDB connects, pings and checks that the deployment can run
// multi-document transactions, which stock and order writes rely on.
func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetAppName("greencart-storefront").
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetRetryWrites(true).
		SetWriteConcern(writeconcern.Majority()).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	db := client.Database(database)
	if err := checkDeployment(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return db, nil
}

func checkDeployment(ctx context.Context, db *mongo.Database) error {
	var reply helloReply
	if err := db.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&reply); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	if reply.SetName == "" && reply.Msg != "isdbgrid" {
		return ErrTransactionsUnsupported
	}
	return nil
}
