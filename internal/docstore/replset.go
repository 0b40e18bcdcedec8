package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// codeNotYetInitialized is returned by replSetGetStatus before replSetInitiate ran.
const codeNotYetInitialized = 94

type ReplSetMember struct {
	ID       int    `bson:"_id"`
	Name     string `bson:"name"`
	StateStr string `bson:"stateStr"`
}

type ReplSetStatus struct {
	Set     string          `bson:"set"`
	MyState int             `bson:"myState"`
	Members []ReplSetMember `bson:"members"`
}

type ReplSetResult struct {
	// Initiated is false when the replica set already existed.
	Initiated bool
	Status    *ReplSetStatus
}

// InitReplicaSet initiates a single-member replica set unless one already
// exists. After initiating it waits settle before reading the status back.
func InitReplicaSet(ctx context.Context, admin *mongo.Database, name, host string, settle time.Duration) (*ReplSetResult, error) {
	status, err := replSetStatus(ctx, admin)
	if err == nil {
		return &ReplSetResult{Status: status}, nil
	}
	if !isNotYetInitialized(err) {
		return nil, fmt.Errorf("failed to read replica set status: %w", err)
	}

	initiate := bson.D{{Key: "replSetInitiate", Value: bson.D{
		{Key: "_id", Value: name},
		{Key: "members", Value: bson.A{
			bson.D{{Key: "_id", Value: 0}, {Key: "host", Value: host}},
		}},
	}}}
	if err := admin.RunCommand(ctx, initiate).Err(); err != nil {
		return nil, fmt.Errorf("failed to initiate replica set %s: %w", name, err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(settle):
	}

	status, err = replSetStatus(ctx, admin)
	if err != nil {
		return nil, fmt.Errorf("failed to read replica set status after initiate: %w", err)
	}
	return &ReplSetResult{Initiated: true, Status: status}, nil
}

func replSetStatus(ctx context.Context, admin *mongo.Database) (*ReplSetStatus, error) {
	var status ReplSetStatus
	if err := admin.RunCommand(ctx, bson.D{{Key: "replSetGetStatus", Value: 1}}).Decode(&status); err != nil {
		return nil, err
	}
	return &status, nil
}

func isNotYetInitialized(err error) bool {
	var cmdErr mongo.CommandError
	return errors.As(err, &cmdErr) && cmdErr.Code == codeNotYetInitialized
}
