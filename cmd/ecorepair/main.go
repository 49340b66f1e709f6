// Command ecorepair is a Lambda function subscribed to the entry table's
// stream. It writes the listing record of any content record inserted
// without one.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/jacentio/eco/internal/appenv"
	"github.com/jacentio/eco/internal/logger"
	"github.com/jacentio/eco/store"
	"github.com/jacentio/eco/stream"
)

func main() {
	env, err := appenv.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := logger.New(env.LogLevel)
	if env.Backend != appenv.BackendDynamo {
		log.Fatal("stream repair requires the dynamo backend", zap.String("backend", env.Backend))
	}

	tree, err := store.OpenDynamo(context.Background(), env.Dynamo)
	if err != nil {
		log.Error("open table", zap.String("table", env.Dynamo.Table), zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}

	handler := stream.NewHandler(store.New(tree, env.StoreConfig(), log), log)
	lambda.Start(handler.HandleContentInserts)
}
