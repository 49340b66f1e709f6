// Command ecodump reads the whole entry tree once and logs it.
//
// Configuration is read from the environment (and .env when present):
//
//	ECO_BACKEND   dynamo (default), firestore or memory
//	ECO_TABLE     DynamoDB table (default eco_tree)
//	ECO_SHARDS    shards per collection (default 1)
//	ECO_ENDPOINT  DynamoDB endpoint override, e.g. DynamoDB Local
//	ECO_GCP_PROJECT  Firestore project
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jacentio/eco/internal/appenv"
	"github.com/jacentio/eco/internal/logger"
	"github.com/jacentio/eco/store"
)

func main() {
	timeout := flag.Duration("timeout", time.Minute, "give up after this long")
	pretty := flag.Bool("print", false, "also print the tree as indented JSON on stdout")
	flag.Parse()

	env, err := appenv.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := logger.New(env.LogLevel)
	err = run(env, log, *timeout, *pretty)
	_ = log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(env appenv.Env, log *zap.Logger, timeout time.Duration, pretty bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s := store.New(store.Lazy(env.Opener()), env.StoreConfig(), log)

	tree, err := s.DumpAll(ctx).Wait(ctx)
	if err != nil {
		log.Error("dump failed", zap.String("backend", env.Backend), zap.Error(err))
		return err
	}

	if pretty {
		out, err := json.MarshalIndent(tree, "", "  ")
		if err != nil {
			log.Error("encode tree", zap.Error(err))
			return err
		}
		fmt.Println(string(out))
	}
	return nil
}
