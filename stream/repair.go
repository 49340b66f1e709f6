// Package stream provides DynamoDB Streams handlers that keep entry records in lockstep.
package stream

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/jacentio/eco/internal/shard"
	"github.com/jacentio/eco/store"
)

// Handler restores listing records for content records written without one.
// The table stream must include new images (NEW_IMAGE or NEW_AND_OLD_IMAGES).
type Handler struct {
	store  *store.Store
	logger *zap.Logger
}

// NewHandler creates a new stream handler. A nil logger uses zap's global logger.
func NewHandler(s *store.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.L()
	}
	return &Handler{
		store:  s,
		logger: logger.Named("stream"),
	}
}

// HandleContentInserts processes DynamoDB stream events, writing the metadata
// record of every newly inserted content record whose metadata is missing.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleContentInserts(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				zap.String("eventID", record.EventID),
				zap.Error(err),
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	// Content records are written once and never modified
	if record.EventName != "INSERT" {
		return nil
	}

	path := recordPath(record.Change)
	section, docID, ok := store.ParseContentPath(path)
	if !ok {
		return nil
	}

	content := getStringMapAttr(record.Change.NewImage, "value")
	written, err := h.store.EnsureMetadata(ctx, section, docID, content)
	if errors.Is(err, store.ErrUnknownSection) {
		h.logger.Debug("skipping unregistered section", zap.String("section", section))
		return nil
	}
	if err != nil {
		return fmt.Errorf("ensure metadata for %s: %w", path, err)
	}

	if written {
		h.logger.Info("repaired entry",
			zap.String("section", section),
			zap.String("docID", docID),
		)
	}
	return nil
}

// recordPath returns the tree path of a stream record. Items written without
// a path attribute fall back to their (pk, sk) key.
func recordPath(change events.DynamoDBStreamRecord) store.Path {
	if p := getStringAttr(change.NewImage, "path"); p != "" {
		return store.Path(p)
	}
	pk := getStringAttr(change.Keys, "pk")
	sk := getStringAttr(change.Keys, "sk")
	if pk == "" || sk == "" {
		return ""
	}
	return store.Path(shard.Collection(pk)).Child(sk)
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeString {
			return v.String()
		}
	}
	return ""
}

// getStringMapAttr extracts the string members of a map attribute from a DynamoDB stream image.
func getStringMapAttr(image map[string]events.DynamoDBAttributeValue, key string) store.Fields {
	fields := store.Fields{}
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeMap {
			for k, item := range v.Map() {
				if item.DataType() == events.DataTypeString {
					fields[k] = item.String()
				}
			}
		}
	}
	return fields
}
