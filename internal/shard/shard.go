// Package shard provides partition key generation for sharded tree collections.
package shard

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// CollectionPK computes the partition key for a child record of a collection.
// With numShards=1 the collection path is used as-is.
// With numShards>1, children are distributed across "collection#NN" partitions by key hash.
func CollectionPK(collection, child string, numShards int) string {
	if numShards <= 1 {
		return collection
	}
	return fmt.Sprintf("%s#%02x", collection, Of(child, numShards))
}

// Of returns the shard number for a child key.
func Of(child string, numShards int) int {
	if numShards <= 1 {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(child))
	return int(h.Sum32() % uint32(numShards))
}

// PartitionPK returns the partition key of a specific shard of a collection.
func PartitionPK(collection string, shardNum, numShards int) string {
	if numShards <= 1 {
		return collection
	}
	return fmt.Sprintf("%s#%02x", collection, shardNum)
}

// Collection strips any shard suffix from a partition key.
// Path segments never contain '#', so the last '#' always starts the suffix.
func Collection(pk string) string {
	if i := strings.LastIndexByte(pk, '#'); i >= 0 {
		return pk[:i]
	}
	return pk
}
