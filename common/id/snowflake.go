package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node with the given node ID. Each binary
// (server, worker, syncctl) uses a distinct node ID so IDs never collide
// across processes.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a new globally unique int64 ID using the Snowflake algorithm.
// IDs are time-ordered, which keeps failure records and sync runs naturally
// sorted by creation time.
func New() int64 {
	return node.Generate().Int64()
}
