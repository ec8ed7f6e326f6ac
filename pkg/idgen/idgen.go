// Package idgen generates sortable unique ids for business keys.
package idgen

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init fixes the node id; call it once at process start when running more
// than one instance. Without Init, node 1 is used.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

func getNode() *snowflake.Node {
	once.Do(func() {
		node, _ = snowflake.NewNode(1)
	})
	return node
}

// GenID returns the next snowflake id.
func GenID() int64 {
	return getNode().Generate().Int64()
}

// GenIDString returns the next id in decimal string form.
func GenIDString() string {
	return getNode().Generate().String()
}

// GenKey returns a prefixed business key such as "RCV-1849301...".
func GenKey(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, GenID())
}
