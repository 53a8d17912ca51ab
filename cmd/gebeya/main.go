package main

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/shegerhomes/gebeya/internal/clock"
	"github.com/shegerhomes/gebeya/internal/config"
	"github.com/shegerhomes/gebeya/internal/migration"
	"github.com/shegerhomes/gebeya/internal/observability"
	"github.com/shegerhomes/gebeya/internal/server"
	"github.com/shegerhomes/gebeya/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)

	app.Run()
}

// RegisterSnowflake builds the process-wide ID generator. SNOWFLAKE_NODE_ID
// must differ between replicas to keep IDs unique across the fleet.
func RegisterSnowflake() (*snowflake.Node, error) {
	nodeID := int64(1)
	if raw := os.Getenv("SNOWFLAKE_NODE_ID"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		nodeID = parsed
	}
	return snowflake.NewNode(nodeID)
}
