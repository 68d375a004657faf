package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/carebook/carebook/internal/server"
	"github.com/carebook/carebook/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		fx.Provide(registerSnowflake),
		db.Module,
		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
