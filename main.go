package main

import (
	"context"
	"log"

	"github.com/leetryscode/matchmakr-vg0-sub001/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}
