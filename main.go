// Package main is the entry point of finplay.
package main

import (
	"github.com/anisan-cli/finplay/cmd"
	"github.com/anisan-cli/finplay/config"
	"github.com/anisan-cli/finplay/internal/cache"
	"github.com/anisan-cli/finplay/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	go cache.Default().CollectGarbage()

	cmd.Execute()
}
