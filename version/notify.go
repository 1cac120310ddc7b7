package version

import (
	"context"
	"fmt"
	"time"

	"github.com/anisan-cli/finplay/color"
	"github.com/anisan-cli/finplay/constant"
	"github.com/anisan-cli/finplay/icon"
	"github.com/anisan-cli/finplay/key"
	"github.com/anisan-cli/finplay/style"
	"github.com/anisan-cli/finplay/util"
	"github.com/spf13/viper"
)

// Notify prints a banner when a newer release than the running one exists.
func Notify() {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	erase := util.PrintErasable(fmt.Sprintf("%s Checking if new version is available...", icon.Get(icon.Progress)))
	latest, err := Latest(ctx)
	erase()
	if err != nil {
		return
	}

	if comp, err := Compare(latest, constant.Version); err != nil || comp <= 0 {
		return
	}

	fmt.Printf(`
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(latest),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint(ReleasesURL+"/tag/v"+latest),
	)
}
