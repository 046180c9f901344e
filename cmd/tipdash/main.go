// Command tipdash runs the development backend and replays hover
// scenarios against the tooltip controller in a terminal.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/unkn0wn-root/tipcache"
)

const (
	exitError  = 1
	exitConfig = 2
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, tipcache.ErrInvalidConfig) {
			os.Exit(exitConfig)
		}
		os.Exit(exitError)
	}
}
