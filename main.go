package main

import (
	"github.com/anoixa/clone-gallery/cmd"
	"github.com/anoixa/clone-gallery/config"
	"github.com/anoixa/clone-gallery/utils"
)

func main() {
	utils.Log.Infof("clone gallery %s (%s)", config.Version, config.CommitHash)
	cmd.Execute()
}
