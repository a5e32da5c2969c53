package main

import (
	"vinylfm/cmd"
)

func main() {
	cmd.Execute()
}
