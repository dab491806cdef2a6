package main

import (
	"os"

	mockcmder "github.com/papercomputeco/gongwen/cmd/gongwen/mock"
)

func main() {
	cmd := mockcmder.NewMockCmd()
	cmd.Use = "gongwenmock"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
