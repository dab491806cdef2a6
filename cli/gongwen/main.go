package main

import (
	"os"

	gongwencmder "github.com/papercomputeco/gongwen/cmd/gongwen"
)

func main() {
	cmd := gongwencmder.NewGongwenCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
