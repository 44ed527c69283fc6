package main

import (
	"os"

	"github.com/fetcharr/fetcharrctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
