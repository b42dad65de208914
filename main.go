package main

import (
	"fmt"
	"os"

	"github.com/locvowork/sheetexport/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
