package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/keyvault/internal/keyctl"
)

func main() {
	if err := keyctl.NewRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
