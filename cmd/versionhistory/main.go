package main

import (
	"fmt"
	"os"
	"versionhistory/internal/components/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
