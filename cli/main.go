package main

import (
	"os"

	"k8s.io/klog/v2"

	"consensus-bootstrap/cli/cmd"
)

func main() {
	defer klog.Flush()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
