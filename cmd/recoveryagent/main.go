// Command recoveryagent runs the host-agent Recovery Manager.
package main

import (
	"fmt"
	"os"

	"github.com/sequenceiq/ambari-agent/cmd/recoveryagent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
