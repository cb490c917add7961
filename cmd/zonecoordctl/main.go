package main

import (
    "log"

    "github.com/spf13/cobra"

    coordcli "github.com/amirimatin/go-zonecoord/pkg/cli"
)

func main() {
    if err := newRoot().Execute(); err != nil {
        log.Fatal(err)
    }
}

func newRoot() *cobra.Command {
    root := &cobra.Command{
        Use:           "zonecoordctl",
        Short:         "go-zonecoord replication coordinator CLI",
        SilenceUsage:  true,
        SilenceErrors: true,
    }
    // Attach all coordinator commands from pkg/cli for reuse in services
    coordcli.AddAll(root)
    return root
}
