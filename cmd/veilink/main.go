package main

import (
	"os"

	"github.com/spf13/cobra"

	"veilink/internal/interfaces/cli/migrate"
	"veilink/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "veilink",
		Short: "Veilink relay fleet control plane",
		Long:  `Veilink manages a fleet of relay agents: forward provisioning, multi-hop tunnel chains, traffic accounting and billing.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
