package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/timewave-computer/causality-sub001/core/content"
	"github.com/timewave-computer/causality-sub001/core/resource"
)

func parseID(s string) (content.ID, error) {
	return content.ParseID(s)
}

func main() {
	rootCmd := &cobra.Command{Use: "causality"}
	rootCmd.AddCommand(registerCmd())
	rootCmd.AddCommand(summaryCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// store is a process-lifetime in-memory resource/register store. A real
// deployment would wire this to a durable backend; the CLI is a thin
// synchronous edge adapter (spec §9 "synchronous-vs-asynchronous dual
// APIs"), not the store's owner.
var store = resource.NewStore()

func registerCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "register"}

	create := &cobra.Command{
		Use:   "create",
		Short: "create a new register",
		Run: func(cmd *cobra.Command, args []string) {
			owner, _ := cmd.Flags().GetString("owner")
			domain, _ := cmd.Flags().GetString("domain")
			contents, _ := cmd.Flags().GetString("contents")

			r, err := store.CreateRegister(owner, resource.DomainID(domain), []byte(contents), nil)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			fmt.Printf("created register %s (owner=%s domain=%s)\n", r.ID, r.Owner, r.Domain)
		},
	}
	create.Flags().String("owner", "", "register owner")
	create.Flags().String("domain", "", "owning domain")
	create.Flags().String("contents", "", "initial register contents")
	cmd.AddCommand(create)

	lock := &cobra.Command{
		Use:   "lock [domain] [id]",
		Short: "lock a register",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := parseID(args[1])
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			if err := store.LockRegister(resource.DomainID(args[0]), id); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			fmt.Printf("locked register %s\n", args[1])
		},
	}
	cmd.AddCommand(lock)

	return cmd
}

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "summary"}
	generate := &cobra.Command{
		Use:   "generate [strategy] [domain]",
		Short: "report the strategy and domain for summary generation (generates no registers)",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("summary generation for strategy=%s domain=%s is driven by the storage layer in a real deployment\n", args[0], args[1])
		},
	}
	cmd.AddCommand(generate)
	return cmd
}
