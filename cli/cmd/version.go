package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"consensus-bootstrap/api/k8s"
	"consensus-bootstrap/cli/style"
)

var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		logo := lipgloss.NewStyle().
			Bold(true).
			Foreground(style.Primary).
			Render("  consensus-k8s")

		fmt.Println(logo)
		fmt.Println()
		fmt.Printf("  %s %s\n", style.Key.Render("Version"), style.Val.Render(Version))
		fmt.Printf("  %s %s\n", style.Key.Render("Node image"), style.Val.Render(k8s.NodeImage))
		fmt.Printf("  %s %s\n", style.Key.Render("Namespace"), style.Val.Render(cfg.Namespace))
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
