package cmd

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/contactbook/internal/version"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for contactbook including the version,
git commit, build time, Go version and target platform.

Examples:
  contactbook version              # Detailed text
  contactbook version --short      # Version only
  contactbook version -f json      # As JSON`,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringP("format", "f", "text", "Output format (text, json, yaml)")
	versionCmd.Flags().Bool("short", false, "Show short version only")

	AddFlagValidation(versionCmd.Flags(), "format", func(format string) error {
		return ValidateFormat(format, []string{"text", "json", "yaml"})
	})
}

func versionHeader(info version.BuildInfo) string {
	if info.IsRelease() {
		return "contactbook"
	}
	return "contactbook (development build)"
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	short, _ := cmd.Flags().GetBool("short")
	info := version.Get()
	out := cmd.OutOrStdout()

	switch format {
	case "json":
		encoder := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(info)
	case "yaml":
		return yaml.NewEncoder(out).Encode(info)
	default:
		if short {
			fmt.Fprintln(out, info.Short())
			return nil
		}
		fmt.Fprintf(out, "%s\n%s\n", versionHeader(info), info)
		return nil
	}
}
