package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/contactbook/internal/contact"
	"github.com/conneroisu/contactbook/internal/store"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List the contacts in a seed file",
	Long: `Validate a YAML seed file and print its contacts in order.

Examples:
  contactbook list --seed contacts.yaml          # table
  contactbook list --seed contacts.yaml -o json  # JSON array
  contactbook list --seed contacts.yaml -o yaml  # seed file layout`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().String("seed", "", "YAML file with contacts (defaults to contacts.seed_file)")
	listCmd.Flags().StringP("output", "o", "table", "Output format (table|json|yaml)")

	AddFlagValidation(listCmd.Flags(), "seed", ValidateFileExists)
	AddFlagValidation(listCmd.Flags(), "output", func(format string) error {
		return ValidateFormat(format, []string{"table", "json", "yaml"})
	})
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, map[string]string{"seed": "contacts.seed_file"})
	if err != nil {
		return err
	}
	if cfg.Contacts.SeedFile == "" {
		return fmt.Errorf("no seed file: pass --seed or set contacts.seed_file")
	}

	contacts, err := loadSeed(cmd.Context(), cfg.Contacts.SeedFile, newLogger(cfg, cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("output")
	out := cmd.OutOrStdout()

	switch format {
	case "json":
		return outputJSON(out, contacts)
	case "yaml":
		return outputYAML(out, contacts)
	default:
		return outputTable(out, contacts)
	}
}

func outputTable(out io.Writer, contacts []contact.Contact) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tNUMBER\tID")
	for _, c := range contacts {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, c.Number, c.ID)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d contacts\n", len(contacts))
	return nil
}

func outputJSON(out io.Writer, contacts []contact.Contact) error {
	if contacts == nil {
		contacts = []contact.Contact{}
	}
	encoder := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(contacts)
}

func outputYAML(out io.Writer, contacts []contact.Contact) error {
	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	if err := encoder.Encode(store.SeedFile{Contacts: contacts}); err != nil {
		return err
	}
	return encoder.Close()
}
