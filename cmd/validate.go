package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/contactbook/internal/contact"
	"github.com/conneroisu/contactbook/internal/errors"
	"github.com/conneroisu/contactbook/internal/form"
	"github.com/conneroisu/contactbook/internal/notify"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a contact without starting the server",
	Long: `Run the form's validation and duplicate check against a name and number.
Field errors and notifications are printed. The exit status is 1 when the
contact would be rejected and 2 when the check itself fails, for example on an
unreadable seed file.

Examples:
  contactbook validate --name "Jacob Mercer" --number "+1 (555) 010-0200"
  contactbook validate --name Anna --number 5551234 --seed contacts.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().String("name", "", "Contact name")
	validateCmd.Flags().String("number", "", "Phone number")
	validateCmd.Flags().String("seed", "", "YAML file with existing contacts for the duplicate check")

	AddFlagValidation(validateCmd.Flags(), "seed", ValidateFileExists)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, map[string]string{"seed": "contacts.seed_file"})
	if err != nil {
		return err
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())

	seed, err := loadSeed(cmd.Context(), cfg.Contacts.SeedFile, logger)
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("name")
	number, _ := cmd.Flags().GetString("number")

	recorder := &notify.Recorder{}
	f := form.New(func(contact.Contact) {}, recorder,
		form.WithLogger(logger))

	result, err := f.Submit(cmd.Context(), contact.Input{Name: name, Number: number}, contact.NewSnapshot(seed))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, fe := range result.Errors {
		fmt.Fprintf(out, "%s: %s\n", fe.Field, fe.Message)
	}
	for _, m := range recorder.Messages() {
		fmt.Fprintf(out, "%s: %s\n", m.Level, m.Text)
	}

	switch result.Outcome {
	case form.OutcomeInvalid:
		return result.Errors.Err()
	case form.OutcomeDuplicate:
		return errors.ErrDuplicateName(contact.NormalizeName(name))
	default:
		return nil
	}
}
