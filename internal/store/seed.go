package store

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/contactbook/internal/contact"
	"github.com/conneroisu/contactbook/internal/errors"
)

// SeedFile is the YAML layout of a seed file.
type SeedFile struct {
	Contacts []contact.Contact `yaml:"contacts"`
}

// LoadSeed reads contacts from a YAML seed file. Every entry must pass
// contact validation and names must be unique; entries without an id get a
// fresh one from gen.
func LoadSeed(path string, gen contact.IDGenerator) ([]contact.Contact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeSeedRead, "failed to read seed file "+path, err)
	}
	return ParseSeed(data, gen)
}

// ParseSeed decodes and checks seed data. See LoadSeed.
func ParseSeed(data []byte, gen contact.IDGenerator) ([]contact.Contact, error) {
	collector := errors.NewErrorCollector()

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		collector.AddError(fmt.Errorf("not valid YAML: %w", err))
		seed.Contacts = nil
	}

	accepted := make([]contact.Contact, 0, len(seed.Contacts))

	for i, c := range seed.Contacts {
		fieldErrs := contact.Validate(contact.Input{Name: c.Name, Number: c.Number})
		for _, fe := range fieldErrs {
			collector.Add(errors.EntryError{Index: i, Field: fe.Field, Message: fe.Message})
		}
		if len(fieldErrs) > 0 {
			continue
		}

		c.Name = contact.NormalizeName(c.Name)
		snap := contact.NewSnapshot(accepted)
		if _, dup := snap.FindByName(c.Name); dup {
			collector.Add(errors.EntryError{Index: i, Field: contact.FieldName, Message: c.Name + " is already in contacts."})
			continue
		}

		if c.ID == "" {
			id, ok := contact.FreshID(gen, snap)
			if !ok {
				collector.Add(errors.EntryError{Index: i, Field: "id", Message: "could not generate an unused id"})
				continue
			}
			c.ID = id
		} else if snap.HasID(c.ID) {
			collector.Add(errors.EntryError{Index: i, Field: "id", Message: fmt.Sprintf("id %q is used twice", c.ID)})
			continue
		}

		accepted = append(accepted, c)
	}

	if collector.HasErrors() {
		return nil, collector.AsValidationError(errors.ErrCodeSeedInvalid, "invalid seed file")
	}
	return accepted, nil
}

// SaveSeed writes contacts to path as a YAML seed file.
func SaveSeed(path string, contacts []contact.Contact) error {
	data, err := yaml.Marshal(SeedFile{Contacts: contacts})
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeSeedWrite, "failed to encode seed file", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.NewIOError(errors.ErrCodeSeedWrite, "failed to create seed directory "+dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.NewIOError(errors.ErrCodeSeedWrite, "failed to write seed file "+path, err)
	}
	return nil
}
