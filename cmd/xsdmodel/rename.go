package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jacoelho/xsdmodel/internal/kind"
	"github.com/jacoelho/xsdmodel/internal/model"
)

func renameCmd(a *app) *cobra.Command {
	var (
		write    bool
		patterns []string
	)
	cmd := &cobra.Command{
		Use:   "rename <schema.xsd> <kind> <name> <new-name>",
		Short: "Rename a global component and every reference to it in the schema set",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, ok := kind.Parse(args[1])
			if !ok || !k.IsGlobal() {
				return fmt.Errorf("unknown global kind %q", args[1])
			}
			m, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			target := m.Lookup(k, args[2])
			if target == nil {
				return fmt.Errorf("%s %q not found in %s", k, args[2], m.Identity())
			}
			set, err := a.loadSet(cmd.Context(), patterns)
			if err != nil {
				return err
			}
			roots := make([]*model.Component, 0, len(set)+1)
			epochs := make(map[*model.Model]uint64, len(set)+1)
			for _, sm := range append(set, m) {
				if _, dup := epochs[sm]; dup || !sm.Valid() {
					continue
				}
				epochs[sm] = sm.Epoch()
				roots = append(roots, sm.Schema())
			}
			n, err := model.Rename(target, args[3], roots...)
			if err != nil {
				return err
			}
			if err := a.printf("renamed %s %s -> %s, %d references updated\n", k, args[2], args[3], n); err != nil {
				return err
			}
			if !write {
				return nil
			}
			for sm, before := range epochs {
				if sm.Epoch() == before {
					continue
				}
				if err := a.writeModel(sm); err != nil {
					return err
				}
				if err := a.printf("wrote %s\n", sm.Identity()); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write changed documents back to disk")
	cmd.Flags().StringSliceVar(&patterns, "schemas", nil, "patterns selecting the documents searched for references")
	return cmd
}

func (a *app) writeModel(m *model.Model) error {
	path := filepath.Join(a.cfg.Catalog.Root, filepath.FromSlash(m.Identity()))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if _, err := m.Document().WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
