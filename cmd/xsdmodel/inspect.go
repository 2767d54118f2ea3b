package main

import (
	"github.com/spf13/cobra"

	"github.com/jacoelho/xsdmodel/internal/attrs"
	"github.com/jacoelho/xsdmodel/internal/kind"
)

func inspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <schema.xsd>",
		Short: "Show the target namespace, globals and directives of a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tns, ok := m.TargetNamespace()
			if !ok {
				tns = "(none)"
			}
			if err := a.printf("identity: %s\nnamespace: %s\n", m.Identity(), tns); err != nil {
				return err
			}
			for _, k := range kind.Kinds() {
				if !k.IsGlobal() {
					continue
				}
				if n := len(m.Globals(k)); n > 0 {
					if err := a.printf("%s: %d\n", k, n); err != nil {
						return err
					}
				}
			}
			for _, d := range m.Directives() {
				loc, _ := d.RawAttr(attrs.SchemaLocation)
				target := "unresolved"
				if t := m.ResolveDirectiveContext(cmd.Context(), d); t != nil {
					target = t.Identity()
				}
				if err := a.printf("%s %q -> %s\n", d.Kind(), loc, target); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
