package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacoelho/xsdmodel/internal/kind"
)

func globalsCmd(a *app) *cobra.Command {
	var kindName string
	cmd := &cobra.Command{
		Use:   "globals <schema.xsd>",
		Short: "List global components visible from a schema across its includes and imports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := globalKinds()
			if kindName != "" {
				k, ok := kind.Parse(kindName)
				if !ok || !k.IsGlobal() {
					return fmt.Errorf("unknown global kind %q", kindName)
				}
				kinds = []kind.Kind{k}
			}
			m, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, k := range kinds {
				for _, c := range m.FindAllGlobal(k) {
					ns := c.Model().EffectiveNamespace(c)
					if err := a.printf("%s {%s}%s %s\n", k, ns, c.Name(), c.Model().Identity()); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&kindName, "kind", "k", "", "global kind, e.g. global-element or global-complex-type")
	return cmd
}

func globalKinds() []kind.Kind {
	var out []kind.Kind
	for _, k := range kind.Kinds() {
		if k.IsGlobal() {
			out = append(out, k)
		}
	}
	return out
}
