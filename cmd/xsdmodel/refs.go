package main

import (
	"github.com/spf13/cobra"
)

func refsCmd(a *app) *cobra.Command {
	var brokenOnly bool
	cmd := &cobra.Command{
		Use:   "refs <schema.xsd>",
		Short: "List the references of a schema and what they resolve to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			root := m.Schema()
			if root == nil {
				return nil
			}
			for c := range root.Descendants() {
				for _, r := range c.References() {
					target := r.Resolve()
					if brokenOnly && target != nil {
						continue
					}
					dest := "broken"
					if target != nil {
						dest = target.Model().Identity()
					}
					name, _ := r.QName()
					if err := a.printf("%s %s=%q %s -> %s\n", c, r.Attribute(), r.String(), name, dest); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&brokenOnly, "broken", false, "only list references that do not resolve")
	return cmd
}
