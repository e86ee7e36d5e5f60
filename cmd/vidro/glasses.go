package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/javierleyes/vidro-android/internal/domain/shared/valueobject"
	"github.com/javierleyes/vidro-android/internal/infrastructure/i18n"
	"github.com/spf13/cobra"
)

func newGlassesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glasses",
		Short: "List glasses and edit their prices",
	}
	cmd.AddCommand(newGlassesListCmd(), newGlassesEditPriceCmd())
	return cmd
}

func newGlassesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every glass with its prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			a.catalog.FetchAll(cmd.Context())
			if msg := a.catalog.Error(); msg != "" {
				return a.alert(i18n.OpFetchGlasses, errors.New(msg))
			}
			a.printGlasses()
			return nil
		},
	}
}

func newGlassesEditPriceCmd() *cobra.Command {
	var transparent, color string

	cmd := &cobra.Command{
		Use:   "edit-price <id>",
		Short: "Set the transparent price, and optionally the color price, of a glass",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)

			tp, err := valueobject.ParsePrice(transparent)
			if err != nil {
				return a.alertText(a.tr.Text(i18n.KeyPriceInvalid, transparent))
			}
			if !tp.IsSet() {
				return a.alertText(a.tr.Text(i18n.KeyPriceRequired))
			}
			var colors []valueobject.Price
			if cmd.Flags().Changed("color") {
				cp, err := valueobject.ParsePrice(color)
				if err != nil {
					return a.alertText(a.tr.Text(i18n.KeyPriceInvalid, color))
				}
				if cp.IsSet() {
					colors = append(colors, cp)
				}
			}

			// EditPrice updates the cached glass, which is then printed
			a.catalog.FetchAll(cmd.Context())
			if msg := a.catalog.Error(); msg != "" {
				return a.alert(i18n.OpFetchGlasses, errors.New(msg))
			}
			if err := a.catalog.EditPrice(cmd.Context(), args[0], tp, colors...); err != nil {
				return a.alert(i18n.OpEditPrice, err)
			}

			g, ok := a.catalog.Glass(args[0])
			if !ok {
				g.Name, g.PriceTransparent = args[0], tp
				if len(colors) > 0 {
					g.PriceColor = colors[0]
				}
			}
			fmt.Fprintf(a.out, "%s  %s  %s\n", g.Name, g.PriceTransparent.Display(), g.PriceColor.Display())
			return nil
		},
	}
	cmd.Flags().StringVarP(&transparent, "transparent", "t", "", "transparent price, e.g. 150 or $150.00")
	cmd.Flags().StringVar(&color, "color", "", "color price")
	return cmd
}

func (a *app) printGlasses() {
	glasses := a.catalog.Glasses()
	if len(glasses) == 0 {
		fmt.Fprintln(a.out, a.tr.Text(i18n.KeyNoResults))
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTRANSPARENT\tCOLOR")
	for _, g := range glasses {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", g.ID, g.Name, g.PriceTransparent.Display(), g.PriceColor.Display())
	}
	_ = w.Flush()
}
