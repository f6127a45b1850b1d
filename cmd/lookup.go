package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sw33tLie/estform/internal/utils"
	"github.com/sw33tLie/estform/pkg/fields"
	"github.com/sw33tLie/estform/pkg/form"
)

var codeCmd = &cobra.Command{
	Use:   "code <partner-code>",
	Short: "Resolve a partner code and print the filled form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, done, err := newController(cmd, form.ModeCodeLookup)
		if err != nil {
			return err
		}
		defer done()

		if err := ctrl.Input(fields.RedemptionCode, args[0]); err != nil {
			return err
		}
		ctrl.Wait()
		return finish(cmd, ctrl)
	},
}

var nameCmd = &cobra.Command{
	Use:   "name <query>",
	Short: "Search establishments by name, optionally picking a suggestion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, done, err := newController(cmd, form.ModeNameLookup)
		if err != nil {
			return err
		}
		defer done()

		if err := ctrl.Input(fields.OfficialEstablishmentName, args[0]); err != nil {
			return err
		}
		ctrl.Wait()

		items := ctrl.Suggestions()
		pick, _ := cmd.Flags().GetInt("pick")
		if pick <= 0 {
			if len(items) == 0 {
				return finish(cmd, ctrl)
			}
			for i, it := range items {
				fmt.Printf("%3d  %s\n", i+1, utils.Truncate(it.Label, 72))
			}
			return nil
		}
		if err := ctrl.Pick(pick - 1); err != nil {
			return fmt.Errorf("cannot pick suggestion %d of %d: %w", pick, len(items), err)
		}
		ctrl.Wait()
		return finish(cmd, ctrl)
	},
}

func newController(cmd *cobra.Command, mode string) (*form.Controller, func(), error) {
	src, release, err := newSource()
	if err != nil {
		return nil, nil, err
	}
	path, _ := cmd.Flags().GetString("form")
	selector, _ := cmd.Flags().GetString("selector")
	doc, container, err := loadForm(path, selector)
	if err != nil {
		release()
		return nil, nil, err
	}

	opts := formOptions()
	opts.Source = src
	opts.Mode = mode
	// One-shot commands have nothing to wait for between keystrokes.
	opts.Debounce = -1
	opts.Notifier = form.NotifierFunc(func(msg string) {
		fmt.Fprintf(os.Stderr, "NOTICE: %s\n", msg)
	})
	ctrl, err := form.New(doc, container, opts)
	if err != nil {
		release()
		return nil, nil, err
	}
	return ctrl, func() {
		ctrl.Close()
		release()
	}, nil
}

// finish prints the form state and writes the document when --out is set.
func finish(cmd *cobra.Command, ctrl *form.Controller) error {
	st := ctrl.Snapshot()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "FIELD\tVALUE\tMESSAGE\t")
	for _, f := range st.Fields {
		if f.Hidden {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t\n", f.Label, f.Value, f.Message)
	}
	w.Flush()
	if st.SubmitEnabled {
		fmt.Printf("\nSelected %s (%s), ready to submit.\n", st.Selection.Name, st.Selection.ID)
	} else {
		fmt.Println("\nNo establishment selected, submit stays disabled.")
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		return nil
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := ctrl.Render(f); err != nil {
		return err
	}
	utils.Log.Infof("Wrote %s", out)
	return nil
}

func init() {
	for _, c := range []*cobra.Command{codeCmd, nameCmd} {
		rootCmd.AddCommand(c)
		c.Flags().String("form", "", "Form document to fill (default: built-in form)")
		c.Flags().String("selector", "", "CSS selector of the form container")
		c.Flags().StringP("out", "o", "", "Write the filled form to this file")
	}
	nameCmd.Flags().IntP("pick", "p", 0, "Pick the n-th suggestion (1-based) instead of listing them")
}
