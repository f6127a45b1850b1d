package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sw33tLie/estform/internal/utils"
	"github.com/sw33tLie/estform/pkg/fields"
	"github.com/sw33tLie/estform/pkg/form"
	"github.com/sw33tLie/estform/pkg/records"
)

var scanCmd = &cobra.Command{
	Use:   "scan [form.html]",
	Short: "Show how the form's fields are recognised",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		selector, _ := cmd.Flags().GetString("selector")
		mode, _ := cmd.Flags().GetString("mode")
		if mode == "" {
			mode = viper.GetString("form.mode")
		}

		doc, container, err := loadForm(path, selector)
		if err != nil {
			return err
		}
		opts := formOptions()
		opts.Mode = mode
		// Scanning never queries.
		opts.Source = records.SourceFunc(nil)
		ctrl, err := form.New(doc, container, opts)
		if err != nil {
			return err
		}
		defer ctrl.Close()

		bindings := ctrl.Bindings()
		if len(bindings) == 0 {
			fmt.Println("No known fields found.")
			return nil
		}
		printBindings(bindings)
		if st := ctrl.Snapshot(); len(st.Fields) < len(fields.AllKeys) {
			utils.Log.Warnf("Only %d of %d fields recognised", len(st.Fields), len(fields.AllKeys))
		}
		return nil
	},
}

func printBindings(bindings []*fields.Binding) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "KEY\tLABEL\tCONTROL\tHIDDEN\tLOCKED\t")
	for _, b := range bindings {
		control := "input"
		if b.IsSelect() {
			control = "select"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%t\t\n", b.Key, utils.Truncate(b.LabelText, 40), control, b.Wrapper.Hidden(), b.Lock.Locked())
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().String("selector", "", "CSS selector of the form container (default: the whole document)")
	scanCmd.Flags().String("mode", "", "Mode to apply before printing (default: form.mode)")
}
