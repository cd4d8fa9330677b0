package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tamzrod/volsa/internal/device"
)

var removeQuiet bool

var removeCmd = &cobra.Command{
	Use:     "remove <slot>",
	Aliases: []string{"rm"},
	Short:   "Erase a sample slot on the device",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sampleNo, err := parseSlot(args[0])
		if err != nil {
			return err
		}

		dev, closeDev, err := openDevice()
		if err != nil {
			return err
		}
		defer closeDev()

		return removeSample(dev, sampleNo, !removeQuiet)
	},
}

func init() {
	removeCmd.Flags().BoolVarP(&removeQuiet, "quiet", "q", false,
		"do not look up the sample name before deleting")
	rootCmd.AddCommand(removeCmd)
}

func removeSample(dev *device.Device, sampleNo byte, printName bool) error {
	name := ""
	if printName {
		header, err := dev.Header(sampleNo)
		if err != nil {
			return err
		}
		if header.IsEmpty() {
			fmt.Printf("Sample slot %d is already empty\n", sampleNo)
			return nil
		}
		name = header.Name + " "
	}

	if err := dev.Delete(sampleNo); err != nil {
		return err
	}
	fmt.Printf("Removed sample %sat slot %d\n", name, sampleNo)
	return nil
}
