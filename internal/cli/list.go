package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tamzrod/volsa/internal/proto"
)

var showEmpty bool

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List samples loaded into the device",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, closeDev, err := openDevice()
		if err != nil {
			return err
		}
		defer closeDev()

		space, err := dev.SampleSpace()
		if err != nil {
			return err
		}
		fmt.Printf("Occupied space: %.1f%%\n", space.Occupied()*100)

		return dev.Headers(func(h *proto.SampleHeader) {
			if h.IsEmpty() {
				if showEmpty {
					fmt.Printf("%3d: <EMPTY>\n", h.SampleNo)
				}
				return
			}
			fmt.Printf("%3d: %-24s - length: %8d, speed: %5d, level: %5d\n",
				h.SampleNo, h.Name, h.Length, h.Speed, h.Level)
		})
	},
}

func init() {
	listCmd.Flags().BoolVarP(&showEmpty, "show-empty", "a", false,
		"print empty sample slots in the output")
	rootCmd.AddCommand(listCmd)
}
