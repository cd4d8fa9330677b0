package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tamzrod/volsa/internal/backup"
	"github.com/tamzrod/volsa/internal/device"
	"github.com/tamzrod/volsa/internal/proto"
)

const layoutFileName = "layout.yaml"

var layoutCmd = &cobra.Command{
	Use:   "layout <out.yaml>",
	Short: "Save the sample-slot layout (names only) to a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, closeDev, err := openDevice()
		if err != nil {
			return err
		}
		defer closeDev()

		layout, err := fetchLayout(dev)
		if err != nil {
			return err
		}
		return saveLayout(layout, args[0])
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup <dir>",
	Short: "Download every sample plus the slot layout into a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}

		dev, closeDev, err := openDevice()
		if err != nil {
			return err
		}
		defer closeDev()

		layout, err := fetchLayout(dev)
		if err != nil {
			return err
		}

		for no := 0; no < layout.SampleSlots.Len(); no++ {
			name := layout.SampleSlots.Name(no)
			if name == "" {
				continue
			}
			fmt.Printf("Downloading sample %q from slot %d\n", name, no)
			data, err := dev.Sample(byte(no))
			if err != nil {
				return err
			}
			path := filepath.Join(dir, name+".wav")
			if err := writeSampleFile(path, data.Data); err != nil {
				return err
			}
		}

		return saveLayout(layout, filepath.Join(dir, layoutFileName))
	},
}

func init() {
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(backupCmd)
}

// fetchLayout reads every slot header and records the occupied slots.
func fetchLayout(dev *device.Device) (*backup.Backup, error) {
	var layout backup.Backup
	err := dev.Headers(func(h *proto.SampleHeader) {
		if !h.IsEmpty() {
			layout.SampleSlots.SetName(int(h.SampleNo), h.Name)
		}
	})
	if err != nil {
		return nil, err
	}
	return &layout, nil
}

func saveLayout(layout *backup.Backup, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := backup.Save(f, layout); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("Wrote slot layout to %s\n", path)
	return nil
}
