package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tamzrod/volsa/internal/audio"
	"github.com/tamzrod/volsa/internal/backup"
)

var restoreDryRun bool

var restoreCmd = &cobra.Command{
	Use:   "restore <layout.yaml>",
	Short: "Restore a backup onto the device",
	Long: `Restore replays a layout written by backup: every slot named in the
layout is re-uploaded from the WAV file next to it, and every other slot
is erased.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		layout, err := backup.Load(f)
		f.Close()
		if err != nil {
			return err
		}
		dir := filepath.Dir(args[0])

		if restoreDryRun {
			for no := 0; no < layout.SampleSlots.Len(); no++ {
				if name := layout.SampleSlots.Name(no); name != "" {
					fmt.Printf("%03d - %s\n", no, name)
				} else {
					fmt.Printf("%03d - EMPTY\n", no)
				}
			}
			return nil
		}

		ok, err := confirm("This will replace all samples on the device. Are you sure?")
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("restore cancelled")
		}

		dev, closeDev, err := openDevice()
		if err != nil {
			return err
		}
		defer closeDev()

		for no := 0; no < layout.SampleSlots.Len(); no++ {
			name := layout.SampleSlots.Name(no)
			if name == "" {
				if err := removeSample(dev, byte(no), true); err != nil {
					return err
				}
				continue
			}

			pcm, err := loadAudioFile(filepath.Join(dir, name+".wav"), audio.MonoMid)
			if err != nil {
				return err
			}
			if err := uploadSample(dev, no, name, pcm, false); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	restoreCmd.Flags().BoolVar(&restoreDryRun, "dry-run", false,
		"print the layout instead of touching the device")
	rootCmd.AddCommand(restoreCmd)
}
