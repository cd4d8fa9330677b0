package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tamzrod/volsa/internal/audio"
	"github.com/tamzrod/volsa/internal/device"
	"github.com/tamzrod/volsa/internal/proto"
)

var (
	uploadSlot      int
	uploadName      string
	uploadMonoMode  string
	uploadProcessed string
	uploadDryRun    bool
)

var uploadCmd = &cobra.Command{
	Use:     "upload <file.wav>",
	Aliases: []string{"up"},
	Short:   "Upload a WAV file into a sample slot",
	Long: `Upload decodes a WAV file, collapses it to mono, resamples it to the
device rate (31250 Hz) and loads it into a sample slot. Without --slot the
first empty slot is used.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := audio.ParseMonoMode(uploadMonoMode)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("slot") && (uploadSlot < 0 || uploadSlot >= proto.NumSlots) {
			return fmt.Errorf("sample slot must be in [0, %d]", proto.NumSlots-1)
		}

		name := uploadName
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}

		pcm, err := loadAudioFile(args[0], mode)
		if err != nil {
			return err
		}

		if uploadProcessed != "" {
			path := sampleFilePath(uploadProcessed, name)
			if err := writeSampleFile(path, pcm); err != nil {
				return err
			}
			fmt.Printf("Wrote processed sample to %s\n", path)
		}
		if uploadDryRun {
			return nil
		}

		dev, closeDev, err := openDevice()
		if err != nil {
			return err
		}
		defer closeDev()

		slot := -1
		if cmd.Flags().Changed("slot") {
			slot = uploadSlot
		}
		return uploadSample(dev, slot, name, pcm, true)
	},
}

func init() {
	uploadCmd.Flags().IntVarP(&uploadSlot, "slot", "s", 0,
		"target sample slot (default: first empty slot)")
	uploadCmd.Flags().StringVarP(&uploadName, "name", "n", "",
		"sample name (default: input file name)")
	uploadCmd.Flags().StringVarP(&uploadMonoMode, "mono-mode", "m", "mid",
		"stereo mixdown mode: left, right, mid or side")
	uploadCmd.Flags().StringVar(&uploadProcessed, "output", "",
		"also write the processed audio to this path")
	uploadCmd.Flags().BoolVar(&uploadDryRun, "dry-run", false,
		"process the file but do not touch the device")
	rootCmd.AddCommand(uploadCmd)
}

func loadAudioFile(path string, mode audio.MonoMode) ([]int16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	clip, err := audio.ReadWAV(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return audio.PrepareForDevice(clip, mode), nil
}

// uploadSample picks a slot when none is given, guards occupied slots and
// performs the two-phase upload. checkOverwrite is disabled during
// restore, which has already confirmed the whole operation.
func uploadSample(dev *device.Device, slot int, name string, pcm []int16, checkOverwrite bool) error {
	if slot < 0 {
		free, err := findEmptySlot(dev)
		if err != nil {
			return err
		}
		slot = free
	}

	current, err := dev.Header(byte(slot))
	if err != nil {
		return err
	}
	if !current.IsEmpty() && checkOverwrite {
		ok, err := confirm(fmt.Sprintf(
			"Sample slot %d is not empty (current - %s). Do you want to overwrite?",
			slot, current.Name))
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("sample slot is not empty")
		}

		backupFirst, err := confirm(fmt.Sprintf(
			"Do you want to backup the loaded sample (%s)?", current.Name))
		if err != nil {
			return err
		}
		if backupFirst {
			if err := downloadSample(dev, byte(slot), "."); err != nil {
				return err
			}
		}
	}

	header, data := proto.NewSample(byte(slot), name, pcm)
	if err := dev.Upload(header, data); err != nil {
		return err
	}
	fmt.Printf("Loaded sample %s in slot %d\n", name, slot)
	return nil
}

func findEmptySlot(dev *device.Device) (int, error) {
	for no := 0; no < proto.NumSlots; no++ {
		header, err := dev.Header(byte(no))
		if err != nil {
			return 0, err
		}
		if header.IsEmpty() {
			return no, nil
		}
	}
	return 0, errors.New("could not find an empty slot")
}
