package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tamzrod/volsa/internal/audio"
	"github.com/tamzrod/volsa/internal/device"
)

var downloadOutput string

var downloadCmd = &cobra.Command{
	Use:     "download <slot>",
	Aliases: []string{"dl"},
	Short:   "Download a sample from the device as a WAV file",
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

		return downloadSample(dev, sampleNo, downloadOutput)
	},
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "",
		"output path; the sample name is used when it points to a directory")
	rootCmd.AddCommand(downloadCmd)
}

func downloadSample(dev *device.Device, sampleNo byte, output string) error {
	header, err := dev.Header(sampleNo)
	if err != nil {
		return err
	}
	if header.IsEmpty() {
		return fmt.Errorf("sample slot %d is empty", sampleNo)
	}

	fmt.Printf("Downloading sample %q from slot %d\n", header.Name, sampleNo)
	data, err := dev.Sample(sampleNo)
	if err != nil {
		return err
	}

	if output == "" {
		output = cfg.OutputDir
	}
	path := sampleFilePath(output, header.Name)
	if err := writeSampleFile(path, data.Data); err != nil {
		return err
	}
	fmt.Printf("Wrote sample to %s\n", path)
	return nil
}

// sampleFilePath resolves an output argument: directories get a file
// named after the sample.
func sampleFilePath(output, name string) string {
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		return filepath.Join(output, name+".wav")
	}
	return output
}

func writeSampleFile(path string, pcm []int16) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := audio.WriteWAV(f, pcm, audio.DeviceRate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
