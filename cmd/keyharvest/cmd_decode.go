package keyharvest

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sjzar/keyharvest/internal/keyharvest/container"
)

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().StringVarP(&decodeImageKey, "img-key", "k", "", "16-byte image key, hex-encoded")
	decodeCmd.Flags().StringVarP(&decodeDataDir, "data-dir", "d", "", "data directory to probe for the XOR byte (optional)")
	decodeCmd.Flags().StringVarP(&decodeOutput, "output", "o", "", "output file path (defaults to <input>.<ext>)")
}

var (
	decodeImageKey string
	decodeDataDir  string
	decodeOutput   string
)

var decodeCmd = &cobra.Command{
	Use:   "decode <dat-file>",
	Short: "Decode a single encrypted image container given a recovered image key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		var imageKey []byte
		if decodeImageKey != "" {
			imageKey, err = hex.DecodeString(decodeImageKey)
			if err != nil {
				return fmt.Errorf("invalid --img-key: %w", err)
			}
		}

		xorByte := byte(0x37)
		if decodeDataDir != "" {
			xorByte = container.ProbeXorKey(decodeDataDir)
		}

		plain, ext, err := container.Decode(raw, imageKey, xorByte)
		if err != nil {
			return err
		}

		out := decodeOutput
		if out == "" {
			out = args[0] + "." + ext
		}
		if err := os.WriteFile(out, plain, 0o644); err != nil {
			return err
		}

		fmt.Printf("decoded %s (%s) -> %s\n", args[0], ext, out)
		return nil
	},
}
