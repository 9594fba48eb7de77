package keyharvest

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sjzar/keyharvest/internal/keyharvest/config"
	"github.com/sjzar/keyharvest/internal/keyharvest/discovery"
	"github.com/sjzar/keyharvest/internal/keyharvest/extractor"
	"github.com/sjzar/keyharvest/internal/keyharvest/model"
)

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().Uint32VarP(&extractPID, "pid", "p", 0, "target process ID (autodetected if omitted)")
	extractCmd.Flags().StringVarP(&extractDataDir, "data-dir", "d", "", "target's data directory (overrides autodetection)")
	extractCmd.Flags().StringVar(&extractPlatform, "platform", "", "target platform: windows or darwin (defaults to the host OS)")
	extractCmd.Flags().StringVarP(&extractConfigDir, "config", "c", "", "config directory")
	extractCmd.Flags().BoolVarP(&extractJSON, "json", "j", false, "emit result as JSON")
}

var (
	extractPID       uint32
	extractDataDir   string
	extractPlatform  string
	extractConfigDir string
	extractJSON      bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract the database and image keys from a running client",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := config.New(extractConfigDir)
		if err != nil {
			return err
		}
		conf, err := mgr.Load()
		if err != nil {
			return err
		}

		if level, err := zerolog.ParseLevel(conf.LogLevel); err == nil {
			log.Logger = log.Logger.Level(level)
		}

		platform := extractPlatform
		if platform == "" {
			platform = hostPlatform()
		}

		proc, err := resolveTarget(platform)
		if err != nil {
			return err
		}

		e, err := extractor.New(platform)
		if err != nil {
			return err
		}

		log.Info().Uint32("pid", proc.PID).Str("data_dir", proc.DataDir).Msg("starting extraction")

		result, err := e.Extract(cmd.Context(), proc)
		if err != nil {
			return err
		}

		if extractJSON {
			b, _ := json.Marshal(map[string]string{
				"db_key":  result.DbKeyHex,
				"img_key": result.ImageKeyHex,
			})
			fmt.Println(string(b))
			return nil
		}

		if result.DbKeyHex != "" {
			fmt.Printf("db_key:  %s\n", result.DbKeyHex)
		}
		if result.ImageKeyHex != "" {
			fmt.Printf("img_key: %s\n", result.ImageKeyHex)
		}
		return nil
	},
}

func hostPlatform() string {
	switch runtime.GOOS {
	case "windows":
		return model.PlatformWindows
	case "darwin":
		return model.PlatformMacOS
	default:
		return runtime.GOOS
	}
}

// resolveTarget builds the process record to extract from: explicit
// --pid/--data-dir flags take precedence over autodetection.
func resolveTarget(platform string) (model.ProcessRecord, error) {
	if extractPID != 0 {
		return model.ProcessRecord{
			PID:     extractPID,
			DataDir: extractDataDir,
			Status:  model.StatusOnline,
		}, nil
	}

	records, err := discovery.FindProcesses()
	if err != nil {
		return model.ProcessRecord{}, err
	}
	if extractDataDir != "" && len(records) > 0 {
		records[0].DataDir = extractDataDir
	}

	proc, ok := extractor.SelectTarget(records)
	if !ok {
		return model.ProcessRecord{}, fmt.Errorf("no target process found; pass --pid and --data-dir explicitly")
	}
	return proc, nil
}
