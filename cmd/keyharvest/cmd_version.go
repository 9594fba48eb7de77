package keyharvest

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sjzar/keyharvest/pkg/version"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&versionModule, "module", "m", false, "show full module build information")
}

var versionModule bool

var versionCmd = &cobra.Command{
	Use:   "version [-m]",
	Short: "Show the version of keyharvest",
	Run: func(cmd *cobra.Command, args []string) {
		if versionModule {
			fmt.Println(version.GetMore(true))
		} else {
			fmt.Printf("keyharvest %s\n", version.GetMore(false))
		}
	},
}
