package cli

import (
	"fmt"
	"text/tabwriter"

	"gcp-marker/internal/imageset"

	"github.com/spf13/cobra"
)

func newImagesCmd(configPath *string) *cobra.Command {
	flags := &sessionFlags{}
	cmd := &cobra.Command{
		Use:   "images [image-folder]",
		Short: "List the photos a session would show",
		Long: `Lists the supported photos in a folder in session order with their size,
EXIF capture time and camera position, and how many marks each carries in
the session file, if one is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.load(cmd, *configPath)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.ImageDir = args[0]
			}
			saved, err := loadSessionFile(cfg)
			if err != nil {
				return err
			}
			fillFromSession(cfg, saved)
			if err := requireImageDir(cfg); err != nil {
				return err
			}

			set, err := imageset.Discover(cfg.ImageDir)
			if err != nil {
				return err
			}
			marked := make(map[string]int)
			if saved != nil {
				for _, m := range saved.Marks {
					marked[m.Image]++
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tFILE\tSIZE\tCAPTURED\tGPS\tMARKS")
			for i, name := range set.Names() {
				size := "?"
				if d, err := set.Dimensions(name); err == nil {
					size = fmt.Sprintf("%dx%d", d.Width, d.Height)
				} else {
					logger.Warn("unreadable image", "image", name, "error", err)
				}
				captured, gps := "-", "-"
				if md, err := set.Metadata(name); err == nil {
					if !md.Captured.IsZero() {
						captured = md.Captured.Format("2006-01-02 15:04:05")
					}
					if md.HasGPS {
						gps = fmt.Sprintf("%.6f,%.6f", md.Lat, md.Lon)
					}
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n", i+1, name, size, captured, gps, marked[name])
			}
			return w.Flush()
		},
	}
	flags.register(cmd)
	return cmd
}
