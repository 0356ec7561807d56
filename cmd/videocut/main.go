package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/gidway/videocut/internal/config"
	"github.com/gidway/videocut/internal/deps"
	"github.com/gidway/videocut/internal/export"
	"github.com/gidway/videocut/internal/ffmpeg"
	"github.com/gidway/videocut/internal/gui"
	"github.com/gidway/videocut/internal/logging"
	"github.com/gidway/videocut/internal/player"
	"github.com/gidway/videocut/internal/store"
	"github.com/gidway/videocut/pkg/util"
)

var version = "0.3.0"

var (
	cfgFile string
	verbose bool

	cutIn        string
	cutOut       string
	cutOutput    string
	cutCodec     string
	cutHWAccel   bool
	cutOverwrite bool

	historyLimit int
)

var rootCmd = &cobra.Command{
	Use:   "videocut [video]",
	Short: "Mark and export segments of a video",
	Long: `videocut opens a video in mpv with a small control window for
marking an IN/OUT range and exporting it through ffmpeg, either as a
lossless stream copy or re-encoded to H.264/H.265.`,
	Args: cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cmd.SetContext(config.WithConfig(cmd.Context(), cfg))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		logger := logging.WithComponent("main")

		if errs := deps.CheckAll(cfg.FFmpeg.BinaryPath, cfg.FFmpeg.ProbePath, cfg.Player.BinaryPath); len(errs) > 0 {
			for _, err := range errs {
				fmt.Fprintln(os.Stderr, err)
			}
			return fmt.Errorf("missing dependencies, see above")
		}

		ex, err := ffmpeg.New(logger, cfg.FFmpeg.BinaryPath, cfg.FFmpeg.ProbePath,
			ffmpeg.WithThreads(cfg.FFmpeg.Threads),
			ffmpeg.WithKillGrace(time.Duration(cfg.Export.KillGraceSeconds)*time.Second))
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.DBPath())
		if err != nil {
			return fmt.Errorf("opening settings store: %w", err)
		}
		defer st.Close()

		orch := export.New(ex,
			export.WithLogger(logger),
			export.WithHistory(st),
			export.WithEncodeSettings(ffmpeg.EncodeSettings{Preset: cfg.FFmpeg.Preset, CRF: cfg.FFmpeg.CRF}),
			export.WithTailLines(cfg.Export.TailLines))

		initial := ""
		if len(args) == 1 {
			initial = args[0]
		}

		gui.New(cfg, st, ex, orch, logger).Run(initial)
		return nil
	},
}

var cutCmd = &cobra.Command{
	Use:   "cut <video>",
	Short: "Export a segment without the GUI",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		logger := logging.WithComponent("cut")
		source := args[0]

		in, err := util.ParseTimestamp(cutIn)
		if err != nil {
			return fmt.Errorf("parsing --in: %w", err)
		}
		out, err := util.ParseTimestamp(cutOut)
		if err != nil {
			return fmt.Errorf("parsing --out: %w", err)
		}
		codec, err := ffmpeg.ParseCodec(cutCodec)
		if err != nil {
			return err
		}

		ex, err := ffmpeg.New(logger, cfg.FFmpeg.BinaryPath, cfg.FFmpeg.ProbePath,
			ffmpeg.WithThreads(cfg.FFmpeg.Threads),
			ffmpeg.WithKillGrace(time.Duration(cfg.Export.KillGraceSeconds)*time.Second))
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.DBPath())
		if err != nil {
			return fmt.Errorf("opening settings store: %w", err)
		}
		defer st.Close()

		output := cutOutput
		if output == "" {
			output = util.ClipFileName(source, in, out)
		}

		var sourceDuration time.Duration
		probeCtx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		if info, err := ex.Probe(probeCtx, source); err == nil {
			sourceDuration = info.Duration
		}

		orch := export.New(ex,
			export.WithLogger(logger),
			export.WithHistory(st),
			export.WithEncodeSettings(ffmpeg.EncodeSettings{Preset: cfg.FFmpeg.Preset, CRF: cfg.FFmpeg.CRF}),
			export.WithTailLines(cfg.Export.TailLines))

		req := export.Request{
			SourcePath:     source,
			In:             in,
			Out:            out,
			OutputPath:     output,
			Codec:          codec,
			HWAccel:        cutHWAccel,
			AllowOverwrite: cutOverwrite,
			SourceDuration: sourceDuration,
			Progress: func(frac float64) {
				fmt.Fprintf(os.Stderr, "\rExporting… %3.0f%%", frac*100)
			},
		}

		job, err := orch.Export(cmd.Context(), req)
		if err != nil {
			return err
		}

		result := job.Wait()
		fmt.Fprintln(os.Stderr)
		if result.Status != export.StatusSuccess {
			return fmt.Errorf("export failed: %s", result.Diagnostic)
		}
		fmt.Println(output)
		return nil
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check external dependencies",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		checks := []struct {
			name string
			err  error
		}{
			{"ffmpeg", deps.CheckFfmpeg(cfg.FFmpeg.BinaryPath)},
			{"ffprobe", deps.CheckFfprobe(cfg.FFmpeg.ProbePath)},
			{"mpv", deps.CheckMpv(cfg.Player.BinaryPath)},
		}

		failed := false
		for _, c := range checks {
			if c.err != nil {
				failed = true
				fmt.Printf("✗ %s: %v\n", c.name, c.err)
			} else {
				fmt.Printf("✓ %s\n", c.name)
			}
		}

		if !failed {
			logger := logging.WithComponent("doctor")
			ex, err := ffmpeg.New(logger, cfg.FFmpeg.BinaryPath, cfg.FFmpeg.ProbePath)
			if err == nil {
				if encoders, err := ex.HardwareEncoders(cmd.Context()); err == nil {
					names := make([]string, 0, len(encoders))
					for name := range encoders {
						names = append(names, name)
					}
					sort.Strings(names)
					for _, name := range names {
						mark := "✗"
						if encoders[name] {
							mark = "✓"
						}
						fmt.Printf("%s encoder %s\n", mark, name)
					}
				}
			}
		}

		fmt.Printf("player socket: %s\n", player.NewClient(cfg.Player.SocketPath).SocketPath())
		if failed {
			return fmt.Errorf("some dependencies are missing")
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent exports",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		st, err := store.Open(cfg.DBPath())
		if err != nil {
			return fmt.Errorf("opening settings store: %w", err)
		}
		defer st.Close()

		entries, err := st.RecentExports(historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No exports yet.")
			return nil
		}

		for _, e := range entries {
			line := fmt.Sprintf("%s  %-7s  %s → %s  [%s .. %s]  %s",
				e.CreatedAt.Format("2006-01-02 15:04"),
				e.Status,
				e.SourcePath,
				e.OutputPath,
				util.FormatClock(e.In),
				util.FormatClock(e.Out),
				e.Codec)
			if e.HWAccel {
				line += " (hw)"
			}
			fmt.Println(line)
			if e.Status != string(export.StatusSuccess) && e.Diagnostic != "" {
				fmt.Printf("    %s\n", e.Diagnostic)
			}
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("videocut %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cutCmd.Flags().StringVar(&cutIn, "in", "0", "segment start (seconds or HH:MM:SS)")
	cutCmd.Flags().StringVar(&cutOut, "out", "", "segment end (seconds or HH:MM:SS)")
	cutCmd.Flags().StringVarP(&cutOutput, "output", "o", "", "output file (default derived from the source name)")
	cutCmd.Flags().StringVar(&cutCodec, "codec", "copy", "codec: copy, h264 or h265")
	cutCmd.Flags().BoolVar(&cutHWAccel, "hwaccel", false, "use NVIDIA CUDA decode/encode")
	cutCmd.Flags().BoolVar(&cutOverwrite, "overwrite", false, "replace the output file if it exists")
	cutCmd.MarkFlagRequired("out")

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show")

	rootCmd.AddCommand(cutCmd, doctorCmd, historyCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
