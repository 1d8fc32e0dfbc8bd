// Package main is the entry point for the smfplay CLI
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/james-see/smfplay/pkg/api"
	"github.com/james-see/smfplay/pkg/config"
	"github.com/james-see/smfplay/pkg/console"
	"github.com/james-see/smfplay/pkg/debug"
	"github.com/james-see/smfplay/pkg/midifile"
	"github.com/james-see/smfplay/pkg/player"
	"github.com/james-see/smfplay/pkg/port"
	"github.com/james-see/smfplay/pkg/tui"
	"github.com/spf13/cobra"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	transpose  int
	drum       int
	speed      int
	debugBits  int
	extract    int
	bars       string
	zero       bool
	freeze     bool
	checkOnly  bool
	useConsole bool
	tone       string
	toneDevice string
	midiPort   string
	midiDevice string
	logFile    string

	outputFile string
	serverPort int
	showStats  bool
	saveConfig bool
)

// Built by setup before every command runs.
var (
	saved   *config.Config
	runCfg  *midifile.RunConfig
	options player.Options
)

// errInterrupted ends a run stopped by a signal, after the outputs are closed.
var errInterrupted = errors.New("interrupted")

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errInterrupted) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode follows the shell convention of 128 plus SIGINT for interrupts.
func exitCode(err error) int {
	if errors.Is(err, errInterrupted) {
		return 130
	}
	return 1
}

var rootCmd = &cobra.Command{
	Use:   "smfplay <file.mid>",
	Short: "Play Standard MIDI Files",
	Long: `smfplay plays Standard MIDI Files on a MIDI output port, a raw MIDI
device, or the console beeper, which fakes chords by cycling quickly
through the sounding notes.

Examples:
  smfplay song.mid --midi-port 1
  smfplay song.mid -k -b 4x9-16
  smfplay check song.mid -D 15
  smfplay extract song.mid -x 2 -t -12 -o bass.mid
  smfplay tui
  smfplay serve --port 8080`,
	Version:           fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Args:              cobra.ExactArgs(1),
	PersistentPreRunE: setup,
	RunE:              runPlay,
	SilenceUsage:      true,
}

var checkCmd = &cobra.Command{
	Use:   "check <file.mid>",
	Short: "Decode every track and trace it, without playing",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

var extractCmd = &cobra.Command{
	Use:   "extract <file.mid>",
	Short: "Write the selected tracks to a new MIDI file",
	Long: `Re-encodes the tracks chosen with --extract into a new file, applying
--transpose, --channel-zero and --freeze on the way.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI output ports",
	Args:  cobra.NoArgs,
	RunE:  runPorts,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the saved defaults, or save the current flags with --save",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	// Run configuration, shared by every command
	pf := rootCmd.PersistentFlags()
	pf.IntVarP(&transpose, "transpose", "t", 0, "Transpose by this many semitones")
	pf.IntVarP(&drum, "drum", "d", midifile.DefaultDrumChannel, "Drum channel, exempt from transposition (0-15)")
	pf.IntVarP(&speed, "speed", "s", 100, "Speed factor in percent, bigger is slower")
	pf.IntVarP(&debugBits, "debug", "D", int(midifile.DefaultDebugFlags), "Trace bits: 1 deltas, 2 notes, 4 other events, 8 metas")
	pf.IntVarP(&extract, "extract", "x", 0, "Only keep this track (from 1)")
	pf.StringVarP(&bars, "bars", "b", "", "Excerpt [FACTORx][[FIRST]-][LAST], bars from 1")
	pf.BoolVarP(&zero, "channel-zero", "z", false, "Send every event on channel 0")
	pf.BoolVarP(&freeze, "freeze", "f", false, "Ignore program changes")
	pf.StringVar(&logFile, "log", "", "Write a timestamped debug log to this file")

	// Outputs
	pf.BoolVarP(&useConsole, "console", "k", false, "Play on the single-tone console synthesizer")
	pf.StringVar(&tone, "tone", string(console.BackendBeeper), "Console tone backend: beeper or audio")
	pf.StringVar(&toneDevice, "tone-device", "", "Console device for the beeper (default standard error)")
	pf.StringVarP(&midiPort, "midi-port", "m", "", "MIDI output port, by name or number")
	pf.StringVar(&midiDevice, "midi-device", "", "Raw MIDI device file, such as /dev/midi")

	rootCmd.Flags().BoolVarP(&checkOnly, "check", "c", false, "Only check the file, like the check command")

	checkCmd.Flags().BoolVar(&showStats, "stats", false, "Also print duration and event counts")

	extractCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path")

	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	configCmd.Flags().BoolVar(&saveConfig, "save", false, "Save the current flags as defaults")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// setup merges the saved defaults with the flags given on the command line
func setup(cmd *cobra.Command, args []string) error {
	var err error
	saved, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	f := cmd.Flags()
	cfg := saved.RunConfig()
	if f.Changed("transpose") {
		cfg.Transpose = transpose
	}
	if f.Changed("drum") {
		cfg.DrumChannel = drum
	}
	if f.Changed("speed") {
		cfg.SpeedFactor = speed
	}
	if f.Changed("debug") {
		cfg.Debug = midifile.DebugFlags(debugBits)
	}
	if f.Changed("channel-zero") {
		cfg.ChannelZero = zero
	}
	if f.Changed("freeze") {
		cfg.FreezeChannel = freeze
	}
	if f.Changed("extract") {
		n := extract
		cfg.ExtractTrack = &n
	}
	if bars != "" {
		if err := cfg.ParseBars(bars); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	runCfg = cfg

	out := player.Output{
		PortName:   saved.Output.PortName,
		DevicePath: saved.Output.DevicePath,
		Console:    saved.Output.Console,
		Tone:       console.Backend(saved.Output.Tone),
		ToneDevice: saved.Output.ToneDevice,
	}
	if f.Changed("midi-port") {
		out.PortName = midiPort
	}
	if f.Changed("midi-device") {
		out.DevicePath = midiDevice
	}
	if f.Changed("console") {
		out.Console = useConsole
	}
	if f.Changed("tone") {
		out.Tone = console.Backend(tone)
	}
	if f.Changed("tone-device") {
		out.ToneDevice = toneDevice
	}
	options = player.Options{Output: out, Trace: os.Stderr}

	if !f.Changed("log") {
		logFile = saved.LogFile
	}
	if logFile != "" {
		if err := debug.Enable(logFile); err != nil {
			return fmt.Errorf("failed to open log: %w", err)
		}
	}
	return nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	if checkOnly {
		return runCheck(cmd, args)
	}
	data, err := player.Load(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = player.New(runCfg, options).Play(ctx, data)
	if errors.Is(err, context.Canceled) {
		debug.Log("cli", "interrupted")
		return errInterrupted
	}
	return err
}

func runCheck(cmd *cobra.Command, args []string) error {
	data, err := player.Load(args[0])
	if err != nil {
		return err
	}
	p := player.New(runCfg, options)
	if err := p.Check(data, os.Stderr); err != nil {
		return err
	}
	if !showStats {
		return nil
	}

	a, err := p.Analyze(data)
	if err != nil {
		return err
	}
	fmt.Printf("Format %d, %d tracks, division %d\n", a.Format, a.Tracks, a.Division)
	fmt.Printf("Duration: %.3fs, %d ticks, last bar %d\n", a.Seconds, a.Ticks, a.LastBar)
	fmt.Printf("Notes: %d on channels %v\n", a.Notes, a.Channels)
	for _, name := range a.TrackNames {
		fmt.Printf("Track: %s\n", name)
	}
	return nil
}

func getOutputPath(input string) string {
	if outputFile != "" {
		return outputFile
	}
	base := strings.TrimSuffix(input, ".gz")
	return strings.TrimSuffix(base, filepath.Ext(base)) + "-extract.mid"
}

func runExtract(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := getOutputPath(input)

	data, err := player.Load(input)
	if err != nil {
		return err
	}
	result, err := player.New(runCfg, options).Extract(data)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, result, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	fmt.Printf("Extracted %s -> %s\n", input, output)
	return nil
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports := port.OutPorts()
	if len(ports) == 0 {
		fmt.Println("No MIDI output ports found")
		return nil
	}
	for i, name := range ports {
		fmt.Printf("%d: %s\n", i, name)
	}
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run(runCfg, options)
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("Starting API server on port %d...\n", serverPort)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", serverPort)
	return api.StartServer(serverPort)
}

func runConfig(cmd *cobra.Command, args []string) error {
	if saveConfig {
		saved.Playback = config.PlaybackConfig{
			DrumChannel: runCfg.DrumChannel,
			SpeedFactor: runCfg.SpeedFactor,
			Debug:       int(runCfg.Debug),
			ChannelZero: runCfg.ChannelZero,
			Freeze:      runCfg.FreezeChannel,
		}
		out := options.Output
		saved.Output = config.OutputConfig{
			PortName:   out.PortName,
			DevicePath: out.DevicePath,
			Console:    out.Console,
			Tone:       string(out.Tone),
			ToneDevice: out.ToneDevice,
		}
		saved.LogFile = logFile
		if err := saved.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		path, _ := config.ConfigPath()
		fmt.Printf("Saved %s\n", path)
		return nil
	}

	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
