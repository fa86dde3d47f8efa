// main.go
// blkzone: report and reset zones of zoned block devices
// (host-managed SMR disks, zoned NVMe namespaces).
// Cobra CLI over the Linux BLKREPORTZONE / BLKRESETZONE ioctls.
//
// Build:
//
//	go build -o blkzone .
package main

import (
	"errors"
	"fmt"
	"io"
	"math/bits"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"blkzone/internal/config"
	"blkzone/zoned"
)

var version = "0.1.0"

/* ===================== command table ===================== */

type cli struct {
	transport zoned.Transport
	log       zerolog.Logger
	stdout    io.Writer

	// hasCommand is false when argv is empty or starts with an option.
	hasCommand bool

	offset  uint64
	length  uint64
	verbose bool
}

type command struct {
	name    string
	handler func(c *cli, device string) error
	help    string
}

var commands = [...]command{
	{"report", (*cli).report, "Report zone information about the given device"},
	{"reset", (*cli).reset, "Reset a range of zones."},
}

func nameToCommand(name string) *command {
	for i := range commands {
		if commands[i].name == name {
			return &commands[i]
		}
	}
	return nil
}

/* ===================== errors ===================== */

// usageError is a bad command line; nothing was done.
type usageError struct {
	msg string
}

func (e usageError) Error() string { return e.msg }

func usagef(format string, a ...any) error {
	return usageError{msg: fmt.Sprintf(format, a...)}
}

func kindOf(err error) zoned.Kind {
	var ue usageError
	if errors.As(err, &ue) {
		return zoned.KindUsage
	}
	return zoned.KindOf(err)
}

/* ===================== option parsing ===================== */

// parseSize parses a sector or zone count: a C-style integer (0x hex, 0 octal)
// with an optional K/M/G/T/P/E suffix. "K" and "KiB" are powers of 1024,
// "KB" powers of 1000.
func parseSize(s string) (uint64, error) {
	ss := strings.TrimSpace(s)
	if ss == "" {
		return 0, fmt.Errorf("empty size")
	}
	digits, start := "0123456789", 0
	if strings.HasPrefix(ss, "0x") || strings.HasPrefix(ss, "0X") {
		digits, start = "0123456789abcdefABCDEF", 2
	}
	end := start
	for end < len(ss) && strings.IndexByte(digits, ss[end]) >= 0 {
		end++
	}
	if end == start {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	v, err := strconv.ParseUint(ss[:end], 0, 64)
	if err != nil {
		return 0, err
	}
	mult, err := sizeMultiplier(ss[end:])
	if err != nil {
		return 0, err
	}
	hi, lo := bits.Mul64(v, mult)
	if hi != 0 {
		return 0, fmt.Errorf("%q is out of range", s)
	}
	return lo, nil
}

func sizeMultiplier(suffix string) (uint64, error) {
	if suffix == "" {
		return 1, nil
	}
	exp := strings.IndexByte("KMGTPE", suffix[0]&^0x20)
	if exp < 0 {
		return 0, fmt.Errorf("unknown size suffix %q", suffix)
	}
	var base uint64
	switch strings.ToLower(suffix[1:]) {
	case "", "ib":
		base = 1024
	case "b":
		base = 1000
	default:
		return 0, fmt.Errorf("unknown size suffix %q", suffix)
	}
	mult := uint64(1)
	for i := 0; i <= exp; i++ {
		mult *= base
	}
	return mult, nil
}

// sizeValue is a flag holding a parseSize result.
type sizeValue struct {
	dst *uint64
	err string
}

func (v *sizeValue) String() string { return strconv.FormatUint(*v.dst, 10) }
func (v *sizeValue) Type() string   { return "number" }

func (v *sizeValue) Set(s string) error {
	n, err := parseSize(s)
	if err != nil {
		return fmt.Errorf("%s: %w", v.err, err)
	}
	*v.dst = n
	return nil
}

/* ===================== commands ===================== */

func (c *cli) report(device string) error {
	sess, err := zoned.Open(c.transport, device, zoned.ReadOnly, c.log)
	if err != nil {
		return err
	}
	defer sess.Close()

	rep, err := sess.Report(zoned.Query{Start: c.offset, Count: c.length})
	if err != nil {
		return err
	}
	return rep.Print(c.stdout, c.verbose)
}

func (c *cli) reset(device string) error {
	zonesize, err := c.transport.ZoneGranularity(device)
	if err != nil || zonesize == 0 {
		c.log.Debug().Err(err).Str("device", device).Msg("chunk_sectors lookup failed")
		return fmt.Errorf("%s: %w", device, zoned.ErrZoneSizeUnknown)
	}

	sess, err := zoned.Open(c.transport, device, zoned.WriteOnly, c.log)
	if err != nil {
		return err
	}
	defer sess.Close()

	rng, err := sess.Reset(zonesize, zoned.ResetRequest{Offset: c.offset, Zones: c.length})
	if err != nil {
		return err
	}
	if c.verbose {
		fmt.Fprintf(c.stdout, "%s: successfully reset in range from %d, to %d\n", device, rng.Sector, rng.End())
	}
	return nil
}

func (c *cli) run(args []string) error {
	if !c.hasCommand || len(args) == 0 {
		return usagef("no command specified")
	}
	cmd := nameToCommand(args[0])
	if cmd == nil {
		return usagef("%s is not valid command name", args[0])
	}
	switch {
	case len(args) < 2:
		return usagef("no device specified")
	case len(args) > 2:
		return usagef("unexpected number of arguments")
	}
	if c.verbose {
		c.log = c.log.Level(zerolog.DebugLevel)
	}
	return cmd.handler(c, args[1])
}

/* ===================== cobra wiring ===================== */

func longHelp() string {
	var b strings.Builder
	b.WriteString("Run zone command on the given block device.\n\nCommands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(&b, " %-11s  %s\n", cmd.name, cmd.help)
	}
	return strings.TrimRight(b.String(), "\n")
}

// newRootCmd builds the command for argv, the arguments after the program
// name. The command name is only recognized as the first element of argv.
func newRootCmd(t zoned.Transport, logger zerolog.Logger, stdout io.Writer, argv []string) *cobra.Command {
	c := &cli{
		transport:  t,
		log:        logger,
		stdout:     stdout,
		hasCommand: len(argv) > 0 && !strings.HasPrefix(argv[0], "-"),
	}

	root := &cobra.Command{
		Use:                   "blkzone <command> [options] <device>",
		Short:                 "Run zone command on the given block device",
		Long:                  longHelp(),
		Version:               version,
		Args:                  cobra.ArbitraryArgs,
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
		SilenceErrors:         true,
		RunE: func(_ *cobra.Command, args []string) error {
			return c.run(args)
		},
	}
	root.SetArgs(argv)
	root.SetOut(stdout)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{msg: err.Error()}
	})

	root.Flags().VarP(&sizeValue{dst: &c.offset, err: "failed to parse zone offset"},
		"offset", "o", "start sector of zone to act (in 512-byte sectors)")
	root.Flags().VarP(&sizeValue{dst: &c.length, err: "failed to parse number of zones"},
		"length", "l", "maximum number of zones")
	root.Flags().BoolVarP(&c.verbose, "verbose", "v", false, "display more details")
	root.Flags().BoolP("version", "V", false, "display version")
	return root
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: w}
	return zerolog.New(output).With().Timestamp().Logger().Level(level)
}

// execute runs root and returns the process exit code.
func execute(root *cobra.Command, logger zerolog.Logger) int {
	err := root.Execute()
	if err == nil {
		return 0
	}
	kind := kindOf(err)
	logger.Error().Str("kind", kind.String()).Msg(err.Error())
	if kind == zoned.KindUsage {
		fmt.Fprintln(root.ErrOrStderr(), "Try 'blkzone --help' for more information.")
	}
	return 1
}

func must(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "blkzone: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	cfg, err := config.Load()
	must(err)

	logger := newLogger(os.Stderr, cfg.LogLevel)
	root := newRootCmd(zoned.SystemTransport(cfg.SysfsRoot), logger, os.Stdout, os.Args[1:])
	root.SetErr(os.Stderr)
	os.Exit(execute(root, logger))
}
