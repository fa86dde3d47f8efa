package main

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blkzone/internal/config"
	"blkzone/zoned"
	"blkzone/zoned/zonedtest"
)

const (
	testSectors  = 1_048_576
	testZoneSize = 262_144
)

func newTestTransport() *zonedtest.Transport {
	return &zonedtest.Transport{
		Dev:         zonedtest.NewDevice(testSectors, testZoneSize),
		Granularity: testZoneSize,
	}
}

func runCLI(t *testing.T, tr zoned.Transport, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	logger := newLogger(&stderr, zerolog.InfoLevel)
	root := newRootCmd(tr, logger, &stdout, append([]string{}, args...))
	root.SetErr(&stderr)
	code := execute(root, logger)
	return code, stdout.String(), stderr.String()
}

func TestNameToCommand(t *testing.T) {
	require.NotNil(t, nameToCommand("report"))
	assert.Equal(t, "report", nameToCommand("report").name)
	require.NotNil(t, nameToCommand("reset"))
	assert.Equal(t, "reset", nameToCommand("reset").name)
	assert.Nil(t, nameToCommand("Report"))
	assert.Nil(t, nameToCommand("res"))
	assert.Nil(t, nameToCommand(""))
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{in: "0", want: 0},
		{in: "262144", want: 262144},
		{in: " 42 ", want: 42},
		{in: "0x40000", want: 0x40000},
		{in: "0xAB", want: 0xAB},
		{in: "010", want: 8},
		{in: "1K", want: 1024},
		{in: "1k", want: 1024},
		{in: "1KiB", want: 1024},
		{in: "1KB", want: 1000},
		{in: "2M", want: 2 << 20},
		{in: "1G", want: 1 << 30},
		{in: "3T", want: 3 << 40},
		{in: "1E", want: 1 << 60},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "0x", wantErr: true},
		{in: "08", wantErr: true},
		{in: "1X", wantErr: true},
		{in: "1KiX", wantErr: true},
		{in: "16E", wantErr: true},
		{in: "-1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScenarioReportTwoZones(t *testing.T) {
	tr := newTestTransport()

	code, out, _ := runCLI(t, tr, "report", "-o", "0", "-l", "2", "/dev/sdz")
	require.Equal(t, 0, code)
	assert.Equal(t, "Zones returned: 2\n"+
		"  start:         0, len  40000, wptr      0 reset:0 non-seq:0, zcond: 1(e0) [type: 2(SEQ_WRITE_REQUIRED)]\n"+
		"  start:     40000, len  40000, wptr      0 reset:0 non-seq:0, zcond: 1(e0) [type: 2(SEQ_WRITE_REQUIRED)]\n",
		out)
	assert.Equal(t, []zoned.AccessMode{zoned.ReadOnly}, tr.Opens)
	assert.Equal(t, 1, tr.Dev.Closed)
}

func TestScenarioResetOneZone(t *testing.T) {
	tr := newTestTransport()

	code, out, _ := runCLI(t, tr, "reset", "-o", "262144", "-l", "1", "-v", "/dev/sdz")
	require.Equal(t, 0, code)
	assert.Equal(t, []zoned.ResetRange{{Sector: 262144, Sectors: 262144}}, tr.Dev.Resets)
	assert.Equal(t, "/dev/sdz: successfully reset in range from 262144, to 524288\n", out)
	assert.Equal(t, []zoned.AccessMode{zoned.WriteOnly}, tr.Opens)
	assert.Equal(t, 1, tr.Dev.Closed)
}

func TestScenarioResetMisaligned(t *testing.T) {
	tr := newTestTransport()

	code, out, errOut := runCLI(t, tr, "reset", "-o", "100", "/dev/sdz")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "/dev/sdz: zone 100: offset is not aligned to zone size 262144")
	assert.Zero(t, tr.Dev.DeviceCalls())
	assert.Equal(t, 1, tr.Dev.Closed)
}

func TestScenarioReportLengthCapped(t *testing.T) {
	tr := newTestTransport()

	code, out, errOut := runCLI(t, tr, "report", "-l", "200000", "/dev/sdz")
	require.Equal(t, 0, code)
	require.Len(t, tr.Dev.Reports, 1)
	assert.Equal(t, uint32(65536), tr.Dev.Reports[0].Max)
	assert.Contains(t, errOut, "limiting report to 65536 entries")
	assert.Contains(t, out, "Zones returned: 4\n")
}

func TestReportLengthWarningAtQuietestLevel(t *testing.T) {
	tr := newTestTransport()
	var stdout, stderr bytes.Buffer
	logger := newLogger(&stderr, config.MaxLogLevel)
	root := newRootCmd(tr, logger, &stdout, []string{"report", "-l", "70000", "/dev/sdz"})
	root.SetErr(&stderr)

	require.Equal(t, 0, execute(root, logger))
	assert.Contains(t, stderr.String(), "limiting report to 65536 entries")
}

func TestReportVerboseAndHexOffset(t *testing.T) {
	tr := newTestTransport()

	code, out, _ := runCLI(t, tr, "report", "--offset", "0x40000", "--length", "8", "--verbose", "/dev/sdz")
	require.Equal(t, 0, code)
	assert.Equal(t, uint64(0x40000), tr.Dev.Reports[0].Start)
	assert.Contains(t, out, "Found 3 zones\nZones returned: 3\n")
}

func TestOffsetBeyondDevice(t *testing.T) {
	for _, cmd := range []string{"report", "reset"} {
		t.Run(cmd, func(t *testing.T) {
			tr := newTestTransport()
			code, _, errOut := runCLI(t, tr, cmd, "-o", "2097152", "/dev/sdz")
			assert.Equal(t, 1, code)
			assert.Contains(t, errOut, "offset is greater than device size")
			assert.Zero(t, tr.Dev.DeviceCalls())
		})
	}
}

func TestResetUnknownZoneSize(t *testing.T) {
	tr := newTestTransport()
	tr.Granularity = 0

	code, _, errOut := runCLI(t, tr, "reset", "/dev/sdz")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "/dev/sdz: unable to determine zone size")
	assert.Empty(t, tr.Opens)
}

func TestDeviceFailureExitCode(t *testing.T) {
	tr := newTestTransport()
	tr.Dev.NotBlock = true

	code, _, errOut := runCLI(t, tr, "report", "/tmp/file")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "/tmp/file: not a block device")
	assert.NotContains(t, errOut, "--help")
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no command", nil, "no command specified"},
		{"option before reset", []string{"-o", "0", "reset", "/dev/sdz"}, "no command specified"},
		{"option before report", []string{"-v", "report", "/dev/sdz"}, "no command specified"},
		{"only options", []string{"-l", "2"}, "no command specified"},
		{"unknown command", []string{"frobnicate", "/dev/sdz"}, "frobnicate is not valid command name"},
		{"case sensitive", []string{"Report", "/dev/sdz"}, "Report is not valid command name"},
		{"no device", []string{"report"}, "no device specified"},
		{"extra args", []string{"reset", "/dev/sdz", "/dev/sdy"}, "unexpected number of arguments"},
		{"bad offset", []string{"report", "-o", "xyz", "/dev/sdz"}, "failed to parse zone offset"},
		{"bad length", []string{"reset", "-l", "1Q", "/dev/sdz"}, "failed to parse number of zones"},
		{"unknown flag", []string{"report", "--force", "/dev/sdz"}, "unknown flag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestTransport()
			code, _, errOut := runCLI(t, tr, tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, errOut, tt.want)
			assert.Contains(t, errOut, "Try 'blkzone --help' for more information.")
			assert.Empty(t, tr.Opens)
		})
	}
}

func TestHelpAndVersion(t *testing.T) {
	code, out, _ := runCLI(t, newTestTransport(), "-V")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "blkzone version "+version)

	code, out, _ = runCLI(t, newTestTransport(), "report", "-V")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "blkzone version "+version)

	code, out, _ = runCLI(t, newTestTransport(), "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "blkzone <command> [options] <device>")
	assert.Contains(t, out, " report       Report zone information about the given device")
	assert.Contains(t, out, " reset        Reset a range of zones.")
	assert.Contains(t, out, "-o, --offset")
	assert.Contains(t, out, "-l, --length")
}
