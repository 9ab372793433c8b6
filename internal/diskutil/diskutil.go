package diskutil

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/sigreer/rdisk/internal/ramdisk"
)

// Response is what a tool invocation left behind. An empty Error means
// success whatever the exit code says; diskutil exits 0 on some failures
// and hdid writes nothing to stderr on success.
type Response struct {
	Output   string
	Error    string
	ExitCode int
}

// OK reports whether the tool wrote nothing to its error stream
func (r Response) OK() bool {
	return r.Error == ""
}

// Tool wraps the allocate, format and eject commands
type Tool struct {
	runner   Runner
	allocate string
	diskutil string
}

func New(runner Runner, allocatePath, diskutilPath string) *Tool {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Tool{runner: runner, allocate: allocatePath, diskutil: diskutilPath}
}

// Allocate reserves a RAM region of sizeMB and attaches it without mounting.
// Output holds the device path, e.g. /dev/disk5.
func (t *Tool) Allocate(ctx context.Context, sizeMB int) Response {
	return t.run(ctx, t.allocate, "-nomount", fmt.Sprintf("ram://%d", ramdisk.BlocksPerMB*sizeMB))
}

// Format erases the device with a single volume called name
func (t *Tool) Format(ctx context.Context, devicePath, name string, fs ramdisk.FileSystem) Response {
	return t.run(ctx, t.diskutil, "erasedisk", fs.Token(), name, devicePath)
}

// Eject detaches the device, destroying its contents
func (t *Tool) Eject(ctx context.Context, devicePath string) Response {
	return t.run(ctx, t.diskutil, "eject", devicePath)
}

func (t *Tool) run(ctx context.Context, name string, args ...string) Response {
	stdout, stderr, code, err := t.runner.Run(ctx, name, args...)
	resp := Response{
		Output:   trimTrailingSpace(string(stdout)),
		Error:    trimTrailingSpace(string(stderr)),
		ExitCode: code,
	}
	// A command that never started or was killed leaves stderr empty
	if err != nil && resp.Error == "" && (code < 0 || code == 127) {
		resp.Error = err.Error()
	}
	return resp
}

func trimTrailingSpace(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}
