package builtin

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// RunCommand executes a shell command in the working directory. Uses
// PowerShell on Windows and sh elsewhere. A non-zero exit status is not an
// error; ok simply reflects it. On timeout, whatever output the process had
// flushed is returned with timed_out set.
func RunCommand(args map[string]any, cwd string, defaultTimeout time.Duration, maxOutputLines int) (map[string]any, error) {
	command, err := requiredString(args, "command")
	if err != nil {
		return nil, err
	}

	var argv []string
	if runtime.GOOS == "windows" {
		argv = []string{"powershell", "-NoLogo", "-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass", "-Command", command}
	} else {
		argv = []string{"sh", "-c", command}
	}

	result := runProcess(argv, cwd, callTimeout(args, defaultTimeout), maxOutputLines)
	result["command"] = command
	result["cwd"] = cwd
	return result, nil
}

// RunPython executes an inline Python snippet with the same timeout and
// output-limit contract as RunCommand.
func RunPython(args map[string]any, cwd string, defaultTimeout time.Duration, maxOutputLines int) (map[string]any, error) {
	code, err := requiredString(args, "code")
	if err != nil {
		return nil, err
	}

	interpreter := "python3"
	if _, err := exec.LookPath(interpreter); err != nil {
		interpreter = "python"
	}

	return runProcess([]string{interpreter, "-c", code}, cwd, callTimeout(args, defaultTimeout), maxOutputLines), nil
}

func callTimeout(args map[string]any, fallback time.Duration) time.Duration {
	if secs, ok := intArg(args, "timeout_seconds"); ok && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

// runProcess spawns argv under a deadline, capturing stdout and stderr. The
// spawned process is not retried on timeout; partial captured output is
// best-effort — only what the process had already flushed.
func runProcess(argv []string, cwd string, timeout time.Duration, maxOutputLines int) map[string]any {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = cwd

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	outText, outTruncated := truncateOutput(stdout.String(), maxOutputLines)
	errText, errTruncated := truncateOutput(stderr.String(), maxOutputLines)

	result := map[string]any{
		"stdout":           outText,
		"stderr":           errText,
		"output_truncated": outTruncated || errTruncated,
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result["ok"] = false
		result["timed_out"] = true
		result["exit_code"] = nil
		return result
	}

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			result["ok"] = false
			result["timed_out"] = false
			result["exit_code"] = nil
			result["error"] = runErr.Error()
			return result
		}
	}

	result["ok"] = exitCode == 0
	result["timed_out"] = false
	result["exit_code"] = exitCode
	return result
}

// truncateOutput keeps the final maxLines lines, reporting whether anything
// was dropped.
func truncateOutput(text string, maxLines int) (string, bool) {
	if text == "" {
		return "", false
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if len(lines) <= maxLines {
		return text, false
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n"), true
}
