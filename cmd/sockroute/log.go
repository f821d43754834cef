package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"sockroute/internal/paths"
	"sockroute/internal/slogutil"
)

var (
	logFollow bool
	logLines  int
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the server log",
	Long: `View .sockroute/logs/server.log.

Examples:
  sockroute log              # Show last 50 lines
  sockroute log -n 100       # Show last 100 lines
  sockroute log -f           # Follow log output (tail -f)`,
	RunE: runLog,
}

func init() {
	logCmd.Flags().BoolVarP(&logFollow, "follow", "f", false, "Follow log output")
	logCmd.Flags().IntVarP(&logLines, "lines", "n", 50, "Number of lines to show")
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	if logLines < 0 {
		return fmt.Errorf("--lines must not be negative")
	}
	root, err := projectRoot()
	if err != nil {
		return err
	}
	logPath := paths.LogPath(root, slogutil.ServerLogName)
	out := cmd.OutOrStdout()

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		fmt.Fprintln(out, "No logs found.")
		fmt.Fprintf(out, "\nLog file location: %s\n", logPath)
		fmt.Fprintln(out, "The log is written by 'sockroute serve' unless logging.file is false.")
		return nil
	}

	if logFollow {
		return followLogFile(cmd, logPath)
	}
	return showLogLines(out, logPath, logLines)
}

func showLogLines(out io.Writer, path string, n int) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	// Keep the last n lines in a ring
	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if n == 0 {
			continue
		}
		if len(ring) == n {
			copy(ring, ring[1:])
			ring = ring[:n-1]
		}
		ring = append(ring, scanner.Text())
	}

	for _, line := range ring {
		fmt.Fprintln(out, line)
	}
	return scanner.Err()
}

func followLogFile(cmd *cobra.Command, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Following %s (Ctrl+C to stop)\n\n", path)

	ctx := cmd.Context()
	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			fmt.Fprint(out, line)
		}
		if err == nil {
			continue
		}
		if err != io.EOF {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(100 * time.Millisecond):
		}
	}
}
