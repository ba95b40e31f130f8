package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/david-YJ-Kim/notesvc/internal/cli/health"
	"github.com/david-YJ-Kim/notesvc/internal/cli/output"
	"github.com/david-YJ-Kim/notesvc/internal/cli/timeutil"
	"github.com/spf13/cobra"
)

var (
	statusOutput  string
	statusPidFile string
	statusAPIPort int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Display the current status of the notesvc server.

This command checks the server health by calling the health endpoints
and displays status, uptime, and the health of the backing stores
(metadata database and search index).

Examples:
  # Check status (uses default settings)
  notesvc status

  # Check status with custom API port
  notesvc status --api-port 19900

  # Output as JSON
  notesvc status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/notesvc/notesvc.pid)")
	statusCmd.Flags().IntVar(&statusAPIPort, "api-port", 9900, "API server port")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// ServerStatus represents the server status information.
type ServerStatus struct {
	Running   bool                        `json:"running" yaml:"running"`
	PID       int                         `json:"pid,omitempty" yaml:"pid,omitempty"`
	Message   string                      `json:"message" yaml:"message"`
	StartedAt string                      `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	Uptime    string                      `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	Healthy   bool                        `json:"healthy" yaml:"healthy"`
	Stores    map[string]health.Component `json:"stores,omitempty" yaml:"stores,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	status := ServerStatus{
		Running: false,
		Healthy: false,
		Message: "Server is not running",
	}

	// Use default PID file if not specified
	pidPath := statusPidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}

	// Check PID file first
	pidData, err := os.ReadFile(pidPath)
	if err == nil {
		pid, err := strconv.Atoi(strings.TrimSpace(string(pidData)))
		if err == nil {
			// Check if process is running
			process, err := os.FindProcess(pid)
			if err == nil {
				// On Unix, FindProcess always succeeds, we need to send signal 0 to check
				err = process.Signal(syscall.Signal(0))
				if err == nil {
					status.Running = true
					status.PID = pid
				}
			}
		}
	}

	// Check health endpoint (works for both daemon and foreground mode)
	client := &http.Client{Timeout: 2 * time.Second}
	healthURL := fmt.Sprintf("http://localhost:%d/health", statusAPIPort)

	resp, err := client.Get(healthURL)
	if err == nil {
		defer func() { _ = resp.Body.Close() }()

		var healthResp health.Response
		if err := json.NewDecoder(resp.Body).Decode(&healthResp); err == nil {
			status.Running = true
			status.Healthy = healthResp.Status == "healthy"
			status.StartedAt = healthResp.Data.StartedAt
			status.Uptime = healthResp.Data.Uptime
			if status.Healthy {
				status.Message = "Server is running and healthy"
			} else {
				status.Message = fmt.Sprintf("Server is running but unhealthy: %s", healthResp.Error)
			}
		} else {
			status.Running = true
			status.Message = "Server is running but health response invalid"
		}

		// The readiness probe reports per-store health.
		checkReadiness(client, &status)
	} else if status.Running {
		// PID file says running but health check failed
		status.Message = "Server process exists but health check failed"
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		printStatusTable(status)
	}

	return nil
}

// checkReadiness queries /health/ready and folds the per-store results into
// the status. A degraded store flips Healthy off even when the liveness
// probe answered.
func checkReadiness(client *http.Client, status *ServerStatus) {
	readyURL := fmt.Sprintf("http://localhost:%d/health/ready", statusAPIPort)

	resp, err := client.Get(readyURL)
	if err != nil {
		return
	}
	defer func() { _ = resp.Body.Close() }()

	var readyResp health.ReadyResponse
	if err := json.NewDecoder(resp.Body).Decode(&readyResp); err != nil {
		return
	}

	status.Stores = readyResp.Data
	if !readyResp.Healthy() {
		status.Healthy = false
		status.Message = "Server is running but a store is unhealthy"
	}
}

func printStatusTable(status ServerStatus) {
	fmt.Println()
	fmt.Println("notesvc Server Status")
	fmt.Println("=====================")
	fmt.Println()

	if status.Running {
		if status.Healthy {
			fmt.Printf("  Status:     \033[32m● Running\033[0m\n")
		} else {
			fmt.Printf("  Status:     \033[33m● Running (unhealthy)\033[0m\n")
		}
		if status.PID != 0 {
			fmt.Printf("  PID:        %d\n", status.PID)
		}
		if status.StartedAt != "" {
			fmt.Printf("  Started:    %s\n", timeutil.FormatTime(status.StartedAt))
		}
		if status.Uptime != "" {
			fmt.Printf("  Uptime:     %s\n", timeutil.FormatUptime(status.Uptime))
		}

		if len(status.Stores) > 0 {
			fmt.Println()
			fmt.Println("  Stores:")
			names := make([]string, 0, len(status.Stores))
			for name := range status.Stores {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				comp := status.Stores[name]
				if comp.Status == "healthy" {
					fmt.Printf("    %-10s \033[32m● healthy\033[0m\n", name)
				} else {
					fmt.Printf("    %-10s \033[31m● %s: %s\033[0m\n", name, comp.Status, comp.Error)
				}
			}
		}
	} else {
		fmt.Printf("  Status:     \033[31m○ Stopped\033[0m\n")
	}

	fmt.Println()
	fmt.Printf("  %s\n", status.Message)
	fmt.Println()
}
