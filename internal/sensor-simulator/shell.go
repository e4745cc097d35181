package sensor_simulator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/LeonardoBeccarini/sensor_simulator/internal/model"
)

// Simulation is what the shell drives.
type Simulation interface {
	Start(mode model.Mode) error
	Stop()
	Running() bool
}

var menuChoices = map[string]model.Mode{
	"1": model.ModeNormal,
	"2": model.ModeAlert,
	"3": model.ModeMixed,
}

const exitChoice = "4"

// Shell is the interactive menu. Interrupts stop a running simulation;
// an interrupt at the menu ends the shell.
type Shell struct {
	in         io.Reader
	out        io.Writer
	sim        Simulation
	interrupts <-chan os.Signal
	endpoint   string
	sensors    []model.Sensor
}

func NewShell(in io.Reader, out io.Writer, sim Simulation, interrupts <-chan os.Signal, endpoint string, sensors []model.Sensor) *Shell {
	return &Shell{in: in, out: out, sim: sim, interrupts: interrupts, endpoint: endpoint, sensors: sensors}
}

// Run blocks until the user exits, stdin closes, an interrupt arrives at the menu, or ctx ends.
func (s *Shell) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	lines := s.readLines(done)

	s.banner()
	for {
		s.menu()
		select {
		case <-ctx.Done():
			s.sim.Stop()
			return nil
		case <-s.interrupts:
			s.sim.Stop()
			fmt.Fprintln(s.out)
			return nil
		case line, ok := <-lines:
			if !ok {
				s.sim.Stop()
				fmt.Fprintln(s.out)
				return nil
			}
			choice := strings.TrimSpace(line)
			if choice == exitChoice {
				fmt.Fprintln(s.out, "Exiting...")
				return nil
			}
			mode, known := menuChoices[choice]
			if !known {
				fmt.Fprintln(s.out, "Invalid option!")
				continue
			}
			switch err := s.sim.Start(mode); {
			case errors.Is(err, ErrAlreadyRunning):
				fmt.Fprintln(s.out, "\nSimulation already running! Press Ctrl+C to stop.")
			case err != nil:
				fmt.Fprintf(s.out, "Error: %v\n", err)
				continue
			default:
				fmt.Fprintf(s.out, "\nSimulation started in %s mode! Press Ctrl+C to stop.\n", strings.ToUpper(string(mode)))
			}

			select {
			case <-s.interrupts:
				s.sim.Stop()
			case <-ctx.Done():
				s.sim.Stop()
				return nil
			}
		}
	}
}

func (s *Shell) readLines(done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(s.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}

func (s *Shell) banner() {
	rule := strings.Repeat("=", 40)
	fmt.Fprintln(s.out, "IoT SENSOR SIMULATOR")
	fmt.Fprintln(s.out, rule)
	fmt.Fprintln(s.out, "API URL:", s.endpoint)
	fmt.Fprintln(s.out, "Available sensors:")
	for _, sn := range s.sensors {
		fmt.Fprintf(s.out, "  - ID %d: %s\n", sn.ID, sn.Name)
	}
	fmt.Fprintln(s.out, rule)
}

func (s *Shell) menu() {
	fmt.Fprintln(s.out, "\nAvailable modes:")
	fmt.Fprintln(s.out, "1. Normal (no alerts)")
	fmt.Fprintln(s.out, "2. Alert (alerts only)")
	fmt.Fprintln(s.out, "3. Mixed (70% normal, 30% alert)")
	fmt.Fprintln(s.out, "4. Exit")
	fmt.Fprint(s.out, "\nChoose a mode (1-4): ")
}
