//go:build windows

// Package main provides Windows service support for paintbot.
//
// service_windows.go implements the Windows Service interface using
// github.com/kardianos/service, so the daemon can run as a background
// service with proper Start/Stop handling.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kardianos/service"
)

// Program implements service.Interface for Windows Service integration.
type Program struct {
	ctx    context.Context
	cancel context.CancelFunc
	exit   chan struct{}
}

// Start is called when the service is started. It launches the daemon in a
// goroutine and returns immediately.
func (p *Program) Start(s service.Service) error {
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.exit = make(chan struct{})
	go p.run()
	return nil
}

// Stop signals the daemon to shut down and waits for it to finish.
func (p *Program) Stop(s service.Service) error {
	p.cancel()
	select {
	case <-p.exit:
	case <-time.After(30 * time.Second):
		return fmt.Errorf("timeout waiting for service to stop")
	}
	return nil
}

func (p *Program) run() {
	defer close(p.exit)
	if err := runDaemon(p.ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Service error: %v\n", err)
	}
}

// ServiceConfig returns the service configuration for Windows.
func ServiceConfig() *service.Config {
	return &service.Config{
		Name:        "paintbot",
		DisplayName: "Paintbot Image Generation Service",
		Description: "Turns chat paint commands into Stable Diffusion image generation requests.",
		Option: service.KeyValue{
			"StartType": "automatic",
		},
	}
}

// RunAsService runs the daemon under the service manager. Returns true if
// it ran as a service, false when running interactively.
func RunAsService() (bool, error) {
	prg := &Program{}
	s, err := service.New(prg, ServiceConfig())
	if err != nil {
		return false, fmt.Errorf("failed to create service: %w", err)
	}

	if service.Interactive() {
		return false, nil
	}

	if err := s.Run(); err != nil {
		return true, fmt.Errorf("service run failed: %w", err)
	}
	return true, nil
}

// InstallService installs the daemon as a Windows service.
func InstallService() error {
	s, err := service.New(&Program{}, ServiceConfig())
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	if err := s.Install(); err != nil {
		return fmt.Errorf("failed to install service: %w", err)
	}
	fmt.Println("Service installed successfully")
	return nil
}

// UninstallService removes the Windows service.
func UninstallService() error {
	s, err := service.New(&Program{}, ServiceConfig())
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	if err := s.Uninstall(); err != nil {
		return fmt.Errorf("failed to uninstall service: %w", err)
	}
	fmt.Println("Service uninstalled successfully")
	return nil
}

// StartService starts the Windows service.
func StartService() error {
	s, err := service.New(&Program{}, ServiceConfig())
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	if err := s.Start(); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	fmt.Println("Service started successfully")
	return nil
}

// StopService stops the Windows service.
func StopService() error {
	s, err := service.New(&Program{}, ServiceConfig())
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	if err := s.Stop(); err != nil {
		return fmt.Errorf("failed to stop service: %w", err)
	}
	fmt.Println("Service stopped successfully")
	return nil
}

// PrintServiceUsage prints the help text for service commands.
func PrintServiceUsage() {
	fmt.Println("paintbot Service Management")
	fmt.Println()
	fmt.Println("Usage: paintbot.exe <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  install    Install the daemon as a Windows service")
	fmt.Println("  uninstall  Remove the Windows service (alias: remove)")
	fmt.Println("  start      Start the Windows service")
	fmt.Println("  stop       Stop the Windows service")
	fmt.Println("  status     Show the current service status")
	fmt.Println("  help       Show this help message")
	fmt.Println()
	fmt.Println("Run without arguments to start the daemon in foreground mode.")
}

// HandleServiceCommand handles service-related command-line arguments.
// Returns true if a service command was handled, false otherwise.
func HandleServiceCommand(args []string) bool {
	if len(args) < 1 {
		return false
	}

	var err error
	switch args[0] {
	case "install":
		err = InstallService()
	case "uninstall", "remove":
		err = UninstallService()
	case "start":
		err = StartService()
	case "stop":
		err = StopService()
	case "status":
		s, newErr := service.New(&Program{}, ServiceConfig())
		if newErr != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", newErr)
			os.Exit(1)
		}
		status, statusErr := s.Status()
		if statusErr != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", statusErr)
			os.Exit(1)
		}
		switch status {
		case service.StatusRunning:
			fmt.Println("Service is running")
		case service.StatusStopped:
			fmt.Println("Service is stopped")
		default:
			fmt.Println("Service status unknown")
		}
		return true
	case "help", "-h", "--help", "-help":
		PrintServiceUsage()
		return true
	default:
		return false
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return true
}
