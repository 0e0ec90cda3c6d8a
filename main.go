// Command sam3x-emu is the emulator's command-line front end: it
// assembles and loads a firmware image, then drives the CPU loop
// either headless, through the tcell/tview boot-monitor console, or as
// an HTTP+WebSocket API server, grounded on the teacher's main.go flag
// layout and mode dispatch.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/lookbusy1344/sam3x-emulator/apiserver"
	"github.com/lookbusy1344/sam3x-emulator/asm"
	"github.com/lookbusy1344/sam3x-emulator/config"
	"github.com/lookbusy1344/sam3x-emulator/display"
	"github.com/lookbusy1344/sam3x-emulator/host"
	"github.com/lookbusy1344/sam3x-emulator/mcu"
	"github.com/lookbusy1344/sam3x-emulator/monitor"
)

// Version information, overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		tuiMode     = flag.Bool("tui", false, "Drive the firmware through the boot-monitor TUI console")
		apiServer   = flag.Bool("api-server", false, "Start HTTP API server mode")
		apiPort     = flag.Int("port", 0, "API server port (used with -api-server; 0 uses config default)")
		maxCycles   = flag.Uint64("max-cycles", 0, "Maximum CPU cycles before halt (0 uses config default)")
		bootFlash   = flag.Bool("boot-from-flash", false, "Reset PC from the flash vector table instead of ROM")
		entryPoint  = flag.String("entry", "", "Entry point address (hex or decimal, overrides reset vector)")
		verboseMode = flag.Bool("verbose", false, "Verbose output")
		configPath  = flag.String("config", "", "Config file path (default: platform config directory)")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("sam3x-emu %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *maxCycles != 0 {
		cfg.Execution.MaxCycles = *maxCycles
	}
	if *bootFlash {
		cfg.Execution.BootFromFlash = true
	}
	if *apiPort != 0 {
		cfg.API.Port = *apiPort
	}

	if *apiServer {
		runAPIServer(cfg)
		return
	}

	if flag.NArg() == 0 {
		printHelp()
		os.Exit(0)
	}

	asmFile := flag.Arg(0)
	source, err := os.ReadFile(asmFile) // #nosec G304 -- caller-supplied firmware source path
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: file not found: %s\n", asmFile)
		os.Exit(1)
	}

	if *verboseMode {
		fmt.Printf("Assembling %s\n", asmFile)
	}

	assembler := asm.New()
	image, err := assembler.Assemble(string(source), mcu.FlashStart)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Assemble error:\n%v\n", err)
		os.Exit(1)
	}

	if *verboseMode {
		fmt.Printf("Assembled %d bytes\n", len(image))
	}

	engine, bootHelper := buildEngine()

	if err := engine.Bus.Flash.LoadBytes(mcu.FlashStart, image); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading image into flash: %v\n", err)
		os.Exit(1)
	}

	var entryAddr uint32
	if *entryPoint != "" {
		if _, err := fmt.Sscanf(*entryPoint, "0x%x", &entryAddr); err != nil {
			if _, err := fmt.Sscanf(*entryPoint, "%d", &entryAddr); err != nil {
				fmt.Fprintf(os.Stderr, "Invalid entry point: %s\n", *entryPoint)
				os.Exit(1)
			}
		}
		engine.CPU.PC = entryAddr
		if *verboseMode {
			fmt.Printf("Using explicit entry point: 0x%08X\n", entryAddr)
		}
	} else if cfg.Execution.BootFromFlash {
		resetVector, err := engine.Bus.Get32(mcu.FlashStart + 4)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading flash reset vector: %v\n", err)
			os.Exit(1)
		}
		engine.CPU.PC = resetVector
		if *verboseMode {
			fmt.Printf("Using flash reset vector: 0x%08X\n", resetVector)
		}
	}

	if *tuiMode {
		runTUI(engine, bootHelper)
		return
	}

	runHeadless(engine, cfg, *verboseMode)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

// buildEngine wires a fresh Engine plus the boot-monitor/display/SPI
// peripherals used outside the plain instruction loop (spec §4.8, §4.3.5).
func buildEngine() (*mcu.Engine, *host.BootHelper) {
	rom := mcu.NewMemoryBank("ROM", mcu.ROMStart, mcu.ROMSize/4, 0)
	flash := mcu.NewMemoryBank("Flash", mcu.FlashStart, mcu.FlashSize/4, 0xFFFFFFFF)
	sram := mcu.NewMemoryBank("SRAM", mcu.SRAMStart, mcu.SRAMSize/4, 0)
	bus := mcu.NewBus(rom, flash, sram)
	cpu := mcu.NewCPU()
	engine := mcu.NewEngine(cpu, bus)

	textDisplay := display.NewTextDisplay(80, 25)
	graphicsCard := display.NewGraphicsCard(textDisplay)
	engine.SPI0.AttachDevice(graphicsCard)

	monitorROM := mcu.NewBootMonitor()
	stream := host.NewDeviceStream(bus, monitorROM)
	bootHelper := host.NewTerminalBootHelper(stream)

	return engine, bootHelper
}

func runTUI(engine *mcu.Engine, bootHelper *host.BootHelper) {
	t := monitor.NewTUI(engine, bootHelper)
	if err := t.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		os.Exit(1)
	}
}

func runHeadless(engine *mcu.Engine, cfg *config.Config, verbose bool) {
	observer := func(in mcu.Instruction, r0, r1 uint32) bool {
		if verbose {
			fmt.Printf("PC=%08X cycles=%d\n", engine.CPU.PC, engine.Cycles)
		}
		return engine.Cycles >= cfg.Execution.MaxCycles
	}

	if err := engine.Run(observer); err != nil {
		fmt.Fprintf(os.Stderr, "Execution error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Halted after %d cycles\n", engine.Cycles)
}

func runAPIServer(cfg *config.Config) {
	server := apiserver.NewServer(cfg.API.Port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var shutdownOnce sync.Once
	performShutdown := func() {
		shutdownOnce.Do(func() {
			fmt.Println("\nShutting down API server...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("API server stopped")
			os.Exit(0)
		})
	}

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "API server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-sigChan
	performShutdown()
}

func printHelp() {
	fmt.Println(`sam3x-emu - SAM3X/Cortex-M3 emulator

Usage:
  sam3x-emu [flags] <firmware.asm>
  sam3x-emu -api-server [flags]

Flags:`)
	flag.PrintDefaults()
}
