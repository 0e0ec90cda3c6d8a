package host

import (
	"fmt"
	"strings"
)

// flashCommandLine mirrors bootCommandLine's treatment of
// original_source/scripts/src/flash_helper.rs's literal shell-invocation
// line, restated for this project's own CLI entry point.
const flashCommandLine = "$ sam3x-emu flash\n>"

// Flash geometry constants, grounded bit-for-bit on flash_helper.rs.
const (
	flashBegin              = 0x80000
	flashEnd                = 0x100000
	flashPageBytes          = 256
	flashPageWords          = 64
	flashPagesPerController = 1024
)

// EEFC register addresses for the two flash controllers, grounded on
// flash_helper.rs's FCR0/FSR0/FCR1/FSR1 constants.
const (
	eefc0FCR = 0x400E0A04
	eefc0FSR = 0x400E0A08
	eefc1FCR = 0x400E0C04
	eefc1FSR = 0x400E0C08
)

// page buffers one flash page's worth of data, lazily read through from
// the device the first time it is touched and tracked dirty once
// written, mirroring flash_helper.rs's Page struct.
type page struct {
	words [flashPageWords]uint32
	read  bool
	dirty bool
}

// FlashHelper layers page-buffered flash programming on top of a
// BootHelper, grounded on flash_helper.rs's FlashHelper.
type FlashHelper struct {
	boot  *BootHelper
	pages map[uint32]*page
}

// NewFlashHelper wraps stream in a non-terminal BootHelper and prepares
// an empty page cache.
func NewFlashHelper(stream Stream) *FlashHelper {
	h := &FlashHelper{
		boot:  newBootHelper(stream, false),
		pages: make(map[uint32]*page),
	}
	h.boot.output = flashCommandLine
	return h
}

// pageNumber returns the flash page index (0-based from the start of
// flash, counting across both controllers) that addr falls in.
func pageNumber(addr uint32) uint32 {
	return (addr - flashBegin) / flashPageBytes
}

// pageBase returns the flash address of the first byte of page.
func pageBase(pageNum uint32) uint32 {
	return flashBegin + pageNum*flashPageBytes
}

// fetchPage returns the cached page for pageNum, reading it through the
// device on first touch via "w<addr>,#" memory-read commands (the boot
// monitor's lowercase-w read-word command, spec §4.6), one per word -
// flash_helper.rs reads a page with flashPageWords separate reads rather
// than a single bulk transfer.
func (h *FlashHelper) fetchPage(pageNum uint32) (*page, error) {
	if p, ok := h.pages[pageNum]; ok {
		return p, nil
	}
	p := &page{}
	base := pageBase(pageNum)
	h.boot.output += fmt.Sprintf("Reading page %d... ", pageNum)
	for i := 0; i < flashPageWords; i++ {
		addr := base + uint32(i)*4
		reply, replied, err := runCommand(h.boot.stream, fmt.Sprintf("w%08X,#", addr))
		if err != nil {
			return nil, err
		}
		if !replied {
			return nil, fmt.Errorf("no reply reading flash word at 0x%X", addr)
		}
		var word uint32
		fmt.Sscanf(strings.TrimPrefix(strings.TrimSpace(reply), "0x"), "%x", &word)
		p.words[i] = word
	}
	p.read = true
	h.boot.output += "Done.\n"
	h.pages[pageNum] = p
	return p, nil
}

// WriteWord stages a 32-bit write into the page cache at addr, reading
// the containing page through first if it has not been touched yet. The
// write does not reach the device until Flush writes the dirty pages.
func (h *FlashHelper) WriteWord(addr uint32, value uint32) error {
	if addr < flashBegin || addr >= flashEnd {
		return fmt.Errorf("address 0x%X is outside the flash region", addr)
	}
	pageNum := pageNumber(addr)
	p, err := h.fetchPage(pageNum)
	if err != nil {
		return err
	}
	offset := (addr - pageBase(pageNum)) / 4
	p.words[offset] = value
	p.dirty = true
	return nil
}

// Flush writes every dirty page back to the device in ascending page
// order, one "W<addr>,<value>#" (uppercase-W write-word command) per
// word, followed by the controller's EWP (erase-and-write) command and
// a poll of FSR for FRDY - grounded on flash_helper.rs's flash_page.
func (h *FlashHelper) Flush() error {
	var pageNums []uint32
	for num, p := range h.pages {
		if p.dirty {
			pageNums = append(pageNums, num)
		}
	}
	sortUint32s(pageNums)
	for _, pageNum := range pageNums {
		if err := h.flushPage(pageNum); err != nil {
			return err
		}
	}
	return nil
}

func (h *FlashHelper) flushPage(pageNum uint32) error {
	p := h.pages[pageNum]
	base := pageBase(pageNum)
	h.boot.output += fmt.Sprintf("Writing page %d... ", pageNum)
	for i, word := range p.words {
		addr := base + uint32(i)*4
		if _, _, err := runCommand(h.boot.stream, fmt.Sprintf("W%08X,%08X#", addr, word)); err != nil {
			return err
		}
	}
	controllerFCR, controllerFSR := eefc0FCR, eefc0FSR
	if base >= flashBegin+flashPagesPerController*flashPageBytes {
		controllerFCR, controllerFSR = eefc1FCR, eefc1FSR
	}
	localPage := pageNum % flashPagesPerController
	// FCMR EWP command: FARG = page number, FCMD = 0x03 (EWP), FKEY = 0x5A.
	fcr := uint32(0x5A000003) | (localPage << 8)
	if _, _, err := runCommand(h.boot.stream, fmt.Sprintf("W%08X,%08X#", controllerFCR, fcr)); err != nil {
		return err
	}
	reply, replied, err := runCommand(h.boot.stream, fmt.Sprintf("w%08X,#", controllerFSR))
	if err != nil {
		return err
	}
	if !replied {
		return fmt.Errorf("no reply polling FSR for page %d", pageNum)
	}
	var status uint32
	fmt.Sscanf(strings.TrimPrefix(strings.TrimSpace(reply), "0x"), "%x", &status)
	if status&0x1 == 0 {
		return fmt.Errorf("flash controller not ready after writing page %d", pageNum)
	}
	p.dirty = false
	h.boot.output += "Done.\n"
	return nil
}

// Write feeds commands to the underlying BootHelper, additionally
// recognising two pseudo-commands that are not forwarded as typed.
// "flash#" flushes staged writes. "reset#" flushes, then sets the
// boot-from-flash GPNVM bit through EEFC0's FCR, reads EEFC0's FSR once
// (the reply is not checked), and writes the reset controller's CR to
// request a processor, peripheral and external reset, booting back into
// the freshly written image.
func (h *FlashHelper) Write(commands string) bool {
	for _, command := range splitInclusive(commands, '#') {
		trimmed := strings.TrimSpace(command)
		switch trimmed {
		case "exit#":
			return false
		case "flash#":
			if err := h.Flush(); err != nil {
				h.boot.output += err.Error()
				return false
			}
		case "reset#":
			if err := h.Flush(); err != nil {
				h.boot.output += err.Error()
				return false
			}
			if !h.boot.Write(fmt.Sprintf("W%08X,5A00010B#w%08X,#W400E1A00,A500000D#", eefc0FCR, eefc0FSR)) {
				return false
			}
		default:
			if !h.boot.Write(command) {
				return false
			}
		}
	}
	return true
}

// Read drains the underlying BootHelper's output buffer.
func (h *FlashHelper) Read() string {
	return h.boot.Read()
}

func sortUint32s(s []uint32) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
