package apiserver

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/lookbusy1344/sam3x-emulator/display"
	"github.com/lookbusy1344/sam3x-emulator/host"
	"github.com/lookbusy1344/sam3x-emulator/mcu"
)

// ErrSessionNotFound is returned when a session ID has no backing session.
var ErrSessionNotFound = errors.New("session not found")

// Session is one emulated device instance: its engine, attached
// display/graphics card, and the BootHelper driving its boot monitor
// over the emulated serial link. Grounded on teacher api/session_manager.go's
// Session struct, swapping the debugger service for an mcu.Engine.
type Session struct {
	ID      string
	Engine  *mcu.Engine
	Display *display.TextDisplay
	Card    *display.GraphicsCard
	Monitor *mcu.BootMonitor
	Boot    *host.BootHelper

	CreatedAt time.Time

	mu      sync.Mutex
	running bool
	stop    chan struct{}
}

// NewSession allocates a fresh device: ROM/Flash/SRAM banks sized per
// spec §3's bus map, a fully wired Engine, an 80x25 text display behind
// a GraphicsCard on SPI0, and a BootHelper over a DeviceStream.
func NewSession(id string) *Session {
	rom := mcu.NewMemoryBank("ROM", mcu.ROMStart, mcu.ROMSize/4, 0)
	flash := mcu.NewMemoryBank("Flash", mcu.FlashStart, mcu.FlashSize/4, 0xFFFFFFFF)
	sram := mcu.NewMemoryBank("SRAM", mcu.SRAMStart, mcu.SRAMSize/4, 0)

	bus := mcu.NewBus(rom, flash, sram)
	cpu := mcu.NewCPU()
	engine := mcu.NewEngine(cpu, bus)

	textDisplay := display.NewTextDisplay(80, 25)
	card := display.NewGraphicsCard(textDisplay)
	engine.SPI0.AttachDevice(card)

	monitor := mcu.NewBootMonitor()
	stream := host.NewDeviceStream(bus, monitor)
	boot := host.NewBootHelper(stream)

	return &Session{
		ID:        id,
		Engine:    engine,
		Display:   textDisplay,
		Card:      card,
		Monitor:   monitor,
		Boot:      boot,
		CreatedAt: time.Now(),
	}
}

// Start runs the engine's cooperative loop in the background until
// Stop is called or the engine halts on an error, broadcasting display
// frames and PIO state as they change.
func (s *Session) Start(broadcaster *Broadcaster) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	stop := s.stop
	s.mu.Unlock()

	s.Engine.PIO.SetObserver(func(state [4]uint32) {
		broadcaster.BroadcastPIO(s.ID, state)
	})

	go func() {
		lastFrame := ""
		for {
			select {
			case <-stop:
				return
			default:
			}
			ok, err := s.Engine.Step(nil)
			if err != nil {
				broadcaster.BroadcastExecutionEvent(s.ID, "error", map[string]interface{}{"message": err.Error()})
				s.mu.Lock()
				s.running = false
				s.mu.Unlock()
				return
			}
			if frame := s.Display.Render(); frame != lastFrame {
				broadcaster.BroadcastDisplay(s.ID, frame)
				lastFrame = frame
			}
			if !ok {
				broadcaster.BroadcastExecutionEvent(s.ID, "halted", nil)
				s.mu.Lock()
				s.running = false
				s.mu.Unlock()
				return
			}
		}
	}()
}

// Stop halts the background loop, if one is running.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stop)
	s.running = false
}

// Running reports whether the engine's loop is currently active.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SessionManager owns every live Session, keyed by ID.
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	broadcaster *Broadcaster
}

// NewSessionManager returns a manager that broadcasts through broadcaster.
func NewSessionManager(broadcaster *Broadcaster) *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*Session),
		broadcaster: broadcaster,
	}
}

// CreateSession allocates a fresh device and registers it under a new ID.
func (sm *SessionManager) CreateSession() (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}
	session := NewSession(id)

	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessions[id] = session
	return session, nil
}

// GetSession looks up a session by ID.
func (sm *SessionManager) GetSession(id string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	session, ok := sm.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// DestroySession stops and removes a session.
func (sm *SessionManager) DestroySession(id string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	session, ok := sm.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	session.Stop()
	delete(sm.sessions, id)
	return nil
}

// ListSessions returns every live session's ID.
func (sm *SessionManager) ListSessions() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count reports the number of live sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

func generateSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
