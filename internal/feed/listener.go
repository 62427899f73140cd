package feed

import (
	"bufio"
	"context"
	"errors"
	"net"
	"os"
	"sync"

	"exstats/internal/model"
	"exstats/pkg/exception"

	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
)

const (
	unixNetwork  = "unix"
	maxLineBytes = 64 * 1024
)

// Listener accepts newline-delimited JSON damage events on a Unix domain
// socket. Each connection is read on its own goroutine; the handler is
// called for every well-formed line.
type Listener struct {
	addr net.UnixAddr

	mu       sync.Mutex
	ln       *net.UnixListener
	conns    map[*net.UnixConn]struct{}
	observed bool
	wg       sync.WaitGroup
}

// NewListener creates a listener for the provided socket path.
func NewListener(path string) (*Listener, error) {
	if path == "" {
		return nil, exception.ErrFeedEmptyPath
	}
	return &Listener{
		addr:  net.UnixAddr{Name: path, Net: unixNetwork},
		conns: make(map[*net.UnixConn]struct{}),
	}, nil
}

// Path returns the configured socket path.
func (l *Listener) Path() string {
	return l.addr.Name
}

// Observe binds the socket and feeds handler until unsubscribe is called,
// ctx ends, or the process is shutting down. A listener serves one handler
// at a time and can be observed again once the previous one is gone.
func (l *Listener) Observe(ctx context.Context, handler func(model.DamageEvent)) (unsubscribe func(), err error) {
	if handler == nil {
		return nil, exception.ErrFeedNilHandler
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.observed {
		return nil, exception.ErrFeedBusy
	}
	if err := removeStaleSocket(l.addr.Name); err != nil {
		return nil, err
	}
	ln, err := net.ListenUnix(unixNetwork, &l.addr)
	if err != nil {
		return nil, err
	}
	ln.SetUnlinkOnClose(true)
	l.ln = ln
	l.observed = true

	stop := make(chan struct{})
	var once sync.Once
	unsubscribe = func() {
		once.Do(func() {
			close(stop)
			l.shutdown()
		})
	}

	go func() {
		select {
		case <-sys.Shutdown():
		case <-ctx.Done():
		case <-stop:
			return
		}
		unsubscribe()
	}()

	l.wg.Add(1)
	go l.acceptLoop(ln, handler)

	logs.Infof("feed listening: %s", l.addr.Name)
	return unsubscribe, nil
}

func (l *Listener) acceptLoop(ln *net.UnixListener, handler func(model.DamageEvent)) {
	defer l.wg.Done()
	for {
		conn, err := ln.AcceptUnix()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logs.Errorf("feed accept, err: %+v", err)
			continue
		}

		l.mu.Lock()
		if l.ln == nil {
			l.mu.Unlock()
			_ = conn.Close()
			return
		}
		l.conns[conn] = struct{}{}
		l.wg.Add(1)
		l.mu.Unlock()

		go l.serve(conn, handler)
	}
}

func (l *Listener) serve(conn *net.UnixConn, handler func(model.DamageEvent)) {
	defer l.wg.Done()
	defer func() {
		l.mu.Lock()
		delete(l.conns, conn)
		l.mu.Unlock()
		_ = conn.Close()
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		ev, err := DecodeEvent(line)
		if err != nil {
			logs.Errorf("feed skip line, err: %+v", err)
			continue
		}
		handler(ev)
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		logs.Errorf("feed read, err: %+v", err)
	}
}

// shutdown closes the listener and every open connection, then waits for
// readers to finish their current line.
func (l *Listener) shutdown() {
	l.mu.Lock()
	if l.ln != nil {
		_ = l.ln.Close()
		l.ln = nil
	}
	for conn := range l.conns {
		_ = conn.Close()
	}
	l.mu.Unlock()
	l.wg.Wait()

	l.mu.Lock()
	l.observed = false
	l.mu.Unlock()
}

func removeStaleSocket(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Mode()&os.ModeSocket == 0 {
		return exception.ErrFeedPathNotSocket
	}
	return os.Remove(path)
}
