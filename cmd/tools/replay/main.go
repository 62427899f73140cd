package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"exstats/internal/feed"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"golang.org/x/time/rate"
)

const maxLineBytes = 64 * 1024

func main() {
	input := flag.String("in", "-", "JSON-lines capture of damage events (- for stdin)")
	socket := flag.String("socket", "/tmp/exstats/feed.sock", "exstats feed socket")
	perSecond := flag.Float64("rate", 0, "events per second (0=no pacing)")
	check := flag.Bool("check", true, "decode every line and skip malformed ones")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sent, skipped, err := replay(ctx, *input, *socket, *perSecond, *check)
	if err != nil {
		logs.Errorf("replay failed after %d events, err: %+v", sent, err)
		os.Exit(1)
	}
	logs.Infof("replay done, sent: %d, skipped: %d", sent, skipped)
}

func replay(ctx context.Context, input, socket string, perSecond float64, check bool) (sent, skipped int, err error) {
	var r io.Reader = os.Stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return 0, 0, errors.Wrap(err, "open capture").With("path", input)
		}
		defer f.Close()
		r = f
	}

	client, err := feed.NewClient(socket)
	if err != nil {
		return 0, 0, err
	}
	if err := client.Dial(); err != nil {
		return 0, 0, err
	}
	defer client.Close()

	limiter := rate.NewLimiter(rate.Inf, 1)
	if perSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if check {
			if _, err := feed.DecodeEvent(line); err != nil {
				skipped++
				continue
			}
		}
		if err := limiter.Wait(ctx); err != nil {
			return sent, skipped, err
		}
		if err := client.WriteLine(line); err != nil {
			return sent, skipped, err
		}
		sent++
		if perSecond > 0 {
			if err := client.Flush(); err != nil {
				return sent, skipped, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return sent, skipped, errors.Wrap(err, "read capture")
	}
	return sent, skipped, client.Flush()
}
