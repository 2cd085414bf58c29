package main

import (
	"errors"
	"flag"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Scruff-AI/PiEEG-16/pkg/stream/client"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)
	host := flag.String("host", "127.0.0.1", "server address")
	port := flag.Int("port", 6677, "server port")
	buffer := flag.Float64("buffer", 10, "rolling display window in seconds")
	flag.Parse()

	addr := net.JoinHostPort(*host, strconv.Itoa(*port))
	c, err := client.Dial(addr, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("connection failed")
	}

	var interrupted int32
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		atomic.StoreInt32(&interrupted, 1)
		c.Close()
	}()

	log.Info().Str("addr", addr).Float64("buffer_s", *buffer).Msg("connected")

	window := client.NewWindow(*buffer)
	for {
		msg, err := c.Next()
		if err != nil {
			if atomic.LoadInt32(&interrupted) == 1 || errors.Is(err, io.EOF) {
				log.Info().Msg("stream closed")
				return
			}
			log.Fatal().Err(err).Msg("stream error")
		}
		window.Push(msg)
		min, max := window.Range()
		log.Info().
			Float64("timestamp", msg.Timestamp).
			Int("channels", msg.Channels).
			Int("sampling_rate", msg.SamplingRate).
			Float64("window_s", window.Seconds()).
			Float64("min_uv", min).
			Float64("max_uv", max).
			Msg("batch")
	}
}
