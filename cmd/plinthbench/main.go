/*
Plinth Core
Copyright (c) 2026 The Plinth Project Contributors.
SPDX-License-Identifier: GPL-3.0-or-later

This file is part of Plinth Core.

Plinth Core is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Plinth Core is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Plinth Core.  If not, see <http://www.gnu.org/licenses/>.
*/

// plinthbench exercises the lock and thread primitives under load: a
// contended-counter run across managed threads and a Start handshake
// latency measurement.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/PlinthProject/plinth-core/pkg/config"
	"github.com/PlinthProject/plinth-core/pkg/logging"
	"github.com/PlinthProject/plinth-core/pkg/syncutil"
	"github.com/PlinthProject/plinth-core/pkg/thread"
	"github.com/PlinthProject/plinth-core/pkg/threadid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	threads := flag.Int("threads", 4, "number of managed threads")
	iters := flag.Int("iters", 100000, "locked increments per thread")
	handshakes := flag.Int("handshakes", 1000, "Start/Join round trips to time")
	pin := flag.Bool("pin", false, "pin each thread to its own OS thread")
	configDir := flag.String("config-dir", ".", "directory holding config.toml")
	flag.Parse()

	if err := logging.Setup(os.TempDir(), logging.ConsoleWriter()); err != nil {
		return err
	}

	cfg, err := config.NewConfig(*configDir, config.BaseDefaults)
	if err != nil {
		return err
	}
	cfg.Apply()
	if cfg.PinOSThreads() {
		*pin = true
	}

	clk := clockwork.NewRealClock()
	log.Info().
		Str("goroutine", threadid.IDString()).
		Bool("main", threadid.IsMain()).
		Int("os_thread", threadid.OSThreadID()).
		Msg("starting benchmark")

	contention(clk, *threads, *iters, *pin)
	handshake(clk, *handshakes, *pin)
	return nil
}

func contention(clk clockwork.Clock, threads, iters int, pin bool) {
	var mu syncutil.Mutex
	counter := 0

	var opts []thread.Option
	if pin {
		opts = append(opts, thread.LockOSThread())
	}

	start := clk.Now()
	workers := make([]*thread.Thread, 0, threads)
	for i := 0; i < threads; i++ {
		w := thread.New(func() {
			for j := 0; j < iters; j++ {
				syncutil.WithLock(&mu, func() {
					counter++
				})
			}
		}, fmt.Sprintf("bench-%d", i), opts...)
		w.Start()
		workers = append(workers, w)
	}
	for _, w := range workers {
		if err := w.Join(); err != nil {
			log.Error().Err(err).Str("thread", w.Name()).Msg("join failed")
		}
	}
	elapsed := clk.Since(start)

	total := threads * iters
	log.Info().
		Int("threads", threads).
		Int("total_ops", total).
		Dur("elapsed", elapsed).
		Float64("ops_per_sec", float64(total)/elapsed.Seconds()).
		Bool("counter_exact", counter == total).
		Msg("contention run done")
}

func handshake(clk clockwork.Clock, rounds int, pin bool) {
	var opts []thread.Option
	if pin {
		opts = append(opts, thread.LockOSThread())
	}

	var worst time.Duration
	start := clk.Now()
	for i := 0; i < rounds; i++ {
		t0 := clk.Now()
		w := thread.New(func() {}, "", opts...)
		w.Start()
		if d := clk.Since(t0); d > worst {
			worst = d
		}
		if err := w.Join(); err != nil {
			log.Error().Err(err).Str("thread", w.Name()).Msg("join failed")
		}
	}
	elapsed := clk.Since(start)

	log.Info().
		Int("rounds", rounds).
		Dur("elapsed", elapsed).
		Dur("worst_start", worst).
		Dur("avg_round", elapsed/time.Duration(rounds)).
		Int32("threads_created", thread.NumCreated()).
		Msg("handshake run done")
}
