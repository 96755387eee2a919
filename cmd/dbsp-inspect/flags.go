package main

import (
    "flag"
    "os"
    "time"
)

type options struct {
    target           string
    json             bool
    watch            bool
    interval         time.Duration
    heapProfile      string
    goroutineProfile string
    version          bool
}

func parseFlags() *options {
    opts := &options{}
    fs := flag.NewFlagSet("dbsp-inspect", flag.ExitOnError)
    fs.StringVar(&opts.target, "target", "http://localhost:6070", "base URL of a running dbsp-sim instance")
    fs.BoolVar(&opts.json, "json", false, "emit raw JSON instead of a pretty summary")
    fs.BoolVar(&opts.watch, "watch", false, "poll the snapshot endpoint repeatedly")
    fs.DurationVar(&opts.interval, "interval", 2*time.Second, "poll interval in watch mode")
    fs.StringVar(&opts.heapProfile, "heap-profile", "", "download a heap profile to this path and exit")
    fs.StringVar(&opts.goroutineProfile, "goroutine-profile", "", "download a goroutine profile to this path and exit")
    fs.BoolVar(&opts.version, "version", false, "print version and exit")
    fs.Parse(os.Args[1:])
    return opts
}
