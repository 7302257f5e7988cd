package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/golang/glog"

	"hexcore/config"
	"hexcore/host/board"
	"hexcore/host/link"
	"hexcore/host/serial"
	"hexcore/protocol"
)

var (
	device     = flag.String("device", "/dev/ttyUSB0", "Serial device path")
	baud       = flag.Int("baud", 0, "Baud rate (default from -config or the link default)")
	layoutName = flag.String("layout", "wired", "Frame layout: wired or wireless")
	configPath = flag.String("config", "", "Board configuration JSON to take the link baud from")
	command    = flag.String("cmd", "none", "Command to send (see -list)")
	interval   = flag.Duration("interval", 0, "Repeat the command at this interval (0 sends once)")
	timeout    = flag.Duration("timeout", 200*time.Millisecond, "Reply timeout")
	retries    = flag.Int("retries", 2, "Re-sends after a timeout")
	list       = flag.Bool("list", false, "List the commands and exit")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	if *list {
		for _, c := range protocol.Commands() {
			fmt.Printf("  0x%02X  %s\n", uint8(c), c)
		}
		return
	}

	cmd, ok := protocol.ParseCommand(*command)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown command %q (try -list)\n", *command)
		os.Exit(2)
	}

	layout, linkCfg, err := selectLink()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = int(linkCfg.Baud)
	if *baud != 0 {
		cfg.Baud = *baud
	}

	client := board.New(layout)
	client.Timeout = *timeout
	client.Retries = *retries
	if err := client.ConnectWithConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	if *interval == 0 {
		reply, err := client.Send(cmd)
		if reply != nil {
			printReply(reply)
		}
		if err != nil {
			glog.Errorf("%v", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = client.Poll(ctx, cmd, *interval, func(reply *link.Reply, err error) {
		if err != nil {
			glog.Warningf("%v", err)
			return
		}
		printReply(reply)
	})
	sent, replies, dropped := client.Stats()
	glog.Infof("sent=%d replies=%d dropped=%d", sent, replies, dropped)
	if err != nil && err != context.Canceled {
		glog.Errorf("%v", err)
		os.Exit(1)
	}
}

// selectLink resolves the layout and its link settings
func selectLink() (protocol.Layout, config.LinkConfig, error) {
	boardCfg := config.DefaultConfig()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return protocol.Layout{}, config.LinkConfig{}, err
		}
		boardCfg, err = config.LoadConfig(data)
		if err != nil {
			return protocol.Layout{}, config.LinkConfig{}, fmt.Errorf("%s: %w", *configPath, err)
		}
	}

	switch strings.ToLower(*layoutName) {
	case "wired":
		return protocol.LayoutWired, boardCfg.Wired, nil
	case "wireless":
		return protocol.LayoutWireless, boardCfg.Wireless, nil
	}
	return protocol.Layout{}, config.LinkConfig{}, fmt.Errorf("unknown layout %q", *layoutName)
}

func printReply(reply *link.Reply) {
	r := reply.Response
	status := board.DecodeStatus(r)

	fmt.Printf("frame=%d cmd=%s status=%d modules_off=[%s] errors=[%s] cells=%v",
		reply.FrameNumber, r.Command, r.CommandStatus,
		strings.Join(status.Modules, ","), strings.Join(status.Errors, ","), r.CellVoltage)
	if r.BatteryVoltage != 0 || r.BatteryCharge != 0 {
		fmt.Printf(" battery=%dmV %d%%", r.BatteryVoltage, r.BatteryCharge)
	}
	fmt.Println()
}
