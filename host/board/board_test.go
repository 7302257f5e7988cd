package board

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hexcore/core"
	"hexcore/host/link"
	"hexcore/protocol"
)

type pipePort struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (p *pipePort) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *pipePort) Write(b []byte) (int, error) { return p.w.Write(b) }
func (p *pipePort) Close() error {
	p.w.Close()
	return p.r.Close()
}

// boardDriver is a core.SerialDriver over one end of a pipe
type boardDriver struct {
	port    *pipePort
	rx      [protocol.FrameMax]byte
	pending []byte
}

func (d *boardDriver) StartAsyncReceive() error { return nil }
func (d *boardDriver) RxBuffer() []byte         { return d.rx[:] }
func (d *boardDriver) StartAsyncTransmit(data []byte) error {
	d.pending = append([]byte{}, data...)
	return nil
}

// simBoard runs the firmware link engine against the host client
type simBoard struct {
	mon    *core.SystemMonitor
	drv    *boardDriver
	engine *core.FrameLink
	wg     sync.WaitGroup
}

func newSimBoard(t *testing.T, layout protocol.Layout) (*simBoard, *pipePort) {
	hostR, boardW := io.Pipe()
	boardR, hostW := io.Pipe()

	b := &simBoard{
		mon: core.NewSystemMonitor(),
		drv: &boardDriver{port: &pipePort{r: boardR, w: boardW}},
	}
	registry := core.NewCommandRegistry()
	core.RegisterCommands(registry, core.Handlers{Sequences: core.NewSequenceMailbox(b.mon)})
	b.engine = core.NewFrameLink(core.LinkConfig{Name: layout.Name, TimeoutMS: 1000, LostAtStart: true},
		b.drv, core.NewDispatcher(layout, registry, b.mon), core.SystemClock{}, core.ConnLostWatcher{Monitor: b.mon})
	b.engine.StartReceive()

	b.wg.Add(1)
	go b.run(layout.Size())
	t.Cleanup(func() {
		b.drv.port.Close()
		b.wg.Wait()
	})

	return b, &pipePort{r: hostR, w: hostW}
}

func (b *simBoard) run(size int) {
	defer b.wg.Done()
	for {
		if _, err := io.ReadFull(b.drv.port, b.drv.rx[:size]); err != nil {
			return
		}
		b.engine.OnFrame(uint32(size))
		b.engine.Poll()
		if b.drv.pending != nil {
			if _, err := b.drv.port.Write(b.drv.pending); err != nil {
				return
			}
			b.drv.pending = nil
			b.engine.OnTransmitComplete()
		}
	}
}

func TestBoardSend(t *testing.T) {
	_, port := newSimBoard(t, protocol.LayoutWired)

	client := New(protocol.LayoutWired)
	client.Attach(port)
	defer client.Close()

	reply, err := client.Send(protocol.CmdUp)
	require.NoError(t, err)
	require.Equal(t, uint16(1), reply.FrameNumber)
	require.Equal(t, protocol.CmdUp, reply.Response.Command)

	status := DecodeStatus(reply.Response)
	require.Equal(t, []string{"calibration", "conn_lost"}, status.Errors)
	require.Empty(t, status.Modules)

	reply, err = client.Send(protocol.CmdDown)
	require.NoError(t, err)
	require.Equal(t, uint16(2), reply.FrameNumber)
	require.Equal(t, []string{"calibration"}, DecodeStatus(reply.Response).Errors)
}

func TestBoardSendRejected(t *testing.T) {
	sim, port := newSimBoard(t, protocol.LayoutWireless)
	sim.mon.DisableModule(core.ModuleMotionCore)

	client := New(protocol.LayoutWireless)
	client.Attach(port)
	defer client.Close()

	reply, err := client.Send(protocol.CmdDance)
	require.Error(t, err)
	require.NotNil(t, reply)
	require.Equal(t, protocol.StatusError, reply.Response.CommandStatus)
	require.Equal(t, []string{"motion_core"}, DecodeStatus(reply.Response).Modules)
	require.Equal(t, uint16(core.InitialBatteryMV), reply.Response.BatteryVoltage)
}

func TestBoardSendUnanswered(t *testing.T) {
	_, port := newSimBoard(t, protocol.LayoutWired)

	client := New(protocol.LayoutWired)
	client.Timeout = 30 * time.Millisecond
	client.Retries = 2
	client.Attach(port)
	defer client.Close()

	_, err := client.Send(protocol.Command(0x77))
	require.ErrorIs(t, err, link.ErrReplyTimeout)

	sent, replies, _ := client.Stats()
	require.Equal(t, uint32(3), sent)
	require.Zero(t, replies)
}

func TestBoardPoll(t *testing.T) {
	_, port := newSimBoard(t, protocol.LayoutWired)

	client := New(protocol.LayoutWired)
	client.Attach(port)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var replies int
	err := client.Poll(ctx, protocol.CmdNone, 5*time.Millisecond, func(r *link.Reply, err error) {
		require.NoError(t, err)
		replies++
		if replies == 3 {
			cancel()
		}
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 3, replies)
}

func TestBoardNotConnected(t *testing.T) {
	client := New(protocol.LayoutWired)
	_, err := client.Send(protocol.CmdUp)
	require.ErrorIs(t, err, ErrNotConnected)
	require.NoError(t, client.Close())
}
