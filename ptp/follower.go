package ptp

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/omtransport/omt/clock"
)

// joinTimeout bounds how long Run waits for the multicast group join
// before giving up (spec §5: "The PTP follower stops after join(2 s)").
const joinTimeout = 2 * time.Second

// Config configures a Follower.
type Config struct {
	// Interface names the network interface to join the PTP multicast
	// group on. Empty selects the system default.
	Interface string
	Domain    uint8
	Clock     *clock.Disciplined
	Servo     *Servo
	Logger    *slog.Logger
}

// Follower is a background PTP client that disciplines a clock.Disciplined
// from Sync/FollowUp/DelayReq/DelayResp exchanges with a master clock.
//
// The epoch baseline is latched from the first completed exchange with no
// outlier rejection and never re-established: an outlying first sample
// biases every later drift sample fed to the servo.
type Follower struct {
	cfg    Config
	logger *slog.Logger
	port   [10]byte

	mu sync.Mutex
	ex *exchange
}

// NewFollower constructs a Follower. It derives its port identity from
// the named interface's MAC address, falling back to a random clock ID if
// the interface has none (spec §4.7).
func NewFollower(cfg Config) *Follower {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "ptp.follower", "domain", cfg.Domain)

	port := derivePortIdentity(cfg.Interface)
	f := &Follower{
		cfg:    cfg,
		logger: logger,
		port:   port,
	}
	f.ex = newExchange(cfg.Domain, port)
	return f
}

func derivePortIdentity(ifaceName string) [10]byte {
	if ifaceName != "" {
		if iface, err := net.InterfaceByName(ifaceName); err == nil && len(iface.HardwareAddr) == 6 {
			var mac [6]byte
			copy(mac[:], iface.HardwareAddr)
			return PortIdentity(mac, 1)
		}
	}
	var id [10]byte
	_, _ = rand.Read(id[:8])
	return id
}

// Run joins the PTP multicast group and processes messages until ctx is
// canceled. It returns nil on clean shutdown.
func (f *Follower) Run(ctx context.Context) error {
	group := net.ParseIP(MulticastAddr)

	var iface *net.Interface
	if f.cfg.Interface != "" {
		var err error
		iface, err = net.InterfaceByName(f.cfg.Interface)
		if err != nil {
			return err
		}
	}

	joinCtx, cancelJoin := context.WithTimeout(ctx, joinTimeout)
	defer cancelJoin()

	eventConn, err := joinMulticast(joinCtx, iface, group, EventPort)
	if err != nil {
		return err
	}
	defer eventConn.Close()

	generalConn, err := joinMulticast(joinCtx, iface, group, GeneralPort)
	if err != nil {
		return err
	}
	defer generalConn.Close()

	f.logger.Info("ptp follower joined multicast group", "group", MulticastAddr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return f.readLoop(ctx, eventConn) })
	g.Go(func() error { return f.readLoop(ctx, generalConn) })
	g.Go(func() error {
		<-ctx.Done()
		eventConn.Close()
		generalConn.Close()
		return nil
	})

	err = g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func joinMulticast(ctx context.Context, iface *net.Interface, group net.IP, port int) (*net.UDPConn, error) {
	type result struct {
		conn *net.UDPConn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := net.ListenMulticastUDP("udp4", iface, &net.UDPAddr{IP: group, Port: port})
		ch <- result{conn, err}
	}()
	select {
	case r := <-ch:
		return r.conn, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *Follower) readLoop(ctx context.Context, conn *net.UDPConn) error {
	buf := make([]byte, 1500)
	for {
		if err := conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond)); err != nil {
			return err
		}
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				select {
				case <-ctx.Done():
					return nil
				default:
					continue
				}
			}
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		f.handle(conn, buf[:n])
	}
}

func (f *Follower) handle(conn *net.UDPConn, msg []byte) {
	h, err := ParseHeader(msg)
	if err != nil {
		return
	}
	if h.Domain != f.cfg.Domain {
		return
	}
	body := msg[HeaderLen:]

	f.mu.Lock()
	defer f.mu.Unlock()

	switch h.MessageType {
	case Sync:
		origin, err := ParseOriginTimestamp(body)
		if err != nil && !h.TwoStep {
			return
		}
		localNow := f.localNow100ns()
		f.ex.onSync(h, origin, localNow)
		f.maybeSendDelayReq(conn)

	case FollowUp:
		origin, err := ParseOriginTimestamp(body)
		if err != nil {
			return
		}
		f.ex.onFollowUp(h, origin)
		f.maybeSendDelayReq(conn)

	case DelayResp:
		recvTS, reqPort, err := ParseDelayResp(body)
		if err != nil {
			return
		}
		s, ok := f.ex.onDelayResp(h, reqPort, recvTS)
		if !ok {
			return
		}
		f.applySample(s)

	case Announce:
		// Grandmaster presence only; BMCA selection is out of scope.

	default:
	}
}

func (f *Follower) maybeSendDelayReq(conn *net.UDPConn) {
	if !f.ex.readyForDelayReq() {
		return
	}
	sendTime := f.localNow100ns()
	req := EncodeDelayReq(f.cfg.Domain, f.ex.seq, f.port, sendTime)
	f.ex.recordDelayReqSent(sendTime)

	dst := &net.UDPAddr{IP: net.ParseIP(MulticastAddr), Port: EventPort}
	if _, err := conn.WriteToUDP(req, dst); err != nil {
		f.logger.Warn("failed to send delay request", "error", err)
	}
}

func (f *Follower) applySample(s sample) {
	drift := f.ex.drift(s)
	correctionNs := f.cfg.Servo.Sample(float64(drift) * 100)
	f.logger.Debug("ptp sample",
		"raw_offset_100ns", s.rawOffset,
		"path_delay_100ns", s.pathDelay,
		"drift_100ns", drift,
		"servo_state", f.cfg.Servo.State(),
	)
	if f.cfg.Clock != nil {
		f.cfg.Clock.Apply(int64(correctionNs / 100))
	}
}

func (f *Follower) localNow100ns() int64 {
	if f.cfg.Clock != nil {
		return f.cfg.Clock.Now100ns()
	}
	return time.Now().UnixNano() / 100
}
