package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/zap"

	"github.com/invaen/ricochet/internal/db"
	"github.com/invaen/ricochet/internal/token"
)

// dnsAnswerTTL and dnsAnswerIP are the fixed A-record answer every
// resolvable query receives (§4.6): the listener never resolves a real
// host, it only needs the resolver to have made the query.
const (
	dnsAnswerTTL = 60
	dnsAnswerIP  = "127.0.0.1"
)

// DNSListener answers every A query with a fixed A record (other query
// types get a NOERROR reply with no answers) and records a callback when
// the first label decodes to a valid token, mirroring the HTTP Callback
// Listener's non-enumerating response policy (I4).
type DNSListener struct {
	Store  *db.Store
	Logger *zap.Logger

	udpServer *dns.Server
	tcpServer *dns.Server
}

// NewDNSListener constructs the DNS Callback Listener.
func NewDNSListener(store *db.Store, logger *zap.Logger) *DNSListener {
	return &DNSListener{Store: store, Logger: logger}
}

// Start begins listening for DNS queries on the given UDP and TCP ports.
func (s *DNSListener) Start(udpPort, tcpPort int) error {
	handler := dns.HandlerFunc(s.handleDNS)

	s.udpServer = &dns.Server{Addr: fmt.Sprintf(":%d", udpPort), Net: "udp", Handler: handler}
	s.tcpServer = &dns.Server{Addr: fmt.Sprintf(":%d", tcpPort), Net: "tcp", Handler: handler}

	udpErrCh := make(chan error, 1)
	tcpErrCh := make(chan error, 1)

	go func() {
		s.Logger.Info("starting dns listener", zap.String("net", "udp"), zap.Int("port", udpPort))
		if err := s.udpServer.ListenAndServe(); err != nil {
			udpErrCh <- err
		}
		close(udpErrCh)
	}()

	go func() {
		s.Logger.Info("starting dns listener", zap.String("net", "tcp"), zap.Int("port", tcpPort))
		if err := s.tcpServer.ListenAndServe(); err != nil {
			tcpErrCh <- err
		}
		close(tcpErrCh)
	}()

	timeout := time.After(100 * time.Millisecond)
	for i := 0; i < 2; i++ {
		select {
		case err := <-udpErrCh:
			if err != nil {
				return fmt.Errorf("UDP DNS listener failed to start: %w", err)
			}
		case err := <-tcpErrCh:
			if err != nil {
				return fmt.Errorf("TCP DNS listener failed to start: %w", err)
			}
		case <-timeout:
			return nil
		}
	}
	return nil
}

// Shutdown gracefully stops the DNS listeners.
func (s *DNSListener) Shutdown(ctx context.Context) {
	if s.udpServer != nil {
		if err := s.udpServer.ShutdownContext(ctx); err != nil {
			s.Logger.Warn("dns udp shutdown error", zap.Error(err))
		}
	}
	if s.tcpServer != nil {
		if err := s.tcpServer.ShutdownContext(ctx); err != nil {
			s.Logger.Warn("dns tcp shutdown error", zap.Error(err))
		}
	}
}

func (s *DNSListener) handleDNS(w dns.ResponseWriter, r *dns.Msg) {
	m := new(dns.Msg)
	m.SetReply(r)
	m.Authoritative = true

	remoteIP := remoteHost(w.RemoteAddr())

	for _, q := range r.Question {
		tok, ok := extractTokenFromQName(q.Name)
		if ok {
			s.recordCallback(tok, remoteIP, q.Name, q.Qtype)
		} else {
			s.Logger.Debug("dns query without valid token", zap.String("qname", q.Name))
		}

		if q.Qtype != dns.TypeA {
			// NOERROR with zero answers for anything but A queries (§4.6).
			continue
		}

		rr := &dns.A{
			Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: dnsAnswerTTL},
			A:   net.ParseIP(dnsAnswerIP),
		}
		m.Answer = append(m.Answer, rr)
	}

	if err := w.WriteMsg(m); err != nil {
		s.Logger.Debug("failed to write dns response", zap.Error(err))
	}
}

// recordCallback stores the full qname behind a "DNS:" prefix as the
// request path, distinguishing DNS callbacks from HTTP ones in shared
// findings output (§4.6), with the numeric query type recorded as
// metadata the way the HTTP listener records its headers.
func (s *DNSListener) recordCallback(tok, sourceIP, qname string, qtype uint16) {
	path := "DNS:" + qname
	metadataJSON, _ := json.Marshal(map[string]uint16{"qtype": qtype})

	recorded, err := s.Store.RecordCallback(tok, sourceIP, path, string(metadataJSON), nil, float64(time.Now().UnixNano())/1e9)
	switch {
	case err != nil:
		s.Logger.Error("record dns callback failed", zap.Error(err))
	case recorded:
		s.Logger.Info("dns callback received", zap.String("token", tok), zap.String("source_ip", sourceIP), zap.String("qname", qname))
	default:
		s.Logger.Warn("unknown token dns callback", zap.String("token", tok), zap.String("source_ip", sourceIP))
	}
}

// extractTokenFromQName lowercases the first label of the query name and
// validates it against I1. Unlike the HTTP listener's path extraction,
// the DNS listener explicitly lowercases before validating (§4.6): DNS
// resolvers and stub caches routinely alter query-name case in transit
// (0x20 encoding, case randomization), so token comparison here is
// case-insensitive by contract instead of by accident.
func extractTokenFromQName(qname string) (string, bool) {
	name := strings.TrimSuffix(qname, ".")
	if name == "" {
		return "", false
	}
	labels := strings.SplitN(name, ".", 2)
	candidate := strings.ToLower(labels[0])
	if !token.Valid(candidate) {
		return "", false
	}
	return candidate, true
}

func remoteHost(addr net.Addr) string {
	switch a := addr.(type) {
	case *net.UDPAddr:
		return a.IP.String()
	case *net.TCPAddr:
		return a.IP.String()
	default:
		return addr.String()
	}
}
