package fabric

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hyperledger/fabric-gateway/pkg/client"
	"github.com/hyperledger/fabric-gateway/pkg/hash"
	"github.com/hyperledger/fabric-gateway/pkg/identity"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/yndnr/assetgw-go/internal/core/domain"
	"github.com/yndnr/assetgw-go/internal/infra/tlsroots"
	"github.com/yndnr/assetgw-go/internal/ledger/connmgr"
	"github.com/yndnr/assetgw-go/internal/ledger/profile"
	"github.com/yndnr/assetgw-go/internal/ledger/wallet"
)

// Timeouts bounds the individual gateway calls.
type Timeouts struct {
	Dial         time.Duration
	Evaluate     time.Duration
	Endorse      time.Duration
	Submit       time.Duration
	CommitStatus time.Duration
}

// DefaultTimeouts returns the Fabric sample defaults.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Dial:         10 * time.Second,
		Evaluate:     5 * time.Second,
		Endorse:      15 * time.Second,
		Submit:       5 * time.Second,
		CommitStatus: time.Minute,
	}
}

// Config configures a Dialer.
type Config struct {
	Profile *profile.Profile

	// Peer names the gateway peer. Empty selects the client
	// organization's first peer.
	Peer string

	Timeouts Timeouts
	Logger   *slog.Logger
}

// Dialer opens Fabric gateway sessions.
type Dialer struct {
	profile  *profile.Profile
	peer     string
	timeouts Timeouts
	logger   *slog.Logger
}

var _ connmgr.Dialer = (*Dialer)(nil)

// NewDialer validates cfg and creates a Dialer.
func NewDialer(cfg Config) (*Dialer, error) {
	if cfg.Profile == nil {
		return nil, fmt.Errorf("fabric: network profile is required")
	}
	if _, err := cfg.Profile.GatewayPeer(cfg.Peer); err != nil {
		return nil, fmt.Errorf("fabric: %w", err)
	}

	def := DefaultTimeouts()
	t := cfg.Timeouts
	if t.Dial <= 0 {
		t.Dial = def.Dial
	}
	if t.Evaluate <= 0 {
		t.Evaluate = def.Evaluate
	}
	if t.Endorse <= 0 {
		t.Endorse = def.Endorse
	}
	if t.Submit <= 0 {
		t.Submit = def.Submit
	}
	if t.CommitStatus <= 0 {
		t.CommitStatus = def.CommitStatus
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Dialer{
		profile:  cfg.Profile,
		peer:     cfg.Peer,
		timeouts: t,
		logger:   logger,
	}, nil
}

// Dial connects to the gateway peer as cred.
func (d *Dialer) Dial(ctx context.Context, cred *wallet.Credential) (connmgr.Session, error) {
	id, sign, err := signer(cred)
	if err != nil {
		return nil, err
	}

	peer, err := d.profile.GatewayPeer(d.peer)
	if err != nil {
		return nil, domain.ErrChannelUnreachable.WithDetails("no gateway peer configured").WithCause(err)
	}

	transport, err := transportCredentials(peer)
	if err != nil {
		return nil, domain.ErrChannelUnreachable.WithDetailsf("peer %s", peer.Name).WithCause(err)
	}

	conn, err := grpc.NewClient(peer.Endpoint(), grpc.WithTransportCredentials(transport))
	if err != nil {
		return nil, domain.ErrChannelUnreachable.WithDetailsf("peer %s", peer.Name).WithCause(err)
	}

	if err := waitReady(ctx, conn, d.timeouts.Dial); err != nil {
		_ = conn.Close()
		return nil, domain.ErrChannelUnreachable.
			WithDetailsf("peer %s at %s not reachable", peer.Name, peer.Endpoint()).
			WithCause(err)
	}

	gw, err := client.Connect(id,
		client.WithSign(sign),
		client.WithHash(hash.SHA256),
		client.WithClientConnection(conn),
		client.WithEvaluateTimeout(d.timeouts.Evaluate),
		client.WithEndorseTimeout(d.timeouts.Endorse),
		client.WithSubmitTimeout(d.timeouts.Submit),
		client.WithCommitStatusTimeout(d.timeouts.CommitStatus),
	)
	if err != nil {
		_ = conn.Close()
		return nil, domain.ErrChannelUnreachable.WithDetailsf("peer %s", peer.Name).WithCause(err)
	}

	d.logger.Debug("fabric gateway connected",
		"peer", peer.Name,
		"endpoint", peer.Endpoint(),
		"identity", cred.Label,
		"msp_id", cred.MSPID)

	return newSession(conn, gw), nil
}

func signer(cred *wallet.Credential) (*identity.X509Identity, identity.Sign, error) {
	cert, err := identity.CertificateFromPEM(cred.Certificate)
	if err != nil {
		return nil, nil, invalidIdentity(cred, "certificate", err)
	}
	id, err := identity.NewX509Identity(cred.MSPID, cert)
	if err != nil {
		return nil, nil, invalidIdentity(cred, "identity", err)
	}

	key, err := identity.PrivateKeyFromPEM(cred.PrivateKey)
	if err != nil {
		return nil, nil, invalidIdentity(cred, "private key", err)
	}
	sign, err := identity.NewPrivateKeySign(key)
	if err != nil {
		return nil, nil, invalidIdentity(cred, "private key", err)
	}
	return id, sign, nil
}

func invalidIdentity(cred *wallet.Credential, what string, err error) error {
	return domain.ErrIdentityInvalid.WithDetailsf("identity %q: bad %s", cred.Label, what).WithCause(err)
}

func transportCredentials(peer profile.Peer) (credentials.TransportCredentials, error) {
	if !peer.TLS() {
		return insecure.NewCredentials(), nil
	}

	roots := tlsroots.NewEmptyPool()
	if err := roots.AddCertPEM(peer.TLSCACert); err != nil {
		return nil, err
	}
	return credentials.NewTLS(roots.ClientTLSConfig(peer.ServerName())), nil
}

// waitReady blocks until conn is READY, the timeout passes or ctx ends.
func waitReady(ctx context.Context, conn *grpc.ClientConn, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn.Connect()
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return fmt.Errorf("connection shut down")
		}
		if !conn.WaitForStateChange(ctx, state) {
			return fmt.Errorf("last state %s: %w", state, ctx.Err())
		}
	}
}
