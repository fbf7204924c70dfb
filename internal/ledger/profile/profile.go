// Package profile loads the network profile describing how to reach the
// ledger network.
//
// The profile uses the Fabric "common connection profile" layout and may
// be JSON or YAML. It is loaded once at startup and never mutated, so a
// *Profile is safe for unsynchronized concurrent reads.
package profile

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile errors.
var (
	ErrNoPeers        = errors.New("profile: no peers defined")
	ErrPeerNotFound   = errors.New("profile: peer not found")
	ErrNoOrganization = errors.New("profile: client organization not defined")
)

// Organization is one member organization of the network.
type Organization struct {
	Name  string
	MSPID string
	Peers []string
}

// Peer is one peer endpoint.
type Peer struct {
	Name string
	URL  string

	// TLSCACert holds the PEM trust roots for the peer's TLS certificate.
	TLSCACert []byte

	// HostnameOverride replaces the TLS server name when set.
	HostnameOverride string
}

// Endpoint returns the host:port part of the peer URL.
func (p Peer) Endpoint() string {
	if u, err := url.Parse(p.URL); err == nil && u.Host != "" {
		return u.Host
	}
	return p.URL
}

// TLS reports whether the peer is reached over TLS (grpcs:// or https://).
func (p Peer) TLS() bool {
	scheme := strings.ToLower(strings.SplitN(p.URL, "://", 2)[0])
	return scheme == "grpcs" || scheme == "https"
}

// ServerName returns the name to verify the peer's TLS certificate against.
func (p Peer) ServerName() string {
	if p.HostnameOverride != "" {
		return p.HostnameOverride
	}
	host := p.Endpoint()
	if h, _, ok := strings.Cut(host, ":"); ok {
		return h
	}
	return host
}

// Profile is an immutable network profile.
type Profile struct {
	name      string
	version   string
	clientOrg string
	orgs      map[string]Organization
	peers     map[string]Peer
}

// Name returns the profile name.
func (p *Profile) Name() string { return p.name }

// Version returns the profile version string.
func (p *Profile) Version() string { return p.version }

// ClientOrganization returns the organization the gateway acts for.
func (p *Profile) ClientOrganization() (Organization, error) {
	org, ok := p.orgs[p.clientOrg]
	if !ok {
		return Organization{}, ErrNoOrganization
	}
	return cloneOrg(org), nil
}

// Organization returns a member organization by name.
func (p *Profile) Organization(name string) (Organization, bool) {
	org, ok := p.orgs[name]
	return cloneOrg(org), ok
}

// Peer returns a peer by name.
func (p *Profile) Peer(name string) (Peer, bool) {
	peer, ok := p.peers[name]
	return clonePeer(peer), ok
}

// Peers returns all peers sorted by name.
func (p *Profile) Peers() []Peer {
	names := make([]string, 0, len(p.peers))
	for name := range p.peers {
		names = append(names, name)
	}
	sort.Strings(names)

	peers := make([]Peer, 0, len(names))
	for _, name := range names {
		peers = append(peers, clonePeer(p.peers[name]))
	}
	return peers
}

// GatewayPeer picks the peer that hosts the gateway service.
//
// A non-empty preferred name must exist. Otherwise the first peer listed
// by the client organization is used, falling back to the first peer by
// name.
func (p *Profile) GatewayPeer(preferred string) (Peer, error) {
	if preferred != "" {
		peer, ok := p.peers[preferred]
		if !ok {
			return Peer{}, fmt.Errorf("%w: %s", ErrPeerNotFound, preferred)
		}
		return clonePeer(peer), nil
	}

	if org, ok := p.orgs[p.clientOrg]; ok {
		for _, name := range org.Peers {
			if peer, ok := p.peers[name]; ok {
				return clonePeer(peer), nil
			}
		}
	}

	peers := p.Peers()
	if len(peers) == 0 {
		return Peer{}, ErrNoPeers
	}
	return peers[0], nil
}

// Load reads and parses a profile file. Relative TLS certificate paths
// are resolved against the profile's directory.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: read %s: %w", path, err)
	}

	p, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("profile: %s: %w", path, err)
	}
	return p, nil
}

// rawProfile mirrors the connection profile document.
type rawProfile struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Client  struct {
		Organization string `yaml:"organization"`
	} `yaml:"client"`
	Organizations map[string]struct {
		MSPID string   `yaml:"mspid"`
		Peers []string `yaml:"peers"`
	} `yaml:"organizations"`
	Peers map[string]struct {
		URL        string `yaml:"url"`
		TLSCACerts struct {
			PEM  string `yaml:"pem"`
			Path string `yaml:"path"`
		} `yaml:"tlsCACerts"`
		GRPCOptions map[string]any `yaml:"grpcOptions"`
	} `yaml:"peers"`
}

// Parse parses a JSON or YAML profile document.
func Parse(data []byte, baseDir string) (*Profile, error) {
	var raw rawProfile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	if len(raw.Peers) == 0 {
		return nil, ErrNoPeers
	}

	p := &Profile{
		name:      raw.Name,
		version:   raw.Version,
		clientOrg: raw.Client.Organization,
		orgs:      make(map[string]Organization, len(raw.Organizations)),
		peers:     make(map[string]Peer, len(raw.Peers)),
	}

	for name, org := range raw.Organizations {
		p.orgs[name] = Organization{
			Name:  name,
			MSPID: org.MSPID,
			Peers: append([]string(nil), org.Peers...),
		}
	}

	for name, rp := range raw.Peers {
		if rp.URL == "" {
			return nil, fmt.Errorf("peer %s: url is required", name)
		}

		peer := Peer{
			Name:             name,
			URL:              rp.URL,
			HostnameOverride: grpcOption(rp.GRPCOptions, "hostnameOverride", "ssl-target-name-override"),
		}

		switch {
		case rp.TLSCACerts.PEM != "":
			peer.TLSCACert = []byte(rp.TLSCACerts.PEM)
		case rp.TLSCACerts.Path != "":
			certPath := rp.TLSCACerts.Path
			if !filepath.IsAbs(certPath) && baseDir != "" {
				certPath = filepath.Join(baseDir, certPath)
			}
			pem, err := os.ReadFile(certPath)
			if err != nil {
				return nil, fmt.Errorf("peer %s: read tls ca: %w", name, err)
			}
			peer.TLSCACert = pem
		}

		if peer.TLS() && len(peer.TLSCACert) == 0 {
			return nil, fmt.Errorf("peer %s: tlsCACerts required for %s", name, peer.URL)
		}

		p.peers[name] = peer
	}

	if p.clientOrg != "" {
		if _, ok := p.orgs[p.clientOrg]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoOrganization, p.clientOrg)
		}
	}

	return p, nil
}

func grpcOption(opts map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := opts[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func cloneOrg(org Organization) Organization {
	org.Peers = append([]string(nil), org.Peers...)
	return org
}

func clonePeer(peer Peer) Peer {
	peer.TLSCACert = append([]byte(nil), peer.TLSCACert...)
	return peer
}
