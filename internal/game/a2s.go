// Package game provides functionality to query game servers using the Source Engine Query (A2S) protocol.
package game

import (
	"net"

	"github.com/woozymasta/a2s/pkg/a2s"
	"github.com/woozymasta/nadir/internal/config"
	"github.com/woozymasta/nadir/internal/models"
)

// Status is the outcome of probing a registered server.
type Status struct {
	Name       string
	Map        string
	Players    int
	MaxPlayers int
	Reachable  bool
}

// QueryServer connects to a game server via UDP and requests A2S_INFO.
// It returns server details (such as name, map, players) or an error if the server is unreachable.
func QueryServer(ip string, port int, options config.A2S) (*a2s.Info, error) {
	client, err := a2s.New(ip, port)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()

	client.BufferSize = options.BufferSize
	client.Timeout = options.Timeout

	return client.GetInfo()
}

// Probe queries a stored server and reports whether it answered.
// Servers without a routable IPv4 address are reported unreachable without a query.
func Probe(srv models.Server, options config.A2S) (Status, error) {
	ip := net.ParseIP(srv.Address)
	if ip == nil || ip.To4() == nil || srv.Port <= 0 || srv.Port > 65535 {
		return Status{}, nil
	}

	info, err := QueryServer(srv.Address, srv.Port, options)
	if err != nil {
		return Status{}, err
	}

	return Status{
		Reachable:  true,
		Name:       info.Name,
		Map:        info.Map,
		Players:    int(info.Players),
		MaxPlayers: int(info.MaxPlayers),
	}, nil
}
